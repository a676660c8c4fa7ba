package components

import (
	"slot-reservation/internal/infra/readstore"
	"slot-reservation/internal/infra/repository"
	"slot-reservation/internal/usecase/queries"
	"slot-reservation/internal/usecase/shared"

	"go.uber.org/fx"
)

var StoreModule = fx.Module("store",
	repositoryModule,
	readstoreModule,
)

var repositoryModule = fx.Module("store/repository",
	fx.Provide(
		fx.Annotate(
			repository.NewSlotRepository,
			fx.As(new(shared.SlotStore)),
		),
		fx.Annotate(
			repository.NewBookingRepository,
			fx.As(new(shared.BookingStore)),
		),
	),
)

var readstoreModule = fx.Module("store/readstore",
	fx.Provide(
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
		fx.Annotate(
			readstore.NewSlotReadStore,
			fx.As(new(queries.SlotReadStore)),
		),
	),
)
