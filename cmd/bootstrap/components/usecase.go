package components

import (
	"slot-reservation/internal/pkg/clock"
	"slot-reservation/internal/usecase/commands"
	"slot-reservation/internal/usecase/queries"
	"slot-reservation/internal/usecase/sweep"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewBookingCommands,
		commands.NewBookingMaterializer,
		sweep.NewSweeper,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
		queries.NewSlotQueries,
	),
)
