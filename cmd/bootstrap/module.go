package bootstrap

import (
	"slot-reservation/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	QueueModule,
	EventsModule,
	components.StoreModule,
	components.UseCaseModule,
	components.HandlerModule,
	WorkerModule,
)
