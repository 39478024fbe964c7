package postgres

import "go.uber.org/fx"

// Module provides gorm-backed repositories for fx DI
var Module = fx.Module("repository",
	fx.Provide(
		NewAccountRepository,
		NewTaskRepository,
		NewCollectionStore,
		NewDeliveryLogRepository,
	),
)
