package usecase

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/omniores3/pythonGroupTools/config"
	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/metrics"
)

// Module provides the usecase layer for fx DI
var Module = fx.Module("usecase",
	fx.Provide(
		NewPushService,
		func(s *PushService) domain.Pusher { return s },
		NewAccountService,
		NewDataService,
		NewBatchService,
		newTaskRunnerFx,
	),
)

func newTaskRunnerFx(
	taskRepo domain.TaskRepository,
	store domain.CollectionStore,
	sessions domain.SessionRegistry,
	pusher domain.Pusher,
	publisher domain.EventPublisher,
	cfg *config.TaskConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *TaskRunner {
	return NewTaskRunner(TaskRunnerParams{
		TaskRepo:  taskRepo,
		Store:     store,
		Sessions:  sessions,
		Pusher:    pusher,
		Publisher: publisher,
		Cfg:       cfg,
		Logger:    logger,
		Metrics:   m,
	})
}
