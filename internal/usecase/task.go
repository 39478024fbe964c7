package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omniores3/pythonGroupTools/config"
	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/metrics"
	"github.com/omniores3/pythonGroupTools/pkg/extract"
	"github.com/omniores3/pythonGroupTools/pkg/filter"
)

// execution tracks one running task goroutine
type execution struct {
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool // Stop() was called; the goroutine must not overwrite the status

	mu        sync.Mutex
	listening bool
	listeners []domain.ListenerHandle
}

// addListener records a live listener owned by this execution
func (e *execution) addListener(h domain.ListenerHandle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, h)
	e.listening = true
}

// closeListeners tears down all live listeners owned by this execution
func (e *execution) closeListeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := len(e.listeners)
	for _, h := range e.listeners {
		h.Close()
	}
	e.listeners = nil
	e.listening = false
	return count
}

func (e *execution) isListening() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listening
}

// TaskRunner drives the collection task state machine: pending tasks
// are started into their own goroutine, run one of the two pipelines,
// and land in a terminal status. At most one execution per task exists
// at any time.
type TaskRunner struct {
	taskRepo  domain.TaskRepository
	store     domain.CollectionStore
	sessions  domain.SessionRegistry
	pusher    domain.Pusher
	publisher domain.EventPublisher // may be nil
	cfg       *config.TaskConfig
	logger    zerolog.Logger
	metrics   *metrics.Metrics

	mu      sync.Mutex
	running map[uint]*execution
}

// TaskRunnerParams collects the runner's dependencies
type TaskRunnerParams struct {
	TaskRepo  domain.TaskRepository
	Store     domain.CollectionStore
	Sessions  domain.SessionRegistry
	Pusher    domain.Pusher
	Publisher domain.EventPublisher
	Cfg       *config.TaskConfig
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

// NewTaskRunner creates a new task runner
func NewTaskRunner(p TaskRunnerParams) *TaskRunner {
	return &TaskRunner{
		taskRepo:  p.TaskRepo,
		store:     p.Store,
		sessions:  p.Sessions,
		pusher:    p.Pusher,
		publisher: p.Publisher,
		cfg:       p.Cfg,
		logger:    p.Logger.With().Str("component", "task_runner").Logger(),
		metrics:   p.Metrics,
		running:   make(map[uint]*execution),
	}
}

// CreateTask validates and persists a new task definition
func (r *TaskRunner) CreateTask(ctx context.Context, task *domain.Task) error {
	if task.Name == "" {
		return fmt.Errorf("%w: task name is required", domain.ErrInvalidTask)
	}
	switch task.TaskType {
	case domain.TaskTypeBotSearch:
		if task.BotUsername == "" {
			return fmt.Errorf("%w: bot_username is required for bot_search tasks", domain.ErrInvalidTask)
		}
		if len(task.SearchKeywords) == 0 {
			return fmt.Errorf("%w: search_keywords are required for bot_search tasks", domain.ErrInvalidTask)
		}
	case domain.TaskTypeDirectCollect:
		if len(task.TargetGroups) == 0 {
			return fmt.Errorf("%w: target_groups are required for direct_collect tasks", domain.ErrInvalidTask)
		}
	default:
		return fmt.Errorf("%w: unknown task type %q", domain.ErrInvalidTask, task.TaskType)
	}
	if task.CollectMode == "" {
		task.CollectMode = domain.CollectModeBoth
	}
	task.Status = domain.TaskStatusPending
	return r.taskRepo.Create(ctx, task)
}

// GetTask returns one task definition
func (r *TaskRunner) GetTask(ctx context.Context, taskID uint) (*domain.Task, error) {
	return r.taskRepo.GetByID(ctx, taskID)
}

// ListTasks returns task definitions, newest first
func (r *TaskRunner) ListTasks(ctx context.Context, page, pageSize int) ([]domain.Task, int64, error) {
	return r.taskRepo.List(ctx, page, pageSize)
}

// UpdateTask replaces a task definition; rejected while the task runs
func (r *TaskRunner) UpdateTask(ctx context.Context, task *domain.Task) error {
	if r.IsRunning(task.ID) {
		return domain.ErrTaskRunning
	}
	return r.taskRepo.Update(ctx, task)
}

// DeleteTask removes a task definition; rejected while the task runs
func (r *TaskRunner) DeleteTask(ctx context.Context, taskID uint) error {
	if r.IsRunning(taskID) {
		return domain.ErrTaskRunning
	}
	return r.taskRepo.Delete(ctx, taskID)
}

// Start launches the task's pipeline in its own goroutine. A task that
// already has a live execution cannot be started again.
func (r *TaskRunner) Start(ctx context.Context, taskID uint) error {
	task, err := r.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if _, exists := r.running[taskID]; exists {
		r.mu.Unlock()
		return domain.ErrTaskAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(context.Background())
	exec := &execution{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.running[taskID] = exec
	r.mu.Unlock()

	if err := r.taskRepo.UpdateStatus(ctx, taskID, domain.TaskStatusRunning); err != nil {
		r.removeExecution(taskID)
		cancel()
		return err
	}

	runID := uuid.NewString()
	log := r.logger.With().
		Uint("task_id", taskID).
		Str("task_type", string(task.TaskType)).
		Str("run_id", runID).
		Logger()

	r.metrics.RecordTaskStarted(string(task.TaskType))
	log.Info().Str("task_name", task.Name).Msg("task started")

	go r.run(runCtx, exec, task, log)
	return nil
}

// run executes one pipeline and writes the terminal status
func (r *TaskRunner) run(ctx context.Context, exec *execution, task *domain.Task, log zerolog.Logger) {
	defer close(exec.done)
	start := time.Now()

	var err error
	switch task.TaskType {
	case domain.TaskTypeBotSearch:
		err = r.runBotSearch(ctx, task, log)
	case domain.TaskTypeDirectCollect:
		err = r.runDirectCollect(ctx, exec, task, log)
	default:
		err = fmt.Errorf("unknown task type: %s", task.TaskType)
	}

	// A direct_collect run that installed live listeners is completed
	// as far as backfill goes but keeps its execution alive until Stop
	if err == nil && exec.isListening() {
		if statusErr := r.setStatusUnlessStopped(task.ID, exec, domain.TaskStatusCompleted); statusErr != nil {
			log.Error().Err(statusErr).Msg("failed to update task status")
		}
		log.Info().Msg("backfill completed, listening for live messages")
		<-ctx.Done()
	}

	closed := exec.closeListeners()
	if closed > 0 {
		r.metrics.UpdateActiveListeners(r.countListeners())
	}
	r.removeExecution(task.ID)

	r.mu.Lock()
	stopped := exec.stopped
	r.mu.Unlock()

	status := domain.TaskStatusCompleted
	switch {
	case stopped || (err != nil && errors.Is(err, context.Canceled)):
		// Stop() already wrote the stopped status
		status = domain.TaskStatusStopped
	case err != nil:
		status = domain.TaskStatusFailed
		log.Error().Err(err).Msg("task failed")
	}

	if statusErr := r.setStatusUnlessStopped(task.ID, exec, status); statusErr != nil {
		log.Error().Err(statusErr).Msg("failed to update task status")
	}

	r.metrics.RecordTaskFinished(string(task.TaskType), string(status), time.Since(start).Seconds())
	log.Info().Str("status", string(status)).Msg("task finished")
}

// setStatusUnlessStopped writes the status unless Stop already marked
// the task stopped
func (r *TaskRunner) setStatusUnlessStopped(taskID uint, exec *execution, status domain.TaskStatus) error {
	r.mu.Lock()
	stopped := exec.stopped
	r.mu.Unlock()
	if stopped {
		return nil
	}
	return r.taskRepo.UpdateStatus(context.Background(), taskID, status)
}

// Stop cancels a running task. The status flips to stopped immediately;
// the pipeline goroutine observes the cancelled context at its next
// checkpoint. Live listeners installed by the task are torn down.
func (r *TaskRunner) Stop(ctx context.Context, taskID uint) error {
	r.mu.Lock()
	exec, exists := r.running[taskID]
	if exists {
		exec.stopped = true
	}
	r.mu.Unlock()

	if !exists {
		return domain.ErrTaskNotRunning
	}

	if err := r.taskRepo.UpdateStatus(ctx, taskID, domain.TaskStatusStopped); err != nil {
		return err
	}

	exec.closeListeners()
	r.metrics.UpdateActiveListeners(r.countListeners())
	exec.cancel()

	r.logger.Info().Uint("task_id", taskID).Msg("task stopped")
	return nil
}

// Status reports the task's persisted status plus live execution state
func (r *TaskRunner) Status(ctx context.Context, taskID uint) (*domain.TaskRunState, error) {
	task, err := r.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	exec, running := r.running[taskID]
	r.mu.Unlock()

	state := &domain.TaskRunState{
		TaskID:    taskID,
		Status:    task.Status,
		IsRunning: running,
	}
	if running {
		state.Listening = exec.isListening()
	}
	return state, nil
}

// IsRunning reports whether the task has a live execution
func (r *TaskRunner) IsRunning(taskID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.running[taskID]
	return exists
}

// StopAll cancels every running task; used during shutdown
func (r *TaskRunner) StopAll(ctx context.Context) {
	r.mu.Lock()
	ids := make([]uint, 0, len(r.running))
	for id := range r.running {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		if err := r.Stop(ctx, id); err != nil && !errors.Is(err, domain.ErrTaskNotRunning) {
			r.logger.Warn().Err(err).Uint("task_id", id).Msg("failed to stop task during shutdown")
		}
	}
}

func (r *TaskRunner) removeExecution(taskID uint) {
	r.mu.Lock()
	delete(r.running, taskID)
	r.mu.Unlock()
}

// countListeners sums live listeners across executions; callers must
// not hold r.mu
func (r *TaskRunner) countListeners() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, exec := range r.running {
		exec.mu.Lock()
		count += len(exec.listeners)
		exec.mu.Unlock()
	}
	return count
}

// runBotSearch drives the bot-assisted discovery pipeline: send each
// keyword to the search bot, read its replies, extract group links,
// filter and persist the groups.
func (r *TaskRunner) runBotSearch(ctx context.Context, task *domain.Task, log zerolog.Logger) error {
	if task.BotUsername == "" {
		return fmt.Errorf("bot_search task has no bot username")
	}
	if len(task.SearchKeywords) == 0 {
		return fmt.Errorf("bot_search task has no keywords")
	}

	client, err := r.sessions.Acquire(ctx, task.AccountID)
	if err != nil {
		return fmt.Errorf("failed to acquire session: %w", err)
	}

	groupFilter := filter.New(task.GroupRegex, log)

	// Links are accumulated across all keywords and deduplicated before
	// resolution, so a group surfaced by several keywords is resolved once.
	seen := make(map[string]struct{})
	var links []string
	for _, keyword := range task.SearchKeywords {
		if err := ctx.Err(); err != nil {
			return err
		}

		log.Debug().Str("keyword", keyword).Msg("querying bot")
		texts, err := r.queryBot(ctx, client, task, keyword)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Str("keyword", keyword).Msg("bot query failed, skipping keyword")
			continue
		}

		for _, link := range extract.GroupLinks(texts) {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}
	log.Debug().Int("links", len(links)).Msg("links extracted")

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !groupFilter.Match(link) {
			log.Debug().Str("link", link).Msg("link rejected by filter")
			continue
		}
		r.discoverGroup(ctx, client, task, link, log)
	}

	return nil
}

// queryBot sends one keyword to the bot and collects the reply texts,
// paging with the configured "next" button when the task asks for it
func (r *TaskRunner) queryBot(ctx context.Context, client domain.TelegramClient, task *domain.Task, keyword string) ([]string, error) {
	if err := client.SendText(ctx, task.BotUsername, keyword); err != nil {
		return nil, err
	}
	if err := r.settle(ctx); err != nil {
		return nil, err
	}

	replies, err := client.FetchRecent(ctx, task.BotUsername, r.cfg.BotReplyLimit)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(replies))
	seen := make(map[int64]struct{}, len(replies))
	for _, reply := range replies {
		texts = append(texts, reply.Text)
		seen[reply.MessageID] = struct{}{}
	}

	if task.PaginationConfig == nil || task.PaginationConfig.NextButtonText == "" {
		return texts, nil
	}

	maxPages := task.PaginationConfig.MaxPages
	if maxPages <= 0 || maxPages > r.cfg.MaxPages {
		maxPages = r.cfg.MaxPages
	}

	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return texts, err
		}

		if err := client.SendText(ctx, task.BotUsername, task.PaginationConfig.NextButtonText); err != nil {
			break
		}
		if err := r.settle(ctx); err != nil {
			return texts, err
		}

		replies, err := client.FetchRecent(ctx, task.BotUsername, r.cfg.BotReplyLimit)
		if err != nil {
			break
		}

		fresh := 0
		for _, reply := range replies {
			if _, ok := seen[reply.MessageID]; ok {
				continue
			}
			seen[reply.MessageID] = struct{}{}
			texts = append(texts, reply.Text)
			fresh++
		}
		if fresh == 0 {
			break
		}
	}

	return texts, nil
}

// settle waits for the bot to answer before reading its dialog
func (r *TaskRunner) settle(ctx context.Context) error {
	select {
	case <-time.After(r.cfg.BotSettleDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// discoverGroup joins one extracted link and persists the group.
// Failures are contained per link.
func (r *TaskRunner) discoverGroup(ctx context.Context, client domain.TelegramClient, task *domain.Task, link string, log zerolog.Logger) {
	info, err := client.Join(ctx, link)
	if err != nil {
		log.Debug().Err(err).Str("link", link).Msg("failed to join group")
		return
	}
	if info.TelegramID == 0 {
		log.Debug().Str("link", link).Msg("link resolved without numeric ID, skipping")
		return
	}

	group := &domain.Group{
		TaskID:      task.ID,
		TelegramID:  info.TelegramID,
		Title:       info.Title,
		Username:    info.Username,
		Description: info.Description,
		MemberCount: info.MemberCount,
	}
	created, err := r.store.CreateGroup(ctx, group)
	if err != nil {
		log.Warn().Err(err).Str("link", link).Msg("failed to store group")
		return
	}
	if created {
		r.metrics.RecordGroupDiscovered()
		log.Info().Str("title", info.Title).Int64("telegram_id", info.TelegramID).Msg("group discovered")
	}
}

// runDirectCollect drives the direct collection pipeline: join each
// target group, backfill its history, and optionally stay subscribed
// to live messages.
func (r *TaskRunner) runDirectCollect(ctx context.Context, exec *execution, task *domain.Task, log zerolog.Logger) error {
	if len(task.TargetGroups) == 0 {
		return fmt.Errorf("direct_collect task has no target groups")
	}

	client, err := r.sessions.Acquire(ctx, task.AccountID)
	if err != nil {
		return fmt.Errorf("failed to acquire session: %w", err)
	}

	msgFilter := filter.New(task.MessageRegex, log)

	historyLimit := task.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = r.cfg.DefaultHistoryLimit
	}

	for _, target := range task.TargetGroups {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := client.Join(ctx, target)
		if err != nil {
			log.Warn().Err(err).Str("target", target).Msg("failed to join group, skipping")
			continue
		}

		group := &domain.Group{
			TaskID:      task.ID,
			TelegramID:  info.TelegramID,
			Title:       info.Title,
			Username:    info.Username,
			Description: info.Description,
			MemberCount: info.MemberCount,
		}
		created, err := r.store.CreateGroup(ctx, group)
		if err != nil {
			log.Warn().Err(err).Str("target", target).Msg("failed to store group")
			continue
		}
		if created {
			r.metrics.RecordGroupDiscovered()
		}

		if task.CollectMode != domain.CollectModeRealtimeOnly {
			if err := r.backfill(ctx, client, task, group, msgFilter, historyLimit, log); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn().Err(err).Str("target", target).Msg("history backfill failed")
			}
		}

		if task.CollectMode != domain.CollectModeHistoryOnly {
			handle, err := client.RegisterMessageHandler(group.TelegramID, func(msg domain.CollectedMessage) {
				// Runs on the update dispatch goroutine; hand off so
				// pushes and DB writes cannot stall the dispatcher
				go r.sink(ctx, task, group, msg, msgFilter, log)
			})
			if err != nil {
				log.Warn().Err(err).Str("target", target).Msg("failed to register listener")
				continue
			}
			exec.addListener(handle)
			r.metrics.UpdateActiveListeners(r.countListeners())
			log.Info().Str("target", target).Msg("live listener registered")
		}
	}

	return nil
}

// backfill pages through a group's history and feeds each message to
// the sink, cancelling between messages
func (r *TaskRunner) backfill(ctx context.Context, client domain.TelegramClient, task *domain.Task, group *domain.Group, msgFilter *filter.Filter, limit int, log zerolog.Logger) error {
	messages, err := client.FetchHistory(ctx, group.TelegramID, limit)
	if err != nil {
		return err
	}

	log.Debug().Int64("telegram_id", group.TelegramID).Int("count", len(messages)).Msg("history fetched")

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.sink(ctx, task, group, msg, msgFilter, log)
	}
	return nil
}

// sink is the shared persistence path for backfilled and live
// messages: filter, store idempotently, then fan out to the optional
// event stream and push target for newly created rows only.
func (r *TaskRunner) sink(ctx context.Context, task *domain.Task, group *domain.Group, msg domain.CollectedMessage, msgFilter *filter.Filter, log zerolog.Logger) {
	if ctx.Err() != nil {
		return
	}

	if !msgFilter.Match(msg.Content) {
		r.metrics.RecordMessageFiltered()
		return
	}

	record := &domain.Message{
		GroupID:           group.ID,
		TelegramMessageID: msg.TelegramMessageID,
		SenderID:          msg.SenderID,
		SenderName:        msg.SenderName,
		Content:           msg.Content,
		MediaType:         msg.MediaType,
		MessageDate:       msg.Date,
	}
	created, err := r.store.CreateMessage(ctx, record)
	if err != nil {
		log.Warn().Err(err).Int64("telegram_message_id", msg.TelegramMessageID).Msg("failed to store message")
		return
	}
	if !created {
		return
	}
	r.metrics.RecordMessageCollected()

	if r.publisher != nil {
		if err := r.publisher.PublishMessage(ctx, group, record); err != nil {
			log.Warn().Err(err).Msg("failed to publish message event")
		}
	}

	if task.APIConfig != nil && task.APIConfig.URL != "" {
		r.pusher.Push(ctx, &msg, task.APIConfig, task.ID, record.ID)
	}
}
