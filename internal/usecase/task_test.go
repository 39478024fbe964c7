package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/omniores3/pythonGroupTools/config"
	"github.com/omniores3/pythonGroupTools/internal/domain"
	"github.com/omniores3/pythonGroupTools/internal/infrastructure/metrics"
	"github.com/omniores3/pythonGroupTools/internal/repository/memory"
)

// fakeHandle is a test listener handle
type fakeHandle struct {
	mu     sync.Mutex
	closed bool
}

func (h *fakeHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// fakeClient is a scriptable test double for domain.TelegramClient
type fakeClient struct {
	mu sync.Mutex

	sentTexts []string
	replies   []domain.BotReply
	// replyPages, when set, is consumed one element per FetchRecent call
	replyPages [][]domain.BotReply
	groups     map[string]*domain.GroupInfo
	history    []domain.CollectedMessage
	joins      []string

	handles   []*fakeHandle
	listeners map[int64]func(domain.CollectedMessage)
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		groups:    make(map[string]*domain.GroupInfo),
		listeners: make(map[int64]func(domain.CollectedMessage)),
	}
}

func (c *fakeClient) IsAuthorized(ctx context.Context) (bool, error) { return true, nil }

func (c *fakeClient) SendText(ctx context.Context, peer, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sentTexts = append(c.sentTexts, body)
	return nil
}

func (c *fakeClient) FetchRecent(ctx context.Context, peer string, limit int) ([]domain.BotReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replyPages != nil {
		if len(c.replyPages) == 0 {
			return nil, nil
		}
		page := c.replyPages[0]
		c.replyPages = c.replyPages[1:]
		return page, nil
	}
	return c.replies, nil
}

func (c *fakeClient) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sentTexts...)
}

func (c *fakeClient) Resolve(ctx context.Context, identifier string) (*domain.GroupInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.groups[identifier]
	if !ok {
		return nil, errors.New("no such group")
	}
	cp := *info
	return &cp, nil
}

func (c *fakeClient) Join(ctx context.Context, identifier string) (*domain.GroupInfo, error) {
	c.mu.Lock()
	c.joins = append(c.joins, identifier)
	c.mu.Unlock()
	return c.Resolve(ctx, identifier)
}

func (c *fakeClient) joinCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.joins)
}

func (c *fakeClient) FetchHistory(ctx context.Context, groupID int64, limit int) ([]domain.CollectedMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history, nil
}

func (c *fakeClient) RegisterMessageHandler(groupID int64, fn func(domain.CollectedMessage)) (domain.ListenerHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := &fakeHandle{}
	c.handles = append(c.handles, h)
	c.listeners[groupID] = fn
	return h, nil
}

// dispatch simulates a live incoming message
func (c *fakeClient) dispatch(groupID int64, msg domain.CollectedMessage) {
	c.mu.Lock()
	fn := c.listeners[groupID]
	c.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// fakeRegistry hands out a single fake client for every account
type fakeRegistry struct {
	client     *fakeClient
	acquireErr error
}

func (r *fakeRegistry) Acquire(ctx context.Context, accountID uint) (domain.TelegramClient, error) {
	if r.acquireErr != nil {
		return nil, r.acquireErr
	}
	return r.client, nil
}

func (r *fakeRegistry) Login(ctx context.Context, account *domain.Account) (*domain.AuthResult, error) {
	return &domain.AuthResult{Phase: domain.AuthPhaseAuthorized}, nil
}

func (r *fakeRegistry) VerifyCode(ctx context.Context, accountID uint, code string) (*domain.AuthResult, error) {
	return &domain.AuthResult{Phase: domain.AuthPhaseAuthorized}, nil
}

func (r *fakeRegistry) VerifyPassword(ctx context.Context, accountID uint, password string) (*domain.AuthResult, error) {
	return &domain.AuthResult{Phase: domain.AuthPhaseAuthorized}, nil
}

func (r *fakeRegistry) IsAuthorized(ctx context.Context, accountID uint) bool { return true }
func (r *fakeRegistry) Logout(ctx context.Context, accountID uint) error      { return nil }
func (r *fakeRegistry) Release(accountID uint)                                {}

// recordingPusher counts pushes instead of performing HTTP calls
type recordingPusher struct {
	mu     sync.Mutex
	pushes int
}

func (p *recordingPusher) Push(ctx context.Context, msg *domain.CollectedMessage, cfg *domain.APIConfig, taskID, messageID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes++
	return true
}

func (p *recordingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pushes
}

type runnerFixture struct {
	runner *TaskRunner
	tasks  *memory.TaskRepository
	store  *memory.CollectionStore
	client *fakeClient
	pusher *recordingPusher
}

func newRunnerFixture(t *testing.T, cfg *config.TaskConfig) *runnerFixture {
	t.Helper()

	if cfg == nil {
		cfg = &config.TaskConfig{
			BotSettleDelay:      time.Millisecond,
			BotReplyLimit:       50,
			MaxPages:            10,
			DefaultHistoryLimit: 1000,
		}
	}

	client := newFakeClient()
	tasks := memory.NewTaskRepository()
	store := memory.NewCollectionStore()
	pusher := &recordingPusher{}

	runner := NewTaskRunner(TaskRunnerParams{
		TaskRepo: tasks,
		Store:    store,
		Sessions: &fakeRegistry{client: client},
		Pusher:   pusher,
		Cfg:      cfg,
		Logger:   zerolog.Nop(),
		Metrics:  metrics.GetDefaultMetrics(),
	})

	return &runnerFixture{
		runner: runner,
		tasks:  tasks,
		store:  store,
		client: client,
		pusher: pusher,
	}
}

// waitForStatus polls until the task reaches the wanted persisted status
func waitForStatus(t *testing.T, repo *memory.TaskRepository, taskID uint, want domain.TaskStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		task, err := repo.GetByID(context.Background(), taskID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if task.Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	task, _ := repo.GetByID(context.Background(), taskID)
	t.Fatalf("task never reached status %q, stuck at %q", want, task.Status)
}

// waitForStopped polls until the runner has no live execution
func waitForStopped(t *testing.T, runner *TaskRunner, taskID uint) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !runner.IsRunning(taskID) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("execution never finished")
}

func TestCreateTaskValidation(t *testing.T) {
	f := newRunnerFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		task    domain.Task
		wantErr bool
	}{
		{
			name:    "missing name",
			task:    domain.Task{TaskType: domain.TaskTypeBotSearch, BotUsername: "bot", SearchKeywords: []string{"x"}},
			wantErr: true,
		},
		{
			name:    "bot search without bot username",
			task:    domain.Task{Name: "t", TaskType: domain.TaskTypeBotSearch, SearchKeywords: []string{"x"}},
			wantErr: true,
		},
		{
			name:    "bot search without keywords",
			task:    domain.Task{Name: "t", TaskType: domain.TaskTypeBotSearch, BotUsername: "bot"},
			wantErr: true,
		},
		{
			name:    "direct collect without targets",
			task:    domain.Task{Name: "t", TaskType: domain.TaskTypeDirectCollect},
			wantErr: true,
		},
		{
			name:    "unknown type",
			task:    domain.Task{Name: "t", TaskType: "mystery"},
			wantErr: true,
		},
		{
			name: "valid bot search",
			task: domain.Task{Name: "t", TaskType: domain.TaskTypeBotSearch, BotUsername: "bot", SearchKeywords: []string{"x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := tt.task
			err := f.runner.CreateTask(ctx, &task)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidTask) {
					t.Errorf("expected ErrInvalidTask, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateTask failed: %v", err)
			}
			if task.Status != domain.TaskStatusPending {
				t.Errorf("expected pending status, got %q", task.Status)
			}
			if task.CollectMode != domain.CollectModeBoth {
				t.Errorf("expected default collect mode both, got %q", task.CollectMode)
			}
		})
	}
}

func TestStartUnknownTask(t *testing.T) {
	f := newRunnerFixture(t, nil)

	err := f.runner.Start(context.Background(), 42)
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestBotSearchDiscoversGroups(t *testing.T) {
	f := newRunnerFixture(t, nil)
	ctx := context.Background()

	f.client.replies = []domain.BotReply{
		{MessageID: 1, Text: "try https://t.me/news_one and https://t.me/chat_two"},
		{MessageID: 2, Text: "also @news_ghost"},
	}
	f.client.groups["news_one"] = &domain.GroupInfo{TelegramID: 100, Title: "News One", Username: "news_one"}
	f.client.groups["chat_two"] = &domain.GroupInfo{TelegramID: 200, Title: "Chat Two", Username: "chat_two"}
	// news_ghost passes the filter but resolves without a numeric ID
	f.client.groups["news_ghost"] = &domain.GroupInfo{Title: "Ghost"}

	task := &domain.Task{
		Name:           "discover",
		TaskType:       domain.TaskTypeBotSearch,
		BotUsername:    "searchbot",
		SearchKeywords: []string{"crypto"},
		GroupRegex:     "^news",
	}
	if err := f.runner.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := f.runner.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForStatus(t, f.tasks, task.ID, domain.TaskStatusCompleted)
	waitForStopped(t, f.runner, task.ID)

	groups, total, err := f.store.ListGroups(ctx, domain.GroupFilter{}, 1, 50)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 group (filter rejects chat_two, ghost has no ID), got %d: %+v", total, groups)
	}
	if groups[0].TelegramID != 100 {
		t.Errorf("expected group 100, got %d", groups[0].TelegramID)
	}

	// chat_two is rejected on its raw link, before any network call
	for _, joined := range f.client.joins {
		if joined == "chat_two" {
			t.Error("filtered link must not be joined")
		}
	}
}

func TestBotSearchDeduplicatesGroups(t *testing.T) {
	f := newRunnerFixture(t, nil)
	ctx := context.Background()

	f.client.replies = []domain.BotReply{
		{MessageID: 1, Text: "https://t.me/repeat_me"},
	}
	f.client.groups["repeat_me"] = &domain.GroupInfo{TelegramID: 300, Title: "Repeat", Username: "repeat_me"}

	task := &domain.Task{
		Name:           "dedup",
		TaskType:       domain.TaskTypeBotSearch,
		BotUsername:    "searchbot",
		SearchKeywords: []string{"first", "second"},
	}
	if err := f.runner.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := f.runner.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForStatus(t, f.tasks, task.ID, domain.TaskStatusCompleted)
	waitForStopped(t, f.runner, task.ID)

	_, total, err := f.store.ListGroups(ctx, domain.GroupFilter{}, 1, 50)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected the same group stored once, got %d rows", total)
	}
	if got := f.client.joinCount(); got != 1 {
		t.Errorf("link surfaced by both keywords must be joined once, got %d joins", got)
	}
}

func TestBotSearchPaginatesConfiguredPages(t *testing.T) {
	f := newRunnerFixture(t, nil)
	ctx := context.Background()

	f.client.replyPages = [][]domain.BotReply{
		{{MessageID: 1, Text: "https://t.me/page_one"}},
		{{MessageID: 2, Text: "https://t.me/page_two"}},
		{{MessageID: 3, Text: "https://t.me/page_three"}},
	}
	f.client.groups["page_one"] = &domain.GroupInfo{TelegramID: 1, Title: "One", Username: "page_one"}
	f.client.groups["page_two"] = &domain.GroupInfo{TelegramID: 2, Title: "Two", Username: "page_two"}
	f.client.groups["page_three"] = &domain.GroupInfo{TelegramID: 3, Title: "Three", Username: "page_three"}

	task := &domain.Task{
		Name:           "paged",
		TaskType:       domain.TaskTypeBotSearch,
		BotUsername:    "searchbot",
		SearchKeywords: []string{"vpn"},
		PaginationConfig: &domain.PaginationConfig{
			NextButtonText: "Next",
			MaxPages:       2,
		},
	}
	if err := f.runner.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := f.runner.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForStatus(t, f.tasks, task.ID, domain.TaskStatusCompleted)
	waitForStopped(t, f.runner, task.ID)

	// the keyword plus exactly MaxPages pagination presses
	sent := f.client.sent()
	want := []string{"vpn", "Next", "Next"}
	if len(sent) != len(want) {
		t.Fatalf("expected sends %v, got %v", want, sent)
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Fatalf("expected sends %v, got %v", want, sent)
		}
	}

	_, total, err := f.store.ListGroups(ctx, domain.GroupFilter{}, 1, 50)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected groups from all fetched pages, got %d", total)
	}
}

func TestDoubleStartRejected(t *testing.T) {
	cfg := &config.TaskConfig{
		BotSettleDelay:      200 * time.Millisecond,
		BotReplyLimit:       50,
		MaxPages:            10,
		DefaultHistoryLimit: 1000,
	}
	f := newRunnerFixture(t, cfg)
	ctx := context.Background()

	task := &domain.Task{
		Name:           "slow",
		TaskType:       domain.TaskTypeBotSearch,
		BotUsername:    "searchbot",
		SearchKeywords: []string{"a", "b", "c"},
	}
	if err := f.runner.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := f.runner.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := f.runner.Start(ctx, task.ID); !errors.Is(err, domain.ErrTaskAlreadyRunning) {
		t.Errorf("expected ErrTaskAlreadyRunning, got %v", err)
	}

	if err := f.runner.Stop(ctx, task.ID); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	waitForStopped(t, f.runner, task.ID)
}

func TestStopMidRunKeepsStoppedStatus(t *testing.T) {
	cfg := &config.TaskConfig{
		BotSettleDelay:      200 * time.Millisecond,
		BotReplyLimit:       50,
		MaxPages:            10,
		DefaultHistoryLimit: 1000,
	}
	f := newRunnerFixture(t, cfg)
	ctx := context.Background()

	task := &domain.Task{
		Name:           "stoppable",
		TaskType:       domain.TaskTypeBotSearch,
		BotUsername:    "searchbot",
		SearchKeywords: []string{"a", "b", "c", "d"},
	}
	if err := f.runner.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := f.runner.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if err := f.runner.Stop(ctx, task.ID); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// stopped is written synchronously by Stop
	got, err := f.tasks.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.TaskStatusStopped {
		t.Fatalf("expected stopped immediately after Stop, got %q", got.Status)
	}

	waitForStopped(t, f.runner, task.ID)

	// the pipeline goroutine must not overwrite the stopped status
	time.Sleep(20 * time.Millisecond)
	got, err = f.tasks.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.TaskStatusStopped {
		t.Errorf("pipeline overwrote stopped status with %q", got.Status)
	}
}

func TestStopWithoutExecution(t *testing.T) {
	f := newRunnerFixture(t, nil)

	err := f.runner.Stop(context.Background(), 7)
	if !errors.Is(err, domain.ErrTaskNotRunning) {
		t.Errorf("expected ErrTaskNotRunning, got %v", err)
	}
}

func TestDirectCollectBackfill(t *testing.T) {
	f := newRunnerFixture(t, nil)
	ctx := context.Background()

	f.client.groups["target_group"] = &domain.GroupInfo{TelegramID: 500, Title: "Target", Username: "target_group"}
	now := time.Now()
	f.client.history = []domain.CollectedMessage{
		{TelegramMessageID: 10, Content: "offer: cheap flights", Date: now},
		{TelegramMessageID: 11, Content: "unrelated chatter", Date: now},
		{TelegramMessageID: 10, Content: "offer: cheap flights", Date: now}, // duplicate
		{TelegramMessageID: 12, Content: "offer: hotel deals", Date: now},
	}

	task := &domain.Task{
		Name:         "collect",
		TaskType:     domain.TaskTypeDirectCollect,
		TargetGroups: []string{"target_group"},
		MessageRegex: "^offer",
		CollectMode:  domain.CollectModeHistoryOnly,
		APIConfig:    &domain.APIConfig{URL: "http://example.com/hook"},
	}
	if err := f.runner.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := f.runner.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForStatus(t, f.tasks, task.ID, domain.TaskStatusCompleted)
	waitForStopped(t, f.runner, task.ID)

	_, total, err := f.store.ListMessages(ctx, domain.MessageFilter{}, 1, 50)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 stored messages (filtered and deduplicated), got %d", total)
	}
	if f.pusher.count() != 2 {
		t.Errorf("expected 2 pushes for newly stored messages, got %d", f.pusher.count())
	}
	// history_only must not install listeners
	if len(f.client.handles) != 0 {
		t.Errorf("expected no listeners in history_only mode, got %d", len(f.client.handles))
	}
}

func TestDirectCollectListening(t *testing.T) {
	f := newRunnerFixture(t, nil)
	ctx := context.Background()

	f.client.groups["live_group"] = &domain.GroupInfo{TelegramID: 600, Title: "Live", Username: "live_group"}

	task := &domain.Task{
		Name:         "listen",
		TaskType:     domain.TaskTypeDirectCollect,
		TargetGroups: []string{"live_group"},
		CollectMode:  domain.CollectModeRealtimeOnly,
	}
	if err := f.runner.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := f.runner.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// the run settles into completed-but-listening
	waitForStatus(t, f.tasks, task.ID, domain.TaskStatusCompleted)

	state, err := f.runner.Status(ctx, task.ID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !state.IsRunning || !state.Listening {
		t.Fatalf("expected running+listening execution, got %+v", state)
	}

	f.client.dispatch(600, domain.CollectedMessage{
		TelegramMessageID: 20,
		Content:           "live message",
		Date:              time.Now(),
	})

	// the sink runs asynchronously off the dispatch path
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, total, err := f.store.ListMessages(ctx, domain.MessageFilter{}, 1, 10)
		if err != nil {
			t.Fatalf("ListMessages failed: %v", err)
		}
		if total == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("live message never reached the store")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := f.runner.Stop(ctx, task.ID); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	waitForStopped(t, f.runner, task.ID)

	if len(f.client.handles) != 1 || !f.client.handles[0].isClosed() {
		t.Error("expected the live listener to be closed on Stop")
	}
	waitForStatus(t, f.tasks, task.ID, domain.TaskStatusStopped)
}

func TestMutationRejectedWhileRunning(t *testing.T) {
	cfg := &config.TaskConfig{
		BotSettleDelay:      200 * time.Millisecond,
		BotReplyLimit:       50,
		MaxPages:            10,
		DefaultHistoryLimit: 1000,
	}
	f := newRunnerFixture(t, cfg)
	ctx := context.Background()

	task := &domain.Task{
		Name:           "busy",
		TaskType:       domain.TaskTypeBotSearch,
		BotUsername:    "searchbot",
		SearchKeywords: []string{"a", "b"},
	}
	if err := f.runner.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := f.runner.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := f.runner.UpdateTask(ctx, task); !errors.Is(err, domain.ErrTaskRunning) {
		t.Errorf("expected ErrTaskRunning on update, got %v", err)
	}
	if err := f.runner.DeleteTask(ctx, task.ID); !errors.Is(err, domain.ErrTaskRunning) {
		t.Errorf("expected ErrTaskRunning on delete, got %v", err)
	}

	if err := f.runner.Stop(ctx, task.ID); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	waitForStopped(t, f.runner, task.ID)
}

func TestAcquireFailureMarksFailed(t *testing.T) {
	f := newRunnerFixture(t, nil)
	ctx := context.Background()

	runner := NewTaskRunner(TaskRunnerParams{
		TaskRepo: f.tasks,
		Store:    f.store,
		Sessions: &fakeRegistry{acquireErr: domain.ErrNotAuthorized},
		Pusher:   f.pusher,
		Cfg: &config.TaskConfig{
			BotSettleDelay:      time.Millisecond,
			BotReplyLimit:       50,
			MaxPages:            10,
			DefaultHistoryLimit: 1000,
		},
		Logger:  zerolog.Nop(),
		Metrics: metrics.GetDefaultMetrics(),
	})

	task := &domain.Task{
		Name:           "unauthorized",
		TaskType:       domain.TaskTypeBotSearch,
		BotUsername:    "searchbot",
		SearchKeywords: []string{"a"},
	}
	if err := runner.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := runner.Start(ctx, task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForStatus(t, f.tasks, task.ID, domain.TaskStatusFailed)
	waitForStopped(t, runner, task.ID)
}
