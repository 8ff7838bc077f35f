package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/assistant/internal/adapters/repository/memory"
	"github.com/taskmaster/assistant/internal/application/services"
	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/ports"
)

var clock = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu       sync.Mutex
	messages map[uuid.UUID][]string
	failFor  uuid.UUID
}

func (p *recordingPublisher) Publish(_ context.Context, userID uuid.UUID, message string) (*entities.Notification, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if userID == p.failFor {
		return nil, errors.New("notification store unavailable")
	}
	if p.messages == nil {
		p.messages = map[uuid.UUID][]string{}
	}
	p.messages[userID] = append(p.messages[userID], message)
	return &entities.Notification{ID: uuid.New(), UserID: userID, Message: message}, nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.messages {
		n += len(m)
	}
	return n
}

type lockCache struct {
	held bool
	err  error
}

func (c *lockCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (c *lockCache) Get(context.Context, string, interface{}) error            { return nil }
func (c *lockCache) Delete(context.Context, string) error                       { return nil }
func (c *lockCache) Ping(context.Context) error                                 { return nil }

func (c *lockCache) SetNX(context.Context, string, interface{}, time.Duration) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.held {
		return false, nil
	}
	c.held = true
	return true, nil
}

func newTimer(t *testing.T, repo ports.TimerRepository, user uuid.UUID, trigger time.Time, label string) *entities.Timer {
	t.Helper()
	timer := &entities.Timer{
		UserID:      user,
		Kind:        entities.TimerKindTimer,
		TriggerTime: trigger,
		Status:      entities.TimerStatusActive,
	}
	if label != "" {
		timer.Label = &label
	}
	require.NoError(t, repo.Create(context.Background(), timer))
	return timer
}

func newSweeper(repos *ports.Repositories, pub Publisher, lock ports.CacheRepository, m *metrics.Metrics) *Sweeper {
	s := New(repos.Timers, pub, lock, m, Config{Interval: time.Second, BatchSize: 10}, logger.NewNop())
	s.now = func() time.Time { return clock }
	return s
}

func TestSweepOnce_FiresDueTimers(t *testing.T) {
	ctx := context.Background()
	repos := memory.New()
	user := uuid.New()

	due := newTimer(t, repos.Timers, user, clock.Add(-time.Second), "tea")
	exact := newTimer(t, repos.Timers, user, clock, "")
	future := newTimer(t, repos.Timers, user, clock.Add(time.Minute), "later")

	pub := &recordingPublisher{}
	m := metrics.New()
	report, err := newSweeper(repos, pub, nil, m).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Due: 2, Fired: 2}, report)

	for _, id := range []int64{due.ID, exact.ID} {
		got, err := repos.Timers.GetByID(ctx, user, id)
		require.NoError(t, err)
		assert.Equal(t, entities.TimerStatusCompleted, got.Status)
		assert.True(t, got.IsNotified)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, got.CompletedAt.Equal(clock))
	}

	got, err := repos.Timers.GetByID(ctx, user, future.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TimerStatusActive, got.Status)
	assert.False(t, got.IsNotified)

	assert.ElementsMatch(t, []string{"⏰ Timer finished: tea", "⏰ Timer finished!"}, pub.messages[user])
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SweepTransitions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsProduced))
}

func TestSweepOnce_SecondPassIsNoop(t *testing.T) {
	ctx := context.Background()
	repos := memory.New()
	newTimer(t, repos.Timers, uuid.New(), clock.Add(-time.Minute), "once")

	pub := &recordingPublisher{}
	s := newSweeper(repos, pub, nil, nil)

	first, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Fired)

	second, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{}, second)
	assert.Equal(t, 1, pub.count())
}

func TestSweepOnce_SkipsCancelledTimers(t *testing.T) {
	ctx := context.Background()
	repos := memory.New()
	user := uuid.New()
	timer := newTimer(t, repos.Timers, user, clock.Add(-time.Minute), "")

	_, err := repos.Timers.Cancel(ctx, user, timer.ID, clock)
	require.NoError(t, err)

	pub := &recordingPublisher{}
	report, err := newSweeper(repos, pub, nil, nil).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Fired)
	assert.Zero(t, pub.count())
}

func TestSweepOnce_PublishFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	repos := memory.New()
	broken, healthy := uuid.New(), uuid.New()
	newTimer(t, repos.Timers, broken, clock.Add(-2*time.Second), "a")
	ok := newTimer(t, repos.Timers, healthy, clock.Add(-time.Second), "b")

	pub := &recordingPublisher{failFor: broken}
	m := metrics.New()
	report, err := newSweeper(repos, pub, nil, m).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Fired)
	assert.Equal(t, 1, report.Failed)

	assert.Equal(t, []string{"⏰ Timer finished: b"}, pub.messages[healthy])
	got, err := repos.Timers.GetByID(ctx, healthy, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TimerStatusCompleted, got.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepFailures))
}

func TestSweepOnce_ConcurrentCancelHasOneOutcome(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		repos := memory.New()
		user := uuid.New()
		timer := newTimer(t, repos.Timers, user, clock.Add(-time.Second), "")
		pub := &recordingPublisher{}
		s := newSweeper(repos, pub, nil, nil)

		var (
			wg        sync.WaitGroup
			cancelErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancelErr = repos.Timers.Cancel(ctx, user, timer.ID, clock)
		}()
		go func() {
			defer wg.Done()
			_, _ = s.SweepOnce(ctx)
		}()
		wg.Wait()

		got, err := repos.Timers.GetByID(ctx, user, timer.ID)
		require.NoError(t, err)
		switch got.Status {
		case entities.TimerStatusCancelled:
			require.NoError(t, cancelErr)
			assert.False(t, got.IsNotified)
			assert.Zero(t, pub.count())
		case entities.TimerStatusCompleted:
			require.ErrorIs(t, cancelErr, entities.ErrTimerNotActive)
			assert.True(t, got.IsNotified)
			assert.Equal(t, 1, pub.count())
		default:
			t.Fatalf("unexpected status %q", got.Status)
		}
	}
}

func TestSweepOnce_RespectsBatchSize(t *testing.T) {
	ctx := context.Background()
	repos := memory.New()
	user := uuid.New()
	for i := 0; i < 15; i++ {
		newTimer(t, repos.Timers, user, clock.Add(-time.Duration(i+1)*time.Second), "")
	}

	s := newSweeper(repos, &recordingPublisher{}, nil, nil)
	first, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, first.Fired)

	second, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, second.Fired)
}

func TestSweepOnce_LeaderLock(t *testing.T) {
	ctx := context.Background()
	repos := memory.New()
	newTimer(t, repos.Timers, uuid.New(), clock.Add(-time.Second), "")

	held := &lockCache{held: true}
	report, err := newSweeper(repos, &recordingPublisher{}, held, nil).SweepOnce(ctx)
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Zero(t, report.Fired)

	down := &lockCache{err: errors.New("redis: connection refused")}
	report, err = newSweeper(repos, &recordingPublisher{}, down, nil).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Fired)
}

func TestSweep_WithNotificationService(t *testing.T) {
	ctx := context.Background()
	repos := memory.New()
	user := uuid.New()
	newTimer(t, repos.Timers, user, clock.Add(-time.Second), "stretch")

	notifications := services.NewNotificationService(repos.Notifications, nil, logger.NewNop())
	_, err := newSweeper(repos, notifications, nil, nil).SweepOnce(ctx)
	require.NoError(t, err)

	list, err := notifications.List(ctx, user, true, ports.Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "⏰ Timer finished: stretch", list[0].Message)
	assert.False(t, list[0].IsRead)
}

func TestRun_StopsOnCancel(t *testing.T) {
	repos := memory.New()
	newTimer(t, repos.Timers, uuid.New(), clock.Add(-time.Second), "")
	pub := &recordingPublisher{}
	s := newSweeper(repos, pub, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
