package queue

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mediaq/internal/events"
	"mediaq/internal/logging"
	"mediaq/internal/worker"
)

const workerEventBuffer = 64

// Spawner starts a worker for a job. worker.Supervisor satisfies it.
type Spawner interface {
	Spawn(ctx context.Context, req worker.Request, report func(worker.Event)) (worker.Handle, error)
}

// Options configures a Manager.
type Options struct {
	Concurrency int
	// CancelGrace is the delay between CancelAll and the automatic unpause.
	CancelGrace time.Duration
	Spawner     Spawner
	Bus         *events.Bus
	Logger      *slog.Logger

	// Now and After override the clock in tests.
	Now   func() time.Time
	After func(time.Duration) <-chan time.Time
	// NewID overrides job id generation in tests.
	NewID func() string
}

// Manager is the single-loop scheduler. Construct it with NewManager and start
// the loop with Run; every other method blocks until the loop has applied the
// request.
type Manager struct {
	concurrency int
	grace       time.Duration
	spawner     Spawner
	bus         *events.Bus
	logger      *slog.Logger
	now         func() time.Time
	after       func(time.Duration) <-chan time.Time
	newID       func() string

	ops          chan func()
	workerEvents chan worker.Event
	done         chan struct{}
	running      atomic.Bool

	// Loop-owned state. Only touched from Run.
	runCtx  context.Context
	waiting []*Job
	active  []*Job
	handles map[string]worker.Handle
	paused  bool
	graceC  <-chan time.Time
	stats   Stats
}

// NewManager constructs a manager. A nil bus gets a private bus so publishing
// never needs a nil check.
func NewManager(opts Options) *Manager {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus(0, opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.After == nil {
		opts.After = time.After
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Manager{
		concurrency:  opts.Concurrency,
		grace:        opts.CancelGrace,
		spawner:      opts.Spawner,
		bus:          opts.Bus,
		logger:       logging.NewComponentLogger(opts.Logger, "queue"),
		now:          opts.Now,
		after:        opts.After,
		newID:        opts.NewID,
		ops:          make(chan func()),
		workerEvents: make(chan worker.Event, workerEventBuffer),
		done:         make(chan struct{}),
		handles:      make(map[string]worker.Handle),
	}
}

// Concurrency returns the admission cap.
func (m *Manager) Concurrency() int {
	return m.concurrency
}

// Run executes the scheduling loop until ctx ends. Workers are spawned with
// ctx, so cancelling it also terminates in-flight downloads.
func (m *Manager) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(m.done)

	m.runCtx = ctx
	m.logger.Info("queue manager started",
		logging.Int("concurrency", m.concurrency),
		logging.Duration("cancel_grace", m.grace),
		logging.String(logging.FieldEventType, "queue_started"),
	)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("queue manager stopping",
				logging.Int("active", len(m.active)),
				logging.Int("waiting", len(m.waiting)),
				logging.String(logging.FieldEventType, "queue_stopped"),
			)
			return nil
		case op := <-m.ops:
			op()
		case ev := <-m.workerEvents:
			m.handleWorkerEvent(ev)
		case <-m.graceC:
			m.finishCancel()
		}
	}
}

// Done is closed when Run returns.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// call runs fn on the scheduling loop and waits for it to finish.
func (m *Manager) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	op := func() {
		defer close(finished)
		fn()
	}
	select {
	case m.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrStopped
	}
	<-finished
	return nil
}

// Enqueue appends every item of sub to the waiting list in order, broadcasts
// once, and then admits. The created jobs are returned in submission order.
func (m *Manager) Enqueue(ctx context.Context, sub Submission) ([]Job, error) {
	var created []Job
	err := m.call(ctx, func() {
		created = m.enqueue(sub)
	})
	return created, err
}

// Pause stops further admissions. Active jobs keep running.
func (m *Manager) Pause(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := m.call(ctx, func() {
		m.graceC = nil
		m.paused = true
		m.logger.Info("queue paused", logging.String(logging.FieldEventType, "queue_paused"))
		m.broadcast()
		snap = m.snapshot()
	})
	return snap, err
}

// Resume clears the pause flag, broadcasts, and admits up to capacity.
func (m *Manager) Resume(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := m.call(ctx, func() {
		m.graceC = nil
		m.paused = false
		m.logger.Info("queue resumed", logging.String(logging.FieldEventType, "queue_resumed"))
		m.broadcast()
		m.admit()
		snap = m.snapshot()
	})
	return snap, err
}

// CancelAll drops every waiting job, terminates every active worker, and
// keeps the queue paused for the cancel grace period.
func (m *Manager) CancelAll(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := m.call(ctx, func() {
		m.cancelAll()
		snap = m.snapshot()
	})
	return snap, err
}

// Snapshot returns the current queue view.
func (m *Manager) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := m.call(ctx, func() {
		snap = m.snapshot()
	})
	return snap, err
}

// Lookup returns the waiting or active job with id.
func (m *Manager) Lookup(ctx context.Context, id string) (Job, bool, error) {
	var (
		job   Job
		found bool
	)
	id = strings.TrimSpace(id)
	err := m.call(ctx, func() {
		for _, list := range [][]*Job{m.active, m.waiting} {
			for _, candidate := range list {
				if candidate.ID == id {
					job, found = *candidate, true
					return
				}
			}
		}
	})
	return job, found, err
}

// Stats returns terminal outcome counters.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := m.call(ctx, func() {
		stats = m.stats
	})
	return stats, err
}

// Subscribe registers a bus subscriber whose first event is the current
// snapshot. Registration happens on the loop so no mutation can slip in
// between the snapshot and the live stream.
func (m *Manager) Subscribe(ctx context.Context) (*events.Subscriber, error) {
	var sub *events.Subscriber
	err := m.call(ctx, func() {
		sub = m.bus.Subscribe(events.Event{Type: events.QueueUpdate, Payload: m.snapshot()})
	})
	return sub, err
}

// Unsubscribe removes a subscriber. It is safe to call repeatedly.
func (m *Manager) Unsubscribe(sub *events.Subscriber) {
	m.bus.Unsubscribe(sub)
}

// report forwards worker events into the loop. Events are discarded once the
// loop has stopped.
func (m *Manager) report(ev worker.Event) {
	select {
	case m.workerEvents <- ev:
	case <-m.done:
	}
}
