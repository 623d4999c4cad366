package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/TFMV/rankgraph/editor"
	"github.com/TFMV/rankgraph/ingest"
	"github.com/TFMV/rankgraph/logging"
	"github.com/TFMV/rankgraph/metrics"
	"github.com/TFMV/rankgraph/rank"
)

var (
	// ErrTooManySessions is returned when the session limit is reached
	ErrTooManySessions = errors.New("session limit reached")

	// ErrSessionNotFound is returned for unknown or expired session ids
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one editing session. Its machine runs on its own goroutine and
// every mutation goes through that goroutine's event source.
type Session struct {
	ID        string
	CreatedAt time.Time

	source   *editor.ChanSource
	cancel   context.CancelFunc
	done     chan struct{}
	lastSeen atomic.Int64
	logger   *slog.Logger

	mu          sync.RWMutex
	latest      editor.Snapshot
	subscribers map[chan editor.Snapshot]struct{}
}

// Submit applies one event and returns the snapshot taken right after it
func (s *Session) Submit(ctx context.Context, ev editor.Event) (editor.Snapshot, error) {
	s.touch()
	return s.source.Submit(ctx, ev)
}

// Latest returns the most recent snapshot
func (s *Session) Latest() editor.Snapshot {
	s.touch()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Subscribe returns a channel that receives every new snapshot. Slow
// subscribers miss intermediate snapshots rather than block the machine,
// but the last value they read is always the latest one.
func (s *Session) Subscribe() (<-chan editor.Snapshot, func()) {
	ch := make(chan editor.Snapshot, 4)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, ch)
			s.mu.Unlock()
		})
	}
}

// Done is closed once the session's machine has stopped
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// IdleSince reports when the session was last used
func (s *Session) IdleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) publish(snap editor.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = snap
	for ch := range s.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Full: drop the oldest so the newest snapshot always lands.
		// publish is the only sender and runs under mu, so the slot stays free.
		select {
		case <-ch:
			s.logger.Debug("dropping stale snapshot for slow subscriber")
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Session) close() {
	s.source.Close()
	s.cancel()
	<-s.done
}

// ManagerOptions configures a session manager
type ManagerOptions struct {
	MaxSessions   int
	IdleTimeout   time.Duration
	Canvas        editor.Canvas
	Tolerance     float64
	MaxIterations int
}

// Manager owns all live sessions
type Manager struct {
	opts   ManagerOptions
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager
func NewManager(opts ManagerOptions, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session seeded with seed, or the default two-node graph
// when seed is nil
func (m *Manager) Create(seed *ingest.Seed) (*Session, error) {
	if seed == nil {
		seed = ingest.DefaultSeed()
	}
	graph, err := seed.Build("untitled", m.opts.Canvas.Width, m.opts.Canvas.Height)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		return nil, ErrTooManySessions
	}

	id := uuid.New().String()
	logger := logging.ForSession(m.logger, id)

	engine := rank.NewEngine(logger)
	if m.opts.Tolerance > 0 {
		engine.Tolerance = m.opts.Tolerance
	}
	if m.opts.MaxIterations > 0 {
		engine.MaxIterations = m.opts.MaxIterations
	}

	ctx, cancel := context.WithCancel(context.Background())
	machine := editor.NewMachine(ctx, graph, engine, m.opts.Canvas, logger)

	sess := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		source:      editor.NewChanSource(16),
		cancel:      cancel,
		done:        make(chan struct{}),
		logger:      logger,
		latest:      machine.Snapshot(nil),
		subscribers: make(map[chan editor.Snapshot]struct{}),
	}
	sess.touch()

	go func() {
		defer close(sess.done)
		if err := machine.Run(ctx, sess.source, sess.publish); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session stopped", slog.Any("error", err))
		}
	}()

	m.sessions[id] = sess
	metrics.IncrementActiveSessions()
	logger.Info("session created", slog.Int("nodes", graph.Len()))
	return sess, nil
}

// Get looks up a live session
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Remove stops and forgets a session
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	sess.close()
	metrics.DecrementActiveSessions()
	sess.logger.Info("session closed")
	return true
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle since before now minus the idle timeout and
// returns how many were closed
func (m *Manager) Sweep(now time.Time) int {
	if m.opts.IdleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-m.opts.IdleTimeout)

	var expired []string
	m.mu.Lock()
	for id, sess := range m.sessions {
		if sess.IdleSince().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	closed := 0
	for _, id := range expired {
		if m.Remove(id) {
			closed++
		}
	}
	if closed > 0 {
		m.logger.Info("expired idle sessions", slog.Int("count", closed))
	}
	return closed
}

// RunJanitor sweeps idle sessions every interval until ctx is done
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Close stops every session
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Remove(id)
	}
}
