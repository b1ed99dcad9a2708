package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"epidash/internal/model"

	"github.com/google/uuid"
)

// PlaybackOptions fixes how sessions animate through time.
type PlaybackOptions struct {
	Interval   time.Duration
	Step       int
	AllowReset bool
}

// Session owns one client's selection and playback state. Its mutex
// serialises user events and timer ticks, so each runs to completion before
// the next one starts.
type Session struct {
	ID        string
	CreatedAt time.Time

	engine   *Engine
	interval time.Duration
	logger   *slog.Logger

	mu         sync.Mutex
	sel        model.Selection
	clock      *Clock
	view       model.View
	stopPlayer context.CancelFunc
	subs       map[int]chan model.View
	nextSub    int
	closed     bool
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID        string              `json:"id"`
	Selection model.Selection     `json:"selection"`
	Playback  model.PlaybackState `json:"playback"`
	MinPeriod int                 `json:"min_period"`
	MaxPeriod int                 `json:"max_period"`
	Step      int                 `json:"step"`
	CreatedAt time.Time           `json:"created_at"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.clock.Config()
	return Snapshot{
		ID:        s.ID,
		Selection: s.sel,
		Playback:  s.clock.State(),
		MinPeriod: cfg.Min,
		MaxPeriod: cfg.Max,
		Step:      cfg.Step,
		CreatedAt: s.CreatedAt,
	}
}

// View returns the last computed view.
func (s *Session) View() model.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Update replaces the selection and recomputes the view. The period is
// clamped to the data's domain.
func (s *Session) Update(sel model.Selection) (model.View, error) {
	if err := sel.Validate(); err != nil {
		return model.View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sel.Period = s.clock.Seek(sel.Period)
	if err := s.refreshLocked(sel); err != nil {
		return model.View{}, err
	}
	return s.view, nil
}

// Start begins playback on a timer owned by the session.
func (s *Session) Start() (model.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock.State() == model.PlaybackPlaying {
		return s.view, nil
	}
	gen, err := s.clock.Start()
	if err != nil {
		return model.View{}, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.stopPlayer = cancel
	go s.play(ctx, gen)
	s.logger.Info("playback started", "session", s.ID, "period", s.clock.Period())
	s.publishLocked()
	return s.view, nil
}

// Stop pauses playback. Ticks already scheduled become no-ops.
func (s *Session) Stop() model.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.publishLocked()
	return s.view
}

// Reset returns the clock to the first period.
func (s *Session) Reset() (model.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.clock.Reset(); err != nil {
		return model.View{}, err
	}
	s.cancelPlayerLocked()
	sel := s.sel
	sel.Period = s.clock.Period()
	if err := s.refreshLocked(sel); err != nil {
		return model.View{}, err
	}
	return s.view, nil
}

// Tick advances playback once, as if the timer had fired. It returns the
// view and whether the period moved.
func (s *Session) Tick() (model.View, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickLocked(s.clock.Generation())
}

func (s *Session) tick(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, _, err := s.tickLocked(gen); err != nil {
		s.logger.Error("playback tick failed", "session", s.ID, "error", err)
		s.stopLocked()
		return false
	}
	return s.clock.State() == model.PlaybackPlaying && s.clock.Generation() == gen
}

func (s *Session) tickLocked(gen uint64) (model.View, bool, error) {
	if s.closed {
		return s.view, false, nil
	}
	before := s.clock.State()
	moved := s.clock.Tick(gen)
	if !moved && s.clock.State() == before {
		return s.view, false, nil
	}
	finished := s.clock.State() == model.PlaybackFinished
	s.engine.obs.ObserveTick(finished)
	if finished {
		s.cancelPlayerLocked()
		s.logger.Info("playback finished", "session", s.ID, "period", s.clock.Period())
	}
	sel := s.sel
	sel.Period = s.clock.Period()
	if err := s.refreshLocked(sel); err != nil {
		return model.View{}, false, err
	}
	return s.view, moved, nil
}

// Subscribe registers for views published after every change. The channel
// keeps only the newest pending view. cancel must be called when done.
func (s *Session) Subscribe() (<-chan model.View, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan model.View, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.view
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
	for id, c := range s.subs {
		delete(s.subs, id)
		close(c)
	}
}

func (s *Session) stopLocked() {
	s.clock.Stop()
	s.cancelPlayerLocked()
}

func (s *Session) cancelPlayerLocked() {
	if s.stopPlayer != nil {
		s.stopPlayer()
		s.stopPlayer = nil
	}
}

func (s *Session) refreshLocked(sel model.Selection) error {
	view, err := s.engine.Refresh(sel)
	if err != nil {
		return fmt.Errorf("session %s: %w", s.ID, err)
	}
	s.sel = sel
	s.view = view
	s.publishLocked()
	return nil
}

func (s *Session) publishLocked() {
	s.view.Playback = s.clock.State()
	for _, c := range s.subs {
		select {
		case <-c:
		default:
		}
		c <- s.view
	}
}

// Manager holds the live sessions of the process.
type Manager struct {
	engine *Engine
	opts   PlaybackOptions
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager(engine *Engine, opts PlaybackOptions, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = 300 * time.Millisecond
	}
	if opts.Step <= 0 {
		opts.Step = 1
	}
	return &Manager{
		engine:   engine,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session on sel, or on the engine's default selection when
// sel is nil.
func (m *Manager) Create(sel *model.Selection) (*Session, model.View, error) {
	initial := m.engine.DefaultSelection()
	if sel != nil {
		initial = *sel
	}
	if err := initial.Validate(); err != nil {
		return nil, model.View{}, err
	}

	lo, hi := m.engine.Dataset().PeriodBounds()
	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		engine:    m.engine,
		interval:  m.opts.Interval,
		logger:    m.logger,
		clock: NewClock(ClockConfig{
			Min:        lo,
			Max:        hi,
			Step:       m.opts.Step,
			AllowReset: m.opts.AllowReset,
		}),
		subs: make(map[int]chan model.View),
	}
	view, err := s.Update(initial)
	if err != nil {
		return nil, model.View{}, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.engine.obs.SessionsChanged(1)
	m.logger.Info("session created", "session", s.ID)
	return s, view, nil
}

// Get looks a session up by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownSession, id)
	}
	return s, nil
}

// Delete stops and forgets a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnknownSession, id)
	}
	s.close()
	m.engine.obs.SessionsChanged(-1)
	m.logger.Info("session deleted", "session", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
	m.engine.obs.SessionsChanged(-len(sessions))
}
