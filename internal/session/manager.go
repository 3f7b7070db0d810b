package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jengzang/webgis-dashboard/internal/colorscale"
	"github.com/jengzang/webgis-dashboard/internal/logger"
	"github.com/jengzang/webgis-dashboard/internal/metrics"
	"github.com/jengzang/webgis-dashboard/internal/view"
)

// Session is one dashboard user's controller plus its token
type Session struct {
	ID         string
	Controller *view.Controller

	mu       sync.Mutex
	token    string
	lastSeen time.Time
}

// Token returns the most recently issued token for the session
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idle(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Options configures a Manager
type Options struct {
	Secret      string
	TTL         time.Duration
	InitialView view.ViewState
	Palette     colorscale.BrandPalette
	Store       Store            // nil means in-memory only
	Metrics     *metrics.Metrics // may be nil
}

// Manager resolves tokens to live sessions and expires idle ones
type Manager struct {
	signer  *Signer
	ttl     time.Duration
	initial view.ViewState
	palette colorscale.BrandPalette
	store   Store
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a new session manager
func NewManager(opts Options) *Manager {
	store := opts.Store
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{
		signer:   NewSigner(opts.Secret, opts.TTL),
		ttl:      opts.TTL,
		initial:  opts.InitialView,
		palette:  opts.Palette,
		store:    store,
		metrics:  opts.Metrics,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session at the initial state
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id, token, err := m.signer.Issue()
	if err != nil {
		return nil, err
	}
	s := m.attach(ctx, id, token, nil)
	logger.FromContext(ctx).Debug("session created", zap.String("session_id", id))
	return s, nil
}

// Resolve returns the session named by token, creating a fresh one when the
// token is empty, invalid or expired. created reports which case applied.
// A token close to expiry is replaced; callers hand Session.Token back to
// the client.
func (m *Manager) Resolve(ctx context.Context, token string) (s *Session, created bool, err error) {
	if token == "" {
		s, err = m.Create(ctx)
		return s, true, err
	}

	claims, perr := m.signer.parse(token)
	if perr != nil {
		logger.FromContext(ctx).Debug("session token rejected", zap.Error(perr))
		s, err = m.Create(ctx)
		return s, true, err
	}
	id := claims.ID

	m.mu.RLock()
	s = m.sessions[id]
	m.mu.RUnlock()
	if s != nil {
		s.touch(m.now())
		m.refresh(ctx, s)
	} else {
		// Known to another instance or from before a restart
		rec, ok, lerr := m.store.Load(ctx, id)
		if lerr != nil {
			logger.FromContext(ctx).Warn("session store unavailable", zap.Error(lerr))
		}
		if !ok {
			s, err = m.Create(ctx)
			return s, true, err
		}
		s = m.attach(ctx, id, token, &rec)
	}

	renewed, ok, rerr := m.signer.Renew(id, claims.ExpiresAt.Time)
	if rerr != nil {
		return nil, false, rerr
	}
	if ok {
		s.setToken(renewed)
		logger.FromContext(ctx).Debug("session token renewed", zap.String("session_id", id))
	}
	return s, false, nil
}

// attach registers a controller for id, optionally restored from rec
func (m *Manager) attach(ctx context.Context, id, token string, rec *Record) *Session {
	ctrl := view.NewController(m.initial, m.palette)
	if rec != nil {
		ctrl.Restore(rec.State, rec.Seq)
	}

	s := &Session{ID: id, Controller: ctrl, token: token, lastSeen: m.now()}
	ctrl.Subscribe(func(ev view.Event) {
		m.metrics.ObserveBroadcast(string(ev.Kind))
		if ev.Kind == view.EventSync {
			return
		}
		err := m.persist(context.Background(), id, ev.State, ev.Seq)
		if errors.Is(err, ErrStaleRecord) {
			m.refresh(context.Background(), s)
		}
	})

	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return existing
	}
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	if rec == nil {
		_ = m.persist(ctx, id, ctrl.State(), 0)
	}
	return s
}

// refresh reconciles s with the store: a newer record is adopted, an older
// or missing one is overwritten with the local state
func (m *Manager) refresh(ctx context.Context, s *Session) {
	rec, ok, err := m.store.Load(ctx, s.ID)
	if err != nil {
		logger.FromContext(ctx).Warn("session store unavailable", zap.String("session_id", s.ID), zap.Error(err))
		return
	}

	seq := s.Controller.Seq()
	switch {
	case !ok || rec.Seq < seq:
		_ = m.persist(ctx, s.ID, s.Controller.State(), seq)
	case s.Controller.Sync(rec.State, rec.Seq):
		logger.FromContext(ctx).Debug("session synced from store",
			zap.String("session_id", s.ID), zap.Uint64("seq", rec.Seq))
	}
}

func (m *Manager) persist(ctx context.Context, id string, state view.State, seq uint64) error {
	rec := Record{State: state, Seq: seq, UpdatedAt: m.now()}
	err := m.store.Save(ctx, id, rec, m.ttl)
	switch {
	case err == nil:
	case errors.Is(err, ErrStaleRecord):
		logger.L().Debug("skipped stale session write", zap.String("session_id", id), zap.Uint64("seq", seq))
	default:
		logger.L().Warn("failed to persist session", zap.String("session_id", id), zap.Error(err))
	}
	return err
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle longer than the TTL and returns how many were removed
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.idle(now) > m.ttl {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, id := range expired {
		if err := m.store.Delete(ctx, id); err != nil {
			logger.FromContext(ctx).Warn("failed to delete expired session", zap.String("session_id", id), zap.Error(err))
		}
	}

	m.metrics.SetActiveSessions(n)
	if len(expired) > 0 {
		logger.FromContext(ctx).Info("expired idle sessions", zap.Int("count", len(expired)), zap.Int("active", n))
	}
	return len(expired)
}
