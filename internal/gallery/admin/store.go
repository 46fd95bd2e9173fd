package admin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/gurudev-engicon/gallery-backend/pkg/errors"
	"github.com/gurudev-engicon/gallery-backend/pkg/logger"
	"go.uber.org/multierr"
)

const defaultSessionTTL = 30 * time.Minute

type sessionGauge interface {
	SetOpenSessions(n int)
}

// Recorder receives admin outcome counters and the open session gauge.
type Recorder interface {
	outcomeRecorder
	sessionGauge
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

// SessionStore keeps open sessions in memory and expires idle ones.
type SessionStore struct {
	repo    galleryRepository
	cfg     Config
	ttl     time.Duration
	metrics Recorder
	logg    *logger.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

// NewSessionStore builds a registry; a non-positive ttl uses 30 minutes.
func NewSessionStore(repo galleryRepository, cfg Config, ttl time.Duration, metrics Recorder, logg *logger.Logger) (*SessionStore, error) {
	if repo == nil {
		return nil, fmt.Errorf("gallery repository required")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &SessionStore{
		repo:     repo,
		cfg:      cfg.withDefaults(),
		ttl:      ttl,
		metrics:  metrics,
		logg:     logg,
		now:      time.Now,
		sessions: map[uuid.UUID]*entry{},
	}, nil
}

func (st *SessionStore) publish() {
	if st.metrics != nil {
		st.metrics.SetOpenSessions(len(st.sessions))
	}
}

// Open starts a session for category and registers it.
func (st *SessionStore) Open(ctx context.Context, category string) (*Session, error) {
	var outcomes outcomeRecorder
	if st.metrics != nil {
		outcomes = st.metrics
	}
	s, err := Open(ctx, st.repo, category, st.cfg, outcomes, st.logg)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.sessions[s.id] = &entry{session: s, lastUsed: st.now()}
	st.publish()
	st.mu.Unlock()

	st.logg.Info(s.ctx(ctx), "gallery.session.opened")
	return s, nil
}

// Get returns a live session and refreshes its idle timer.
func (st *SessionStore) Get(id string) (*Session, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id")
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[key]
	if !ok || st.expired(e) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin session not found")
	}
	e.lastUsed = st.now()
	return e.session, nil
}

func (st *SessionStore) expired(e *entry) bool {
	return st.now().Sub(e.lastUsed) > st.ttl
}

// CloseSession removes a session and releases its previews.
func (st *SessionStore) CloseSession(id string) error {
	key, err := uuid.Parse(id)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid session id")
	}

	st.mu.Lock()
	e, ok := st.sessions[key]
	delete(st.sessions, key)
	st.publish()
	st.mu.Unlock()

	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "admin session not found")
	}
	if err := e.session.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release session previews")
	}
	return nil
}

// Sweep closes sessions idle for longer than the ttl and returns how many
// were removed.
func (st *SessionStore) Sweep(ctx context.Context) int {
	st.mu.Lock()
	var stale []*Session
	for id, e := range st.sessions {
		if st.expired(e) {
			stale = append(stale, e.session)
			delete(st.sessions, id)
		}
	}
	st.publish()
	st.mu.Unlock()

	var err error
	for _, s := range stale {
		err = multierr.Append(err, s.Close())
	}
	if err != nil {
		st.logg.Error(ctx, "gallery.session.sweep_failed", err)
	}
	if len(stale) > 0 {
		st.logg.Info(st.logg.WithField(ctx, "expired", len(stale)), "gallery.session.swept")
	}
	return len(stale)
}

// Run sweeps on every tick until ctx is cancelled.
func (st *SessionStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep(ctx)
		}
	}
}

// Len reports the number of registered sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Close releases every session.
func (st *SessionStore) Close() error {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = map[uuid.UUID]*entry{}
	st.publish()
	st.mu.Unlock()

	var err error
	for _, e := range sessions {
		err = multierr.Append(err, e.session.Close())
	}
	return err
}
