package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/careview/portal/pkg/audit"
	"github.com/careview/portal/pkg/directory"
	"github.com/careview/portal/pkg/token"
)

// Options configures a Manager.
type Options struct {
	// Directory validates demo logins.
	Directory *directory.Directory

	// Codec issues and parses remembered-session tokens.
	Codec *token.Codec

	// Store persists the remembered-session token between runs.
	Store token.Store

	// Audit records auth events. Nil selects a slog-backed logger.
	Audit audit.Logger

	// LoginLatency simulates validation latency on Login. Zero resolves
	// immediately.
	LoginLatency time.Duration

	// Logger is used for internal diagnostics. Nil selects slog.Default.
	Logger *slog.Logger
}

// Manager is the sole owner of the portal's authentication state. It is
// safe for concurrent use; session-establishing operations (Restore,
// Login) are mutually exclusive, and of overlapping Login attempts only
// the most recently issued one may commit its outcome.
type Manager struct {
	dir     *directory.Directory
	codec   *token.Codec
	store   token.Store
	auditor audit.Logger
	latency time.Duration
	logger  *slog.Logger

	// opMu serializes Restore and Login resolution.
	opMu sync.Mutex

	// mu guards everything below.
	mu      sync.Mutex
	phase   Phase
	session *Session
	attempt uint64
	subs    map[uint64]chan State
	nextSub uint64
	closed  bool
}

// NewManager creates a manager in the Initializing phase. Callers run
// Restore once at process start; until it resolves the UI shows a loading
// indicator.
func NewManager(opts Options) *Manager {
	if opts.Audit == nil {
		opts.Audit = audit.NewSlogLogger(opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		dir:     opts.Directory,
		codec:   opts.Codec,
		store:   opts.Store,
		auditor: opts.Audit,
		latency: opts.LoginLatency,
		logger:  opts.Logger,
		phase:   PhaseInitializing,
		subs:    make(map[uint64]chan State),
	}
}

// Restore attempts to recover a previously remembered identity. It never
// fails loudly: a missing, malformed, or stale token, or a directory
// mismatch, all degrade to the unauthenticated state. Login calls issued
// while Restore is unresolved block until it resolves.
func (m *Manager) Restore(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	id, ok := m.recoverIdentity(ctx)
	if !ok {
		m.setState(PhaseUnauthenticated, nil)
		return
	}

	entry, found := m.dir.Lookup(id.Email)
	if !found || entry.UserID != id.UserID || !entry.Role.Valid() {
		m.logger.Warn("session: remembered identity unknown to directory", "email", id.Email)
		m.clearRemembered(ctx)
		m.auditor.Log(ctx, audit.NewEvent(audit.ActionRestore).
			WithSubject(id.UserID, id.Email, id.Role.String()).
			WithOutcome(false, "identity not in directory"))
		m.setState(PhaseUnauthenticated, nil)
		return
	}

	sess := sessionFromEntry(entry)
	m.setState(PhaseAuthenticated, &sess)
	m.auditor.Log(ctx, audit.NewEvent(audit.ActionRestore).
		WithSubject(entry.UserID, entry.Email, entry.Role.String()).
		WithOutcome(true, ""))
}

// recoverIdentity reads and decodes the remembered token. Any error is a
// normal "nothing remembered" outcome.
func (m *Manager) recoverIdentity(ctx context.Context) (token.Identity, bool) {
	tok, err := m.store.Get(ctx)
	if err != nil {
		m.logger.Warn("session: reading remembered token", "error", err)
		return token.Identity{}, false
	}
	if tok == "" {
		return token.Identity{}, false
	}

	id, err := m.codec.Parse(tok)
	if err != nil {
		m.logger.Warn("session: discarding corrupted remembered token", "error", err)
		m.clearRemembered(ctx)
		m.auditor.Log(ctx, audit.NewEvent(audit.ActionRestore).
			WithOutcome(false, "corrupted token"))
		return token.Identity{}, false
	}
	return id, true
}

// Login validates the email and password against the directory. It enters
// the Authenticating phase synchronously, then resolves after the
// configured latency. It returns true on a match and false otherwise, and
// never returns an error: invalid input is just a failed match.
//
// If another Login is issued while this one is in flight, this one's
// outcome is discarded when it resolves (staleness discard).
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	attempt := m.beginAttempt()

	// Serialize with Restore and other Logins.
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.latency > 0 {
		select {
		case <-ctx.Done():
			m.commit(attempt, PhaseAuthFailed, nil)
			return false
		case <-time.After(m.latency):
		}
	}

	entry, found := m.dir.Lookup(email)
	ok := found && m.dir.VerifyPassword(password)

	event := audit.NewEvent(audit.ActionLogin)
	if found {
		event = event.WithSubject(entry.UserID, entry.Email, entry.Role.String())
	} else {
		event = event.WithSubject("", email, "")
	}

	if !ok {
		m.auditor.Log(ctx, event.WithOutcome(false, "invalid credentials"))
		m.commit(attempt, PhaseUnauthenticated, nil)
		return false
	}

	sess := sessionFromEntry(entry)
	if m.commit(attempt, PhaseAuthenticated, &sess) {
		m.remember(ctx, entry)
	}
	m.auditor.Log(ctx, event.WithOutcome(true, ""))
	return true
}

// Logout clears the session and forgets the remembered token. It is
// synchronous and always leaves the manager unauthenticated. Any login
// still in flight becomes stale and cannot resurrect the session.
func (m *Manager) Logout() {
	m.mu.Lock()
	prev := m.session
	m.attempt++
	m.phase = PhaseUnauthenticated
	m.session = nil
	m.publishLocked()
	m.mu.Unlock()

	ctx := context.Background()
	m.clearRemembered(ctx)

	event := audit.NewEvent(audit.ActionLogout)
	if prev != nil {
		event = event.WithSubject(prev.UserID, prev.Email, prev.Role.String())
	}
	m.auditor.Log(ctx, event.WithOutcome(true, ""))
}

// Current returns the present state snapshot.
func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Subscribe registers an observer. The channel receives a state snapshot
// after every change, coalescing bursts so a slow consumer only sees the
// latest state. Cancel deregisters the observer and closes the channel.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSub++
	key := m.nextSub
	ch := make(chan State, 1)
	m.subs[key] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[key]; ok {
			delete(m.subs, key)
			close(sub)
		}
	}
	return ch, cancel
}

// Close closes all subscriber channels. For test teardown; a browser-like
// process never needs it.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	for key, ch := range m.subs {
		delete(m.subs, key)
		close(ch)
	}
}

// beginAttempt registers a new login attempt: the phase becomes
// Authenticating immediately so the UI can disable the submit control,
// and the returned token identifies this attempt at commit time.
func (m *Manager) beginAttempt() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempt++
	m.phase = PhaseAuthenticating
	m.publishLocked()
	return m.attempt
}

// commit applies a login outcome if and only if the attempt is still the
// most recently issued one. It reports whether the outcome was applied;
// stale outcomes are silently dropped.
func (m *Manager) commit(attempt uint64, phase Phase, sess *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if attempt != m.attempt {
		return false
	}
	m.phase = phase
	m.session = sess
	m.publishLocked()
	return true
}

// setState unconditionally replaces the state. Used by Restore, which is
// not subject to staleness discard.
func (m *Manager) setState(phase Phase, sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.phase = phase
	m.session = sess
	m.publishLocked()
}

// remember persists a token for the entry. Persistence failures only cost
// the user a re-login after restart, so they are logged and swallowed.
func (m *Manager) remember(ctx context.Context, entry directory.Entry) {
	tok, err := m.codec.Issue(token.Identity{
		UserID: entry.UserID,
		Email:  entry.Email,
		Role:   entry.Role,
	})
	if err != nil {
		m.logger.Warn("session: issuing remembered token", "error", err)
		return
	}
	if err := m.store.Set(ctx, tok); err != nil {
		m.logger.Warn("session: persisting remembered token", "error", err)
	}
}

func (m *Manager) clearRemembered(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("session: clearing remembered token", "error", err)
	}
}

// stateLocked builds a snapshot with a defensive session copy. Callers
// must hold m.mu.
func (m *Manager) stateLocked() State {
	st := State{Phase: m.phase}
	if m.session != nil {
		copied := *m.session
		st.Session = &copied
	}
	return st
}

// publishLocked pushes the current snapshot to every subscriber without
// blocking. Callers must hold m.mu.
func (m *Manager) publishLocked() {
	if len(m.subs) == 0 {
		return
	}
	st := m.stateLocked()
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

func sessionFromEntry(entry directory.Entry) Session {
	return Session{
		UserID:      entry.UserID,
		Email:       entry.Email,
		DisplayName: entry.DisplayName,
		AvatarURL:   entry.AvatarURL,
		Role:        entry.Role,
		IssuedAt:    time.Now(),
	}
}
