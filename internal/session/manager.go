package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/services"
	"github.com/desertthunder/filmx/internal/shared"
	"github.com/desertthunder/filmx/internal/token"
)

// Timer is the handle returned by [Options.AfterFunc].
type Timer interface {
	Stop() bool
}

// Options configures a [Manager].
type Options struct {
	Store  *Store
	API    *services.APIService
	Codec  *token.Codec
	Logger *log.Logger

	// Now and AfterFunc default to the wall clock.
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func()) Timer
}

type listener struct {
	id int
	fn func(State)
}

// notification is a transition waiting to be delivered.
type notification struct {
	state     State
	listeners []listener
}

// Manager owns the session: the current [State] and the credential behind it.
//
// It is the only writer of the credential store and the credential source of its [services.APIService].
// All methods are safe for concurrent use. Listeners registered with [Manager.Subscribe] are called
// synchronously and in transition order, and may call back into the Manager. A transition made while
// another is being delivered is queued and delivered by the goroutine already notifying.
type Manager struct {
	store     *Store
	api       *services.APIService
	auth      *services.AuthAPI
	codec     *token.Codec
	logger    *log.Logger
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) Timer

	mu        sync.Mutex
	state     State
	cred      *oauth2.Token
	timer     Timer
	closed    bool
	listeners []listener
	nextID    int
	pending   []notification
	notifying bool

	resolved    chan struct{}
	resolveOnce sync.Once

	bootOnce sync.Once
	bootDone chan struct{}
}

// NewManager creates a [Manager] in the unknown state and installs it as the credential source of opts.API.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: session store", shared.ErrMissingArgument)
	}
	if opts.API == nil {
		return nil, fmt.Errorf("%w: API service", shared.ErrMissingArgument)
	}
	if opts.Codec == nil {
		opts.Codec = token.NewCodec(0)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}

	m := &Manager{
		store:     opts.Store,
		api:       opts.API,
		auth:      services.NewAuthAPI(opts.API),
		codec:     opts.Codec,
		logger:    opts.Logger,
		now:       opts.Now,
		afterFunc: opts.AfterFunc,
		state:     Unknown(),
		resolved:  make(chan struct{}),
		bootDone:  make(chan struct{}),
	}
	opts.API.SetCredentialSource(m)
	return m, nil
}

// Current returns the current state.
func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Credential returns the credential to attach to outbound requests, if any.
func (m *Manager) Credential() (*oauth2.Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred, m.cred != nil
}

// Subscribe registers fn to be called with the new state after every transition.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()

			kept := make([]listener, 0, len(m.listeners))
			for _, l := range m.listeners {
				if l.id != id {
					kept = append(kept, l)
				}
			}
			m.listeners = kept
		})
	}
}

// Resolved is closed once the state first leaves [StatusUnknown].
func (m *Manager) Resolved() <-chan struct{} { return m.resolved }

// Await blocks until the state is known or ctx is done.
func (m *Manager) Await(ctx context.Context) (State, error) {
	select {
	case <-m.resolved:
		return m.Current(), nil
	case <-ctx.Done():
		return m.Current(), ctx.Err()
	}
}

// transition runs apply under the state lock and, when it reports a change, queues the resulting state
// for listeners. Only one goroutine delivers at a time; it drains the queue in order, so a listener that
// triggers another transition sees it delivered after its own call returns.
func (m *Manager) transition(apply func() bool) {
	m.mu.Lock()
	if !apply() {
		m.mu.Unlock()
		return
	}
	st := m.state
	if st.Known() {
		m.resolveOnce.Do(func() { close(m.resolved) })
	}
	m.pending = append(m.pending, notification{
		state:     st,
		listeners: append([]listener(nil), m.listeners...),
	})
	if m.notifying {
		m.mu.Unlock()
		return
	}
	m.notifying = true
	m.mu.Unlock()

	m.deliver()
}

// deliver drains pending notifications. The caller set m.notifying.
func (m *Manager) deliver() {
	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.notifying = false
			m.mu.Unlock()
			return
		}
		n := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()

		for _, l := range n.listeners {
			l.fn(n.state)
		}
	}
}

// Bootstrap resolves the session from the stored credential. It runs at most once per Manager;
// concurrent and later callers wait for that single run and never start another.
//
// Every failure ends in [StatusAnonymous] with the stored credential cleared. Failures are logged,
// not returned. If a login or logout resolves first, its state is kept.
func (m *Manager) Bootstrap(ctx context.Context) State {
	first := false
	m.bootOnce.Do(func() { first = true })

	if !first {
		select {
		case <-m.bootDone:
		case <-ctx.Done():
		}
		return m.Current()
	}

	defer close(m.bootDone)
	m.bootstrap(ctx)
	return m.Current()
}

func (m *Manager) bootstrap(ctx context.Context) {
	cred, ok := m.store.Load()
	if !ok {
		m.logger.Debug("no stored credential")
		m.resolveBootstrap(Anonymous(), nil, false)
		return
	}

	claims, err := m.codec.Decode(cred)
	if err != nil {
		m.logger.Warn("discarding stored credential", "error", err)
		m.resolveBootstrap(Anonymous(), nil, true)
		return
	}
	if err := m.codec.Check(claims, m.now()); err != nil {
		m.logger.Info("discarding stored credential", "error", err)
		m.resolveBootstrap(Anonymous(), nil, true)
		return
	}

	tok := m.codec.OAuth2Token(cred, claims)
	profile, err := m.auth.Me(ctx, services.WithCredential(tok))
	if err != nil {
		m.logger.Warn("stored credential rejected", "error", err)
		m.resolveBootstrap(Anonymous(), nil, true)
		return
	}

	m.logger.Info("session restored", "user", profile.Email)
	m.resolveBootstrap(Authenticated(profile), tok, false)
}

// resolveBootstrap applies the bootstrap outcome only while the state is still unknown.
func (m *Manager) resolveBootstrap(next State, tok *oauth2.Token, clear bool) {
	m.transition(func() bool {
		if m.state.Known() {
			m.logger.Debug("bootstrap outcome superseded", "state", m.state.Status())
			return false
		}
		if clear {
			m.store.Clear()
		}
		m.state = next
		m.cred = tok
		m.armLocked(tok)
		return true
	})
}

// Login authenticates with the remote API. The new credential is verified against /users/me before it is
// stored, so a failed login leaves the session and the store exactly as they were.
//
// The returned error is an [*AuthError] whose message is suitable for display.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (models.UserProfile, error) {
	in := LoginInput{Username: identifier, Password: secret}
	if err := in.Validate(); err != nil {
		return models.UserProfile{}, invalidInput("login", err)
	}

	resp, err := m.auth.Login(ctx, identifier, secret)
	if err != nil {
		m.logger.Warn("login rejected", "error", err)
		return models.UserProfile{}, newAuthError("login", LoginFallback, err)
	}

	claims, err := m.codec.Decode(resp.AccessToken)
	if err != nil {
		m.logger.Warn("login returned an unusable credential", "error", err)
		return models.UserProfile{}, newAuthError("login", LoginFallback, err)
	}

	tok := m.codec.OAuth2Token(resp.AccessToken, claims)
	profile, err := m.auth.Me(ctx, services.WithCredential(tok))
	if err != nil {
		m.logger.Warn("profile fetch after login failed", "error", err)
		return models.UserProfile{}, newAuthError("login", LoginFallback, err)
	}

	m.transition(func() bool {
		m.store.Save(resp.AccessToken)
		m.state = Authenticated(profile)
		m.cred = tok
		m.armLocked(tok)
		return true
	})

	m.logger.Info("logged in", "user", profile.Email)
	return profile.Clone(), nil
}

// Register creates an account. It never changes the session or the store; call [Manager.Login] afterwards.
func (m *Manager) Register(ctx context.Context, name, identifier, secret string) (models.UserProfile, error) {
	in := RegisterInput{Name: name, Email: identifier, Password: secret}
	if err := in.Validate(); err != nil {
		return models.UserProfile{}, invalidInput("register", err)
	}

	profile, err := m.auth.Register(ctx, name, identifier, secret)
	if err != nil {
		m.logger.Warn("registration rejected", "error", err)
		return models.UserProfile{}, newAuthError("register", RegisterFallback, err)
	}

	m.logger.Info("registered", "user", profile.Email)
	return profile, nil
}

// Logout clears the stored credential and moves to [StatusAnonymous]. It is safe to call in any state.
func (m *Manager) Logout() {
	m.transition(func() bool {
		m.store.Clear()
		prev := m.state
		m.state = Anonymous()
		m.cred = nil
		m.armLocked(nil)
		return prev.Status() != StatusAnonymous
	})
}

// Refresh re-verifies the current credential with the remote API and replaces the profile snapshot.
// Any failure ends the session. It does nothing unless authenticated.
func (m *Manager) Refresh(ctx context.Context) State {
	m.mu.Lock()
	tok, st := m.cred, m.state
	m.mu.Unlock()

	if tok == nil || !st.Authenticated() {
		return st
	}

	if !tok.Expiry.IsZero() {
		if err := m.codec.Check(token.Claims{ExpiresAt: tok.Expiry}, m.now()); err != nil {
			m.drop(tok, err)
			return m.Current()
		}
	}

	profile, err := m.auth.Me(ctx, services.WithCredential(tok))
	if err != nil {
		m.logger.Warn("session refresh failed", "error", err)
		m.drop(tok, err)
		return m.Current()
	}

	m.transition(func() bool {
		if m.cred != tok {
			return false
		}
		m.state = Authenticated(profile)
		return true
	})
	return m.Current()
}

// Close stops the expiry timer. The Manager remains readable.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// drop ends the session if tok is still the current credential.
func (m *Manager) drop(tok *oauth2.Token, cause error) {
	dropped := false
	m.transition(func() bool {
		if m.cred != tok {
			return false
		}
		m.store.Clear()
		m.state = Anonymous()
		m.cred = nil
		m.armLocked(nil)
		dropped = true
		return true
	})
	if dropped {
		m.logger.Info("session ended", "reason", cause)
	}
}

// armLocked replaces the expiry timer with one for tok. Callers hold m.mu.
func (m *Manager) armLocked(tok *oauth2.Token) {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if tok == nil || tok.Expiry.IsZero() || m.closed {
		return
	}

	d := tok.Expiry.Sub(m.now()) - m.codec.Leeway()
	if d < 0 {
		d = 0
	}
	m.timer = m.afterFunc(d, func() {
		m.drop(tok, fmt.Errorf("%w at %s", shared.ErrTokenExpired, tok.Expiry.UTC().Format(time.RFC3339)))
	})
}

// IsAuthError reports whether err came from a rejected login or registration.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
