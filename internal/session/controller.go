// ABOUTME: Auth controller state machine owning the current session
// ABOUTME: Drives login/register/logout, resolution, and supersession stamping

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/docuchat/console-gateway/internal/credstore"
	"github.com/docuchat/console-gateway/internal/platform"
)

// State is the controller's lifecycle state.
type State int

const (
	// StateInitializing means the stored credential has not been resolved yet.
	StateInitializing State = iota

	// StateAuthenticating means a login or register call is in flight.
	StateAuthenticating

	// StateAuthenticated means a session is held.
	StateAuthenticated

	// StateAnonymous means no credential or session is held.
	StateAnonymous

	// StateDegraded means a credential is held but the backend could not be
	// reached to resolve it. Gates like anonymous, but the credential is
	// preserved and resolution can be retried.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// ErrSuperseded is returned when a call's result was discarded because a
// newer login or logout bumped the credential generation while it was in
// flight.
var ErrSuperseded = errors.New("superseded by a newer credential")

// Backend is the subset of the platform client the controller needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (*platform.LoginResult, error)
	Register(ctx context.Context, email, password, fullName string) (*platform.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (credstore.Credential, error)
	Me(ctx context.Context, accessToken string) (platform.User, error)
	Logout(ctx context.Context, accessToken string) error
}

// Routes holds the navigation targets the controller hands back after
// login, register, and logout.
type Routes struct {
	Login          string
	DefaultLanding string
	AdminLanding   string
}

// Controller owns the current session and is the single place allowed to
// clear the stored credential. Every credential transition carries an
// increasing generation number; a network response is applied only if the
// generation it was issued under is still current.
type Controller struct {
	backend Backend
	creds   credstore.Store
	routes  Routes
	logger  *slog.Logger

	mu         sync.Mutex
	state      State
	session    *Session
	generation uint64

	subscribers map[int]func()
	nextSub     int
}

// NewController creates a controller in the initializing state. Call
// Resolve to settle it against the stored credential.
func NewController(backend Backend, creds credstore.Store, routes Routes) *Controller {
	return &Controller{
		backend:     backend,
		creds:       creds,
		routes:      routes,
		logger:      slog.Default().With("component", "session"),
		state:       StateInitializing,
		subscribers: make(map[int]func()),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns a copy of the held session, or nil.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// SignedIn reports whether the controller holds a live session.
func (c *Controller) SignedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateAuthenticated && c.session.SignedIn()
}

// IsAdmin reports whether the held session passes either admin rule.
// Always false without a live session.
func (c *Controller) IsAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateAuthenticated && c.session.SignedIn() && c.session.IsAdmin()
}

// Generation returns the current credential generation.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Subscribe registers fn to run after every state transition. The returned
// function unsubscribes. fn is called without the controller lock held.
func (c *Controller) Subscribe(fn func()) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// notify snapshots the subscriber list under the lock and invokes outside it.
func (c *Controller) notify() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// AccessToken returns the stored access token, or "" when logged out.
func (c *Controller) AccessToken() string {
	cred := c.creds.Get()
	if cred == nil {
		return ""
	}
	return cred.AccessToken
}

// Resolve settles the controller against the stored credential. Safe to call
// repeatedly: a retry from the degraded state goes through the same path.
//
// Outcomes:
//   - no credential stored        → anonymous
//   - backend confirms identity   → authenticated
//   - credential rejected         → one refresh attempt, then clear → anonymous
//   - backend unreachable         → degraded, credential preserved
func (c *Controller) Resolve(ctx context.Context) error {
	c.mu.Lock()
	myGen := c.generation
	c.mu.Unlock()

	cred := c.creds.Get()
	if cred == nil {
		c.apply(myGen, StateAnonymous, nil)
		return nil
	}

	user, err := c.backend.Me(ctx, cred.AccessToken)
	if err == nil {
		return c.applySession(myGen, user)
	}

	switch {
	case errors.Is(err, platform.ErrUnauthenticated):
		// The access token may merely have expired; try the refresh token
		// once before giving up on the pair.
		if cred.RefreshToken != "" {
			if user, rerr := c.refreshAndRetry(ctx, myGen, cred.RefreshToken); rerr == nil {
				return c.applySession(myGen, user)
			} else if errors.Is(rerr, platform.ErrUnreachable) {
				c.apply(myGen, StateDegraded, nil)
				return rerr
			} else if errors.Is(rerr, ErrSuperseded) {
				return rerr
			}
		}

		// Expired sessions are routine: clear silently, no error surfaced.
		if cerr := c.clearCredential(myGen); cerr != nil {
			if errors.Is(cerr, ErrSuperseded) {
				return cerr
			}
			c.logger.Warn("failed to clear rejected credential", "error", cerr)
		}
		c.apply(myGen, StateAnonymous, nil)
		return nil

	case errors.Is(err, platform.ErrUnreachable):
		c.apply(myGen, StateDegraded, nil)
		return err

	default:
		c.apply(myGen, StateDegraded, nil)
		return err
	}
}

// refreshAndRetry exchanges the refresh token and re-resolves the identity.
// The rewritten pair is stored only if the generation is still current.
func (c *Controller) refreshAndRetry(ctx context.Context, myGen uint64, refreshToken string) (platform.User, error) {
	fresh, err := c.backend.Refresh(ctx, refreshToken)
	if err != nil {
		return platform.User{}, err
	}

	if err := c.storeCredential(myGen, fresh); err != nil {
		return platform.User{}, err
	}

	c.logger.Debug("access token refreshed")
	return c.backend.Me(ctx, fresh.AccessToken)
}

// storeCredential writes the pair only while the generation is still
// current. The check and the write happen under one lock: a superseded
// call can neither observe a stale check nor land its write after the
// winner's.
func (c *Controller) storeCredential(myGen uint64, cred credstore.Credential) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != myGen {
		return ErrSuperseded
	}
	return c.creds.Set(cred)
}

// clearCredential is the clearing counterpart of storeCredential.
func (c *Controller) clearCredential(myGen uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != myGen {
		return ErrSuperseded
	}
	return c.creds.Clear()
}

// Login authenticates against the backend and returns the landing route:
// the admin landing when the resolved role indicates admin, otherwise the
// default landing.
//
// A failed login leaves the stored credential untouched and restores the
// state held before the attempt.
func (c *Controller) Login(ctx context.Context, email, password string) (string, error) {
	myGen, prevState, prevSession := c.beginAuth()

	res, err := c.backend.Login(ctx, email, password)
	if err != nil {
		c.apply(myGen, prevState, prevSession)
		return "", err
	}

	sess, err := c.commitLogin(myGen, res)
	if err != nil {
		return "", err
	}

	if sess.IsAdmin() {
		return c.routes.AdminLanding, nil
	}
	return c.routes.DefaultLanding, nil
}

// Register creates an account and logs it in. Always lands on the default
// route regardless of any role the backend returns.
func (c *Controller) Register(ctx context.Context, email, password, fullName string) (string, error) {
	myGen, prevState, prevSession := c.beginAuth()

	res, err := c.backend.Register(ctx, email, password, fullName)
	if err != nil {
		c.apply(myGen, prevState, prevSession)
		return "", err
	}

	if _, err := c.commitLogin(myGen, res); err != nil {
		return "", err
	}

	return c.routes.DefaultLanding, nil
}

// beginAuth bumps the generation so any in-flight resolution or earlier
// login is superseded, and records the state to restore on failure.
func (c *Controller) beginAuth() (gen uint64, prevState State, prevSession *Session) {
	c.mu.Lock()
	c.generation++
	gen = c.generation
	prevState = c.state
	prevSession = c.session
	c.state = StateAuthenticating
	c.mu.Unlock()

	c.notify()
	return gen, prevState, prevSession
}

// commitLogin stores the credential pair and installs the session, unless a
// newer call superseded this one while it was in flight.
func (c *Controller) commitLogin(myGen uint64, res *platform.LoginResult) (*Session, error) {
	if err := c.storeCredential(myGen, res.Credential); err != nil {
		if !errors.Is(err, ErrSuperseded) {
			c.apply(myGen, StateAnonymous, nil)
		}
		return nil, err
	}

	sess := fromUser(res.User)
	if !c.apply(myGen, StateAuthenticated, sess) {
		return nil, ErrSuperseded
	}

	c.logger.Info("login succeeded", "email", sess.Email, "role", sess.RoleName)
	return sess, nil
}

// Logout clears local state unconditionally and synchronously, then tells
// the backend best-effort. Returns the login route.
func (c *Controller) Logout(ctx context.Context) string {
	accessToken := c.AccessToken()

	c.mu.Lock()
	c.generation++
	c.state = StateAnonymous
	c.session = nil
	c.mu.Unlock()

	if err := c.creds.Clear(); err != nil {
		c.logger.Warn("failed to clear credential on logout", "error", err)
	}
	c.notify()

	if accessToken != "" {
		// Server-side invalidation must not delay or fail the local logout.
		go func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := c.backend.Logout(ctx, accessToken); err != nil {
				c.logger.Debug("server-side logout failed", "error", err)
			}
		}()
	}

	return c.routes.Login
}

// Invalidate clears the credential and session in response to a 401/403 seen
// elsewhere (for example an admin listing). Only the controller may do this,
// so racing consumers cannot double-logout.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	c.generation++
	myGen := c.generation
	c.mu.Unlock()

	if err := c.creds.Clear(); err != nil {
		c.logger.Warn("failed to clear invalidated credential", "error", err)
	}
	c.apply(myGen, StateAnonymous, nil)
}

// MaybeRefresh rewrites the token pair if the access token expires within
// the given window, reporting whether a refresh happened. A no-op when
// logged out or when the token carries no readable expiry.
func (c *Controller) MaybeRefresh(ctx context.Context, within time.Duration) (bool, error) {
	c.mu.Lock()
	myGen := c.generation
	state := c.state
	c.mu.Unlock()

	if state != StateAuthenticated {
		return false, nil
	}

	cred := c.creds.Get()
	if cred == nil || cred.RefreshToken == "" {
		return false, nil
	}

	exp, ok := AccessTokenExpiry(cred.AccessToken)
	if !ok || time.Until(exp) > within {
		return false, nil
	}

	fresh, err := c.backend.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return false, err
	}

	if err := c.storeCredential(myGen, fresh); err != nil {
		return false, err
	}

	c.logger.Debug("proactively refreshed access token", "expired_at", exp)
	return true, nil
}

// applySession installs a resolved identity, or drops it if superseded.
// An inactive account resolves but never counts as signed in.
func (c *Controller) applySession(myGen uint64, user platform.User) error {
	if !c.apply(myGen, StateAuthenticated, fromUser(user)) {
		return ErrSuperseded
	}
	return nil
}

// apply commits a state transition if the generation is still current,
// then notifies subscribers. Reports whether the transition was applied.
func (c *Controller) apply(myGen uint64, state State, sess *Session) bool {
	c.mu.Lock()
	if c.generation != myGen {
		c.mu.Unlock()
		return false
	}
	c.state = state
	c.session = sess
	c.mu.Unlock()

	c.notify()
	return true
}

func fromUser(u platform.User) *Session {
	return &Session{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		RoleID:      u.RoleID,
		RoleName:    u.RoleName,
		IsActive:    u.IsActive,
	}
}
