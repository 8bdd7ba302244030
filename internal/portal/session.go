// Package portal implements the browser-side orchestration of the document
// template portal: the session lifecycle, view routing, the document editor,
// and the template catalog. External collaborators (identity service,
// document store, file renderers) are reached through narrow interfaces.
package portal

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jun/formdesk/internal/identity"
)

// Identity is the narrow contract with the external identity service.
// *identity.Service satisfies it.
type Identity interface {
	SignInAnonymously(ctx context.Context) (*identity.Principal, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Principal, error)
	SignInWithCredential(ctx context.Context, token string) (*identity.Principal, error)
	CreateAccount(ctx context.Context, email, password string) (*identity.Principal, error)
	SignOut(ctx context.Context) error
	Subscribe(fn func(*identity.Principal)) func()
}

// SessionState enumerates the authentication states of the portal.
type SessionState int

const (
	// StateUnresolved holds from startup until the first session-change
	// notification; it is never re-entered afterwards.
	StateUnresolved SessionState = iota
	StateAnonymous
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unresolved"
	}
}

// Session is the current authentication identity of the portal user.
// Exactly one Session value is active at any time.
type Session struct {
	State  SessionState
	UserID string
	Email  string
}

const minPasswordLength = 8

// Provider owns the session lifecycle. It holds the single long-lived
// subscription to the identity service's change feed and exposes the
// current session to the rest of the portal.
type Provider struct {
	id      Identity
	domains []string
	log     zerolog.Logger

	mu      sync.Mutex
	session Session
	// resolved flips when the first notification arrives and never
	// flips back; it is the explicit replacement for a closure flag.
	resolved bool
	// bootstrapped guards the one-shot anonymous sign-in issued when no
	// credential exists at first resolution.
	bootstrapped bool
	release      func()
}

// NewProvider creates a Provider in the Unresolved state. allowedDomains
// restricts which email domains may register or sign in; empty allows all.
func NewProvider(id Identity, allowedDomains []string, log zerolog.Logger) *Provider {
	domains := make([]string, 0, len(allowedDomains))
	for _, d := range allowedDomains {
		domains = append(domains, strings.ToLower(d))
	}
	return &Provider{id: id, domains: domains, log: log}
}

// Start acquires the session-change subscription and performs initial
// resolution. If credentialToken is non-empty it is tried first; failing
// that (or with no token at all), the provider issues an anonymous sign-in
// exactly once per lifetime.
func (p *Provider) Start(ctx context.Context, credentialToken string) error {
	p.mu.Lock()
	if p.release != nil {
		p.mu.Unlock()
		return errors.New("session provider already started")
	}
	p.mu.Unlock()

	release := p.id.Subscribe(p.onChange)
	p.mu.Lock()
	p.release = release
	p.mu.Unlock()

	if credentialToken != "" {
		if _, err := p.id.SignInWithCredential(ctx, credentialToken); err == nil {
			return nil
		}
		p.log.Warn().Msg("stored credential rejected, falling back to anonymous session")
	}

	p.mu.Lock()
	if p.resolved || p.bootstrapped {
		p.mu.Unlock()
		return nil
	}
	p.bootstrapped = true
	p.mu.Unlock()

	if _, err := p.id.SignInAnonymously(ctx); err != nil {
		return &AuthenticationError{Reason: "could not establish an anonymous session", Err: err}
	}
	return nil
}

// Close releases the session-change subscription. Safe to call once the
// application is being torn down.
func (p *Provider) Close() {
	p.mu.Lock()
	release := p.release
	p.release = nil
	p.mu.Unlock()

	if release != nil {
		release()
	}
}

// onChange is the single listener on the identity service's change feed.
func (p *Provider) onChange(pr *identity.Principal) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resolved = true

	if pr == nil {
		// Sign-out. SignOut immediately requests a replacement anonymous
		// session, so the previous session stays visible until the
		// replacement notification arrives; Unresolved is never re-entered.
		return
	}

	if pr.Anonymous {
		p.session = Session{State: StateAnonymous, UserID: pr.UserID}
	} else {
		p.session = Session{State: StateAuthenticated, UserID: pr.UserID, Email: pr.Email}
	}
}

// Current returns the active session.
func (p *Provider) Current() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// IsLoading reports whether the session has never received its first
// notification. It is false forever after, independent of later sign-in and
// sign-out toggling.
func (p *Provider) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.resolved
}

// SignIn authenticates with email and password. The email domain is checked
// locally before the identity service is contacted.
func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	if err := p.validateEmail(email); err != nil {
		return err
	}

	if _, err := p.id.SignInWithPassword(ctx, email, password); err != nil {
		return &AuthenticationError{Reason: reasonFor(err), Err: err}
	}
	return nil
}

// Register creates a new account and signs it in. Validation is local and
// never reaches the identity service.
func (p *Provider) Register(ctx context.Context, email, password string) error {
	if err := p.validateEmail(email); err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}

	if _, err := p.id.CreateAccount(ctx, email, password); err != nil {
		return &AuthenticationError{Reason: reasonFor(err), Err: err}
	}
	return nil
}

// SignOut ends the authenticated session and immediately establishes a
// fresh anonymous one, so the portal always holds a stable user reference.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.id.SignOut(ctx); err != nil {
		return &AuthenticationError{Reason: "sign out was rejected", Err: err}
	}
	if _, err := p.id.SignInAnonymously(ctx); err != nil {
		return &AuthenticationError{Reason: "could not establish an anonymous session", Err: err}
	}
	return nil
}

func (p *Provider) validateEmail(email string) error {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return &ValidationError{Field: "email", Reason: "not a valid email address"}
	}
	if len(p.domains) == 0 {
		return nil
	}

	domain = strings.ToLower(domain)
	for _, d := range p.domains {
		if domain == d {
			return nil
		}
	}
	return &ValidationError{Field: "email", Reason: "email domain is not allowed"}
}

// reasonFor maps identity service errors to user-facing text.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "email or password is incorrect"
	case errors.Is(err, identity.ErrEmailTaken):
		return "an account with this email already exists"
	default:
		return "the identity service rejected the request"
	}
}
