// Package identity is the local email and password sign-in provider. The
// user id it assigns is the owner id of every record.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const MinPasswordLength = 6

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("not signed in")
)

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// AuthEvent reports a change of sign-in state.
type AuthEvent struct {
	Kind    EventKind
	OwnerID string
	At      time.Time
}

type Options struct {
	SessionTTL time.Duration
	BcryptCost int
}

type Provider struct {
	users    ports.UserStore
	sessions ports.SessionStore
	ttl      time.Duration
	cost     int
	now      func() time.Time

	mu       sync.Mutex
	watchers map[chan AuthEvent]struct{}
}

func NewProvider(users ports.UserStore, sessions ports.SessionStore, opts Options) *Provider {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Provider{
		users:    users,
		sessions: sessions,
		ttl:      opts.SessionTTL,
		cost:     opts.BcryptCost,
		now:      time.Now,
		watchers: make(map[chan AuthEvent]struct{}),
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// SignUp registers a new account and returns it.
func (p *Provider) SignUp(ctx context.Context, email, password string) (core.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return core.User{}, err
	}
	if len(password) < MinPasswordLength {
		return core.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := core.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return core.User{}, ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User signed up", "owner_id", u.ID)
	return u, nil
}

// Login checks the credentials and opens a session.
func (p *Provider) Login(ctx context.Context, email, password string) (core.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return core.Session{}, ErrInvalidCredentials
	}
	u, err := p.users.UserByEmail(ctx, email)
	if errors.Is(err, ports.ErrNotFound) {
		return core.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return core.Session{}, ErrInvalidCredentials
	}

	s := core.Session{
		Token:     uuid.NewString(),
		OwnerID:   u.ID,
		ExpiresAt: p.now().Add(p.ttl).UTC(),
	}
	if err := p.sessions.CreateSession(ctx, s); err != nil {
		return core.Session{}, fmt.Errorf("create session: %w", err)
	}

	p.emit(AuthEvent{Kind: SignedIn, OwnerID: u.ID, At: p.now().UTC()})
	return s, nil
}

// Logout ends the session. Unknown tokens are not an error.
func (p *Provider) Logout(ctx context.Context, token string) error {
	s, err := p.sessions.SessionByToken(ctx, token)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}
	if err := p.sessions.DeleteSession(ctx, token); err != nil && !errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	p.emit(AuthEvent{Kind: SignedOut, OwnerID: s.OwnerID, At: p.now().UTC()})
	return nil
}

// Resolve returns the owner of a live session.
func (p *Provider) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	s, err := p.sessions.SessionByToken(ctx, token)
	if errors.Is(err, ports.ErrNotFound) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("find session: %w", err)
	}
	if s.Expired(p.now()) {
		_ = p.sessions.DeleteSession(ctx, token)
		p.emit(AuthEvent{Kind: SignedOut, OwnerID: s.OwnerID, At: p.now().UTC()})
		return "", ErrUnauthenticated
	}
	return s.OwnerID, nil
}

// PurgeExpired removes sessions past their expiry.
func (p *Provider) PurgeExpired(ctx context.Context) (int, error) {
	return p.sessions.DeleteExpiredSessions(ctx, p.now())
}

// Watch streams sign-in state changes until cancel is called. Events are
// dropped for a watcher that is not keeping up.
func (p *Provider) Watch() (<-chan AuthEvent, func()) {
	ch := make(chan AuthEvent, 16)
	p.mu.Lock()
	p.watchers[ch] = struct{}{}
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers, ch)
			close(ch)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) emit(ev AuthEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.watchers {
		select {
		case ch <- ev:
		default:
			slog.Warn("Dropping auth event for slow watcher", "owner_id", ev.OwnerID, "kind", ev.Kind)
		}
	}
}
