package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmcdole/reel/internal/domain"
)

// Authority gates session work on a valid credential and resolves the user identity
type Authority interface {
	Check() error
	Identity() (string, bool)
	Invalidate()
	Logout() error
}

var _ Authority = (*Gate)(nil)

// Gate is the AuthGate: it validates the stored credential, supplies the
// bearer token to the catalog client and resolves the user identity.
type Gate struct {
	store  domain.CredentialStore
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	token    string
	identity string
}

// NewGate creates a gate backed by store
func NewGate(store domain.CredentialStore, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{store: store, logger: logger, now: time.Now}
}

// Check loads the stored credential and verifies it can be used.
// Any failure returns an error wrapping domain.ErrAuth.
func (g *Gate) Check() error {
	cred, ok := g.store.LoadCredential()
	if !ok || cred.Token == "" {
		g.reset()
		return fmt.Errorf("%w: no stored session", domain.ErrAuth)
	}

	identity, err := g.decode(cred.Token)
	if err != nil {
		g.logger.Warn("stored credential rejected", "error", err)
		g.reset()
		return err
	}

	g.mu.Lock()
	g.token = cred.Token
	g.identity = identity
	g.mu.Unlock()
	return nil
}

// SignIn stores a freshly issued credential and checks it
func (g *Gate) SignIn(cred domain.Credential) error {
	if _, err := g.decode(cred.Token); err != nil {
		return err
	}
	if err := g.store.SaveCredential(cred); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return g.Check()
}

// decode reads the identity claim without verifying the signature; the
// server holds the signing key and re-validates every request.
func (g *Gate) decode(token string) (string, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("%w: malformed token: %v", domain.ErrAuth, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: unexpected claims type", domain.ErrAuth)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return "", fmt.Errorf("%w: invalid exp claim", domain.ErrAuth)
	}
	if exp != nil && !g.now().Before(exp.Time) {
		return "", fmt.Errorf("%w: token expired", domain.ErrAuth)
	}

	if id := claimString(claims["user_id"]); id != "" {
		return id, nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("%w: token carries no user identity", domain.ErrAuth)
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return ""
	}
}

// Token returns the bearer credential, empty when signed out
func (g *Gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// Identity returns the resolved user id
func (g *Gate) Identity() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.identity, g.identity != ""
}

// Invalidate drops a credential the server rejected
func (g *Gate) Invalidate() {
	g.reset()
	if err := g.store.ClearCredential(); err != nil {
		g.logger.Error("failed to clear rejected credential", "error", err)
	}
}

// Logout clears the stored credential
func (g *Gate) Logout() error {
	g.reset()
	if err := g.store.ClearCredential(); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

func (g *Gate) reset() {
	g.mu.Lock()
	g.token = ""
	g.identity = ""
	g.mu.Unlock()
}
