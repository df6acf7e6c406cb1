package ports

import (
	"context"

	"github.com/craftlink/session-agent/internal/core/domain"
)

// LoginOutcome is what the UI gets back from a login attempt. A rejected
// login (wrong password, pending approval) is a normal outcome, not an
// error: OK is false and Message carries the server's reason.
type LoginOutcome struct {
	OK         bool
	Message    string
	NavigateTo domain.NavigationTarget
}

// SessionService owns the Session entity. All mutation funnels through
// the four named operations; consumers only ever read snapshots.
type SessionService interface {
	// Bootstrap resolves the persisted session once at startup. It never
	// fails: every outcome degrades to an anonymous or partially resolved
	// session, and the session is always Ready afterwards.
	Bootstrap(ctx context.Context)

	Login(ctx context.Context, in LoginInput) LoginOutcome

	// Logout clears all persisted state except the allow-list, closes the
	// realtime channel, and returns the navigation intent for the UI.
	// Idempotent.
	Logout(ctx context.Context) domain.NavigationTarget

	// RefreshProfile re-fetches the profile for the known role without
	// touching token or role. The returned error is always from the
	// domain taxonomy: ErrNotAuthenticated when anonymous, the classified
	// upstream error when the fetch failed. On transient failure the last
	// known profile stays on display.
	RefreshProfile(ctx context.Context) (domain.Session, error)

	// Snapshot returns a copy of the current session.
	Snapshot() domain.Session

	// Subscribe returns a channel receiving a snapshot after every state
	// change, plus a cancel func. Slow consumers miss updates rather than
	// block the manager.
	Subscribe() (<-chan domain.Session, func())
}
