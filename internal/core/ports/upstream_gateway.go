package ports

import (
	"context"

	"github.com/craftlink/session-agent/internal/core/domain"
)

// LoginInput carries the credentials the UI collected. Identifier is
// free-form: an email for users and companies, a phone number for
// craftsmen. Role is the caller's role selector, not a server fact.
type LoginInput struct {
	Role       domain.Role
	Identifier string
	Password   string
}

// LoginResult is a successful response from the unified login endpoint.
type LoginResult struct {
	Token    string
	Role     string // raw server role, mapped via domain.MapLoginRole
	Actor    domain.ActorProfile
	Redirect string // optional server-supplied redirect hint, honoured verbatim
}

// UpstreamGateway is the marketplace backend as seen by the session
// manager. Implementations classify every failure into the domain error
// taxonomy before returning:
//
//   - domain.ErrCredentialRejected: the token was explicitly refused (401)
//   - *domain.LoginRejectedError: login turned down for business reasons
//   - domain.ErrUpstreamUnavailable: network error, 5xx, bad payload
type UpstreamGateway interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	// FetchProfile calls the role-specific "who am I" endpoint: craftsmen
	// have their own profile route, everyone else shares the generic one.
	FetchProfile(ctx context.Context, role domain.Role, token string) (*domain.ActorProfile, error)
}
