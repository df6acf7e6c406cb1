package domain

import "errors"

// Role identifies the kind of actor behind a session.
type Role string

const (
	RoleNone      Role = ""
	RoleUser      Role = "user"
	RoleCraftsman Role = "craftsman"
	RoleCompany   Role = "company"
	RoleAdmin     Role = "admin"
)

// ParseRole converts a persisted role value back into a Role.
// Unknown values map to RoleNone so a corrupted store entry degrades to
// the role-probe path instead of an invalid session.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleCraftsman, RoleCompany, RoleAdmin:
		return Role(s)
	default:
		return RoleNone
	}
}

// MapLoginRole maps the role string returned by the unified login endpoint
// to a Role. The server is authoritative for admin and craftsman; anything
// else resolves to the role the caller logged in as (user vs company is a
// client-side distinction the server does not always echo back).
func MapLoginRole(serverRole string, requested Role) Role {
	switch Role(serverRole) {
	case RoleAdmin:
		return RoleAdmin
	case RoleCraftsman:
		return RoleCraftsman
	case RoleCompany:
		return RoleCompany
	default:
		if requested == RoleCompany {
			return RoleCompany
		}
		return RoleUser
	}
}

// LoadingState reports whether initial session resolution has completed.
type LoadingState string

const (
	StateBootstrapping LoadingState = "bootstrapping"
	StateReady         LoadingState = "ready"
)

// ActorProfile is the displayable identity of the authenticated actor,
// populated only after a successful profile fetch.
type ActorProfile struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Session is the single mutable entity owned by the session manager.
//
// Invariants:
//   - Profile != nil implies Token != "" and Role != RoleNone.
//   - Token and Role are persisted together; neither is ever stored alone
//     once a role is known.
type Session struct {
	Token   string        `json:"token,omitempty"`
	Role    Role          `json:"role"`
	Profile *ActorProfile `json:"profile,omitempty"`
	State   LoadingState  `json:"state"`
}

// Authenticated reports whether the session holds credentials and a
// resolved role. A non-empty token alone is not enough: it may still be
// pending resolution or already rejected upstream.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.Role != RoleNone
}

// Anonymous reports whether the session holds no credentials at all.
func (s Session) Anonymous() bool {
	return s.Token == "" && s.Role == RoleNone && s.Profile == nil
}

var (
	// ErrCredentialRejected means the upstream explicitly refused the held
	// token (401 semantics). It is the only failure that invalidates
	// persisted credentials.
	ErrCredentialRejected = errors.New("credential rejected")

	// ErrUpstreamUnavailable covers network errors, 5xx responses, and
	// undecodable payloads. Persisted credentials are left untouched.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotAuthenticated is returned by operations that require a
	// resolved session, such as a profile refresh while anonymous.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// LoginRejectedError is the expected, non-exceptional outcome of a login
// attempt the server turned down (wrong password, unknown account,
// pending approval). Message carries the server's human-readable reason.
type LoginRejectedError struct {
	Message string
}

func (e *LoginRejectedError) Error() string {
	if e.Message == "" {
		return "login rejected"
	}
	return "login rejected: " + e.Message
}
