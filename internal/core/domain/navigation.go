package domain

import "strconv"

// NavigationTarget is a front-end path the session manager asks the UI to
// navigate to. The manager never navigates itself; it only emits intents.
type NavigationTarget string

const (
	// NavLogin is the entry point reached after logout.
	NavLogin NavigationTarget = "/login"
	// NavHome is the default landing for users and companies.
	NavHome NavigationTarget = "/"
	// NavAdminDashboard is the default landing for admins.
	NavAdminDashboard NavigationTarget = "/admin/dashboard"
)

// DefaultLanding resolves the post-login destination when the server
// supplies no redirect hint. Craftsmen land on their own public profile.
func DefaultLanding(role Role, actorID int64) NavigationTarget {
	switch role {
	case RoleAdmin:
		return NavAdminDashboard
	case RoleCraftsman:
		return NavigationTarget("/craftsmen/" + strconv.FormatInt(actorID, 10))
	default:
		return NavHome
	}
}
