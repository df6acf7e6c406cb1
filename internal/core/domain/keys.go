package domain

// Credential-store keys owned by the session manager.
const (
	KeyToken     = "token"
	KeyActorRole = "actor_role"
	KeyActorID   = "actor_id"
)

// LogoutAllowList names the persisted keys that deliberately survive a
// logout. Order history, the notification log, chat history, and the
// deleted-contacts list belong to the device, not the session.
var LogoutAllowList = []string{
	"order_history",
	"notifications",
	"chat_history",
	"deleted_contacts",
}
