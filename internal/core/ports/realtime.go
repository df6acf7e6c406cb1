package ports

import "context"

// RealtimeConnector manages the push-messaging channel whose lifetime is
// bound to holding a valid session token. The session manager calls
// Connect exactly once per successful authentication event and Disconnect
// exactly once per logout or credential rejection.
type RealtimeConnector interface {
	// Connect opens the channel with the given token, tearing down any
	// previous connection first.
	Connect(ctx context.Context, token string) error
	// Disconnect closes the channel. Safe to call when not connected.
	Disconnect()
}
