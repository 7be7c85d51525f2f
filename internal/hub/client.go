package hub

import "ecoplaint/backend/internal/models"

// Client is one live connection of an authenticated user.
type Client interface {
	// GetUserID returns the token subject the connection was opened with.
	GetUserID() uint

	// GetSendChannel returns the channel the hub writes notifications to.
	GetSendChannel() chan<- models.Notification

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts the send channel down, which stops the write pump.
	Close()
}
