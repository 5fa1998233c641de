package hub

import "time"

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024

	sendBufferSize = 256

	// Deadline for a single socket event against the chat service.
	actionTimeout = 10 * time.Second
)
