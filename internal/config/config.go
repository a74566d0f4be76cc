package config

import "time"

// Streaming settings
const (
	// BlockFrames is the number of frames held by one decoded block.
	// At 44.1kHz a block covers roughly 370ms of audio.
	BlockFrames = 16384

	// CacheBlocks is the number of blocks in one pre-decoded cache window.
	CacheBlocks = 4
)

// Queue settings
const (
	// RequestQueueCap is the capacity of the client-to-server request queue.
	RequestQueueCap = 64

	// ResponseQueueCap is the capacity of the server-to-client response queue.
	ResponseQueueCap = 64

	// CloseQueueCap is the capacity of the close-signal queue. A single
	// value is ever pushed, but the slot must always be available.
	CloseQueueCap = 1
)

// Scheduling settings
const (
	// PollInterval is the sleep between empty-queue checks. It is used
	// uniformly by the open handshake wait, the server's idle loop and
	// the backpressure send wait. Polling with a fixed sleep keeps both
	// sides off OS wait primitives.
	PollInterval = 1 * time.Millisecond
)
