// Package stream implements the background read server that feeds a
// real-time audio consumer from disk. The consumer and the server share
// nothing but three bounded SPSC queues; every buffer crossing a queue
// changes owner with the message that carries it.
package stream

import "github.com/soundsmith/diskstream/internal/audio"

// MsgKind identifies a client-to-server request.
type MsgKind uint8

const (
	// MsgReadIntoBlock asks the server to fill a block from the
	// decoder's current position.
	MsgReadIntoBlock MsgKind = iota

	// MsgDisposeBlock returns a block to the server's pool.
	MsgDisposeBlock

	// MsgSeekTo repositions the decoder without decoding.
	MsgSeekTo

	// MsgCache asks the server to pre-decode a cache window without
	// disturbing the decoder's streaming position.
	MsgCache

	// MsgDisposeCache returns a cache to the server's pool.
	MsgDisposeCache
)

// ClientToServerMsg is a request to the read server. It is a flat
// struct rather than one type per request so messages move through the
// queues without allocation; which fields are meaningful depends on
// Kind.
type ClientToServerMsg struct {
	Kind MsgKind

	// BlockIndex / CacheIndex echo back to the client which slot the
	// response belongs to.
	BlockIndex int
	CacheIndex int

	// StartFrame is the requested frame for MsgReadIntoBlock and
	// MsgCache, and the seek target for MsgSeekTo.
	StartFrame int64

	// Block carries an owned block for MsgReadIntoBlock (optional) and
	// MsgDisposeBlock. A nil block on a read means "server supplies
	// one from its pool".
	Block *audio.DataBlock

	// Cache carries an owned cache for MsgCache (optional) and
	// MsgDisposeCache.
	Cache *audio.BlockCache
}

// ResKind identifies a server-to-client response.
type ResKind uint8

const (
	// ResReadIntoBlock returns a filled block.
	ResReadIntoBlock ResKind = iota

	// ResCache returns a filled cache window.
	ResCache

	// ResFatalError reports a decode or seek failure. It is sent at
	// most once per server lifetime; no response of any kind follows it.
	ResFatalError
)

// ServerToClientMsg is a response from the read server.
type ServerToClientMsg struct {
	Kind ResKind

	BlockIndex int
	CacheIndex int

	Block *audio.DataBlock
	Cache *audio.BlockCache

	// Err carries the decoder failure for ResFatalError.
	Err error
}

// HeapData is an opaque owned payload handed to the server with the
// close signal. Its only purpose is to be dropped on the server
// goroutine, so the real-time side never pays a deallocation cost.
type HeapData struct {
	BlockPool []*audio.DataBlock
	CachePool []*audio.BlockCache
}
