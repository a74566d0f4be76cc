package stream

import (
	"github.com/soundsmith/diskstream/internal/audio"
	"github.com/soundsmith/diskstream/internal/config"
	"github.com/soundsmith/diskstream/internal/ring"
)

// Queues bundles the three SPSC queues connecting one client to one
// read server. The client is the producer on FromClient and
// CloseSignal and the consumer on ToClient; the server holds the
// opposite ends.
type Queues struct {
	ToClient    *ring.Queue[ServerToClientMsg]
	FromClient  *ring.Queue[ClientToServerMsg]
	CloseSignal *ring.Queue[*HeapData]
}

// NewQueues builds the three queues at their configured capacities.
func NewQueues() Queues {
	return Queues{
		ToClient:    ring.New[ServerToClientMsg](config.ResponseQueueCap),
		FromClient:  ring.New[ClientToServerMsg](config.RequestQueueCap),
		CloseSignal: ring.New[*HeapData](config.CloseQueueCap),
	}
}

// Handle is the consumer-side view of a read server. Every method is
// non-blocking and allocation-free, so all of them are safe to call
// from a real-time context. Request methods report false when the
// request queue is momentarily full; the caller retries on its own
// schedule. What to request and when is entirely the caller's policy.
//
// A Handle must be used from a single goroutine.
type Handle struct {
	q      Queues
	closed bool
}

// NewHandle wraps the client ends of q.
func NewHandle(q Queues) *Handle {
	return &Handle{q: q}
}

// ReadIntoBlock requests a fill from the decoder's current position.
// Passing a nil block lets the server supply one from its pool.
func (h *Handle) ReadIntoBlock(blockIndex int, block *audio.DataBlock, startFrame int64) bool {
	return h.q.FromClient.Push(ClientToServerMsg{
		Kind:       MsgReadIntoBlock,
		BlockIndex: blockIndex,
		Block:      block,
		StartFrame: startFrame,
	})
}

// DisposeBlock hands a block back to the server's pool.
func (h *Handle) DisposeBlock(block *audio.DataBlock) bool {
	return h.q.FromClient.Push(ClientToServerMsg{
		Kind:  MsgDisposeBlock,
		Block: block,
	})
}

// SeekTo repositions the decoder.
func (h *Handle) SeekTo(frame int64) bool {
	return h.q.FromClient.Push(ClientToServerMsg{
		Kind:       MsgSeekTo,
		StartFrame: frame,
	})
}

// Cache requests a pre-decoded window starting at startFrame. Passing a
// nil cache lets the server supply one from its pool.
func (h *Handle) Cache(cacheIndex int, cache *audio.BlockCache, startFrame int64) bool {
	return h.q.FromClient.Push(ClientToServerMsg{
		Kind:       MsgCache,
		CacheIndex: cacheIndex,
		Cache:      cache,
		StartFrame: startFrame,
	})
}

// DisposeCache hands a cache back to the server's pool.
func (h *Handle) DisposeCache(cache *audio.BlockCache) bool {
	return h.q.FromClient.Push(ClientToServerMsg{
		Kind:  MsgDisposeCache,
		Cache: cache,
	})
}

// PollRes pops the next response if one is ready.
func (h *Handle) PollRes() (ServerToClientMsg, bool) {
	return h.q.ToClient.Pop()
}

// Close signals the server to shut down. Any heap-owning state the
// caller wants freed travels with the signal and is dropped on the
// server goroutine; hd may be nil. Close is effective once; later
// calls report false.
func (h *Handle) Close(hd *HeapData) bool {
	if h.closed {
		return false
	}
	h.closed = true
	return h.q.CloseSignal.Push(hd)
}
