package stream

import (
	"time"

	"github.com/soundsmith/diskstream/internal/audio"
	"github.com/soundsmith/diskstream/internal/config"
	"github.com/soundsmith/diskstream/internal/ring"
)

// OpenFunc opens a decoder for path positioned at startFrame. The read
// server calls it once, on its own goroutine, before entering its loop.
// audio.NewDecoder is the usual implementation.
type OpenFunc func(path string, startFrame int64) (audio.Decoder, audio.FileInfo, error)

// readServer owns the decoder and both buffer pools. Everything in this
// struct is touched only by the server goroutine.
type readServer struct {
	toClient    *ring.Queue[ServerToClientMsg]
	fromClient  *ring.Queue[ClientToServerMsg]
	closeSignal *ring.Queue[*HeapData]

	dec      audio.Decoder
	fileInfo audio.FileInfo

	blockPool []*audio.DataBlock
	cachePool []*audio.BlockCache

	poll time.Duration
	run  bool
}

type openResult struct {
	info audio.FileInfo
	err  error
}

// Start spawns the read server for path and returns once the worker has
// opened the decoder. On success the worker is running its dispatch
// loop and the returned FileInfo describes the file; on failure the
// worker has already exited and no message will ever appear on the
// response queue.
//
// The calling goroutine polls for the open result with a bounded sleep
// rather than blocking on an OS primitive, matching the scheduling
// discipline of everything else in this package.
func Start(path string, startFrame int64, open OpenFunc, q Queues) (audio.FileInfo, error) {
	// Capacity one: exactly one result is ever pushed, so the push
	// cannot fail.
	openQ := ring.New[openResult](1)

	go func() {
		dec, info, err := open(path, startFrame)
		if err != nil {
			openQ.Push(openResult{err: err})
			return
		}
		openQ.Push(openResult{info: info})

		s := &readServer{
			toClient:    q.ToClient,
			fromClient:  q.FromClient,
			closeSignal: q.CloseSignal,
			dec:         dec,
			fileInfo:    info,
			poll:        config.PollInterval,
			run:         true,
		}
		s.runLoop()
	}()

	for {
		if res, ok := openQ.Pop(); ok {
			return res.info, res.err
		}
		time.Sleep(config.PollInterval)
	}
}

// runLoop is the dispatch loop. Each iteration checks the close signal
// first, then drains every pending request in arrival order, then
// sleeps if there was nothing to do. The loop exits on a close signal
// or on the first decoder failure; either way the decoder and both
// pools are released on this goroutine.
func (s *readServer) runLoop() {
	defer func() {
		s.dec.Close()
		s.blockPool = nil
		s.cachePool = nil
	}()

	for s.run {
		if hd, ok := s.closeSignal.Pop(); ok {
			// The client's heap data is dropped here, on the server
			// goroutine. Requests still queued are discarded with it.
			_ = hd
			s.run = false
			break
		}

		for s.run {
			msg, ok := s.fromClient.Pop()
			if !ok {
				break
			}
			if err := s.handle(msg); err != nil {
				s.send(ServerToClientMsg{Kind: ResFatalError, Err: err})
				s.run = false
			}
		}

		if s.run {
			time.Sleep(s.poll)
		}
	}
}

// handle services one request. A non-nil return is a fatal decoder
// failure: the loop sends the one FatalError response and terminates.
func (s *readServer) handle(msg ClientToServerMsg) error {
	switch msg.Kind {
	case MsgReadIntoBlock:
		block := msg.Block
		if block == nil {
			block = s.popBlock()
		}

		block.StartFrame = msg.StartFrame
		block.WantedStart = msg.StartFrame

		if err := s.dec.DecodeInto(block); err != nil {
			return err
		}
		s.send(ServerToClientMsg{
			Kind:       ResReadIntoBlock,
			BlockIndex: msg.BlockIndex,
			Block:      block,
		})

	case MsgDisposeBlock:
		if msg.Block != nil {
			s.blockPool = append(s.blockPool, msg.Block)
		}

	case MsgSeekTo:
		return s.dec.SeekTo(msg.StartFrame)

	case MsgCache:
		cache := msg.Cache
		if cache == nil {
			cache = s.popCache()
		}

		cache.WantedStart = msg.StartFrame

		// Remember where the stream was so the prefetch does not
		// disturb the decoder's playback position.
		resume := s.dec.CurrentFrame()

		if err := s.dec.SeekTo(msg.StartFrame); err != nil {
			return err
		}
		next := msg.StartFrame
		for _, block := range cache.Blocks {
			// Blocks are contiguous within the window.
			block.WantedStart = next
			if err := s.dec.DecodeInto(block); err != nil {
				return err
			}
			next += int64(block.Frames())
		}
		if err := s.dec.SeekTo(resume); err != nil {
			return err
		}

		s.send(ServerToClientMsg{
			Kind:       ResCache,
			CacheIndex: msg.CacheIndex,
			Cache:      cache,
		})

	case MsgDisposeCache:
		if msg.Cache != nil {
			s.cachePool = append(s.cachePool, msg.Cache)
		}
	}
	return nil
}

// popBlock takes the most recently disposed block, constructing a new
// one only when the pool is empty.
func (s *readServer) popBlock() *audio.DataBlock {
	if n := len(s.blockPool); n > 0 {
		block := s.blockPool[n-1]
		s.blockPool = s.blockPool[:n-1]
		return block
	}
	return audio.NewDataBlock(s.fileInfo.NumChannels)
}

// popCache takes the most recently disposed cache, constructing a new
// one only when the pool is empty.
func (s *readServer) popCache() *audio.BlockCache {
	if n := len(s.cachePool); n > 0 {
		cache := s.cachePool[n-1]
		s.cachePool = s.cachePool[:n-1]
		return cache
	}
	return audio.NewBlockCache(s.fileInfo.NumChannels)
}

// send delivers a response, waiting for queue space to provide natural
// backpressure. The close signal is re-checked every iteration so a
// vanished client cannot wedge the server; if the close arrives during
// the wait the message is dropped and the loop terminates.
func (s *readServer) send(msg ServerToClientMsg) {
	for s.toClient.Full() {
		if hd, ok := s.closeSignal.Pop(); ok {
			_ = hd
			s.run = false
			return
		}
		time.Sleep(s.poll)
	}

	// Cannot fail: a slot was free above and this goroutine is the
	// only producer.
	s.toClient.Push(msg)
}
