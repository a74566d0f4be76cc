package audio

import "github.com/soundsmith/diskstream/internal/config"

// FileInfo holds decoder-reported metadata about an open audio file.
// It is produced once at open time and never mutated afterwards.
type FileInfo struct {
	// NumFrames is the total number of frames in the file.
	NumFrames int64

	// NumChannels is the number of audio channels (1=mono, 2=stereo)
	NumChannels int

	// SampleRate is the audio sample rate in Hz
	SampleRate int

	// Params carries decoder-specific parameters (bit depth, codec
	// details) that the generic streaming layer never inspects.
	Params any
}

// DataBlock is a reusable multi-channel buffer of decoded frames.
// It has exactly one owner at any instant: the server's pool, the
// server (mid-fill), or the client holding a response. Ownership moves
// with the messages that carry it, so no two goroutines ever touch the
// same block concurrently.
type DataBlock struct {
	// Data holds one sample sequence per channel, each BlockFrames long.
	Data [][]float64

	// StartFrame is the frame the decoder actually decoded from.
	// The decoder sets it on every fill, so it is authoritative and may
	// differ from WantedStart near the end of the file.
	StartFrame int64

	// WantedStart is the frame the client asked for.
	WantedStart int64
}

// NewDataBlock allocates a block sized to the file's channel count.
func NewDataBlock(numChannels int) *DataBlock {
	data := make([][]float64, numChannels)
	for ch := range data {
		data[ch] = make([]float64, config.BlockFrames)
	}
	return &DataBlock{Data: data}
}

// Frames returns the number of frames the block holds.
func (b *DataBlock) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// BlockCache is an ordered run of blocks holding a contiguous
// pre-decoded window starting at WantedStart. It follows the same
// single-owner discipline as DataBlock.
type BlockCache struct {
	Blocks      []*DataBlock
	WantedStart int64
}

// NewBlockCache allocates a cache window sized to the file's channel count.
func NewBlockCache(numChannels int) *BlockCache {
	blocks := make([]*DataBlock, config.CacheBlocks)
	for i := range blocks {
		blocks[i] = NewDataBlock(numChannels)
	}
	return &BlockCache{Blocks: blocks}
}
