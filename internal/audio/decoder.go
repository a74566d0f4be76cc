package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Decoder is the capability a format must provide for disk streaming.
// A decoder is owned by exactly one read server and is only ever called
// from that server's goroutine, so implementations need no locking.
type Decoder interface {
	// DecodeInto fills b from the decoder's current position and
	// advances the position by the number of frames produced. Reads
	// past the end of the file zero-fill the remainder of the block
	// and are not an error. DecodeInto records the position it decoded
	// from in b.StartFrame.
	DecodeInto(b *DataBlock) error

	// SeekTo repositions the decoder without decoding. Positions are
	// clamped to the file bounds.
	SeekTo(frame int64) error

	// CurrentFrame reports the decoder's position without side effects.
	CurrentFrame() int64

	// Close releases the decoder's resources
	Close() error
}

// NewDecoder opens path with the decoder matching its file extension,
// positioned at startFrame.
func NewDecoder(path string, startFrame int64) (Decoder, FileInfo, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return NewWAVDecoder(path, startFrame)
	case ".mp3":
		return NewMP3Decoder(path, startFrame)
	case ".flac":
		return NewFLACDecoder(path, startFrame)
	default:
		return nil, FileInfo{}, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
}
