package audio

import (
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/soundsmith/diskstream/internal/config"
)

// go-mp3 always produces interleaved 16-bit stereo.
const (
	mp3Channels      = 2
	mp3BytesPerFrame = mp3Channels * 2
)

// MP3Params holds MP3-specific parameters reported through FileInfo.
type MP3Params struct{}

// MP3Decoder implements Decoder for MP3 files. go-mp3 exposes the
// decoded stream as a seekable reader over raw PCM bytes, so frame
// positions map directly to byte offsets.
type MP3Decoder struct {
	decoder    *mp3.Decoder
	file       *os.File
	sampleRate int
	numFrames  int64
	position   int64

	scratch []byte
}

// NewMP3Decoder opens an MP3 file positioned at startFrame.
func NewMP3Decoder(filename string, startFrame int64) (Decoder, FileInfo, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, FileInfo{}, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, FileInfo{}, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	d := &MP3Decoder{
		decoder:    decoder,
		file:       f,
		sampleRate: decoder.SampleRate(),
		numFrames:  decoder.Length() / mp3BytesPerFrame,
		scratch:    make([]byte, config.BlockFrames*mp3BytesPerFrame),
	}

	if err := d.SeekTo(startFrame); err != nil {
		f.Close()
		return nil, FileInfo{}, err
	}

	info := FileInfo{
		NumFrames:   d.numFrames,
		NumChannels: mp3Channels,
		SampleRate:  d.sampleRate,
		Params:      MP3Params{},
	}
	return d, info, nil
}

// DecodeInto fills b from the current position, zero-filling past the
// end of the file.
func (d *MP3Decoder) DecodeInto(b *DataBlock) error {
	b.StartFrame = d.position

	want := int64(b.Frames())
	avail := d.numFrames - d.position
	if avail < 0 {
		avail = 0
	}
	n := want
	if n > avail {
		n = avail
	}

	if n > 0 {
		buf := d.scratch[:n*mp3BytesPerFrame]
		read, err := io.ReadFull(d.decoder, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return fmt.Errorf("failed to read MP3 data: %w", err)
		}

		// Length is exact for constant-rate files but the stream can
		// still come up short; trust what was actually read.
		n = int64(read / mp3BytesPerFrame)
		for i := int64(0); i < n; i++ {
			off := i * mp3BytesPerFrame
			left := int16(uint16(buf[off]) | uint16(buf[off+1])<<8)
			right := int16(uint16(buf[off+2]) | uint16(buf[off+3])<<8)
			b.Data[0][i] = float64(left) / 32768.0
			b.Data[1][i] = float64(right) / 32768.0
		}
		d.position += n
	}

	for ch := range b.Data {
		tail := b.Data[ch][n:]
		for i := range tail {
			tail[i] = 0
		}
	}
	return nil
}

// SeekTo repositions the decoder, clamping to the file bounds.
func (d *MP3Decoder) SeekTo(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	if frame > d.numFrames {
		frame = d.numFrames
	}

	if _, err := d.decoder.Seek(frame*mp3BytesPerFrame, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to frame %d: %w", frame, err)
	}
	d.position = frame
	return nil
}

// CurrentFrame returns the decoder position
func (d *MP3Decoder) CurrentFrame() int64 {
	return d.position
}

// Close closes the decoder and releases resources
func (d *MP3Decoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
