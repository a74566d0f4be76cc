package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	"github.com/soundsmith/diskstream/internal/config"
)

// WAVParams holds WAV-specific parameters reported through FileInfo.
type WAVParams struct {
	BitDepth   int
	BlockAlign int
}

// WAVDecoder implements Decoder for WAV files. The wav package parses
// the header; PCM frames are read straight off the data chunk, which
// makes seeking a plain byte-offset computation.
type WAVDecoder struct {
	file       *os.File
	dataStart  int64 // file offset of the first PCM frame
	numFrames  int64
	numChans   int
	sampleRate int
	bitDepth   int
	blockAlign int
	position   int64

	// Reusable raw read buffer, sized for one full block.
	scratch []byte
}

// NewWAVDecoder opens a WAV file positioned at startFrame.
func NewWAVDecoder(filename string, startFrame int64) (Decoder, FileInfo, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, FileInfo{}, err
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, FileInfo{}, fmt.Errorf("invalid WAV file")
	}

	// Forward to the data chunk without reading any samples.
	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, FileInfo{}, fmt.Errorf("failed to seek to PCM data: %w", err)
	}

	// The file offset now sits at the first PCM frame.
	dataStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		f.Close()
		return nil, FileInfo{}, fmt.Errorf("failed to locate PCM data: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	numChans := int(decoder.NumChans)
	if bitDepth != 8 && bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		f.Close()
		return nil, FileInfo{}, fmt.Errorf("unsupported WAV bit depth: %d", bitDepth)
	}
	if numChans < 1 {
		f.Close()
		return nil, FileInfo{}, fmt.Errorf("invalid WAV channel count: %d", numChans)
	}

	blockAlign := numChans * bitDepth / 8
	numFrames := decoder.PCMLen() / int64(blockAlign)

	d := &WAVDecoder{
		file:       f,
		dataStart:  dataStart,
		numFrames:  numFrames,
		numChans:   numChans,
		sampleRate: int(decoder.SampleRate),
		bitDepth:   bitDepth,
		blockAlign: blockAlign,
		scratch:    make([]byte, config.BlockFrames*blockAlign),
	}

	if err := d.SeekTo(startFrame); err != nil {
		f.Close()
		return nil, FileInfo{}, err
	}

	info := FileInfo{
		NumFrames:   numFrames,
		NumChannels: numChans,
		SampleRate:  d.sampleRate,
		Params:      WAVParams{BitDepth: bitDepth, BlockAlign: blockAlign},
	}
	return d, info, nil
}

// DecodeInto fills b from the current position, zero-filling past the
// end of the file.
func (d *WAVDecoder) DecodeInto(b *DataBlock) error {
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
		buf := d.scratch[:n*int64(d.blockAlign)]
		if _, err := io.ReadFull(d.file, buf); err != nil {
			return fmt.Errorf("failed to read PCM data: %w", err)
		}
		d.deinterleave(buf, b, int(n))
		d.position += n
	}

	// Zero-fill whatever the file could not provide.
	for ch := range b.Data {
		tail := b.Data[ch][n:]
		for i := range tail {
			tail[i] = 0
		}
	}
	return nil
}

// deinterleave converts n raw PCM frames into per-channel float64 samples.
func (d *WAVDecoder) deinterleave(buf []byte, b *DataBlock, n int) {
	switch d.bitDepth {
	case 8:
		// 8-bit WAV is unsigned with a 128 offset.
		for i := 0; i < n; i++ {
			off := i * d.blockAlign
			for ch := 0; ch < d.numChans; ch++ {
				b.Data[ch][i] = (float64(buf[off+ch]) - 128.0) / 128.0
			}
		}
	case 16:
		for i := 0; i < n; i++ {
			off := i * d.blockAlign
			for ch := 0; ch < d.numChans; ch++ {
				s := int16(binary.LittleEndian.Uint16(buf[off+ch*2:]))
				b.Data[ch][i] = float64(s) / 32768.0
			}
		}
	case 24:
		for i := 0; i < n; i++ {
			off := i * d.blockAlign
			for ch := 0; ch < d.numChans; ch++ {
				p := buf[off+ch*3:]
				s := int32(p[0]) | int32(p[1])<<8 | int32(p[2])<<16
				// Sign-extend from 24 bits.
				if s&0x800000 != 0 {
					s |= ^int32(0xFFFFFF)
				}
				b.Data[ch][i] = float64(s) / 8388608.0
			}
		}
	case 32:
		for i := 0; i < n; i++ {
			off := i * d.blockAlign
			for ch := 0; ch < d.numChans; ch++ {
				s := int32(binary.LittleEndian.Uint32(buf[off+ch*4:]))
				b.Data[ch][i] = float64(s) / 2147483648.0
			}
		}
	}
}

// SeekTo repositions the reader, clamping to the file bounds.
func (d *WAVDecoder) SeekTo(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	if frame > d.numFrames {
		frame = d.numFrames
	}

	if _, err := d.file.Seek(d.dataStart+frame*int64(d.blockAlign), io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to frame %d: %w", frame, err)
	}
	d.position = frame
	return nil
}

// CurrentFrame returns the reader position
func (d *WAVDecoder) CurrentFrame() int64 {
	return d.position
}

// Close closes the underlying file
func (d *WAVDecoder) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
