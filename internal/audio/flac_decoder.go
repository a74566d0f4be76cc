package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// FLACParams holds FLAC-specific parameters reported through FileInfo.
type FLACParams struct {
	BitsPerSample int
}

// FLACDecoder implements Decoder for FLAC files. FLAC decodes in whole
// codec frames of varying length, so the decoder keeps the remainder of
// the most recently parsed frame between fills and skips inside frames
// to reach exact positions after a seek.
type FLACDecoder struct {
	stream     *flac.Stream
	file       *os.File
	sampleRate int
	numChans   int
	bps        uint
	numFrames  int64
	position   int64

	// Unconsumed tail of the last parsed codec frame.
	cur    *frame.Frame
	curOff int
}

// NewFLACDecoder opens a FLAC file positioned at startFrame.
func NewFLACDecoder(filename string, startFrame int64) (Decoder, FileInfo, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, FileInfo{}, err
	}

	stream, err := flac.NewSeek(f)
	if err != nil {
		f.Close()
		return nil, FileInfo{}, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}

	info := stream.Info
	if info.NSamples == 0 {
		f.Close()
		return nil, FileInfo{}, fmt.Errorf("FLAC stream does not report a total sample count")
	}

	d := &FLACDecoder{
		stream:     stream,
		file:       f,
		sampleRate: int(info.SampleRate),
		numChans:   int(info.NChannels),
		bps:        uint(info.BitsPerSample),
		numFrames:  int64(info.NSamples),
	}

	if err := d.SeekTo(startFrame); err != nil {
		f.Close()
		return nil, FileInfo{}, err
	}

	fileInfo := FileInfo{
		NumFrames:   d.numFrames,
		NumChannels: d.numChans,
		SampleRate:  d.sampleRate,
		Params:      FLACParams{BitsPerSample: int(info.BitsPerSample)},
	}
	return d, fileInfo, nil
}

// DecodeInto fills b from the current position, zero-filling past the
// end of the file.
func (d *FLACDecoder) DecodeInto(b *DataBlock) error {
	b.StartFrame = d.position

	want := b.Frames()
	scale := float64(int64(1) << (d.bps - 1))

	filled := 0
	for filled < want && d.position < d.numFrames {
		if d.cur == nil || d.curOff >= len(d.cur.Subframes[0].Samples) {
			fr, err := d.stream.ParseNext()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to parse FLAC frame: %w", err)
			}
			d.cur, d.curOff = fr, 0
		}

		n := len(d.cur.Subframes[0].Samples) - d.curOff
		if n > want-filled {
			n = want - filled
		}

		for ch := 0; ch < d.numChans && ch < len(b.Data); ch++ {
			samples := d.cur.Subframes[ch].Samples
			dst := b.Data[ch][filled : filled+n]
			for i := 0; i < n; i++ {
				dst[i] = float64(samples[d.curOff+i]) / scale
			}
		}

		d.curOff += n
		filled += n
		d.position += int64(n)
	}

	for ch := range b.Data {
		tail := b.Data[ch][filled:]
		for i := range tail {
			tail[i] = 0
		}
	}
	return nil
}

// SeekTo repositions the decoder, clamping to the file bounds. FLAC
// seeks land on a codec frame boundary at or before the target, so the
// remaining distance is covered by skipping decoded samples.
func (d *FLACDecoder) SeekTo(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	if frame > d.numFrames {
		frame = d.numFrames
	}

	target := frame
	if frame >= d.numFrames {
		// Seeking exactly to EOF: land on the last frame and skip out.
		frame = d.numFrames - 1
	}

	landed, err := d.stream.Seek(uint64(frame))
	if err != nil {
		return fmt.Errorf("failed to seek to frame %d: %w", frame, err)
	}

	d.cur, d.curOff = nil, 0
	d.position = int64(landed)
	if d.position < target {
		return d.skip(target - d.position)
	}
	return nil
}

// skip consumes n samples without producing output.
func (d *FLACDecoder) skip(n int64) error {
	for n > 0 {
		if d.cur == nil || d.curOff >= len(d.cur.Subframes[0].Samples) {
			fr, err := d.stream.ParseNext()
			if err == io.EOF {
				// Whatever is left lies past the end of the stream.
				d.position += n
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to parse FLAC frame: %w", err)
			}
			d.cur, d.curOff = fr, 0
		}

		take := int64(len(d.cur.Subframes[0].Samples) - d.curOff)
		if take > n {
			take = n
		}
		d.curOff += int(take)
		d.position += take
		n -= take
	}
	return nil
}

// CurrentFrame returns the decoder position
func (d *FLACDecoder) CurrentFrame() int64 {
	return d.position
}

// Close closes the decoder and releases resources
func (d *FLACDecoder) Close() error {
	if d.stream != nil {
		d.stream.Close()
	}
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
