package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/soundsmith/diskstream/internal/config"
)

// sampleValue is the deterministic 16-bit sample written at a given
// frame and channel, so decoded output can be checked positionally.
func sampleValue(frame, ch int) int {
	v := frame % 1000
	if ch%2 == 1 {
		v = -v
	}
	return v
}

// writeTestWAV generates a 16-bit 44.1kHz fixture in a temp dir.
func writeTestWAV(t *testing.T, numFrames, numChans int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create fixture: %v", err)
	}

	enc := wav.NewEncoder(f, 44100, 16, numChans, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChans, SampleRate: 44100},
		Data:           make([]int, numFrames*numChans),
		SourceBitDepth: 16,
	}
	for i := 0; i < numFrames; i++ {
		for ch := 0; ch < numChans; ch++ {
			buf.Data[i*numChans+ch] = sampleValue(i, ch)
		}
	}

	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write fixture samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finalize fixture: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close fixture: %v", err)
	}
	return path
}

func checkSample(t *testing.T, got float64, frame, ch int) {
	t.Helper()

	want := float64(sampleValue(frame, ch)) / 32768.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("frame %d ch %d: expected %f, got %f", frame, ch, want, got)
	}
}

func TestWAVDecoderMetadata(t *testing.T) {
	const numFrames = 30000
	path := writeTestWAV(t, numFrames, 2)

	dec, info, err := NewWAVDecoder(path, 0)
	if err != nil {
		t.Fatalf("failed to open WAV: %v", err)
	}
	defer dec.Close()

	if info.NumFrames != numFrames {
		t.Errorf("NumFrames: expected %d, got %d", numFrames, info.NumFrames)
	}
	if info.NumChannels != 2 {
		t.Errorf("NumChannels: expected 2, got %d", info.NumChannels)
	}
	if info.SampleRate != 44100 {
		t.Errorf("SampleRate: expected 44100, got %d", info.SampleRate)
	}
	params, ok := info.Params.(WAVParams)
	if !ok {
		t.Fatalf("Params: expected WAVParams, got %T", info.Params)
	}
	if params.BitDepth != 16 || params.BlockAlign != 4 {
		t.Errorf("Params: %+v", params)
	}
}

func TestWAVDecodeSequential(t *testing.T) {
	path := writeTestWAV(t, 2*config.BlockFrames, 2)

	dec, info, err := NewWAVDecoder(path, 0)
	if err != nil {
		t.Fatalf("failed to open WAV: %v", err)
	}
	defer dec.Close()

	block := NewDataBlock(info.NumChannels)
	if err := dec.DecodeInto(block); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if block.StartFrame != 0 {
		t.Errorf("StartFrame: expected 0, got %d", block.StartFrame)
	}
	checkSample(t, block.Data[0][123], 123, 0)
	checkSample(t, block.Data[1][123], 123, 1)

	if dec.CurrentFrame() != config.BlockFrames {
		t.Errorf("position: expected %d, got %d", config.BlockFrames, dec.CurrentFrame())
	}

	// The second block continues where the first ended.
	if err := dec.DecodeInto(block); err != nil {
		t.Fatalf("second decode failed: %v", err)
	}
	if block.StartFrame != config.BlockFrames {
		t.Errorf("second StartFrame: expected %d, got %d", config.BlockFrames, block.StartFrame)
	}
	checkSample(t, block.Data[0][7], config.BlockFrames+7, 0)
}

func TestWAVSeek(t *testing.T) {
	path := writeTestWAV(t, 2*config.BlockFrames, 1)

	dec, _, err := NewWAVDecoder(path, 0)
	if err != nil {
		t.Fatalf("failed to open WAV: %v", err)
	}
	defer dec.Close()

	if err := dec.SeekTo(5000); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	if dec.CurrentFrame() != 5000 {
		t.Errorf("position after seek: expected 5000, got %d", dec.CurrentFrame())
	}

	block := NewDataBlock(1)
	if err := dec.DecodeInto(block); err != nil {
		t.Fatalf("decode after seek failed: %v", err)
	}
	if block.StartFrame != 5000 {
		t.Errorf("StartFrame: expected 5000, got %d", block.StartFrame)
	}
	checkSample(t, block.Data[0][0], 5000, 0)
}

func TestWAVSeekClamps(t *testing.T) {
	const numFrames = 10000
	path := writeTestWAV(t, numFrames, 1)

	dec, _, err := NewWAVDecoder(path, 0)
	if err != nil {
		t.Fatalf("failed to open WAV: %v", err)
	}
	defer dec.Close()

	if err := dec.SeekTo(-50); err != nil {
		t.Fatalf("negative seek failed: %v", err)
	}
	if dec.CurrentFrame() != 0 {
		t.Errorf("negative seek should clamp to 0, got %d", dec.CurrentFrame())
	}

	if err := dec.SeekTo(numFrames + 500); err != nil {
		t.Fatalf("past-end seek failed: %v", err)
	}
	if dec.CurrentFrame() != numFrames {
		t.Errorf("past-end seek should clamp to %d, got %d", numFrames, dec.CurrentFrame())
	}
}

func TestWAVDecodePastEOFZeroFills(t *testing.T) {
	// Fewer frames than one block.
	const numFrames = 1000
	path := writeTestWAV(t, numFrames, 2)

	dec, _, err := NewWAVDecoder(path, 0)
	if err != nil {
		t.Fatalf("failed to open WAV: %v", err)
	}
	defer dec.Close()

	block := NewDataBlock(2)
	// Dirty the block to prove the tail is actively cleared.
	for ch := range block.Data {
		for i := range block.Data[ch] {
			block.Data[ch][i] = 1
		}
	}

	if err := dec.DecodeInto(block); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	checkSample(t, block.Data[0][numFrames-1], numFrames-1, 0)
	for ch := range block.Data {
		for i := numFrames; i < config.BlockFrames; i += 997 {
			if block.Data[ch][i] != 0 {
				t.Fatalf("tail ch %d frame %d: expected 0, got %f", ch, i, block.Data[ch][i])
			}
		}
	}

	// Reads at EOF are pure silence, not an error.
	if err := dec.DecodeInto(block); err != nil {
		t.Fatalf("decode at EOF failed: %v", err)
	}
	if block.StartFrame != numFrames {
		t.Errorf("EOF StartFrame: expected %d, got %d", numFrames, block.StartFrame)
	}
	if block.Data[0][0] != 0 {
		t.Errorf("EOF decode should be silent, got %f", block.Data[0][0])
	}
}

func TestWAVOpenAtStartFrame(t *testing.T) {
	path := writeTestWAV(t, 20000, 1)

	dec, _, err := NewWAVDecoder(path, 7000)
	if err != nil {
		t.Fatalf("failed to open WAV: %v", err)
	}
	defer dec.Close()

	if dec.CurrentFrame() != 7000 {
		t.Errorf("open position: expected 7000, got %d", dec.CurrentFrame())
	}

	block := NewDataBlock(1)
	if err := dec.DecodeInto(block); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	checkSample(t, block.Data[0][0], 7000, 0)
}

func TestWAVOpenInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-audio.wav")
	if err := os.WriteFile(path, []byte("this is not a wav file"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := NewWAVDecoder(path, 0); err == nil {
		t.Error("expected error for invalid WAV data")
	}
}

func TestWAVOpenMissingFile(t *testing.T) {
	if _, _, err := NewWAVDecoder("nonexistent.wav", 0); err == nil {
		t.Error("expected error for missing file")
	}
}
