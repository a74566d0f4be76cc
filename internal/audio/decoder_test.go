package audio

import (
	"testing"

	"github.com/soundsmith/diskstream/internal/config"
)

func TestNewDecoderDispatch(t *testing.T) {
	path := writeTestWAV(t, 1000, 2)

	dec, info, err := NewDecoder(path, 0)
	if err != nil {
		t.Fatalf("NewDecoder failed for .wav: %v", err)
	}
	defer dec.Close()

	if _, ok := dec.(*WAVDecoder); !ok {
		t.Errorf("expected a WAV decoder, got %T", dec)
	}
	if info.NumChannels != 2 {
		t.Errorf("NumChannels: expected 2, got %d", info.NumChannels)
	}
}

func TestNewDecoderUnsupportedExtension(t *testing.T) {
	if _, _, err := NewDecoder("song.ogg", 0); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestNewDataBlockShape(t *testing.T) {
	block := NewDataBlock(2)
	if len(block.Data) != 2 {
		t.Fatalf("channels: expected 2, got %d", len(block.Data))
	}
	for ch := range block.Data {
		if len(block.Data[ch]) != config.BlockFrames {
			t.Errorf("ch %d: expected %d frames, got %d", ch, config.BlockFrames, len(block.Data[ch]))
		}
	}
	if block.Frames() != config.BlockFrames {
		t.Errorf("Frames: expected %d, got %d", config.BlockFrames, block.Frames())
	}
}

func TestNewBlockCacheShape(t *testing.T) {
	cache := NewBlockCache(1)
	if len(cache.Blocks) != config.CacheBlocks {
		t.Fatalf("blocks: expected %d, got %d", config.CacheBlocks, len(cache.Blocks))
	}
	for i, block := range cache.Blocks {
		if len(block.Data) != 1 {
			t.Errorf("block %d: expected 1 channel, got %d", i, len(block.Data))
		}
	}
}
