package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/soundsmith/diskstream/internal/audio"
	"github.com/soundsmith/diskstream/internal/cli"
	"github.com/soundsmith/diskstream/internal/config"
	"github.com/soundsmith/diskstream/internal/stream"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	Input      string `arg:"" name:"input" help:"Input audio file (.wav, .mp3 or .flac)" optional:""`
	Output     string `help:"Write decoded audio as interleaved 16-bit PCM" short:"o"`
	StartFrame int64  `help:"Frame to start streaming from" default:"0"`
	Version    bool   `help:"Show version information"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("diskstream"),
		kong.Description("Stream audio files from disk through a background read server, block by block."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if CLI.Input == "" {
		cli.PrintError("<input> is required")
		os.Exit(1)
	}

	if _, err := os.Stat(CLI.Input); os.IsNotExist(err) {
		cli.PrintError(fmt.Sprintf("input file does not exist: %s", CLI.Input))
		os.Exit(1)
	}

	if CLI.StartFrame < 0 {
		cli.PrintError(fmt.Sprintf("invalid start frame: %d", CLI.StartFrame))
		os.Exit(1)
	}

	_ = ctx

	if err := streamFile(CLI.Input, CLI.Output, CLI.StartFrame); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// streamFile drives a read server from open to end of file, playing the
// role of the real-time consumer: it only ever pushes requests and pops
// responses, retrying when a queue is momentarily full.
func streamFile(input, output string, startFrame int64) error {
	q := stream.NewQueues()
	info, err := stream.Start(input, startFrame, audio.NewDecoder, q)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", input, err)
	}

	printFileInfo(input, info)

	var out *bufio.Writer
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = bufio.NewWriter(f)
	}

	h := stream.NewHandle(q)
	defer h.Close(nil)

	started := time.Now()
	blocks := 0
	var streamed int64

	total := info.NumFrames - startFrame
	lastProgress := time.Time{}

	for frame := startFrame; frame < info.NumFrames; frame += config.BlockFrames {
		// Re-push until the request queue has room.
		for !h.ReadIntoBlock(blocks, nil, frame) {
			time.Sleep(config.PollInterval)
		}

		res, err := awaitRes(h)
		if err != nil {
			return err
		}

		remaining := info.NumFrames - frame
		valid := int64(res.Block.Frames())
		if valid > remaining {
			valid = remaining
		}
		streamed += valid

		if out != nil {
			writePCM(out, res.Block, int(valid))
		}

		// Hand the block straight back for reuse.
		for !h.DisposeBlock(res.Block) {
			time.Sleep(config.PollInterval)
		}
		blocks++

		// Streaming is much faster than realtime, so throttle the
		// progress line rather than printing one per block.
		if time.Since(lastProgress) >= 100*time.Millisecond {
			fmt.Printf("\r%s", cli.FormatProgress(streamed, total))
			lastProgress = time.Now()
		}
	}

	fmt.Printf("\r%s\n", cli.FormatProgress(streamed, total))

	if out != nil {
		if err := out.Flush(); err != nil {
			return fmt.Errorf("failed to flush output: %w", err)
		}
		if fi, err := os.Stat(output); err == nil {
			cli.PrintSuccess(fmt.Sprintf("wrote %s (%s)", output, cli.FormatBytes(fi.Size())))
		}
	}

	elapsed := time.Since(started)
	realtime := float64(streamed) / float64(info.SampleRate) / elapsed.Seconds()
	cli.PrintStreamSummary(
		cli.FormatDuration(elapsed),
		fmt.Sprintf("%.1fx realtime", realtime),
		fmt.Sprintf("%d", streamed),
		fmt.Sprintf("%d", blocks),
	)
	return nil
}

// awaitRes polls for the next response with the engine's poll interval.
func awaitRes(h *stream.Handle) (stream.ServerToClientMsg, error) {
	for {
		res, ok := h.PollRes()
		if !ok {
			time.Sleep(config.PollInterval)
			continue
		}
		if res.Kind == stream.ResFatalError {
			return res, fmt.Errorf("streaming failed: %w", res.Err)
		}
		return res, nil
	}
}

func printFileInfo(input string, info audio.FileInfo) {
	cli.PrintSection("File")
	cli.PrintInfo("Path", input)
	cli.PrintInfo("Channels", fmt.Sprintf("%d", info.NumChannels))
	cli.PrintInfo("Sample rate", fmt.Sprintf("%d Hz", info.SampleRate))
	cli.PrintInfo("Frames", fmt.Sprintf("%d", info.NumFrames))

	seconds := float64(info.NumFrames) / float64(info.SampleRate)
	cli.PrintInfo("Duration", cli.FormatDuration(time.Duration(seconds*float64(time.Second))))
}

// writePCM writes n frames as interleaved little-endian 16-bit samples.
func writePCM(w *bufio.Writer, block *audio.DataBlock, n int) {
	var sample [2]byte
	for i := 0; i < n; i++ {
		for ch := range block.Data {
			v := block.Data[ch][i]
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			binary.LittleEndian.PutUint16(sample[:], uint16(int16(v*32767)))
			w.Write(sample[:])
		}
	}
}
