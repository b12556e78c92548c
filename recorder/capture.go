package recorder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// CaptureRequest describes one recording session.
type CaptureRequest struct {
	Channel string
	Quality string
	Path    string
}

// Capturer records a live channel to Path and blocks until the stream ends.
type Capturer interface {
	Capture(ctx context.Context, req CaptureRequest) error
}

// Pipeline runs streamlink with its stdout piped straight into ffmpeg, which
// copies the video into a Matroska file. No shell is involved.
type Pipeline struct {
	StreamlinkPath string
	FFmpegPath     string
	DisableAds     bool

	// Stdout and Stderr receive the tools' own output; nil means the process's.
	Stdout io.Writer
	Stderr io.Writer
}

// StreamlinkArgs returns the producer argument vector.
func (p *Pipeline) StreamlinkArgs(req CaptureRequest) []string {
	args := []string{"-O"}
	if p.DisableAds {
		args = append(args, "--twitch-disable-ads")
	}
	return append(args, "twitch.tv/"+req.Channel, req.Quality)
}

// FFmpegArgs returns the consumer argument vector; -y overwrites an existing file.
func (p *Pipeline) FFmpegArgs(req CaptureRequest) []string {
	return []string{"-i", "pipe:0", "-c:v", "copy", "-f", "matroska", "-y", req.Path}
}

// Capture starts both processes and waits for both to exit. The returned
// error is the first non-nil exit error, if any.
func (p *Pipeline) Capture(ctx context.Context, req CaptureRequest) error {
	streamlink := p.StreamlinkPath
	if streamlink == "" {
		streamlink = "streamlink"
	}
	ffmpeg := p.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	producer := exec.CommandContext(ctx, streamlink, p.StreamlinkArgs(req)...)
	consumer := exec.CommandContext(ctx, ffmpeg, p.FFmpegArgs(req)...)
	producer.Stderr = p.stderr()
	consumer.Stdout = p.stdout()
	consumer.Stderr = p.stderr()
	return runPiped(producer, consumer)
}

func (p *Pipeline) stdout() io.Writer {
	if p.Stdout != nil {
		return p.Stdout
	}
	return os.Stdout
}

func (p *Pipeline) stderr() io.Writer {
	if p.Stderr != nil {
		return p.Stderr
	}
	return os.Stderr
}

// runPiped connects producer's stdout to consumer's stdin through an OS pipe,
// starts consumer then producer, and waits for both.
func runPiped(producer, consumer *exec.Cmd) error {
	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create pipe: %w", err)
	}
	producer.Stdout = pw
	consumer.Stdin = pr

	if err := consumer.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return fmt.Errorf("start %s: %w", cmdName(consumer), err)
	}
	if err := producer.Start(); err != nil {
		// Closing the write end gives the consumer EOF so it exits on its own.
		_ = pr.Close()
		_ = pw.Close()
		_ = consumer.Wait()
		return fmt.Errorf("start %s: %w", cmdName(producer), err)
	}
	// The children hold their own copies of the pipe ends.
	_ = pr.Close()
	_ = pw.Close()

	var g errgroup.Group
	g.Go(func() error {
		if err := producer.Wait(); err != nil {
			return fmt.Errorf("%s: %w", cmdName(producer), err)
		}
		return nil
	})
	g.Go(func() error {
		if err := consumer.Wait(); err != nil {
			return fmt.Errorf("%s: %w", cmdName(consumer), err)
		}
		return nil
	})
	return g.Wait()
}

func cmdName(c *exec.Cmd) string {
	if len(c.Args) > 0 {
		return filepath.Base(c.Args[0])
	}
	return filepath.Base(c.Path)
}
