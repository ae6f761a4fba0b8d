// Package transcode re-encodes media streams with an ffmpeg child process.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"norelock.dev/listenify/grabber/internal/utils"
)

// ErrUnavailable is returned when the ffmpeg binary cannot be found.
var ErrUnavailable = errors.New("transcoder unavailable")

// DefaultBitrate is the MP3 bitrate used when none is configured.
const DefaultBitrate = "192k"

// waitDelay bounds how long Wait lingers on stdio after the process is killed.
const waitDelay = 5 * time.Second

// Transcoder converts a raw audio stream to MP3.
type Transcoder interface {
	// ToMP3 reads src until EOF and writes MP3 frames to dst. Cancelling ctx
	// kills the process; it is reaped before ToMP3 returns.
	ToMP3(ctx context.Context, src io.Reader, dst io.Writer) error
}

// FFmpeg runs one ffmpeg process per conversion, reading pipe:0 and writing pipe:1.
type FFmpeg struct {
	path    string
	bitrate string
	logger  *utils.Logger
}

// Compile-time check
var _ Transcoder = (*FFmpeg)(nil)

// NewFFmpeg creates a transcoder using the binary at path.
func NewFFmpeg(path, bitrate string, logger *utils.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	if bitrate == "" {
		bitrate = DefaultBitrate
	}
	return &FFmpeg{
		path:    path,
		bitrate: bitrate,
		logger:  logger.Named("ffmpeg"),
	}
}

// Check reports whether the binary can be resolved.
func (f *FFmpeg) Check(_ context.Context) error {
	if _, err := exec.LookPath(f.path); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// ToMP3 implements Transcoder.
func (f *FFmpeg) ToMP3(ctx context.Context, src io.Reader, dst io.Writer) error {
	cmd := exec.CommandContext(ctx, f.path, f.mp3Args()...)
	cmd.Stdin = src
	cmd.Stdout = dst
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return fmt.Errorf("could not start ffmpeg: %w", err)
	}

	f.logger.Debug("ffmpeg started", "pid", cmd.Process.Pid, "bitrate", f.bitrate)

	err := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		f.logger.Debug("ffmpeg cancelled", "pid", cmd.Process.Pid, "elapsed", time.Since(start))
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.String()))
	}

	f.logger.Debug("ffmpeg finished", "pid", cmd.Process.Pid, "elapsed", time.Since(start))
	return nil
}

func (f *FFmpeg) mp3Args() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-acodec", "libmp3lame",
		"-b:a", f.bitrate,
		"-f", "mp3",
		"pipe:1",
	}
}

// lastLine keeps error output short enough for a log field.
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
