package transcode

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"norelock.dev/listenify/grabber/internal/utils"
)

func TestMissingBinary(t *testing.T) {
	f := NewFFmpeg("/nonexistent/ffmpeg-binary", "", utils.NewNopLogger())

	if err := f.Check(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Check err = %v, want ErrUnavailable", err)
	}

	var out bytes.Buffer
	err := f.ToMP3(context.Background(), strings.NewReader("raw"), &out)
	if err == nil {
		t.Fatal("ToMP3 succeeded without a binary")
	}
	if out.Len() != 0 {
		t.Fatalf("wrote %d bytes", out.Len())
	}
}

func TestMP3Args(t *testing.T) {
	args := NewFFmpeg("", "128k", utils.NewNopLogger()).mp3Args()
	joined := strings.Join(args, " ")
	for _, want := range []string{"-i pipe:0", "-b:a 128k", "-f mp3", "pipe:1", "-vn"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

// fakeBinary writes a shell script that stands in for ffmpeg.
func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPipesThroughProcess(t *testing.T) {
	f := NewFFmpeg(fakeBinary(t, "exec cat"), "", utils.NewNopLogger())

	var out bytes.Buffer
	if err := f.ToMP3(context.Background(), strings.NewReader("encoded"), &out); err != nil {
		t.Fatalf("ToMP3: %v", err)
	}
	if out.String() != "encoded" {
		t.Fatalf("output = %q", out.String())
	}
}

func TestProcessFailureReportsStderr(t *testing.T) {
	f := NewFFmpeg(fakeBinary(t, "echo 'Invalid data found' >&2; exit 1"), "", utils.NewNopLogger())

	err := f.ToMP3(context.Background(), strings.NewReader(""), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("err = %v, want stderr tail", err)
	}
}

func TestCancellationKillsProcess(t *testing.T) {
	f := NewFFmpeg(fakeBinary(t, "exec sleep 30"), "", utils.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.ToMP3(ctx, strings.NewReader(""), &bytes.Buffer{}) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("err = %v, want deadline exceeded", err)
		}
	case <-time.After(waitDelay + 2*time.Second):
		t.Fatal("ToMP3 did not return after cancellation")
	}
}
