// Package delivery streams resolved renditions to HTTP clients.
package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"norelock.dev/listenify/grabber/internal/models"
	"norelock.dev/listenify/grabber/internal/services/selection"
	"norelock.dev/listenify/grabber/internal/services/system"
	"norelock.dev/listenify/grabber/internal/transcode"
	"norelock.dev/listenify/grabber/internal/utils"
	"norelock.dev/listenify/grabber/pkg/mediaproxy"
)

// MP3ContentType is sent for transcoded audio.
const MP3ContentType = "audio/mpeg"

// Streamer pipes upstream media to the client, transcoding audio to MP3.
type Streamer struct {
	opener     mediaproxy.Opener
	transcoder transcode.Transcoder
	metrics    *system.MetricsService
	logger     *utils.Logger
}

// NewStreamer creates a streamer. A nil transcoder streams audio unchanged.
func NewStreamer(opener mediaproxy.Opener, transcoder transcode.Transcoder, metrics *system.MetricsService, logger *utils.Logger) *Streamer {
	return &Streamer{
		opener:     opener,
		transcoder: transcoder,
		metrics:    metrics,
		logger:     logger.Named("streamer"),
	}
}

// Stream writes res to w as an attachment. The upstream body and any
// transcoder process live only for the duration of the call and are released
// on every return path, including cancellation of ctx.
//
// committed reports whether a response was started. When it is false and
// err is non-nil the caller still owns w and should write an error body.
func (s *Streamer) Stream(ctx context.Context, w http.ResponseWriter, res *selection.Resolution) (committed bool, err error) {
	upstream, err := s.opener.Open(ctx, res.Format.MediaURL)
	if err != nil {
		return false, utils.CollaboratorError("stream", err).AddDetail("title", res.Title)
	}
	defer upstream.Close()

	transcoded := res.Kind == models.KindAudio && s.transcoder != nil
	out := &attachmentWriter{
		w:           w,
		body:        &mediaproxy.CountingWriter{W: w},
		filename:    res.Filename(transcoded),
		contentType: s.contentType(res, upstream, transcoded),
		length:      -1,
	}

	if transcoded {
		err = s.transcoder.ToMP3(ctx, upstream.Body, out)
		s.metrics.ObserveTranscode(err)
		if err != nil {
			err = utils.CollaboratorError("transcode", err)
		}
	} else {
		out.length = upstream.ContentLength
		if _, copyErr := io.Copy(out, upstream.Body); copyErr != nil {
			err = utils.CollaboratorError("stream", copyErr)
		}
	}

	s.metrics.AddStreamedBytes(string(res.Kind), out.body.N)

	if err == nil && !out.started {
		// Empty upstream body: still answer with the attachment headers
		out.start()
	}

	if err != nil && ctx.Err() != nil {
		s.logger.Debug("Client went away during stream", "title", res.Title, "bytes", out.body.N)
	}

	return out.started, err
}

func (s *Streamer) contentType(res *selection.Resolution, upstream *mediaproxy.Stream, transcoded bool) string {
	if transcoded {
		return MP3ContentType
	}
	if ct := res.Format.ContentType(); ct != "" {
		return ct
	}
	return upstream.ContentType
}

// attachmentWriter defers the response headers until the first byte is ready,
// so failures before any output can still be reported as JSON errors.
type attachmentWriter struct {
	w           http.ResponseWriter
	body        *mediaproxy.CountingWriter
	filename    string
	contentType string
	length      int64

	started bool
}

func (a *attachmentWriter) start() {
	a.started = true
	utils.SetAttachmentHeaders(a.w, a.filename, a.contentType)
	if a.length >= 0 {
		a.w.Header().Set("Content-Length", strconv.FormatInt(a.length, 10))
	}
	a.w.WriteHeader(http.StatusOK)
}

// Write implements io.Writer.
func (a *attachmentWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !a.started {
		a.start()
	}
	n, err := a.body.Write(p)
	if err != nil {
		return n, fmt.Errorf("write to client: %w", err)
	}
	return n, nil
}
