// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"
	"net/http"
	"net/url"

	"norelock.dev/listenify/grabber/internal/config"
	"norelock.dev/listenify/grabber/internal/models"
	"norelock.dev/listenify/grabber/internal/services/media"
	"norelock.dev/listenify/grabber/internal/services/selection"
	"norelock.dev/listenify/grabber/internal/services/system"
	"norelock.dev/listenify/grabber/internal/utils"
)

// Stepper advances the selection flow by one request.
type Stepper interface {
	Step(ctx context.Context, p selection.Params) (*selection.Outcome, error)
}

// VideoSource is what the direct-link shortcut needs from the search service.
type VideoSource interface {
	Results(ctx context.Context, query string) (models.ResultSet, error)
	Video(ctx context.Context, url string) (*models.VideoDetails, error)
	IsVideoURL(query string) bool
}

// Streamer writes a resolved rendition to the client.
type Streamer interface {
	Stream(ctx context.Context, w http.ResponseWriter, res *selection.Resolution) (committed bool, err error)
}

// MediaHandler handles HTTP requests related to media operations.
type MediaHandler struct {
	flow     Stepper
	videos   VideoSource
	streamer Streamer
	delivery string
	metrics  *system.MetricsService
	logger   *utils.Logger
}

// NewMediaHandler creates a new media handler. delivery is config.DeliveryURL
// or config.DeliveryStream and applies to every terminal response.
func NewMediaHandler(
	flow Stepper,
	videos VideoSource,
	streamer Streamer,
	delivery string,
	metrics *system.MetricsService,
	logger *utils.Logger,
) *MediaHandler {
	if delivery != config.DeliveryURL {
		delivery = config.DeliveryStream
	}
	return &MediaHandler{
		flow:     flow,
		videos:   videos,
		streamer: streamer,
		delivery: delivery,
		metrics:  metrics,
		logger:   logger.Named("media_handler"),
	}
}

// Select handles one step of the search/select/format/quality flow.
func (h *MediaHandler) Select(w http.ResponseWriter, r *http.Request, p selection.Params) {
	outcome, err := h.flow.Step(r.Context(), p)
	if err != nil {
		h.respondWithError(w, err, "Selection step failed", "query", p.Query, "select", p.Select,
			"format", p.Format, "quality", p.Quality)
		return
	}

	h.metrics.IncSelectionState(outcome.State.String())

	if outcome.Resolution == nil {
		utils.RespondWithJSON(w, http.StatusOK, models.MenuResponse{
			Type: outcome.Type,
			Data: outcome.Menu,
		})
		return
	}

	res := outcome.Resolution
	h.metrics.IncDownload(string(res.Kind), h.delivery)

	if h.delivery == config.DeliveryURL {
		utils.RespondWithJSON(w, http.StatusOK, models.DownloadResponse{
			Type: res.ResponseType(),
			Data: models.DownloadLink{Title: res.Title, DownloadURL: res.Format.MediaURL},
		})
		return
	}

	committed, err := h.streamer.Stream(r.Context(), w, res)
	if err == nil {
		return
	}
	if !committed {
		h.respondWithError(w, err, "Failed to start stream", "title", res.Title, "kind", res.Kind)
		return
	}
	if r.Context().Err() == nil {
		// Headers are gone; all that is left is to cut the body short
		h.logger.Error("Stream interrupted", err, "title", res.Title, "kind", res.Kind)
	}
}

// DirectLinkQuery is the input of the /download shortcut.
type DirectLinkQuery struct {
	Query string
}

// ParseDirectLinkQuery reads query, falling back to link.
func ParseDirectLinkQuery(values url.Values) (DirectLinkQuery, error) {
	q := values.Get("query")
	if q == "" {
		q = values.Get("link")
	}
	if q == "" {
		return DirectLinkQuery{}, utils.MissingParameterError("Query parameter or link is missing.")
	}
	return DirectLinkQuery{Query: q}, nil
}

// Download resolves a link, or the first search hit, straight to an audio URL.
func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request, q DirectLinkQuery) {
	ctx := r.Context()

	target := q.Query
	if !h.videos.IsVideoURL(target) {
		set, err := h.videos.Results(ctx, target)
		if err != nil {
			h.respondWithError(w, err, "Search failed", "query", target)
			return
		}
		first, ok := set.At(1)
		if !ok {
			utils.RespondWithAppError(w, utils.NoResultsError("No videos found for the given query."))
			return
		}
		target = first.URL
	}

	details, err := h.videos.Video(ctx, target)
	if err != nil {
		h.respondWithError(w, err, "Metadata lookup failed", "url", target)
		return
	}

	if len(details.Formats) == 0 {
		utils.RespondWithAppError(w, utils.NoSuitableFormatError("No suitable formats found for the video."))
		return
	}

	format, ok := media.AudioFormat(details.Formats)
	if !ok {
		utils.RespondWithAppError(w, utils.NoSuitableFormatError("No suitable audio format found for the video."))
		return
	}

	result := models.DirectLinkResponse{
		Title:       details.Title,
		DownloadURL: format.MediaURL,
	}

	h.metrics.IncDownload(string(models.KindAudio), config.DeliveryURL)
	h.logger.Info("Download result", "title", result.Title, "query", utils.NormalizeSpaces(q.Query))
	utils.RespondWithJSON(w, http.StatusOK, result)
}

// respondWithError logs collaborator failures with their cause and answers
// with the client-safe message.
func (h *MediaHandler) respondWithError(w http.ResponseWriter, err error, msg string, fields ...any) {
	if utils.IsCollaboratorFailure(err) {
		h.logger.Error(msg, err, fields...)
	} else {
		h.logger.Debug(msg, append(fields, "error", err)...)
	}
	utils.RespondWithAppError(w, err)
}
