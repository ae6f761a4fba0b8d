package selection

import (
	"context"
	"fmt"
	"slices"

	"norelock.dev/listenify/grabber/internal/models"
	"norelock.dev/listenify/grabber/internal/services/media"
	"norelock.dev/listenify/grabber/internal/utils"
)

// Catalog is what the flow needs from the search service.
type Catalog interface {
	// Results returns the (possibly cached) result set for query.
	Results(ctx context.Context, query string) (models.ResultSet, error)
	// Video fetches fresh formats for a result URL.
	Video(ctx context.Context, url string) (*models.VideoDetails, error)
}

// Flow runs one selection step per request.
type Flow struct {
	catalog Catalog
	logger  *utils.Logger
}

// NewFlow creates a selection flow over catalog.
func NewFlow(catalog Catalog, logger *utils.Logger) *Flow {
	return &Flow{
		catalog: catalog,
		logger:  logger.Named("selection_flow"),
	}
}

// Step advances p as far as it goes. Errors are *utils.AppError values.
func (f *Flow) Step(ctx context.Context, p Params) (*Outcome, error) {
	state := DeriveState(p)
	f.logger.Debug("Selection step", "state", state, "query", p.Query, "select", p.Select,
		"format", p.Format, "quality", p.Quality)

	if state == NeedQuery {
		return nil, utils.MissingParameterError("")
	}

	set, err := f.catalog.Results(ctx, p.Query)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, utils.NoResultsError("No videos found for the given query.")
	}

	if state == NeedSelection {
		return &Outcome{State: state, Type: models.ResponseSearch, Menu: media.TitleMenu(set)}, nil
	}

	index, ok := utils.ParseMenuIndex(p.Select)
	if !ok || index > len(set) {
		return nil, utils.InvalidSelectionError(p.Select, len(set))
	}
	hit, _ := set.At(index)

	if state == NeedFormat {
		return &Outcome{State: state, Type: models.ResponseSelectFormat, Menu: slices.Clone(media.FormatMenu)}, nil
	}

	if err := utils.ValidateVar(p.Format, "oneof=1 2"); err != nil {
		return nil, utils.InvalidFormatError(p.Format)
	}

	if p.Format == FormatAudio {
		return f.resolveAudio(ctx, hit)
	}
	return f.resolveVideo(ctx, hit, p.Quality)
}

// resolveAudio picks the first audio-only rendition. Quality is ignored.
func (f *Flow) resolveAudio(ctx context.Context, hit models.ResultSummary) (*Outcome, error) {
	details, err := f.catalog.Video(ctx, hit.URL)
	if err != nil {
		return nil, err
	}

	format, ok := media.AudioFormat(details.Formats)
	if !ok {
		return nil, utils.NoSuitableFormatError("No suitable audio format found for the video.")
	}

	return &Outcome{
		State: Resolved,
		Type:  models.ResponseDownloadAudio,
		Resolution: &Resolution{
			Kind:   models.KindAudio,
			Title:  titleOf(details, hit),
			Format: format,
		},
	}, nil
}

// resolveVideo emits the quality menu or, with a quality choice, the matching rendition.
func (f *Flow) resolveVideo(ctx context.Context, hit models.ResultSummary, quality string) (*Outcome, error) {
	var qualityIndex int
	if quality != "" {
		var ok bool
		if qualityIndex, ok = utils.ParseMenuIndex(quality); !ok {
			return nil, utils.InvalidQualityError(fmt.Sprintf("Invalid quality selection %q. Choose a positive number.", quality))
		}
	}

	details, err := f.catalog.Video(ctx, hit.URL)
	if err != nil {
		return nil, err
	}

	labels := media.QualityLabels(details.Formats)
	if len(labels) == 0 {
		return nil, utils.NoSuitableFormatError("No suitable video format found for the video.")
	}

	if quality == "" {
		return &Outcome{State: NeedQuality, Type: models.ResponseSelectQuality, Menu: media.QualityMenu(labels)}, nil
	}

	if qualityIndex > len(labels) {
		return nil, utils.InvalidQualityError(
			fmt.Sprintf("Quality selection %d is out of range (1-%d).", qualityIndex, len(labels)))
	}

	format, ok := media.VideoFormat(details.Formats, labels[qualityIndex-1])
	if !ok {
		return nil, utils.NoSuitableFormatError("No suitable video format found for the video.")
	}

	return &Outcome{
		State: Resolved,
		Type:  models.ResponseDownloadVideo,
		Resolution: &Resolution{
			Kind:   models.KindVideo,
			Title:  titleOf(details, hit),
			Format: format,
		},
	}, nil
}

func titleOf(details *models.VideoDetails, hit models.ResultSummary) string {
	if details.Title != "" {
		return details.Title
	}
	return hit.Title
}
