// Package selection turns a query plus the client's menu choices into either
// the next menu or a resolved download. No state is kept between requests:
// every call re-derives its position from the full parameter tuple.
package selection

import (
	"net/url"
	"strings"

	"norelock.dev/listenify/grabber/internal/models"
	"norelock.dev/listenify/grabber/internal/utils"
)

// State names what the client has to supply next.
type State string

const (
	// NeedQuery means no query was given.
	NeedQuery State = "need_query"
	// NeedSelection means the client must pick a search result.
	NeedSelection State = "need_selection"
	// NeedFormat means the client must pick audio or video.
	NeedFormat State = "need_format"
	// NeedQuality means the client must pick a video quality.
	NeedQuality State = "need_quality"
	// Resolved means every required choice is present.
	Resolved State = "resolved"
)

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// Query parameter names.
const (
	ParamSearch  = "search"
	ParamQuery   = "query"
	ParamLink    = "link"
	ParamSelect  = "select"
	ParamFormat  = "formateselect"
	ParamQuality = "qualityselect"
)

// Params is the raw parameter tuple of one request. Empty means absent.
type Params struct {
	Query   string
	Select  string
	Format  string
	Quality string
}

// ParamsFromQuery reads Params from URL query values. The first non-empty of
// search, query and link becomes the query, verbatim.
func ParamsFromQuery(values url.Values) Params {
	p := Params{
		Select:  values.Get(ParamSelect),
		Format:  values.Get(ParamFormat),
		Quality: values.Get(ParamQuality),
	}
	for _, name := range []string{ParamSearch, ParamQuery, ParamLink} {
		if v := values.Get(name); v != "" {
			p.Query = v
			break
		}
	}
	return p
}

// DeriveState returns the state implied by which parameters are present.
// The earliest missing parameter wins; later ones are ignored.
func DeriveState(p Params) State {
	switch {
	case p.Query == "":
		return NeedQuery
	case p.Select == "":
		return NeedSelection
	case p.Format == "":
		return NeedFormat
	case p.Format == FormatVideo && p.Quality == "":
		return NeedQuality
	default:
		return Resolved
	}
}

// Format choice tokens.
const (
	FormatAudio = "1"
	FormatVideo = "2"
)

// Outcome is the result of one step: a menu, or a Resolution when State is Resolved.
type Outcome struct {
	State      State
	Type       models.ResponseType
	Menu       []string
	Resolution *Resolution
}

// Resolution identifies the rendition to deliver.
type Resolution struct {
	Kind   models.MediaKind
	Title  string
	Format models.FormatDescriptor
}

// ResponseType is downloadAudio or downloadVideo.
func (r *Resolution) ResponseType() models.ResponseType {
	if r.Kind == models.KindAudio {
		return models.ResponseDownloadAudio
	}
	return models.ResponseDownloadVideo
}

// Filename is the sanitized title with an extension matching the delivered bytes.
func (r *Resolution) Filename(transcoded bool) string {
	base := utils.SanitizeFilename(r.Title)
	if r.Kind == models.KindAudio {
		if transcoded {
			return base + ".mp3"
		}
		return base + "." + audioExtension(r.Format.ContentType())
	}
	return base + ".mp4"
}

func audioExtension(contentType string) string {
	switch {
	case strings.HasSuffix(contentType, "/webm"):
		return "webm"
	case strings.HasSuffix(contentType, "/mp4"):
		return "m4a"
	default:
		return "mp3"
	}
}
