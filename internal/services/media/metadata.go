package media

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kkdai/youtube/v2"
	"norelock.dev/listenify/grabber/internal/models"
	"norelock.dev/listenify/grabber/internal/utils"
)

// VideoClient is the subset of *youtube.Client the metadata provider needs.
type VideoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamURLContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error)
}

// Compile-time check
var _ VideoClient = (*youtube.Client)(nil)

// YouTubeMetadataProvider implements MetadataProvider with the innertube client.
type YouTubeMetadataProvider struct {
	client VideoClient
	logger *utils.Logger
}

// NewYouTubeMetadataProvider creates a metadata provider. A nil httpClient
// uses http.DefaultClient.
func NewYouTubeMetadataProvider(httpClient *http.Client, logger *utils.Logger) *YouTubeMetadataProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return NewMetadataProviderWithClient(&youtube.Client{HTTPClient: httpClient}, logger)
}

// NewMetadataProviderWithClient wires an explicit VideoClient.
func NewMetadataProviderWithClient(client VideoClient, logger *utils.Logger) *YouTubeMetadataProvider {
	return &YouTubeMetadataProvider{
		client: client,
		logger: logger.Named("metadata_provider"),
	}
}

// GetVideo fetches the video and maps every rendition that has a usable URL.
func (p *YouTubeMetadataProvider) GetVideo(ctx context.Context, videoURL string) (*models.VideoDetails, error) {
	p.logger.Debug("Fetching video metadata", "url", videoURL)

	video, err := p.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		p.logger.Error("Failed to fetch video metadata", err, "url", videoURL)
		return nil, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	details := &models.VideoDetails{
		Title:   video.Title,
		URL:     WatchURLPrefix + video.ID,
		Formats: make([]models.FormatDescriptor, 0, len(video.Formats)),
	}

	for i := range video.Formats {
		format := &video.Formats[i]

		mediaURL := format.URL
		if mediaURL == "" {
			// Signature-protected renditions need deciphering first
			mediaURL, err = p.client.GetStreamURLContext(ctx, video, format)
			if err != nil {
				p.logger.Debug("Skipping format without stream URL", "itag", format.ItagNo, "error", err)
				continue
			}
		}

		details.Formats = append(details.Formats, describeFormat(format, mediaURL))
	}

	return details, nil
}

// IsVideoURL reports whether s is an http(s) YouTube link carrying a video ID.
func (p *YouTubeMetadataProvider) IsVideoURL(s string) bool {
	return IsVideoURL(s)
}

// IsVideoURL reports whether s is an http(s) YouTube link carrying a video ID.
func IsVideoURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be", "youtube-nocookie.com":
	default:
		return false
	}

	_, err = youtube.ExtractVideoID(s)
	return err == nil
}

// describeFormat converts a library format into a FormatDescriptor.
func describeFormat(format *youtube.Format, mediaURL string) models.FormatDescriptor {
	hasVideo := format.Width > 0 || format.Height > 0 || strings.HasPrefix(format.MimeType, "video/") && format.QualityLabel != ""
	return models.FormatDescriptor{
		QualityLabel: format.QualityLabel,
		MimeType:     format.MimeType,
		HasAudio:     format.AudioChannels > 0,
		HasVideo:     hasVideo,
		MediaURL:     mediaURL,
	}
}
