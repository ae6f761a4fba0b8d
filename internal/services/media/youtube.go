// Package media provides search, metadata and format selection over a video platform.
package media

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
	"norelock.dev/listenify/grabber/internal/models"
	"norelock.dev/listenify/grabber/internal/utils"
)

// WatchURLPrefix turns a video ID into a watch URL.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// YouTubeAPIProvider implements SearchProvider on the YouTube Data API v3.
type YouTubeAPIProvider struct {
	opts   []option.ClientOption
	logger *utils.Logger

	once    sync.Once
	service *youtube.Service
	initErr error
}

// NewYouTubeAPIProvider creates a Data API search provider. Extra client options
// are appended after the API key.
func NewYouTubeAPIProvider(apiKey string, logger *utils.Logger, opts ...option.ClientOption) *YouTubeAPIProvider {
	return &YouTubeAPIProvider{
		opts:   append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...),
		logger: logger.Named("youtube_api_provider"),
	}
}

// Search searches for videos on YouTube.
func (p *YouTubeAPIProvider) Search(ctx context.Context, query string, limit int) (models.ResultSet, error) {
	p.logger.Debug("Searching YouTube Data API", "query", query, "limit", limit)

	service, err := p.getService(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	response, err := service.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		p.logger.Error("Failed to search YouTube", err, "query", query)
		return nil, fmt.Errorf("failed to search YouTube: %w", err)
	}

	results := make(models.ResultSet, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Id == nil || item.Id.Kind != "youtube#video" || item.Snippet == nil {
			continue
		}
		results = append(results, models.ResultSummary{
			Title: item.Snippet.Title,
			URL:   WatchURLPrefix + item.Id.VideoId,
			Kind:  models.KindVideo,
		})
		if len(results) == limit {
			break
		}
	}

	return results, nil
}

// GetType returns the provider type.
func (p *YouTubeAPIProvider) GetType() string {
	return "youtube_api"
}

// getService builds the API client once.
func (p *YouTubeAPIProvider) getService(ctx context.Context) (*youtube.Service, error) {
	p.once.Do(func() {
		p.service, p.initErr = youtube.NewService(context.WithoutCancel(ctx), p.opts...)
		if p.initErr != nil {
			p.logger.Error("Failed to create YouTube service", p.initErr)
			p.initErr = fmt.Errorf("failed to create YouTube service: %w", p.initErr)
		}
	})
	return p.service, p.initErr
}
