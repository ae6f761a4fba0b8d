package media

import (
	"context"
	"fmt"

	"github.com/raitonoberu/ytsearch"
	"norelock.dev/listenify/grabber/internal/models"
	"norelock.dev/listenify/grabber/internal/utils"
)

// ScrapeSearchProvider implements SearchProvider without an API key by
// querying the public results page.
type ScrapeSearchProvider struct {
	logger *utils.Logger
}

// NewScrapeSearchProvider creates a keyless search provider.
func NewScrapeSearchProvider(logger *utils.Logger) *ScrapeSearchProvider {
	return &ScrapeSearchProvider{
		logger: logger.Named("ytsearch_provider"),
	}
}

// Search returns the first page of video hits, truncated to limit.
func (p *ScrapeSearchProvider) Search(ctx context.Context, query string, limit int) (models.ResultSet, error) {
	p.logger.Debug("Searching", "query", query, "limit", limit)

	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	search := ytsearch.VideoSearch(query)
	results := make(models.ResultSet, 0, limit)
	done := make(chan error, 1)
	go func() {
		res, err := search.Next()
		if err != nil {
			done <- err
			return
		}
		for _, video := range res.Videos {
			if video.ID == "" {
				continue
			}
			results = append(results, models.ResultSummary{
				Title: video.Title,
				URL:   WatchURLPrefix + video.ID,
				Kind:  models.KindVideo,
			})
			if len(results) == limit {
				break
			}
		}
		done <- nil
	}()

	// The library has no context support; abandon the call on cancellation.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			p.logger.Error("Search failed", err, "query", query)
			return nil, fmt.Errorf("search %q: %w", query, err)
		}
	}

	return results, nil
}

// GetType returns the provider type.
func (p *ScrapeSearchProvider) GetType() string {
	return "ytsearch"
}
