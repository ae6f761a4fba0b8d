package media

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
	"norelock.dev/listenify/grabber/internal/cache"
	"norelock.dev/listenify/grabber/internal/models"
	"norelock.dev/listenify/grabber/internal/services/system"
	"norelock.dev/listenify/grabber/internal/utils"
)

// DefaultUpstreamTimeout bounds a search or metadata call when none is configured.
const DefaultUpstreamTimeout = 30 * time.Second

// SearchService resolves queries to result sets through the result cache and
// fetches per-video formats. Formats are never cached.
type SearchService struct {
	provider SearchProvider
	metadata MetadataProvider
	cache    cache.ResultCache
	metrics  *system.MetricsService
	logger   *utils.Logger

	limit   int
	timeout time.Duration
	group   singleflight.Group
}

// SearchServiceConfig contains tuning for the search service.
type SearchServiceConfig struct {
	// Limit is the number of hits requested per search, capped at MaxSearchResults.
	Limit int
	// UpstreamTimeout bounds a single provider call.
	UpstreamTimeout time.Duration
}

// NewSearchService creates a new search service. metrics may be nil.
func NewSearchService(
	provider SearchProvider,
	metadata MetadataProvider,
	resultCache cache.ResultCache,
	metrics *system.MetricsService,
	logger *utils.Logger,
	config SearchServiceConfig,
) *SearchService {
	if config.Limit <= 0 || config.Limit > MaxSearchResults {
		config.Limit = MaxSearchResults
	}
	if config.UpstreamTimeout <= 0 {
		config.UpstreamTimeout = DefaultUpstreamTimeout
	}
	return &SearchService{
		provider: provider,
		metadata: metadata,
		cache:    resultCache,
		metrics:  metrics,
		logger:   logger.Named("search_service"),
		limit:    config.Limit,
		timeout:  config.UpstreamTimeout,
	}
}

// Results returns the result set for query, searching only on a cache miss.
// A query that is itself a video link resolves to a one-entry set.
// Empty sets are returned but not cached.
func (s *SearchService) Results(ctx context.Context, query string) (models.ResultSet, error) {
	if set, ok := s.lookup(ctx, query); ok {
		return set, nil
	}

	// Concurrent misses for one query share a single upstream call
	ch := s.group.DoChan(query, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.fetch(callCtx, query)
	})

	select {
	case <-ctx.Done():
		return nil, utils.CollaboratorError("search", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(models.ResultSet).Clone(), nil
	}
}

// Video fetches title and formats for a result URL.
func (s *SearchService) Video(ctx context.Context, url string) (*models.VideoDetails, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	details, err := s.metadata.GetVideo(callCtx, url)
	s.metrics.ObserveMetadata(err)
	if err != nil {
		return nil, utils.CollaboratorError("metadata", err).AddDetail("url", url)
	}
	return details, nil
}

// IsVideoURL reports whether query should bypass search.
func (s *SearchService) IsVideoURL(query string) bool {
	return s.metadata.IsVideoURL(query)
}

// lookup consults the cache. Backend errors degrade to a miss.
func (s *SearchService) lookup(ctx context.Context, query string) (models.ResultSet, bool) {
	set, ok, err := s.cache.Get(ctx, query)
	switch {
	case err != nil:
		s.metrics.IncCacheError(s.cache.Name())
		s.logger.Warn("Result cache lookup failed", "query", query, "error", err)
		return nil, false
	case ok:
		s.metrics.IncCacheHit(s.cache.Name())
		s.logger.Debug("Result cache hit", "query", query, "results", len(set))
		return set, true
	default:
		s.metrics.IncCacheMiss(s.cache.Name())
		return nil, false
	}
}

// fetch runs the upstream call for a cache miss and stores a non-empty result.
func (s *SearchService) fetch(ctx context.Context, query string) (models.ResultSet, error) {
	var (
		set models.ResultSet
		err error
	)

	if s.metadata.IsVideoURL(query) {
		set, err = s.linkResult(ctx, query)
	} else {
		start := time.Now()
		set, err = s.provider.Search(ctx, query, s.limit)
		s.metrics.ObserveSearch(s.provider.GetType(), time.Since(start), err)
		if err != nil {
			err = utils.CollaboratorError("search", err).AddDetail("query", query)
		}
	}
	if err != nil {
		return nil, err
	}

	if len(set) > MaxSearchResults {
		set = set[:MaxSearchResults]
	}

	if len(set) > 0 {
		if err := s.cache.Put(ctx, query, set); err != nil {
			s.metrics.IncCacheError(s.cache.Name())
			s.logger.Warn("Failed to store result set", "query", query, "error", err)
		}
	}

	s.logger.Debug("Resolved query", "query", query, "results", len(set), "provider", s.provider.GetType())
	return set, nil
}

// linkResult turns a direct video link into a one-entry result set.
func (s *SearchService) linkResult(ctx context.Context, link string) (models.ResultSet, error) {
	details, err := s.metadata.GetVideo(ctx, link)
	s.metrics.ObserveMetadata(err)
	if err != nil {
		return nil, utils.CollaboratorError("metadata", fmt.Errorf("resolve link: %w", err)).AddDetail("url", link)
	}

	url := details.URL
	if url == "" {
		url = link
	}
	return models.ResultSet{{Title: details.Title, URL: url, Kind: models.KindVideo}}, nil
}
