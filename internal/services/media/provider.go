// Package media provides search, metadata and format selection over a video platform.
package media

import (
	"context"

	"norelock.dev/listenify/grabber/internal/models"
)

// MaxSearchResults bounds every search call.
const MaxSearchResults = 10

// SearchProvider runs free-text searches.
type SearchProvider interface {
	// Search returns at most limit hits in provider order.
	Search(ctx context.Context, query string, limit int) (models.ResultSet, error)

	// GetType returns the provider type (e.g., "ytsearch", "youtube_api").
	GetType() string
}

// MetadataProvider resolves a watch URL to its available formats.
type MetadataProvider interface {
	// GetVideo fetches title and formats for url. Results are never cached.
	GetVideo(ctx context.Context, url string) (*models.VideoDetails, error)

	// IsVideoURL reports whether s is a link the provider can resolve directly.
	IsVideoURL(s string) bool
}
