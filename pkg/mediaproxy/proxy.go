// Package mediaproxy opens upstream media streams for pass-through delivery.
package mediaproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Proxy errors
var (
	// ErrInvalidURL is returned when an invalid URL is provided.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrFetchFailed is returned when fetching content from a source fails.
	ErrFetchFailed = errors.New("failed to fetch content")

	// ErrNotFound is returned when the requested content is not found.
	ErrNotFound = errors.New("content not found")

	// ErrForbidden is returned when access to the requested content is forbidden.
	// Signed media URLs report this once they expire.
	ErrForbidden = errors.New("access forbidden")
)

// DefaultUserAgent is sent when no User-Agent header is configured.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Stream is an open upstream response body. The caller owns it and must Close it.
type Stream struct {
	// Body is the media content.
	Body io.ReadCloser

	// ContentType is the MIME type reported upstream.
	ContentType string

	// ContentLength is the length of the content in bytes, or -1 if unknown.
	ContentLength int64
}

// Close releases the upstream connection.
func (s *Stream) Close() error {
	return s.Body.Close()
}

// Opener opens media streams.
type Opener interface {
	// Open starts fetching mediaURL. Cancelling ctx aborts the transfer.
	Open(ctx context.Context, mediaURL string) (*Stream, error)
}

// MediaProxy fetches media over HTTP.
type MediaProxy struct {
	// httpClient is the HTTP client used to fetch content.
	httpClient *http.Client

	// headers are added to every upstream request.
	headers map[string]string
}

// Compile-time check
var _ Opener = (*MediaProxy)(nil)

// MediaProxyOption is a function that configures a MediaProxy.
type MediaProxyOption func(*MediaProxy)

// WithHTTPClient sets the HTTP client used to fetch content.
func WithHTTPClient(httpClient *http.Client) MediaProxyOption {
	return func(p *MediaProxy) {
		p.httpClient = httpClient
	}
}

// WithHeader adds a header to every upstream request.
func WithHeader(key, value string) MediaProxyOption {
	return func(p *MediaProxy) {
		p.headers[key] = value
	}
}

// NewMediaProxy creates a new media proxy.
func NewMediaProxy(options ...MediaProxyOption) *MediaProxy {
	proxy := &MediaProxy{
		httpClient: http.DefaultClient,
		headers:    map[string]string{"User-Agent": DefaultUserAgent},
	}

	// Apply options
	for _, option := range options {
		option(proxy)
	}

	return proxy
}

// Open issues a GET for mediaURL. On success the body is returned unread.
func (p *MediaProxy) Open(ctx context.Context, mediaURL string) (*Stream, error) {
	u, err := url.Parse(mediaURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, mediaURL)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	for key, value := range p.headers {
		httpReq.Header.Set(key, value)
	}

	httpRes, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	// Check status code
	switch httpRes.StatusCode {
	case http.StatusOK:
		// OK
	case http.StatusNotFound:
		httpRes.Body.Close()
		return nil, ErrNotFound
	case http.StatusForbidden:
		httpRes.Body.Close()
		return nil, ErrForbidden
	default:
		httpRes.Body.Close()
		return nil, fmt.Errorf("%w: status code %d", ErrFetchFailed, httpRes.StatusCode)
	}

	return &Stream{
		Body:          httpRes.Body,
		ContentType:   httpRes.Header.Get("Content-Type"),
		ContentLength: httpRes.ContentLength,
	}, nil
}

// CountingWriter counts bytes written through it.
type CountingWriter struct {
	W io.Writer
	N int64
}

// Write implements io.Writer.
func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	c.N += int64(n)
	return n, err
}
