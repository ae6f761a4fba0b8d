package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"norelock.dev/listenify/grabber/internal/utils"
)

// CORSConfig controls which browser origins may call the API and read downloads.
type CORSConfig struct {
	// AllowedOrigins lists exact origins, prefix patterns ending in "*", or "*" alone.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// ExposedHeaders must include Content-Disposition so browsers can name saved files.
	ExposedHeaders []string
	// MaxAge is the preflight cache lifetime in seconds; 0 omits the header.
	MaxAge int
}

// DefaultCORSConfig returns the read-only API defaults.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "Content-Length", "X-Request-Id"},
		MaxAge:         86400,
	}
}

// CORSConfigFor applies the configured origins on top of the defaults.
func CORSConfigFor(allowedOrigins []string) CORSConfig {
	cfg := DefaultCORSConfig()
	if len(allowedOrigins) > 0 {
		cfg.AllowedOrigins = allowedOrigins
	}
	return cfg
}

// CORSMiddleware handles CORS for the API. Credentials are never allowed.
type CORSMiddleware struct {
	config  CORSConfig
	methods string
	headers string
	exposed string
	logger  *utils.Logger
}

// NewCORSMiddleware creates a new CORS middleware.
func NewCORSMiddleware(config CORSConfig, logger *utils.Logger) *CORSMiddleware {
	return &CORSMiddleware{
		config:  config,
		methods: strings.Join(config.AllowedMethods, ", "),
		headers: strings.Join(config.AllowedHeaders, ", "),
		exposed: strings.Join(config.ExposedHeaders, ", "),
		logger:  logger.Named("cors_middleware"),
	}
}

// CORS answers preflight requests itself and decorates everything else.
func (m *CORSMiddleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed := m.allowedOrigin(origin); allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				w.Header().Add("Vary", "Origin")
			}
		} else if origin != "" {
			m.logger.Debug("Origin not allowed", "origin", origin)
		}

		if m.exposed != "" {
			w.Header().Set("Access-Control-Expose-Headers", m.exposed)
		}

		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if m.methods != "" {
			w.Header().Set("Access-Control-Allow-Methods", m.methods)
		}
		if m.headers != "" {
			w.Header().Set("Access-Control-Allow-Headers", m.headers)
		}
		if m.config.MaxAge > 0 {
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(m.config.MaxAge))
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// allowedOrigin returns the Access-Control-Allow-Origin value for origin, or "".
func (m *CORSMiddleware) allowedOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	if lo.Contains(m.config.AllowedOrigins, "*") {
		return "*"
	}
	_, ok := lo.Find(m.config.AllowedOrigins, func(pattern string) bool {
		if prefix, wildcard := strings.CutSuffix(pattern, "*"); wildcard {
			return strings.HasPrefix(origin, prefix)
		}
		return pattern == origin
	})
	if !ok {
		return ""
	}
	return origin
}
