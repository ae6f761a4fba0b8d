package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate clears the variables LoadConfig consults so the host environment
// cannot leak into a test.
func isolate(t *testing.T) {
	t.Helper()
	for _, name := range []string{"CONFIG_FILE", "APP_ENV", "PORT", "APP_SERVER_PORT", "APP_MEDIA_DELIVERY",
		"APP_MEDIA_SEARCH_PROVIDER", "APP_MEDIA_YOUTUBE_API_KEY", "APP_CACHE_DRIVER"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Environment != "production" {
		t.Errorf("environment = %q, want production", cfg.Environment)
	}
	if cfg.Media.Delivery != DeliveryStream {
		t.Errorf("delivery = %q, want %q", cfg.Media.Delivery, DeliveryStream)
	}
	if cfg.Cache.Driver != CacheMemory || cfg.Cache.MaxEntries != 1000 {
		t.Errorf("cache = %s/%d, want memory/1000", cfg.Cache.Driver, cfg.Cache.MaxEntries)
	}
	if cfg.Server.WriteTimeout != 0 {
		t.Errorf("write timeout = %s, want 0", cfg.Server.WriteTimeout)
	}
	if cfg.Media.UpstreamTimeout != 30*time.Second {
		t.Errorf("upstream timeout = %s, want 30s", cfg.Media.UpstreamTimeout)
	}
	if got := cfg.ResolvedSearchProvider(); got != SearchScrape {
		t.Errorf("search provider = %q, want %q", got, SearchScrape)
	}
}

func TestLoadConfigPortOverride(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want int
	}{
		{"PORT only", map[string]string{"PORT": "8080"}, 8080},
		{"APP_SERVER_PORT only", map[string]string{"APP_SERVER_PORT": "4000"}, 4000},
		{"PORT beats APP_SERVER_PORT", map[string]string{"APP_SERVER_PORT": "4000", "PORT": "8080"}, 8080},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if cfg.Server.Port != tt.want {
				t.Errorf("port = %d, want %d", cfg.Server.Port, tt.want)
			}
		})
	}
}

func TestLoadConfigPortBeatsFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 5000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "8080")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "app.yaml")
	body := `
media:
  delivery: url
  search_limit: 5
cache:
  max_entries: 50
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_CACHE_DRIVER", "memory")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Media.Delivery != DeliveryURL {
		t.Errorf("delivery = %q, want url", cfg.Media.Delivery)
	}
	if cfg.Media.SearchLimit != 5 {
		t.Errorf("search limit = %d, want 5", cfg.Media.SearchLimit)
	}
	if cfg.Cache.MaxEntries != 50 {
		t.Errorf("max entries = %d, want 50", cfg.Cache.MaxEntries)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown delivery",
			env:  map[string]string{"APP_MEDIA_DELIVERY": "carrier-pigeon"},
			want: "media.delivery",
		},
		{
			name: "api provider without key",
			env:  map[string]string{"APP_MEDIA_SEARCH_PROVIDER": SearchYouTubeAPI},
			want: "youtube_api_key",
		},
		{
			name: "port out of range",
			env:  map[string]string{"PORT": "70000"},
			want: "server.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestResolvedSearchProvider(t *testing.T) {
	tests := []struct {
		provider string
		key      string
		want     string
	}{
		{SearchAuto, "", SearchScrape},
		{SearchAuto, "secret", SearchYouTubeAPI},
		{SearchScrape, "secret", SearchScrape},
		{SearchYouTubeAPI, "secret", SearchYouTubeAPI},
	}

	for _, tt := range tests {
		var cfg Config
		cfg.Media.SearchProvider = tt.provider
		cfg.Media.YouTubeAPIKey = tt.key
		if got := cfg.ResolvedSearchProvider(); got != tt.want {
			t.Errorf("ResolvedSearchProvider(%q, %q) = %q, want %q", tt.provider, tt.key, got, tt.want)
		}
	}
}

func TestGetConfigStringOmitsSecrets(t *testing.T) {
	var cfg Config
	cfg.Media.SearchProvider = SearchAuto
	cfg.Media.YouTubeAPIKey = "super-secret"
	cfg.Cache.Redis.Password = "hunter2"

	s := GetConfigString(&cfg)
	if strings.Contains(s, "super-secret") || strings.Contains(s, "hunter2") {
		t.Errorf("config summary leaks a secret:\n%s", s)
	}
}
