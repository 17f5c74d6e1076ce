package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://www.tiktok.com", cfg.TikTok.BaseURL)
	assert.NotEmpty(t, cfg.TikTok.UserAgent)

	assert.Equal(t, "k-beauty", cfg.Crawl.Keyword)
	assert.Equal(t, 50, cfg.Crawl.MaxInfluencers)
	assert.Equal(t, 20, cfg.Crawl.SearchPageSize)
	assert.Equal(t, 20, cfg.Crawl.CommentPageSize)
	assert.Equal(t, 100, cfg.Crawl.MaxComments)
	assert.Equal(t, 4, cfg.Crawl.InlineReplyThreshold)
	assert.Equal(t, 10, cfg.Crawl.Workers)
	assert.Zero(t, cfg.Crawl.MaxPages)

	assert.Zero(t, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, DefaultIngestEndpoint, cfg.Ingest.Endpoint)
	assert.Equal(t, []string{"fa6b5bf2-5154-487a-9482-168fdacef1ae"}, cfg.Ingest.PlatformIDs)
	assert.Equal(t, []string{"9e7d2d14-6fbd-4930-ad69-72c851967f78"}, cfg.Ingest.CategoryIDs)
	assert.Equal(t, 4*time.Hour, cfg.Supervisor.RestartDelay)
	assert.Empty(t, cfg.Output.DatasetDir)

	require.NoError(t, cfg.Validate())
}

func TestHashtagKeyword(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"k-beauty", "#k-beauty"},
		{"#skincare", "#skincare"},
		{"  glowup ", "#glowup"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, HashtagKeyword(tt.in))
		})
	}

	cfg := DefaultConfig()
	assert.Equal(t, "#k-beauty", cfg.SearchKeyword())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TKSCRAPER_SESSION_ID", "sess")
	t.Setenv("TKSCRAPER_MS_TOKEN", "ms")
	t.Setenv("TKSCRAPER_KEYWORD", "skincare")
	t.Setenv("TKSCRAPER_MAX_INFLUENCERS", "7")
	t.Setenv("TKSCRAPER_WORKERS", "3")
	t.Setenv("TKSCRAPER_RESTART_DELAY", "30m")
	t.Setenv("TKSCRAPER_RUN_ONCE", "true")
	t.Setenv("TKSCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "sess", cfg.TikTok.SessionID)
	assert.Equal(t, "ms", cfg.TikTok.MsToken)
	assert.Equal(t, "skincare", cfg.Crawl.Keyword)
	assert.Equal(t, 7, cfg.Crawl.MaxInfluencers)
	assert.Equal(t, 3, cfg.Crawl.Workers)
	assert.Equal(t, 30*time.Minute, cfg.Supervisor.RestartDelay)
	assert.True(t, cfg.Supervisor.RunOnce)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidNumbers(t *testing.T) {
	t.Setenv("TKSCRAPER_MAX_INFLUENCERS", "lots")
	t.Setenv("TKSCRAPER_RESTART_DELAY", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TKSCRAPER_MAX_INFLUENCERS")
	assert.Contains(t, err.Error(), "TKSCRAPER_RESTART_DELAY")
	assert.Equal(t, 50, cfg.Crawl.MaxInfluencers)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
tiktok:
  ms_token: file-token
  cookies:
    odin_tt: abc
crawl:
  keyword: "#serum"
  max_influencers: 12
  workers: 4
ingest:
  endpoint: http://localhost:9000/api/v1/influencers/
supervisor:
  restart_delay: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "file-token", cfg.TikTok.MsToken)
	assert.Equal(t, "abc", cfg.TikTok.Cookies["odin_tt"])
	assert.Equal(t, "#serum", cfg.SearchKeyword())
	assert.Equal(t, 12, cfg.Crawl.MaxInfluencers)
	assert.Equal(t, 4, cfg.Crawl.Workers)
	assert.Equal(t, "http://localhost:9000/api/v1/influencers/", cfg.Ingest.Endpoint)
	assert.Equal(t, time.Hour, cfg.Supervisor.RestartDelay)
	// untouched keys keep their defaults
	assert.Equal(t, 100, cfg.Crawl.MaxComments)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("crawl: [unclosed"), 0600))
	assert.Error(t, cfg.LoadFromFile(bad))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"empty keyword", func(c *Config) { c.Crawl.Keyword = "#" }, "search keyword is required"},
		{"zero max", func(c *Config) { c.Crawl.MaxInfluencers = 0 }, "max influencers must be positive"},
		{"zero workers", func(c *Config) { c.Crawl.Workers = 0 }, "workers must be positive"},
		{"too many workers", func(c *Config) { c.Crawl.Workers = 51 }, "workers should not exceed 50"},
		{"negative pages", func(c *Config) { c.Crawl.MaxPages = -1 }, "max pages cannot be negative"},
		{"relative endpoint", func(c *Config) { c.Ingest.Endpoint = "/api" }, "ingest endpoint must be an absolute URL"},
		{"rate limit without burst", func(c *Config) {
			c.RateLimit.RequestsPerMinute = 30
			c.RateLimit.BurstSize = 0
		}, "burst size must be positive"},
		{"no restart delay", func(c *Config) { c.Supervisor.RestartDelay = 0 }, "restart delay must be positive"},
		{"no restart delay but run once", func(c *Config) {
			c.Supervisor.RestartDelay = 0
			c.Supervisor.RunOnce = true
		}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"keyword": "toner",
		"max":     5,
		"workers": 2,
		"dataset": "/tmp/ds",
		"once":    true,
	})

	assert.Equal(t, "#toner", cfg.SearchKeyword())
	assert.Equal(t, 5, cfg.Crawl.MaxInfluencers)
	assert.Equal(t, 2, cfg.Crawl.Workers)
	assert.Equal(t, "/tmp/ds", cfg.Output.DatasetDir)
	assert.True(t, cfg.Supervisor.RunOnce)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Crawl.Keyword = "sunscreen"
	cfg.TikTok.Cookies["odin_tt"] = "xyz"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "sunscreen", loaded.Crawl.Keyword)
	assert.Equal(t, "xyz", loaded.TikTok.Cookies["odin_tt"])
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crawl:\n  max_influencers: 20\n  workers: 6\n"), 0600))

	t.Setenv("TKSCRAPER_MAX_INFLUENCERS", "30")

	cfg, err := Load(path, map[string]interface{}{"workers": 8})
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Crawl.MaxInfluencers, "env overrides file")
	assert.Equal(t, 8, cfg.Crawl.Workers, "flags override file")
}
