package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix shared by every environment override.
const EnvPrefix = "TKSCRAPER_"

// DefaultIngestEndpoint is the influencer ingestion API records are pushed to.
const DefaultIngestEndpoint = "https://dev.quokkaai.org/api/v1/influencers/"

// Config holds all configuration options for the TikTok crawler
type Config struct {
	// TikTok web session and transport settings
	TikTok TikTokConfig `yaml:"tiktok" json:"tiktok"`

	// Search and pagination limits
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Optional request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Ingestion API
	Ingest IngestConfig `yaml:"ingest" json:"ingest"`

	// Optional local dataset
	Output OutputConfig `yaml:"output" json:"output"`

	// Restart loop
	Supervisor SupervisorConfig `yaml:"supervisor" json:"supervisor"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TikTokConfig holds the web session used for every GET request
type TikTokConfig struct {
	BaseURL   string            `yaml:"base_url" json:"base_url"`
	UserAgent string            `yaml:"user_agent" json:"user_agent"`
	SessionID string            `yaml:"session_id" json:"session_id"`
	MsToken   string            `yaml:"ms_token" json:"ms_token"`
	TTWebID   string            `yaml:"tt_webid" json:"tt_webid"`
	Region    string            `yaml:"region" json:"region"`
	Cookies   map[string]string `yaml:"cookies" json:"cookies"`
	Params    map[string]string `yaml:"params" json:"params"`
	Proxy     string            `yaml:"proxy" json:"proxy"`
	Timeout   time.Duration     `yaml:"timeout" json:"timeout"`
}

// CrawlConfig holds the search target and pagination bounds
type CrawlConfig struct {
	Keyword              string `yaml:"keyword" json:"keyword"`
	MaxInfluencers       int    `yaml:"max_influencers" json:"max_influencers"`
	SearchPageSize       int    `yaml:"search_page_size" json:"search_page_size"`
	CommentPageSize      int    `yaml:"comment_page_size" json:"comment_page_size"`
	MaxComments          int    `yaml:"max_comments" json:"max_comments"`
	InlineReplyThreshold int    `yaml:"inline_reply_threshold" json:"inline_reply_threshold"`
	Workers              int    `yaml:"workers" json:"workers"`
	MaxPages             int    `yaml:"max_pages" json:"max_pages"` // 0 means unbounded
}

// RateLimitConfig holds request pacing configuration. Zero disables pacing.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// IngestConfig holds the ingestion endpoint and the fixed schema identifiers
type IngestConfig struct {
	Endpoint    string        `yaml:"endpoint" json:"endpoint"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	EmailDomain string        `yaml:"email_domain" json:"email_domain"`
	PlatformIDs []string      `yaml:"platform_ids" json:"platform_ids"`
	CategoryIDs []string      `yaml:"category_ids" json:"category_ids"`
}

// OutputConfig holds the optional local dataset directory
type OutputConfig struct {
	DatasetDir string `yaml:"dataset_dir" json:"dataset_dir"`
}

// SupervisorConfig controls the whole-pipeline restart loop
type SupervisorConfig struct {
	RestartDelay time.Duration `yaml:"restart_delay" json:"restart_delay"`
	RunOnce      bool          `yaml:"run_once" json:"run_once"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		TikTok: TikTokConfig{
			BaseURL:   "https://www.tiktok.com",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			Region:    "US",
			Cookies:   map[string]string{},
			Params:    map[string]string{},
			Timeout:   30 * time.Second,
		},
		Crawl: CrawlConfig{
			Keyword:              "k-beauty",
			MaxInfluencers:       50,
			SearchPageSize:       20,
			CommentPageSize:      20,
			MaxComments:          100,
			InlineReplyThreshold: 4,
			Workers:              10,
			MaxPages:             0,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0,
			BurstSize:         5,
		},
		Ingest: IngestConfig{
			Endpoint:    DefaultIngestEndpoint,
			Timeout:     30 * time.Second,
			EmailDomain: "gmail.com",
			PlatformIDs: []string{"fa6b5bf2-5154-487a-9482-168fdacef1ae"},
			CategoryIDs: []string{"9e7d2d14-6fbd-4930-ad69-72c851967f78"},
		},
		Supervisor: SupervisorConfig{
			RestartDelay: 4 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SearchKeyword returns the configured keyword with its hashtag marker.
func (c *Config) SearchKeyword() string {
	return HashtagKeyword(c.Crawl.Keyword)
}

// HashtagKeyword prefixes kw with "#" unless it already carries one.
func HashtagKeyword(kw string) string {
	kw = strings.TrimSpace(kw)
	if kw == "" || strings.HasPrefix(kw, "#") {
		return kw
	}
	return "#" + kw
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}
	setDuration := func(name string, dst *time.Duration) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = d
	}

	// TikTok session
	setString("SESSION_ID", &c.TikTok.SessionID)
	setString("MS_TOKEN", &c.TikTok.MsToken)
	setString("TT_WEBID", &c.TikTok.TTWebID)
	setString("USER_AGENT", &c.TikTok.UserAgent)
	setString("PROXY", &c.TikTok.Proxy)
	setString("REGION", &c.TikTok.Region)

	// Crawl target
	setString("KEYWORD", &c.Crawl.Keyword)
	setInt("MAX_INFLUENCERS", &c.Crawl.MaxInfluencers)
	setInt("WORKERS", &c.Crawl.Workers)
	setInt("MAX_PAGES", &c.Crawl.MaxPages)

	setInt("REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)

	setString("INGEST_ENDPOINT", &c.Ingest.Endpoint)
	setString("DATASET_DIR", &c.Output.DatasetDir)

	setDuration("RESTART_DELAY", &c.Supervisor.RestartDelay)
	if v := os.Getenv(EnvPrefix + "RUN_ONCE"); v != "" {
		c.Supervisor.RunOnce = strings.ToLower(v) == "true"
	}

	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile returns the first existing config file in the standard
// locations, or "" when there is none
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".tkscraper.yaml",
		".tkscraper.yml",
		filepath.Join(home, ".config", "tkscraper", "config.yaml"),
		filepath.Join(home, ".config", "tkscraper", "config.yml"),
		filepath.Join(home, ".tkscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if _, err := url.ParseRequestURI(c.TikTok.BaseURL); err != nil {
		errs = append(errs, errors.New("tiktok base URL is invalid"))
	}
	if c.TikTok.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.TikTok.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if strings.Trim(strings.TrimSpace(c.Crawl.Keyword), "#") == "" {
		errs = append(errs, errors.New("search keyword is required"))
	}
	if c.Crawl.MaxInfluencers <= 0 {
		errs = append(errs, errors.New("max influencers must be positive"))
	}
	if c.Crawl.SearchPageSize <= 0 {
		errs = append(errs, errors.New("search page size must be positive"))
	}
	if c.Crawl.CommentPageSize <= 0 {
		errs = append(errs, errors.New("comment page size must be positive"))
	}
	if c.Crawl.MaxComments <= 0 {
		errs = append(errs, errors.New("max comments must be positive"))
	}
	if c.Crawl.InlineReplyThreshold < 0 {
		errs = append(errs, errors.New("inline reply threshold cannot be negative"))
	}
	if c.Crawl.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Crawl.Workers > 50 {
		errs = append(errs, errors.New("workers should not exceed 50"))
	}
	if c.Crawl.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive when rate limiting is enabled"))
	}

	if u, err := url.ParseRequestURI(c.Ingest.Endpoint); err != nil || u.Host == "" {
		errs = append(errs, errors.New("ingest endpoint must be an absolute URL"))
	}
	if c.Ingest.Timeout <= 0 {
		errs = append(errs, errors.New("ingest timeout must be positive"))
	}
	if c.Ingest.EmailDomain == "" {
		errs = append(errs, errors.New("email domain is required"))
	}

	if !c.Supervisor.RunOnce && c.Supervisor.RestartDelay <= 0 {
		errs = append(errs, errors.New("restart delay must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if keyword, ok := flags["keyword"].(string); ok && keyword != "" {
		c.Crawl.Keyword = keyword
	}
	if maxCount, ok := flags["max"].(int); ok && maxCount > 0 {
		c.Crawl.MaxInfluencers = maxCount
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Crawl.Workers = workers
	}
	if maxPages, ok := flags["max-pages"].(int); ok && maxPages > 0 {
		c.Crawl.MaxPages = maxPages
	}
	if dataset, ok := flags["dataset"].(string); ok && dataset != "" {
		c.Output.DatasetDir = dataset
	}
	if endpoint, ok := flags["endpoint"].(string); ok && endpoint != "" {
		c.Ingest.Endpoint = endpoint
	}
	if proxy, ok := flags["proxy"].(string); ok && proxy != "" {
		c.TikTok.Proxy = proxy
	}
	if once, ok := flags["once"].(bool); ok && once {
		c.Supervisor.RunOnce = true
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tkscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
