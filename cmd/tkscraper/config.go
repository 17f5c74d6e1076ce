package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"tkscraper/pkg/config"
	"tkscraper/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tkscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TKSCRAPER_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.tkscraper.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

Session cookies are masked.`,
	RunE: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields and value ranges
  - Dataset and log directory accessibility`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# tkscraper configuration file
#
# Every option can also be set with an environment variable prefixed with
# TKSCRAPER_, for example TKSCRAPER_SESSION_ID or TKSCRAPER_KEYWORD.

# TikTok web session
tiktok:
  # sessionid cookie; leave empty to use a stored account
  session_id: ""
  # msToken cookie (optional)
  ms_token: ""
  # tt_webid_v2 cookie (optional)
  tt_webid: ""
  # Should match the browser the cookies came from
  user_agent: ""
  region: "US"
  # http(s):// or socks5:// proxy URL (optional)
  proxy: ""
  timeout: 30s

# What to crawl
crawl:
  # Searched as a hashtag; '#' is added when missing
  keyword: "k-beauty"
  # Creators per run
  max_influencers: 50
  search_page_size: 20
  comment_page_size: 20
  # Top-level comments kept per video
  max_comments: 100
  # Comments with more replies than this get their replies fetched
  inline_reply_threshold: 4
  # Concurrent video workers, 1-50
  workers: 10
  # Stop after this many search pages; 0 means no limit
  max_pages: 0

# Request pacing; 0 disables it
rate_limit:
  requests_per_minute: 0
  burst_size: 5

# Ingestion API
ingest:
  endpoint: "` + config.DefaultIngestEndpoint + `"
  timeout: 30s
  email_domain: "gmail.com"

# Local JSON copy of every record (optional)
output:
  dataset_dir: ""

# Restart behaviour
supervisor:
  restart_delay: 4h
  run_once: false

logging:
  # debug, info, warn, error
  level: "info"
  # Log file path (optional); required to see logs with --tui
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".tkscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the keyword and ingest endpoint")
	fmt.Println("2. Store a session with 'tkscraper auth login'")
	fmt.Println("3. Run 'tkscraper config validate' to check the configuration")
	fmt.Println("4. Start crawling with 'tkscraper crawl --once'")
	return nil
}

// maskedConfig returns a copy of cfg safe to print
func maskedConfig(cfg *config.Config) config.Config {
	display := *cfg
	display.TikTok.SessionID = mask(display.TikTok.SessionID)
	display.TikTok.MsToken = mask(display.TikTok.MsToken)
	display.TikTok.Cookies = make(map[string]string, len(cfg.TikTok.Cookies))
	for k, v := range cfg.TikTok.Cookies {
		display.TikTok.Cookies[k] = mask(v)
	}
	return display
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	display := maskedConfig(cfg)
	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (TKSCRAPER_*)")
	if path := configPath(); path != "" {
		fmt.Printf("3. Configuration file: %s\n", path)
	} else {
		fmt.Println("3. Configuration file: (none found)")
	}
	fmt.Println("4. Default values")
	return nil
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.FindConfigFile()
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath()
	if path == "" {
		return fmt.Errorf("no configuration file found, specify one with --config")
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings, problems []string

	if cfg.TikTok.SessionID == "" {
		warnings = append(warnings, "TikTok session ID not configured (a stored account will be used if present)")
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		warnings = append(warnings, "request pacing is disabled")
	}
	if cfg.Output.DatasetDir != "" {
		if err := os.MkdirAll(cfg.Output.DatasetDir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create dataset directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("%d configuration errors", len(problems))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Keyword: %s\n", cfg.SearchKeyword())
	fmt.Printf("  Creators per run: %d\n", cfg.Crawl.MaxInfluencers)
	fmt.Printf("  Workers: %d\n", cfg.Crawl.Workers)
	fmt.Printf("  Ingest endpoint: %s\n", cfg.Ingest.Endpoint)
	fmt.Printf("  Restart delay: %s\n", cfg.Supervisor.RestartDelay)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
