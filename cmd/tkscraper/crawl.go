package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"tkscraper/internal/workerpool"
	"tkscraper/pkg/auth"
	"tkscraper/pkg/config"
	"tkscraper/pkg/crawler"
	"tkscraper/pkg/ingest"
	"tkscraper/pkg/logger"
	"tkscraper/pkg/ratelimit"
	"tkscraper/pkg/storage"
	"tkscraper/pkg/supervisor"
	"tkscraper/pkg/tiktok"
	"tkscraper/pkg/ui"
	"tkscraper/pkg/ui/tui"
)

// statsInterval is how often progress displays refresh their counters
const statsInterval = 250 * time.Millisecond

var (
	maxInfluencers int
	workers        int
	maxPages       int
	datasetDir     string
	endpoint       string
	proxyAddr      string
	accountName    string
	runOnce        bool
	useTUI         bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [keyword]",
	Short: "Search a keyword and ingest the creators found",
	Long: `Search TikTok for a keyword and process one video per creator until the
creator limit is reached or the search runs dry.

The keyword is searched as a hashtag; a leading '#' is added when missing.
Without a keyword argument the configured crawl.keyword is used.

Runs are supervised: after a run ends, successfully or not, the next one
starts once supervisor.restart_delay has passed. Use --once for a single run.

Session cookies are taken from, in order:
  - The account named with --account
  - tiktok.session_id in the config file or TKSCRAPER_SESSION_ID
  - The most recently stored account ('tkscraper auth login')`,
	Example: `  # Crawl the default keyword forever, restarting every 4 hours
  tkscraper crawl

  # One run over #skincare, up to 20 creators
  tkscraper crawl skincare --max 20 --once

  # Keep a local copy of every record and watch the dashboard
  tkscraper crawl k-beauty --dataset ./dataset --tui

  # Route requests through a SOCKS5 proxy with a stored account
  tkscraper crawl --proxy socks5://127.0.0.1:1080 --account main`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().IntVarP(&maxInfluencers, "max", "m", 0, "maximum number of creators per run (default from config: 50)")
	crawlCmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of concurrent video workers")
	crawlCmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many search pages")
	crawlCmd.Flags().StringVarP(&datasetDir, "dataset", "d", "", "also write every record as JSON into this directory")
	crawlCmd.Flags().StringVar(&endpoint, "endpoint", "", "ingestion API URL")
	crawlCmd.Flags().StringVar(&proxyAddr, "proxy", "", "http(s) or socks5 proxy URL")
	crawlCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	crawlCmd.Flags().BoolVar(&runOnce, "once", false, "run a single pass instead of restarting")
	crawlCmd.Flags().BoolVar(&useTUI, "tui", false, "show the interactive crawl dashboard")
}

// crawlFlags collects the flags the user set, keyed the way
// config.MergeCommandLineFlags expects
func crawlFlags(cmd *cobra.Command, args []string) map[string]interface{} {
	flags := make(map[string]interface{})
	if len(args) > 0 {
		flags["keyword"] = strings.TrimSpace(args[0])
	}
	if cmd.Flags().Changed("max") {
		flags["max"] = maxInfluencers
	}
	if cmd.Flags().Changed("workers") {
		flags["workers"] = workers
	}
	if cmd.Flags().Changed("max-pages") {
		flags["max-pages"] = maxPages
	}
	if datasetDir != "" {
		flags["dataset"] = datasetDir
	}
	if endpoint != "" {
		flags["endpoint"] = endpoint
	}
	if proxyAddr != "" {
		flags["proxy"] = proxyAddr
	}
	if runOnce {
		flags["once"] = true
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, crawlFlags(cmd, args))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	if err := resolveSession(cfg, log); err != nil {
		return err
	}

	keyword := cfg.SearchKeyword()
	if !useTUI {
		ui.PrintInfo("Keyword", keyword)
		ui.PrintInfo("Creators per run", fmt.Sprintf("%d", cfg.Crawl.MaxInfluencers))
		ui.PrintInfo("Ingest endpoint", cfg.Ingest.Endpoint)
		if cfg.Output.DatasetDir != "" {
			ui.PrintInfo("Dataset", cfg.Output.DatasetDir)
		}
	}

	client, err := tiktok.NewClient(cfg.TikTok, log)
	if err != nil {
		return fmt.Errorf("failed to create tiktok client: %w", err)
	}
	client.SetLimiter(ratelimit.NewPerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize))

	sink, err := buildSink(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := supervisor.New(cfg.Supervisor, log)

	if !useTUI {
		display := ui.NewProgressDisplay(keyword, cfg.Crawl.MaxInfluencers, strings.EqualFold(cfg.Logging.Level, "debug"))
		err := sup.Start(ctx, newRun(cfg, client, sink, display, log))
		if isShutdown(err) {
			ui.PrintWarning("Crawl stopped")
			return nil
		}
		if err != nil {
			return err
		}
		ui.PrintSuccess("[CRAWL COMPLETED]")
		return nil
	}

	dash := tui.NewTUI(keyword, cfg.Crawl.MaxInfluencers)

	crawlDone := make(chan error, 1)
	go func() {
		dash.LogInfo("Crawling %s, %d creators per run", keyword, cfg.Crawl.MaxInfluencers)
		if cfg.TikTok.SessionID == "" {
			dash.LogWarning("No TikTok session found, crawling anonymously")
		}

		err := sup.Start(ctx, newRun(cfg, client, sink, dash, log))
		crawlDone <- err
		switch {
		case cfg.Supervisor.RunOnce && err == nil:
			dash.LogSuccess("Crawl finished, press q to exit")
			return
		case err != nil && !isShutdown(err):
			dash.LogError("Crawl stopped: %v", err)
			return
		}
		dash.Stop()
	}()

	if err := dash.Start(); err != nil {
		log.WithError(err).Error("Dashboard failed")
	}

	// leaving the dashboard stops the crawl
	stop()
	err = <-crawlDone
	if isShutdown(err) {
		return nil
	}
	return err
}

// newRun builds the per-run pipeline: a fresh worker pool and component
// chain around the shared client and sink
func newRun(cfg *config.Config, client *tiktok.Client, sink crawler.Sink, obs ui.RunObserver, log logger.Logger) supervisor.Run {
	keyword := cfg.SearchKeyword()

	return func(ctx context.Context, runID string) error {
		runLog := log.WithField("run_id", runID)
		obs.RunStarted(runID)

		pool := workerpool.New(cfg.Crawl.Workers, runLog)
		pool.Start()
		defer pool.Stop()

		orchestrator := crawler.New(client, obs.Sink(sink), pool, cfg.Crawl, runLog)

		trackCtx, stopTracking := context.WithCancel(ctx)
		tracked := make(chan struct{})
		go func() {
			defer close(tracked)
			obs.Track(trackCtx, orchestrator.Stats(), statsInterval)
		}()

		_, err := orchestrator.Run(ctx, keyword, cfg.Crawl.MaxInfluencers)
		stopTracking()
		<-tracked

		var next time.Time
		if !cfg.Supervisor.RunOnce && ctx.Err() == nil {
			next = time.Now().Add(cfg.Supervisor.RestartDelay)
		}
		obs.RunFinished(err, next)
		return err
	}
}

// buildSink sends records to the ingestion API and, when configured, keeps
// a local copy of the ones it accepted
func buildSink(cfg *config.Config, log logger.Logger) (crawler.Sink, error) {
	sinks := crawler.MultiSink{ingest.NewPersister(cfg.Ingest, log)}
	if cfg.Output.DatasetDir != "" {
		dataset, err := storage.NewDataset(cfg.Output.DatasetDir, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset: %w", err)
		}
		sinks = append(sinks, dataset)
	}
	return sinks, nil
}

// newLogger sets up logging; the dashboard owns the terminal, so its logs
// only go to the log file
func newLogger(cfg *config.Config) (logger.Logger, error) {
	if useTUI {
		return logger.NewFileOnly(&cfg.Logging)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.GetLogger(), nil
}

// resolveSession applies stored credentials to the tiktok config. An
// explicit --account wins; otherwise configured cookies are kept and the
// default stored account fills in when there are none.
func resolveSession(cfg *config.Config, log logger.Logger) error {
	if accountName == "" && cfg.TikTok.SessionID != "" {
		log.Info("Using session from configuration")
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
		if err != nil {
			ui.PrintInfo("Available accounts", "Use 'tkscraper auth list' to see stored accounts")
			return fmt.Errorf("account not found: %s", accountName)
		}
	} else {
		account, err = manager.RetrieveDefault()
		if err != nil {
			log.Warn("No TikTok session found, crawling anonymously")
			ui.PrintWarning("No TikTok session found; search results may be limited")
			ui.PrintWarning("Store one with 'tkscraper auth login' or set TKSCRAPER_SESSION_ID")
			return nil
		}
	}

	account.Apply(&cfg.TikTok)
	log.WithField("account", account.Name).Info("Using stored credentials")
	if !useTUI {
		ui.PrintInfo("Using account", account.Name)
	}
	return nil
}

func isShutdown(err error) bool {
	return stderrors.Is(err, context.Canceled)
}
