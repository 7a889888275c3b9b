package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/robfig/cron/v3"

	"go-jobspider/internal/browser"
	"go-jobspider/internal/config"
	"go-jobspider/internal/dedup"
	"go-jobspider/internal/fixtures"
	"go-jobspider/internal/notify"
	"go-jobspider/internal/runner"
	"go-jobspider/internal/spider"
	"go-jobspider/internal/store"
)

// runTimeout bounds one scheduled or one-shot run.
const runTimeout = 2 * time.Hour

func main() {
	configPath := flag.String("config", "configs/spider.yaml", "path to the YAML config")
	schedule := flag.String("schedule", "", "cron expression, e.g. \"0 7 * * *\"; run once when empty")
	maxRecords := flag.Int("max", -1, "cap on listings (overrides max_records)")
	flag.Parse()

	//load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if *maxRecords >= 0 {
		cfg.MaxRecords = *maxRecords
	}
	if *schedule != "" {
		cfg.Schedule = *schedule
	}
	log.Printf("🔧 Config loaded. Base URL: %s, workers: %d", cfg.Spider.BaseURL, cfg.Spider.MaxConcurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Println("🏁 Execution finished.")
}

func run(ctx context.Context, cfg *config.Config) error {
	r, closeAll, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	if cfg.Schedule == "" {
		runOnce(ctx, r)
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(cfg.Schedule, func() { runOnce(ctx, r) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	log.Printf("⏰ Scheduled runs: %s", cfg.Schedule)
	c.Start()
	<-ctx.Done()
	log.Println("🛑 Shutting down, waiting for the current run")
	<-c.Stop().Done()
	return nil
}

func runOnce(ctx context.Context, r *runner.Runner) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	result, err := r.Run(ctx)
	if err != nil {
		log.Printf("❌ Run %s failed: %v", result.RunID, err)
		return
	}
	log.Printf("📦 Run %s: %d jobs extracted", result.RunID, len(result.Jobs))
}

// setup wires the runner and returns a func releasing every connection.
func setup(ctx context.Context, cfg *config.Config) (*runner.Runner, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*runner.Runner, func(), error) {
		closeAll()
		return nil, nil, err
	}

	//load cookies
	var cookies []playwright.OptionalCookie
	if cfg.CookiesPath != "" {
		loaded, err := browser.LoadCookies(cfg.CookiesPath)
		if err != nil {
			log.Printf("⚠️ Could not load cookies: %v. Continuing.", err)
		} else {
			log.Printf("🍪 Loaded %d cookies", len(loaded))
			cookies = loaded
		}
	}

	spiderOpts := []spider.Option{}
	if cfg.ScreenshotDir != "" {
		spiderOpts = append(spiderOpts, spider.WithScreenshots(cfg.ScreenshotDir))
	}

	//fixtures
	if cfg.SaveTestData || cfg.UseTestData {
		var fx fixtures.Store
		if cfg.RedisURL != "" {
			client, err := fixtures.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				return fail(err)
			}
			closers = append(closers, func() { client.Close() })
			fx = fixtures.NewRedisStore(client, "", 0)
			log.Println("📦 Fixtures in Redis")
		} else {
			fx = fixtures.NewFileStore(cfg.TestDataDir)
			log.Printf("📦 Fixtures in %s", cfg.TestDataDir)
		}
		spiderOpts = append(spiderOpts, spider.WithFixtures(fx, cfg.UseTestData, cfg.SaveTestData))
	}

	newSpider := func(worker int) runner.Spider {
		session := browser.NewSession(browser.PlaywrightLauncher(cfg.Spider.Headless), browser.PageOptions{
			UserAgent: cfg.Spider.UserAgent,
			Width:     cfg.Spider.ViewportWidth,
			Height:    cfg.Spider.ViewportHeight,
			Cookies:   cookies,
		})
		opts := append([]spider.Option{spider.WithBrowser(session)}, spiderOpts...)
		return spider.New(cfg.Spider, opts...)
	}

	runnerOpts := []runner.Option{
		runner.WithSeenSet(dedup.NewSeenCache(cfg.CachePath, cfg.SeenTTL)),
		runner.WithSinks(store.NewJSONFile(cfg.OutputDir)),
	}

	if cfg.DatabaseURL != "" {
		pg, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pg.Close)
		if err := pg.Migrate(ctx); err != nil {
			return fail(err)
		}
		runnerOpts = append(runnerOpts, runner.WithSinks(pg))
		log.Println("🗄 Saving to Postgres")
	}

	if cfg.TelegramToken != "" {
		bot, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return fail(err)
		}
		runnerOpts = append(runnerOpts, runner.WithNotifier(bot))
		log.Println("🤖 Telegram Bot initialized.")
	}

	return runner.New(cfg, newSpider, runnerOpts...), closeAll, nil
}
