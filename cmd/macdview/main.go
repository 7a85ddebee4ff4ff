package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"MacdView/internal/cache"
	"MacdView/internal/collector"
	"MacdView/internal/config"
	"MacdView/internal/logger"
	"MacdView/internal/notifier"
	"MacdView/internal/render"
	"MacdView/internal/scheduler"
	"MacdView/internal/server"
	"MacdView/internal/timeframe"
)

func main() {
	printTF := flag.String("print", "", "render one timeframe to the terminal and exit")
	rows := flag.Int("rows", 30, "rows to render with -print")
	flag.Parse()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log.Info("MacdView starting", zap.String("symbol", cfg.DataSource.Symbol))

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Info("data source", zap.String("name", fetcher.Name()))

	// Init cache
	var store cache.Cache
	if cfg.Cache.Disabled {
		store = cache.NewNoopCache()
	} else if sc, err := cache.NewSQLiteCache(cfg.Cache.SQLitePath, cfg.CacheTTL(), log); err != nil {
		log.Warn("init sqlite cache failed, using memory", zap.Error(err))
		store = cache.NewMemoryCache(cfg.CacheTTL())
	} else {
		store = sc
	}
	defer store.Close()

	// Init collector
	col := collector.NewCollector(collector.NewCachedFetcher(fetcher, store, log), cfg.DataSource.Symbol, log)
	col.HistoryDays = cfg.Chart.HistoryDays
	col.WarmupBars = cfg.Chart.WarmupBars
	col.Pipeline.MinSeedBars = cfg.Chart.MinSeedBars
	col.Calendar = collector.NewTradingCalendar(cfg.Chart.CalendarMIC, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *printTF != "" {
		if err := printChart(ctx, col, *printTF, cfg.Chart.DefaultLookbackHours, *rows); err != nil {
			log.Error("print chart", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sender = tn
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, store, sender, cfg, log)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	srv := server.New(cfg, col, sched, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Info("MacdView is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case err := <-errCh:
		if err != nil {
			log.Error("http server", zap.Error(err))
		}
	}

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("MacdView stopped")
}

func printChart(ctx context.Context, col *collector.Collector, label string, lookbackHours, rows int) error {
	tf, err := timeframe.Parse(label)
	if err != nil {
		return err
	}
	chart, err := col.Collect(ctx, tf, lookbackHours)
	if err != nil {
		return err
	}
	fmt.Println(render.Chart(chart, rows))
	fmt.Println(notifier.StatsLine(chart))
	return nil
}
