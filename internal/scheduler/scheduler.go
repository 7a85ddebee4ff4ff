// Package scheduler runs the periodic data refresh and answers bot commands.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"MacdView/internal/cache"
	"MacdView/internal/collector"
	"MacdView/internal/config"
	"MacdView/internal/model"
	"MacdView/internal/notifier"
	"MacdView/internal/timeframe"
)

// Sender delivers a message, retrying on failure.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the refresh cron task.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Cache     cache.Cache
	// Notifier is optional; crossover alerts are skipped without it.
	Notifier Sender
	Ctx      context.Context

	DefaultTimeframe timeframe.Timeframe
	DefaultLookback  int

	log *zap.Logger

	mu            sync.Mutex
	lastCrossover time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, c cache.Cache, n Sender, cfg *config.Config, log *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:             cron.New(cron.WithSeconds()),
		Collector:        col,
		Cache:            c,
		Notifier:         n,
		Ctx:              ctx,
		DefaultTimeframe: timeframe.Timeframe(cfg.Chart.DefaultTimeframe),
		DefaultLookback:  cfg.Chart.DefaultLookbackHours,
		log:              log,
	}
}

// Register adds the refresh task.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Refresh drops cached data and recomputes the default chart.
func (s *Scheduler) Refresh(ctx context.Context) (*model.Chart, error) {
	if err := s.Cache.Clear(); err != nil {
		return nil, fmt.Errorf("clear cache: %w", err)
	}
	return s.Collector.Collect(ctx, s.DefaultTimeframe, s.DefaultLookback)
}

func (s *Scheduler) refreshTask() {
	s.log.Info("running refresh task")
	chart, err := s.Refresh(s.Ctx)
	if err != nil {
		s.log.Error("refresh", zap.Error(err))
		return
	}
	if at, ok := crossover(chart.Bars); ok && s.markCrossover(at) {
		s.trySend("🔔 <b>MACD crossover</b>\n\n" + notifier.FormatChartSummary(chart))
	}
}

// crossover reports whether the histogram changed sign on the newest bar.
func crossover(bars model.IndicatedSeries) (time.Time, bool) {
	n := len(bars)
	if n < 2 {
		return time.Time{}, false
	}
	prev, last := bars[n-2].Histogram, bars[n-1].Histogram
	if (prev < 0 && last >= 0) || (prev >= 0 && last < 0) {
		return bars[n-1].Time, true
	}
	return time.Time{}, false
}

// markCrossover records at and reports whether it had not been alerted yet.
func (s *Scheduler) markCrossover(at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastCrossover.Equal(at) {
		return false
	}
	s.lastCrossover = at
	return true
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return help()
	}
	switch fields[0] {
	case "/chart":
		tf, hours, err := s.chartArgs(fields[1:])
		if err != nil {
			return notifier.FormatError(err)
		}
		chart, err := s.Collector.Collect(ctx, tf, hours)
		if err != nil {
			s.log.Error("chart command", zap.String("timeframe", string(tf)), zap.Error(err))
			return notifier.FormatError(err)
		}
		return notifier.FormatChartSummary(chart)
	case "/refresh":
		chart, err := s.Refresh(ctx)
		if err != nil {
			s.log.Error("refresh command", zap.Error(err))
			return notifier.FormatError(err)
		}
		return "✅ Cache cleared\n\n" + notifier.FormatChartSummary(chart)
	case "/timeframes":
		return notifier.FormatTimeframes(timeframe.All())
	default:
		return help()
	}
}

func (s *Scheduler) chartArgs(args []string) (timeframe.Timeframe, int, error) {
	tf, hours := s.DefaultTimeframe, s.DefaultLookback
	if len(args) > 0 {
		parsed, err := timeframe.Parse(args[0])
		if err != nil {
			return "", 0, err
		}
		tf = parsed
	}
	if len(args) > 1 {
		h, err := strconv.Atoi(args[1])
		if err != nil {
			return "", 0, fmt.Errorf("lookback %q is not a number of hours", args[1])
		}
		hours = h
	}
	if err := config.ValidateLookbackHours(hours); err != nil {
		return "", 0, err
	}
	return tf, hours, nil
}

func help() string {
	return "Commands:\n• /chart [timeframe] [hours]\n• /refresh\n• /timeframes"
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error("send notification", zap.Error(err))
	}
}
