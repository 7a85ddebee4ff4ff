// Package server exposes charts over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"MacdView/internal/calculator"
	"MacdView/internal/collector"
	"MacdView/internal/config"
	"MacdView/internal/model"
	"MacdView/internal/notifier"
	"MacdView/internal/pipeline"
	"MacdView/internal/timeframe"
)

const requestIDHeader = "X-Request-ID"

// Refresher clears cached data and recomputes the default chart.
type Refresher interface {
	Refresh(ctx context.Context) (*model.Chart, error)
}

// Server serves the chart API.
type Server struct {
	cfg       *config.Config
	collector *collector.Collector
	refresher Refresher
	log       *zap.Logger
	engine    *gin.Engine
	http      *http.Server
}

// latestStats is the newest bar's headline values.
type latestStats struct {
	Time      time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
	MACD      float64   `json:"macd"`
	Signal    float64   `json:"signal"`
	UpdatedAt time.Time `json:"updated_at"`
}

// seriesResponse is a chart plus its summary.
type seriesResponse struct {
	*model.Chart
	Latest *latestStats `json:"latest,omitempty"`
	Stats  string       `json:"stats"`
}

func newSeriesResponse(chart *model.Chart) seriesResponse {
	resp := seriesResponse{Chart: chart, Stats: notifier.StatsLine(chart)}
	if last, ok := chart.Bars.Last(); ok {
		resp.Latest = &latestStats{
			Time:      last.Time,
			Close:     last.Close,
			MACD:      last.MACD,
			Signal:    last.Signal,
			UpdatedAt: chart.ComputedAt,
		}
	}
	return resp
}

// New builds the router.
func New(cfg *config.Config, col *collector.Collector, r Refresher, log *zap.Logger) *Server {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:       cfg,
		collector: col,
		refresher: r,
		log:       log,
		engine:    gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestID(), s.accessLog())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/timeframes", s.getTimeframes)
	api.GET("/series", s.getSeries)
	api.POST("/refresh", s.postRefresh)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Start listens on the configured address. Blocks until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("http server listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")))
	}
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"symbol": s.collector.Symbol,
		"source": s.collector.Fetcher.Name(),
		"time":   time.Now().UTC(),
	})
}

func (s *Server) getTimeframes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timeframes": timeframe.All(),
		"default":    s.cfg.Chart.DefaultTimeframe,
		"lookback_hours": gin.H{
			"min":     config.MinLookbackHours,
			"max":     config.MaxLookbackHours,
			"default": s.cfg.Chart.DefaultLookbackHours,
		},
	})
}

func (s *Server) getSeries(c *gin.Context) {
	tf, err := timeframe.Parse(c.DefaultQuery("timeframe", s.cfg.Chart.DefaultTimeframe))
	if err != nil {
		s.fail(c, err)
		return
	}
	hours := s.cfg.Chart.DefaultLookbackHours
	if v := c.Query("lookback_hours"); v != "" {
		if hours, err = strconv.Atoi(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("lookback_hours %q is not an integer", v),
				"code":  codeInvalidLookback,
			})
			return
		}
	}
	if err := config.ValidateLookbackHours(hours); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": codeInvalidLookback})
		return
	}

	chart, err := s.collector.Collect(c.Request.Context(), tf, hours)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSeriesResponse(chart))
}

func (s *Server) postRefresh(c *gin.Context) {
	chart, err := s.refresher.Refresh(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "refreshed",
		"chart":  newSeriesResponse(chart),
	})
}

// Error codes returned alongside the message.
const (
	codeInvalidTimeframe     = "invalid_timeframe"
	codeInvalidLookback      = "invalid_lookback"
	codeEmptyInput           = "empty_input"
	codeInsufficientLookback = "insufficient_lookback"
	codeProvider             = "provider_error"
	codeInternal             = "internal"
)

func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("request_id", c.GetString("request_id")), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// classify maps pipeline and provider errors to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, timeframe.ErrInvalidTimeframe):
		return http.StatusBadRequest, codeInvalidTimeframe
	case errors.Is(err, collector.ErrProvider), errors.Is(err, model.ErrUnorderedSeries):
		return http.StatusBadGateway, codeProvider
	case errors.Is(err, pipeline.ErrEmptyInput):
		return http.StatusNotFound, codeEmptyInput
	case errors.Is(err, calculator.ErrInsufficientLookback):
		return http.StatusNotFound, codeInsufficientLookback
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
