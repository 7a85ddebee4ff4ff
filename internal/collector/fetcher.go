package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

// Fetcher retrieves raw bars for one symbol at a base interval.
// Implementations return bars in strictly ascending order; an empty series is not an error.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, interval timeframe.BaseInterval, start, end time.Time) (model.Series, error)
	Name() string
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// dedupe sorts bars and keeps the last bar for any repeated timestamp.
func dedupe(bars model.Series) model.Series {
	if len(bars) < 2 {
		return bars
	}
	sortBars(bars)
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Time.Equal(out[len(out)-1].Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
