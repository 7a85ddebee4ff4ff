package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{BaseURL: yahooBaseURL, Client: newHTTPClient(proxyURL)}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

type yahooQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// bar returns the i-th bar, or false when any price is null (holiday, halted session).
func (q *yahooQuote) bar(i int, t time.Time) (model.Bar, bool) {
	b := model.Bar{Time: t}
	for _, f := range []struct {
		dst *float64
		src []*float64
	}{{&b.Open, q.Open}, {&b.High, q.High}, {&b.Low, q.Low}, {&b.Close, q.Close}} {
		v, ok := at(f.src, i)
		if !ok {
			return model.Bar{}, false
		}
		*f.dst = v
	}
	b.Volume, _ = at(q.Volume, i)
	return b, true
}

type yahooResult struct {
	Meta struct {
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []yahooQuote `json:"quote"`
	} `json:"indicators"`
}

func (r *yahooResult) location() *time.Location {
	if name := r.Meta.ExchangeTimezoneName; name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

type yahooChart struct {
	Chart struct {
		Result []yahooResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) FetchBars(ctx context.Context, symbol string, interval timeframe.BaseInterval, start, end time.Time) (model.Series, error) {
	q := url.Values{}
	q.Set("interval", string(interval))
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	q.Set("includePrePost", "false")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	return parseYahooChart(body)
}

func parseYahooChart(body []byte) (model.Series, error) {
	var resp yahooChart
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo api error: %s (%s)", e.Description, e.Code)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return model.Series{}, nil
	}

	r := &resp.Chart.Result[0]
	loc := r.location()
	quote := &r.Indicators.Quote[0]
	bars := make(model.Series, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if b, ok := quote.bar(i, time.Unix(ts, 0).In(loc)); ok {
			bars = append(bars, b)
		}
	}
	return dedupe(bars), nil
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

func sortBars(bars model.Series) {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
}
