// Package tides fetches daily tide predictions from the NOAA CO-OPS data
// API for one station.
package tides

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ahamadey27/wake-app/metrics"
)

const (
	DEFAULT_URL   = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"
	FETCH_TIMEOUT = 10 // seconds

	dateLayout       = "20060102"
	predictionLayout = "2006-01-02 15:04"
)

type Config struct {
	Url     string `json:"url" yaml:"url"`
	Station string `json:"station" yaml:"station"`
}

// Prediction is one tide reading: UTC instant and feet above MLLW.
type Prediction struct {
	Time   time.Time `json:"time"`
	Height float64   `json:"height"`
}

type Client struct {
	url     string
	station string
	hc      *http.Client
	logger  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	u := cfg.Url
	if u == "" {
		u = DEFAULT_URL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:     u,
		station: cfg.Station,
		hc:      &http.Client{Timeout: time.Duration(FETCH_TIMEOUT) * time.Second},
		logger:  logger,
	}
}

// Predictions fetches every tide prediction at the configured station
// between the UTC calendar days of from and to, inclusive.
func (c *Client) Predictions(ctx context.Context, from, to time.Time) ([]Prediction, error) {
	q := url.Values{}
	q.Set("product", "predictions")
	q.Set("application", "wake-app")
	q.Set("station", c.station)
	q.Set("begin_date", from.Format(dateLayout))
	q.Set("end_date", to.Format(dateLayout))
	q.Set("datum", "MLLW")
	// GMT labels keep Prediction.Time on the same clock as vessel event
	// times, which are UTC.
	q.Set("time_zone", "gmt")
	q.Set("units", "english")
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tide request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.TideRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("tide request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.TideRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("tide service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Predictions []struct {
			T string `json:"t"`
			V string `json:"v"`
		} `json:"predictions"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.TideRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to decode tide response: %w", err)
	}
	if payload.Error.Message != "" {
		metrics.TideRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("tide service error: %s", payload.Error.Message)
	}

	out := make([]Prediction, 0, len(payload.Predictions))
	for _, p := range payload.Predictions {
		ts, err := time.Parse(predictionLayout, p.T)
		if err != nil {
			c.logger.Debug("skipping tide prediction with bad time", "t", p.T)
			continue
		}
		v, err := strconv.ParseFloat(p.V, 64)
		if err != nil {
			c.logger.Debug("skipping tide prediction with bad height", "v", p.V)
			continue
		}
		out = append(out, Prediction{Time: ts, Height: v})
	}

	metrics.TideRequests.WithLabelValues("ok").Inc()
	return out, nil
}

// Nearest returns the prediction closest in time to t. ok is false when the
// list is empty.
func Nearest(preds []Prediction, t time.Time) (Prediction, bool) {
	if len(preds) == 0 {
		return Prediction{}, false
	}
	best := preds[0]
	bestGap := absDuration(t.Sub(best.Time))
	for _, p := range preds[1:] {
		if gap := absDuration(t.Sub(p.Time)); gap < bestGap {
			best, bestGap = p, gap
		}
	}
	return best, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
