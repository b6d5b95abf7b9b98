// Package openf1 is a thin client for the OpenF1 REST API
// (https://openf1.org). All calls take a context and decode into the
// telemetry types of pkg/model.
package openf1

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/pitwall/f1-strategy-manager-go/log"
	"github.com/pitwall/f1-strategy-manager-go/pkg/model"
)

// DefaultBaseURL is the public OpenF1 endpoint.
const DefaultBaseURL = "https://api.openf1.org/v1"

const defaultTimeout = 30 * time.Second

// Client fetches session telemetry from OpenF1.
type Client struct {
	baseURL string
	hc      *http.Client
	l       *log.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: defaultTimeout},
		l:       log.Default().Named("openf1"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", endpoint, err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for keep-alive
		return fmt.Errorf("fetch %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func sessionParams(sessionKey int) url.Values {
	return url.Values{"session_key": []string{strconv.Itoa(sessionKey)}}
}

// SessionFilter narrows the Sessions listing. Zero values are omitted from
// the query.
type SessionFilter struct {
	Year        int
	CountryName string
	SessionType string
}

// Sessions lists sessions matching the filter.
func (c *Client) Sessions(ctx context.Context, filter SessionFilter) ([]model.Session, error) {
	params := url.Values{}
	if filter.Year != 0 {
		params.Set("year", strconv.Itoa(filter.Year))
	}
	if filter.CountryName != "" {
		params.Set("country_name", filter.CountryName)
	}
	if filter.SessionType != "" {
		params.Set("session_type", filter.SessionType)
	}
	var out []model.Session
	if err := c.get(ctx, "sessions", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Laps fetches all lap records of a session.
func (c *Client) Laps(ctx context.Context, sessionKey int) ([]model.Lap, error) {
	var out []model.Lap
	if err := c.get(ctx, "laps", sessionParams(sessionKey), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stints fetches the tire stints of a session.
func (c *Client) Stints(ctx context.Context, sessionKey int) ([]model.Stint, error) {
	var out []model.Stint
	if err := c.get(ctx, "stints", sessionParams(sessionKey), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Weather fetches the weather samples of a session.
func (c *Client) Weather(ctx context.Context, sessionKey int) ([]model.Weather, error) {
	var out []model.Weather
	if err := c.get(ctx, "weather", sessionParams(sessionKey), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RaceControl fetches the race control messages of a session.
func (c *Client) RaceControl(ctx context.Context, sessionKey int) ([]model.RaceControlMessage, error) {
	var out []model.RaceControlMessage
	if err := c.get(ctx, "race_control", sessionParams(sessionKey), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Intervals fetches the gaps between drivers of a session.
func (c *Client) Intervals(ctx context.Context, sessionKey int) ([]model.Interval, error) {
	var out []model.Interval
	if err := c.get(ctx, "intervals", sessionParams(sessionKey), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PitStops fetches the pit events of a session.
func (c *Client) PitStops(ctx context.Context, sessionKey int) ([]model.PitStop, error) {
	var out []model.PitStop
	if err := c.get(ctx, "pit", sessionParams(sessionKey), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionBundle fetches everything the collectors need for one session.
// Individual fetch failures leave the corresponding slice empty so one
// flaky endpoint does not sink the whole bundle.
func (c *Client) SessionBundle(ctx context.Context, sessionKey int) model.SessionBundle {
	bundle := model.SessionBundle{SessionKey: sessionKey}

	var err error
	if bundle.Laps, err = c.Laps(ctx, sessionKey); err != nil {
		c.l.Warn("laps unavailable", log.Int("sessionKey", sessionKey), log.ErrorField(err))
	}
	if bundle.Stints, err = c.Stints(ctx, sessionKey); err != nil {
		c.l.Warn("stints unavailable", log.Int("sessionKey", sessionKey), log.ErrorField(err))
	}
	if bundle.Weather, err = c.Weather(ctx, sessionKey); err != nil {
		c.l.Warn("weather unavailable", log.Int("sessionKey", sessionKey), log.ErrorField(err))
	}
	if bundle.RaceControl, err = c.RaceControl(ctx, sessionKey); err != nil {
		c.l.Warn("race control unavailable", log.Int("sessionKey", sessionKey), log.ErrorField(err))
	}
	if bundle.Intervals, err = c.Intervals(ctx, sessionKey); err != nil {
		c.l.Warn("intervals unavailable", log.Int("sessionKey", sessionKey), log.ErrorField(err))
	}
	if bundle.PitStops, err = c.PitStops(ctx, sessionKey); err != nil {
		c.l.Warn("pit stops unavailable", log.Int("sessionKey", sessionKey), log.ErrorField(err))
	}
	return bundle
}
