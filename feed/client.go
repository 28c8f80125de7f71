package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/tradedash/model"
	"golang.org/x/time/rate"
)

// Actions understood by the bot's web app.
const (
	ActionLiveStats    = "getLiveStats"
	ActionTradeHistory = "getTradeHistory"
	ActionDailyReports = "getDailyReports"
)

// StatusSuccess is the envelope status carrying a payload.
const StatusSuccess = "success"

// Observer is told about every request the client makes.
type Observer func(action string, took time.Duration, err error)

// Client reads the dashboard endpoint. It never retries; a failed call is
// reported to the caller, who decides whether to keep stale data.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	observe    Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// WithRateLimit paces requests to at most rps per second. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithObserver installs a per-request callback.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// NewClient creates a client for the endpoint at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// Request is one read of the endpoint. An empty Action sends no action
// parameter, which is how the flat schema is addressed.
type Request struct {
	Action string
	Params url.Values
}

// URL builds GET {baseURL}?action={Action}&{Params}.
func (r Request) URL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	if r.Action != "" {
		q.Set("action", r.Action)
	}
	for k, vs := range r.Params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// envelope is the wrapper every action response uses.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Fetch performs req and unwraps the envelope, returning its data payload.
func (c *Client) Fetch(ctx context.Context, req Request) (json.RawMessage, error) {
	body, err := c.get(ctx, req)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if env.Status != StatusSuccess {
		msg := env.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, &RemoteError{Status: env.Status, Message: msg}
	}
	return env.Data, nil
}

func (c *Client) get(ctx context.Context, req Request) (body []byte, err error) {
	start := time.Now()
	defer func() {
		if c.observe != nil {
			name := req.Action
			if name == "" {
				name = "flat"
			}
			c.observe(name, time.Since(start), err)
		}
	}()

	apiURL, err := req.URL(c.baseURL)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &NetworkError{Status: resp.StatusCode, Body: string(b)}
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return body, nil
}

// LiveStats fetches the live stats snapshot.
func (c *Client) LiveStats(ctx context.Context) (model.Snapshot, error) {
	data, err := c.Fetch(ctx, Request{Action: ActionLiveStats})
	if err != nil {
		return model.Snapshot{}, err
	}
	r, err := model.DecodeRecord(data)
	if err != nil {
		return model.Snapshot{}, &DecodeError{Err: err}
	}
	return model.NewSnapshot(r), nil
}

// TradeHistory fetches up to limit trades, newest first.
func (c *Client) TradeHistory(ctx context.Context, limit int) ([]model.Trade, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	data, err := c.Fetch(ctx, Request{Action: ActionTradeHistory, Params: params})
	if err != nil {
		return nil, err
	}
	rs, err := model.DecodeRecords(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return model.NewTrades(rs), nil
}

// DailyReports fetches the reports of the last days days.
func (c *Client) DailyReports(ctx context.Context, days int) ([]model.DailyReport, error) {
	params := url.Values{}
	if days > 0 {
		params.Set("days", strconv.Itoa(days))
	}
	data, err := c.Fetch(ctx, Request{Action: ActionDailyReports, Params: params})
	if err != nil {
		return nil, err
	}
	rs, err := model.DecodeRecords(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return model.NewDailyReports(rs), nil
}
