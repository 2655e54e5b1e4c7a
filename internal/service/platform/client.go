package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
)

// apiTrend is the platform wire shape. TikTok reports views, Twitter tweet_count.
type apiTrend struct {
	Text       string   `json:"text"`
	Views      *int64   `json:"views,omitempty"`
	TweetCount *int64   `json:"tweet_count,omitempty"`
	Hashtags   []string `json:"hashtags"`
}

func (t apiTrend) count() int64 {
	switch {
	case t.Views != nil:
		return *t.Views
	case t.TweetCount != nil:
		return *t.TweetCount
	default:
		return 0
	}
}

// Client implements PlatformSource. Without a base URL it serves built-in mock trends.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	http    *xhttp.Client
	mock    []apiTrend
	now     func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for remote fetches.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithClock overrides the fetch timestamp source.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

func newClient(name string, cfg config.PlatformConfig, mock []apiTrend, opts ...Option) *Client {
	c := &Client{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		mock:    mock,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout), xhttp.WithRetry(3, 200*time.Millisecond))
	}
	return c
}

// NewTikTok builds the TikTok source.
func NewTikTok(cfg config.PlatformConfig, opts ...Option) *Client {
	return newClient(models.PlatformTikTok, cfg, tiktokLive, opts...)
}

// NewTwitter builds the Twitter source.
func NewTwitter(cfg config.PlatformConfig, opts ...Option) *Client {
	return newClient(models.PlatformTwitter, cfg, twitterLive, opts...)
}

func (c *Client) Name() string { return c.name }

// Remote reports whether the client talks to a real endpoint.
func (c *Client) Remote() bool { return c.baseURL != "" }

func (c *Client) FetchTrends(ctx context.Context) ([]models.RawTrend, error) {
	if !c.Remote() {
		return c.normalize(c.mock), nil
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var payload []apiTrend
	if err := c.http.GetJSON(ctx, c.baseURL+"/trends", headers, &payload); err != nil {
		return nil, fmt.Errorf("%s fetch trends: %w", strings.ToLower(c.name), err)
	}
	return c.normalize(payload), nil
}

func (c *Client) normalize(in []apiTrend) []models.RawTrend {
	now := c.now().UTC()
	out := make([]models.RawTrend, 0, len(in))
	for _, t := range in {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		out = append(out, models.RawTrend{
			Text:      t.Text,
			Hashtags:  append([]string(nil), t.Hashtags...),
			ViewCount: t.count(),
			Platform:  c.name,
			FetchedAt: now,
		})
	}
	return out
}

// Fallback returns the static trend set used when a platform cannot be reached.
func Fallback(platform string, now time.Time) []models.RawTrend {
	var src []apiTrend
	switch platform {
	case models.PlatformTikTok:
		src = tiktokFallback
	case models.PlatformTwitter:
		src = twitterFallback
	default:
		return nil
	}
	c := &Client{name: platform, now: func() time.Time { return now }}
	return c.normalize(src)
}

var _ drepo.PlatformSource = (*Client)(nil)
