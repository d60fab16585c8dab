package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://discord.com/api/v9"
	defaultLimit   = 5

	// The listing endpoint rejects non-browser clients.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/126.0 Safari/537.36"

	defaultRetryAfter = 5 * time.Second
	retryBuffer       = time.Second
)

// Client polls one channel's message listing endpoint.
type Client struct {
	token     string
	channelID string
	baseURL   string
	limit     int
	http      *http.Client
	log       zerolog.Logger
}

// Option configures Client construction parameters.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLimit sets how many recent messages each poll requests.
func WithLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

// NewClient constructs a poller for the given channel.
func NewClient(token, channelID string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		token:     token,
		channelID: channelID,
		baseURL:   defaultBaseURL,
		limit:     defaultLimit,
		http:      &http.Client{Timeout: 15 * time.Second},
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the most recent messages, oldest first. A rate-limited
// request sleeps for the advised interval plus a small buffer and retries
// exactly once; every other failure is returned to the caller as-is.
func (c *Client) Latest(ctx context.Context) ([]Message, error) {
	msgs, retryAfter, err := c.fetch(ctx)
	if err == nil || retryAfter <= 0 {
		return msgs, err
	}
	c.log.Warn().Dur("retry_after", retryAfter).Msg("channel rate limited, retrying once")
	if err := sleepCtx(ctx, retryAfter); err != nil {
		return nil, err
	}
	msgs, _, err = c.fetch(ctx)
	return msgs, err
}

func (c *Client) fetch(ctx context.Context) ([]Message, time.Duration, error) {
	url := fmt.Sprintf("%s/channels/%s/messages?limit=%d", c.baseURL, c.channelID, c.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		advised := defaultRetryAfter
		var body struct {
			RetryAfter float64 `json:"retry_after"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.RetryAfter > 0 {
			advised = time.Duration(body.RetryAfter * float64(time.Second))
		}
		return nil, advised + retryBuffer, fmt.Errorf("rate limited (status 429)")
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}

	var msgs []Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].NumericID() < msgs[j].NumericID() })
	return msgs, 0, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
