// Package forward delivers extracted signals to the configured webhook
// endpoints.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/candree7-rgb/zeiiforward/internal/channel"
	"github.com/candree7-rgb/zeiiforward/internal/extract"
	"github.com/candree7-rgb/zeiiforward/internal/metrics"
)

// Payload is the body posted to each webhook, verbatim.
type Payload struct {
	Text     string  `json:"text"`
	Notional float64 `json:"notional"`
}

// Forwarder posts signal payloads to one or two endpoints. Each endpoint's
// delivery succeeds or fails on its own; nothing here blocks the message
// from being marked processed.
type Forwarder struct {
	endpoints []string
	notional  float64
	http      *http.Client
	log       zerolog.Logger
}

// Option configures Forwarder construction parameters.
type Option func(*Forwarder)

// WithHTTPClient overrides the delivery client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Forwarder) {
		if hc != nil {
			f.http = hc
		}
	}
}

// NewForwarder builds a forwarder with a fixed process-wide notional.
func NewForwarder(endpoints []string, notional float64, log zerolog.Logger, opts ...Option) *Forwarder {
	f := &Forwarder{
		endpoints: endpoints,
		notional:  notional,
		http:      &http.Client{Timeout: 20 * time.Second},
		log:       log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forward extracts the message's signal text and posts it to every endpoint.
// An empty extraction is a skip, not an error.
func (f *Forwarder) Forward(ctx context.Context, msg channel.Message) {
	text := extract.SignalText(msg)
	if text == "" {
		metrics.SkipsTotal.Inc()
		f.log.Debug().Str("msg_id", msg.ID).Msg("no usable signal text, skipping")
		return
	}

	body, err := json.Marshal(Payload{Text: text, Notional: f.notional})
	if err != nil {
		f.log.Error().Err(err).Str("msg_id", msg.ID).Msg("marshal payload")
		return
	}

	for i, url := range f.endpoints {
		label := fmt.Sprintf("webhook%d", i+1)
		deliveryID := uuid.NewString()
		if err := f.post(ctx, url, body); err != nil {
			metrics.ForwardsTotal.WithLabelValues(label, "error").Inc()
			f.log.Error().Err(err).
				Str("endpoint", label).
				Str("delivery_id", deliveryID).
				Str("msg_id", msg.ID).
				Msg("webhook delivery failed")
			continue
		}
		metrics.ForwardsTotal.WithLabelValues(label, "ok").Inc()
		f.log.Info().
			Str("endpoint", label).
			Str("delivery_id", deliveryID).
			Str("msg_id", msg.ID).
			Str("text", truncate(text, 80)).
			Float64("notional", f.notional).
			Msg("signal forwarded")
	}
}

func (f *Forwarder) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
