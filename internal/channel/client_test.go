package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLatestSortsOldestFirst(t *testing.T) {
	const body = `[{"id":"103","content":"c"},{"id":"98","content":"a"},{"id":"101","content":"b"}]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "token-123" {
			t.Errorf("unexpected Authorization header: %q", got)
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla/5.0") {
			t.Errorf("expected browser-like user agent, got %q", ua)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("unexpected limit: %q", got)
		}
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewClient("token-123", "42", zerolog.Nop(), WithBaseURL(server.URL))
	msgs, err := client.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"98", "101", "103"} {
		if msgs[i].ID != want {
			t.Fatalf("position %d: expected id %s, got %s", i, want, msgs[i].ID)
		}
	}
}

func TestLatestRetriesOnceOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"retry_after": 0.05}`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":"7","content":"hi"}]`))
	}))
	defer server.Close()

	client := NewClient("t", "42", zerolog.Nop(), WithBaseURL(server.URL))
	start := time.Now()
	msgs, err := client.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls.Load())
	}
	if len(msgs) != 1 || msgs[0].ID != "7" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	// advised 0.05s + 1s buffer
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Fatalf("expected retry to wait at least the buffer, waited %v", elapsed)
	}
}

func TestLatestRateLimitTwiceFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"retry_after": 0.01}`))
	}))
	defer server.Close()

	client := NewClient("t", "42", zerolog.Nop(), WithBaseURL(server.URL))
	if _, err := client.Latest(context.Background()); err == nil {
		t.Fatal("expected error after second rate limit")
	}
}

func TestLatestHardFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("missing access"))
	}))
	defer server.Close()

	client := NewClient("t", "42", zerolog.Nop(), WithBaseURL(server.URL))
	_, err := client.Latest(context.Background())
	if err == nil {
		t.Fatal("expected error on 403")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "missing access") {
		t.Fatalf("expected status and body in error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("non-429 failures must not retry, got %d calls", calls.Load())
	}
}

func TestLatestCanceledDuringRetryWait(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"retry_after": 30}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient("t", "42", zerolog.Nop(), WithBaseURL(server.URL))
	if _, err := client.Latest(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestWithLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("unexpected limit: %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient("t", "42", zerolog.Nop(), WithBaseURL(server.URL), WithLimit(10))
	if _, err := client.Latest(context.Background()); err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
}

func TestNumericID(t *testing.T) {
	if got := (Message{ID: "1234567890123456789"}).NumericID(); got != 1234567890123456789 {
		t.Fatalf("unexpected numeric id: %d", got)
	}
	if got := (Message{ID: "not-a-number"}).NumericID(); got != 0 {
		t.Fatalf("malformed id should parse to zero, got %d", got)
	}
}
