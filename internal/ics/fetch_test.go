package ics

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	body := calendar([]string{"UID:1", "DTSTART;VALUE=DATE:20250305", "SUMMARY:Hello"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "calmark/") {
			t.Errorf("unexpected User-Agent %q", ua)
		}
		switch r.URL.Path {
		case "/cal.ics":
			w.Header().Set("Content-Type", "text/calendar")
			_, _ = w.Write(body)
		case "/slow.ics":
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	t.Run("success returns body", func(t *testing.T) {
		got, err := NewFetcher(time.Second).Fetch(ctx, srv.URL+"/cal.ics")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(got, body) {
			t.Errorf("body mismatch: got %q", got)
		}
	})

	t.Run("non-success status", func(t *testing.T) {
		_, err := NewFetcher(time.Second).Fetch(ctx, srv.URL+"/missing.ics")
		if !errors.Is(err, ErrNetwork) {
			t.Fatalf("expected ErrNetwork, got %v", err)
		}
		if !strings.Contains(err.Error(), "404") {
			t.Errorf("expected status in error, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := NewFetcher(50*time.Millisecond).Fetch(ctx, srv.URL+"/slow.ics")
		if !errors.Is(err, ErrNetwork) {
			t.Fatalf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := NewFetcher(time.Second).Fetch(ctx, "ftp://example.com/cal.ics")
		if !errors.Is(err, ErrNetwork) {
			t.Fatalf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := NewFetcher(time.Second).Fetch(ctx, "")
		if !errors.Is(err, ErrNetwork) {
			t.Fatalf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		url := dead.URL + "/cal.ics"
		dead.Close()

		_, err := NewFetcher(time.Second).Fetch(ctx, url)
		if !errors.Is(err, ErrNetwork) {
			t.Fatalf("expected ErrNetwork, got %v", err)
		}
	})
}

func TestNewFetcherDefaultTimeout(t *testing.T) {
	if got := NewFetcher(0).client.Timeout; got != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", got, DefaultTimeout)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://calendar.google.com/calendar/ical/secret/basic.ics?x=1", "https://calendar.google.com/...(redacted)"},
		{"http://127.0.0.1:8080/a.ics", "http://127.0.0.1:8080/...(redacted)"},
		{"not a url", "ics://...(redacted)"},
		{"", "ics://...(redacted)"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
