package ics

import (
	"context"
	"time"

	appLog "calmark/internal/log"
)

// Loader fetches a calendar URL and parses the payload with one backend.
type Loader struct {
	Fetcher  *Fetcher
	Backend  string
	Location *time.Location
}

// NewLoader wires a Fetcher with the given timeout to a parser backend.
func NewLoader(timeout time.Duration, backend string, loc *time.Location) *Loader {
	return &Loader{
		Fetcher:  NewFetcher(timeout),
		Backend:  backend,
		Location: loc,
	}
}

// Load performs a single fetch and parse. Errors wrap ErrNetwork or
// ErrParse.
func (l *Loader) Load(ctx context.Context, url string) (Calendar, error) {
	body, err := l.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	cal, err := Parse(l.Backend, body, l.Location)
	if err != nil {
		appLog.Error("ics parse failed", err, "url", redactURL(url), "backend", l.Backend)
		return nil, err
	}

	appLog.Debug("ics parse completed", "url", redactURL(url), "backend", l.Backend)
	return cal, nil
}
