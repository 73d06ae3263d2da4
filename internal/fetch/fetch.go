// Package fetch retrieves all reflection records inside a window from the
// knowledge base, walking cursor pages and retrying transient failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/knagato/hansei/internal/store"
	"github.com/knagato/hansei/internal/window"
)

// ErrSourceUnavailable is returned when the retry cap is exhausted.
// The run aborts before any write occurs.
var ErrSourceUnavailable = errors.New("source unavailable")

const (
	DefaultPageSize    = 100
	DefaultMaxAttempts = 4
	DefaultBackoff     = 500 * time.Millisecond
)

// Source is the read side of the knowledge base.
type Source interface {
	QueryRecords(ctx context.Context, q store.Query) (*store.Page, error)
}

// Fetcher pulls the complete record set for a window.
type Fetcher struct {
	src         Source
	collection  string
	pageSize    int
	maxAttempts int
	backoff     time.Duration
}

// New creates a fetcher against the given source collection.
// Zero values fall back to the package defaults.
func New(src Source, collection string, pageSize, maxAttempts int, backoff time.Duration) *Fetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &Fetcher{
		src:         src,
		collection:  collection,
		pageSize:    pageSize,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// FetchWindow returns every record whose date lies in w, in store order,
// with duplicate record IDs collapsed (the later occurrence wins).
// An empty result is a valid outcome, not an error.
func (f *Fetcher) FetchWindow(ctx context.Context, w window.Window) ([]store.Record, error) {
	var records []store.Record
	seen := make(map[string]int)

	cursor := ""
	pages := 0
	for {
		q := store.Query{
			Collection: f.collection,
			DateFrom:   w.StartDate(),
			DateTo:     w.EndDate(),
			Cursor:     cursor,
			PageSize:   f.pageSize,
		}

		page, err := f.queryPage(ctx, q)
		if err != nil {
			return nil, err
		}
		pages++

		for _, rec := range page.Records {
			if rec.ID != "" {
				if idx, ok := seen[rec.ID]; ok {
					records[idx] = rec
					continue
				}
				seen[rec.ID] = len(records)
			}
			records = append(records, rec)
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	log.Printf("Fetched %d records in %d page(s) for %s", len(records), pages, w.Key())
	return records, nil
}

// queryPage requests a single page, retrying transient failures with
// exponential backoff up to the attempt cap.
func (f *Fetcher) queryPage(ctx context.Context, q store.Query) (*store.Page, error) {
	var lastErr error
	delay := f.backoff

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		page, err := f.src.QueryRecords(ctx, q)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if !transient(err) {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		if attempt == f.maxAttempts {
			break
		}

		log.Printf("Transient store error (attempt %d/%d), retrying in %s: %v",
			attempt, f.maxAttempts, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, ctx.Err())
		}
		delay *= 2
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrSourceUnavailable, f.maxAttempts, lastErr)
}

// transient reports whether an error is worth another attempt.
// API errors carry their own verdict; anything else (connection reset,
// timeout, truncated body) is treated as transient.
func transient(err error) bool {
	var apiErr *store.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	return true
}
