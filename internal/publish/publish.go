// Package publish writes the rendered report to the knowledge base,
// keyed by the window so regeneration replaces the prior report.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/knagato/hansei/internal/store"
	"github.com/knagato/hansei/internal/synthesize"
)

// ErrPublishFailure is returned when the store write fails. The prior
// report, if any, is left intact by the store's replace semantics.
var ErrPublishFailure = errors.New("publish failed")

// Destination is the write side of the knowledge base.
type Destination interface {
	FindReport(ctx context.Context, collection, key string) (*store.ReportRecord, error)
	UpsertReport(ctx context.Context, collection, key string, content store.ReportContent) (string, error)
}

// Result describes a completed publish.
type Result struct {
	RecordID string
	Replaced bool
}

// Publisher upserts reports into a destination collection.
type Publisher struct {
	dst        Destination
	collection string
}

// New creates a publisher for the given destination collection.
func New(dst Destination, collection string) *Publisher {
	return &Publisher{dst: dst, collection: collection}
}

// Publish looks up any prior report for the window and replaces it whole,
// or creates a new record when none exists. Concurrent runs for the same
// window race here; the last writer wins.
func (p *Publisher) Publish(ctx context.Context, rep *synthesize.Report) (*Result, error) {
	prior, err := p.dst.FindReport(ctx, p.collection, rep.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: looking up prior report: %v", ErrPublishFailure, err)
	}

	content := store.ReportContent{
		Start:      rep.Start,
		End:        rep.End,
		Title:      rep.Title,
		Body:       rep.Body,
		EntryCount: rep.EntryCount,
		GapCount:   rep.GapCount,
	}

	id, err := p.dst.UpsertReport(ctx, p.collection, rep.Key, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublishFailure, err)
	}

	if prior != nil {
		log.Printf("Replaced report %s for %s", id, rep.Key)
	} else {
		log.Printf("Created report %s for %s", id, rep.Key)
	}
	return &Result{RecordID: id, Replaced: prior != nil}, nil
}
