// Package pipeline runs the report generation stages for one window:
// Fetching -> Normalizing -> Aggregating -> Synthesizing -> Publishing -> Done,
// with Failed reachable from any stage. A run is strictly linear; each stage
// consumes the complete output of the one before it.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/knagato/hansei/internal/aggregate"
	"github.com/knagato/hansei/internal/archive"
	"github.com/knagato/hansei/internal/config"
	"github.com/knagato/hansei/internal/fetch"
	"github.com/knagato/hansei/internal/normalize"
	"github.com/knagato/hansei/internal/publish"
	"github.com/knagato/hansei/internal/store"
	"github.com/knagato/hansei/internal/synthesize"
	"github.com/knagato/hansei/internal/window"
)

// State is a pipeline run state.
type State string

const (
	StateFetching     State = "Fetching"
	StateNormalizing  State = "Normalizing"
	StateAggregating  State = "Aggregating"
	StateSynthesizing State = "Synthesizing"
	StatePublishing   State = "Publishing"
	StateDone         State = "Done"
	StateFailed       State = "Failed"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the outcome of a full pipeline run.
type Result struct {
	WindowKey string
	State     State
	Steps     []StepResult
	Report    *synthesize.Report
	Published *publish.Result
	Err       error
}

// Pipeline generates and publishes the report for one window.
// Configuration is passed in explicitly; runs for different windows are
// independent and share nothing mutable.
type Pipeline struct {
	cfg       *config.Config
	db        *archive.DB
	fetcher   *fetch.Fetcher
	publisher *publish.Publisher
}

// New creates a pipeline wired to the configured knowledge base.
func New(cfg *config.Config, db *archive.DB) *Pipeline {
	client := store.NewClient(
		cfg.Store.BaseURL,
		cfg.Store.TokenEnv,
		time.Duration(cfg.Store.TimeoutSeconds)*time.Second,
	)

	return &Pipeline{
		cfg: cfg,
		db:  db,
		fetcher: fetch.New(
			client,
			cfg.Store.SourceCollection,
			cfg.Fetch.PageSize,
			cfg.Fetch.MaxAttempts,
			time.Duration(cfg.Fetch.BackoffMS)*time.Millisecond,
		),
		publisher: publish.New(client, cfg.Store.ReportCollection),
	}
}

// Run executes the full pipeline for the window.
func (p *Pipeline) Run(ctx context.Context, w window.Window) *Result {
	r := &Result{WindowKey: w.Key()}

	// Step 1: Fetch
	r.State = StateFetching
	log.Printf("Step 1/5: Fetching records for %s...", w.Key())
	records, err := p.fetcher.FetchWindow(ctx, w)
	if err != nil {
		return p.fail(r, "Fetch", err)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Fetched %d records", len(records)),
	})

	// Step 2: Normalize
	r.State = StateNormalizing
	log.Println("Step 2/5: Normalizing records...")
	normalized := normalize.Records(records, w)
	r.Steps = append(r.Steps, StepResult{
		Name: "Normalize",
		Summary: fmt.Sprintf("%d valid entries, %d invalid, %d window defects",
			len(normalized.Entries), len(normalized.Invalid), len(normalized.WindowDefects)),
	})

	// Step 3: Aggregate
	r.State = StateAggregating
	log.Println("Step 3/5: Aggregating...")
	agg := aggregate.Build(w, normalized)
	r.Steps = append(r.Steps, StepResult{
		Name: "Aggregate",
		Summary: fmt.Sprintf("%d entries, %d gaps, %d themes",
			len(agg.Entries), len(agg.Gaps), len(agg.Themes)),
	})

	// Step 4: Synthesize
	r.State = StateSynthesizing
	log.Println("Step 4/5: Synthesizing report...")
	rep := synthesize.Render(agg, p.cfg.Report.TitlePrefix)
	r.Report = rep
	r.Steps = append(r.Steps, StepResult{
		Name:    "Synthesize",
		Summary: fmt.Sprintf("Rendered %d bytes for %s", len(rep.Body), rep.Key),
	})

	// Step 5: Publish
	r.State = StatePublishing
	log.Println("Step 5/5: Publishing report...")
	pub, err := p.publisher.Publish(ctx, rep)
	if err != nil {
		return p.fail(r, "Publish", err)
	}
	r.Published = pub
	verb := "Created"
	if pub.Replaced {
		verb = "Replaced"
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Publish",
		Summary: fmt.Sprintf("%s report %s", verb, pub.RecordID),
	})

	r.State = StateDone
	p.archiveRun(r, rep, pub, agg)
	return r
}

// DryRun shows what a run would do without touching the store.
func (p *Pipeline) DryRun(w window.Window) *Result {
	r := &Result{WindowKey: w.Key(), State: StateDone}

	r.Steps = append(r.Steps, StepResult{
		Name: "Fetch",
		Summary: fmt.Sprintf("[dry-run] Would query collection %q for %s (%d days)",
			p.cfg.Store.SourceCollection, w.Key(), w.DayCount()),
	})

	prior, _ := p.db.GetReport(w.Key())
	if prior != nil {
		r.Steps = append(r.Steps, StepResult{
			Name: "Publish",
			Summary: fmt.Sprintf("[dry-run] Would replace existing report for %s (last archived with %d entries)",
				w.Key(), prior.EntryCount),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Publish",
			Summary: fmt.Sprintf("[dry-run] Would create a new report for %s", w.Key()),
		})
	}

	return r
}

// fail marks the run failed and records it in the archive.
func (p *Pipeline) fail(r *Result, step string, err error) *Result {
	r.Steps = append(r.Steps, StepResult{Name: step, Err: err})
	r.State = StateFailed
	r.Err = err

	if p.db != nil {
		msg := err.Error()
		if _, dbErr := p.db.RecordRun(archive.Run{
			WindowKey: r.WindowKey,
			State:     string(StateFailed),
			Error:     &msg,
		}); dbErr != nil {
			log.Printf("Failed to record run: %v", dbErr)
		}
	}
	return r
}

// archiveRun stores the published report and run outcome locally.
// The publish already succeeded; archive trouble is logged, not fatal.
func (p *Pipeline) archiveRun(r *Result, rep *synthesize.Report, pub *publish.Result, agg *aggregate.Aggregate) {
	if p.db == nil {
		return
	}

	if _, err := p.db.SaveReport(archive.Report{
		WindowKey:    rep.Key,
		StartDate:    rep.Start,
		EndDate:      rep.End,
		Title:        rep.Title,
		BodyMarkdown: rep.Body,
		EntryCount:   rep.EntryCount,
		GapCount:     rep.GapCount,
		ThemeCount:   rep.ThemeCount,
		RecordID:     &pub.RecordID,
	}); err != nil {
		log.Printf("Failed to archive report for %s: %v", rep.Key, err)
	}

	if _, err := p.db.RecordRun(archive.Run{
		WindowKey:   rep.Key,
		State:       string(StateDone),
		EntryCount:  rep.EntryCount,
		GapCount:    rep.GapCount,
		DefectCount: defectCount(agg),
	}); err != nil {
		log.Printf("Failed to record run for %s: %v", rep.Key, err)
	}
}

func defectCount(agg *aggregate.Aggregate) int {
	n := len(agg.WindowDefects)
	for _, e := range agg.Invalid {
		n += len(e.Defects)
	}
	for _, e := range agg.Entries {
		n += len(e.Defects)
	}
	return n
}
