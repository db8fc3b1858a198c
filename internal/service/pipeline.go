// Package service runs the incremental refresh of the listings database: six
// sequential stages, each committed or rolled back on its own.
package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/voyagen/tvlistings/internal/fetcher"
	"github.com/voyagen/tvlistings/internal/metrics"
	"github.com/voyagen/tvlistings/internal/models"
	"github.com/voyagen/tvlistings/internal/store"
)

// Stage names, in execution order.
const (
	StageSchema     = "schema"
	StageChannels   = "channels"
	StageRetention  = "retention"
	StageBroadcasts = "broadcasts"
	StageSummaries  = "summaries"
	StageCleanup    = "cleanup"
)

// stageCount is the number of stages of a full run.
const stageCount = 6

type stage struct {
	name  string
	title string
	run   func(ctx context.Context) error
}

// Fetcher fetches one page. Failures are reported in the Result, not as errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) fetcher.Result
}

// Schema ensures the database schema exists, dropping it first on reset.
type Schema interface {
	Ensure(ctx context.Context, reset bool) error
}

// Options are the dependencies of a Pipeline.
type Options struct {
	Store     store.Store
	Schema    Schema
	Fetcher   Fetcher
	Providers []models.ProviderSource
	// Location decides which calendar day "today" is. Defaults to time.Local.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
	// Progress receives the console progress lines. Defaults to io.Discard.
	Progress io.Writer
	Metrics  *metrics.Recorder
	Logger   *log.Entry
}

// Pipeline is one configured refresh job.
type Pipeline struct {
	store     store.Store
	schema    Schema
	fetcher   Fetcher
	providers []models.ProviderSource
	loc       *time.Location
	now       func() time.Time
	progress  io.Writer
	metrics   *metrics.Recorder
	log       *log.Entry

	prefix string // progress line of the running stage
}

// New builds a Pipeline.
func New(o Options) *Pipeline {
	p := &Pipeline{
		store:     o.Store,
		schema:    o.Schema,
		fetcher:   o.Fetcher,
		providers: o.Providers,
		loc:       o.Location,
		now:       o.Now,
		progress:  o.Progress,
		metrics:   o.Metrics,
		log:       o.Logger,
	}
	if p.loc == nil {
		p.loc = time.Local
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.progress == nil {
		p.progress = io.Discard
	}
	if p.log == nil {
		p.log = log.NewEntry(log.StandardLogger())
	}
	return p
}

// Run executes every stage in order. The first failing stage is rolled back
// and the remaining stages are skipped; the returned error names that stage.
// The report is always returned, filled up to the point of failure.
func (p *Pipeline) Run(ctx context.Context, reset bool) (*Report, error) {
	rep := &Report{StartedAt: p.now(), Status: StatusOK}
	today := store.DateOnly(p.now().In(p.loc))
	var needed []time.Time

	stages := []stage{
		{StageSchema, "Preparing database", func(ctx context.Context) error {
			return p.schema.Ensure(ctx, reset)
		}},
		{StageChannels, "Updating channels", func(ctx context.Context) error {
			return p.store.InTx(ctx, func(tx store.Tx) error {
				return p.reconcileChannels(ctx, tx, rep)
			})
		}},
		{StageRetention, "Pruning expired dates", func(ctx context.Context) error {
			return p.store.InTx(ctx, func(tx store.Tx) error {
				var err error
				needed, err = p.applyRetention(ctx, tx, today, rep)
				return err
			})
		}},
		{StageBroadcasts, "Fetching broadcasts", func(ctx context.Context) error {
			return p.store.InTx(ctx, func(tx store.Tx) error {
				return p.fetchBroadcasts(ctx, tx, needed, rep)
			})
		}},
		{StageSummaries, "Fetching summaries", func(ctx context.Context) error {
			return p.store.InTx(ctx, func(tx store.Tx) error {
				return p.fetchSummaries(ctx, tx, needed, rep)
			})
		}},
		{StageCleanup, "Removing empty channels", func(ctx context.Context) error {
			return p.store.InTx(ctx, func(tx store.Tx) error {
				return p.collectChannels(ctx, tx, rep)
			})
		}},
	}

	for i, st := range stages {
		if err := p.runStage(ctx, i+1, st); err != nil {
			rep.fail(st.name, err, p.now())
			return rep, errors.Wrapf(err, "stage %s", st.name)
		}
	}
	rep.FinishedAt = p.now()
	p.metrics.Succeeded(rep.FinishedAt)
	return rep, nil
}

func (p *Pipeline) runStage(ctx context.Context, n int, st stage) error {
	p.prefix = fmt.Sprintf("(%d/%d) %s", n, stageCount, st.title)
	p.printf("%s ", p.prefix)
	logger := p.log.WithField("stage", st.name)
	logger.Debug("stage started")

	start := time.Now()
	err := ctx.Err()
	if err == nil {
		err = st.run(ctx)
	}
	elapsed := time.Since(start)
	p.metrics.Stage(st.name, elapsed, err)

	if err != nil {
		p.printf(" ..... FAILED\n")
		logger.WithError(err).Error("stage rolled back")
		return err
	}
	p.printf(" ..... OK!\n")
	logger.WithField("elapsed", elapsed.Round(time.Millisecond)).Info("stage committed")
	return nil
}

// fetch wraps the fetcher with the skip logging and counting every stage shares.
func (p *Pipeline) fetch(ctx context.Context, stage, url string) fetcher.Result {
	res := p.fetcher.Fetch(ctx, url)
	p.metrics.Fetch(stage, res.OK())
	if !res.OK() {
		reason := "empty document"
		if res.Reason != nil {
			reason = res.Reason.Error()
		}
		p.log.WithFields(log.Fields{
			"stage":  stage,
			"url":    url,
			"reason": reason,
		}).Warn("fetch skipped")
	}
	return res
}

// counter rewrites the current progress line with done/total.
func (p *Pipeline) counter(done, total int) {
	p.printf("\r%s %s/%s", p.prefix, humanize.Comma(int64(done)), humanize.Comma(int64(total)))
}

func (p *Pipeline) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.progress, format, args...)
}

// fold is the case-insensitive form of a channel name.
func fold(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
