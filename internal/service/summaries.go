package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/voyagen/tvlistings/internal/listing"
	"github.com/voyagen/tvlistings/internal/models"
	"github.com/voyagen/tvlistings/internal/store"
)

// synopsisPage is the outcome of one detail page, reused by every broadcast
// that links to it during the run.
type synopsisPage struct {
	fetched bool
	found   bool
	syn     listing.Synopsis
}

// fetchSummaries reads the episode page of every broadcast on the needed
// dates and stores the synopsis when the page has one. Pages shared by several
// broadcasts (reruns) are fetched once.
func (p *Pipeline) fetchSummaries(ctx context.Context, tx store.Tx, needed []time.Time, rep *Report) error {
	links, err := tx.ListEpisodeLinks(ctx, needed)
	if err != nil {
		return err
	}
	rep.EpisodesTotal = len(links)

	pages := make(map[string]synopsisPage)
	for i, l := range links {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "summaries cancelled")
		}
		page, seen := pages[l.URL]
		if !seen {
			page = p.readSynopsis(ctx, l.URL)
			pages[l.URL] = page
		}
		p.counter(i+1, len(links))
		if !page.fetched {
			rep.EpisodesSkipped++
			continue
		}
		if !page.found {
			continue
		}
		s := models.Summary{
			BroadcastID: l.BroadcastID,
			FullTitle:   page.syn.FullTitle,
			Synopsis:    page.syn.Text,
		}
		if _, err := tx.InsertSummary(ctx, s); err != nil {
			return err
		}
		rep.SummariesInserted++
		p.metrics.Rows("resumes", "insert", 1)
	}
	return nil
}

func (p *Pipeline) readSynopsis(ctx context.Context, url string) synopsisPage {
	res := p.fetch(ctx, StageSummaries, url)
	if !res.OK() {
		return synopsisPage{}
	}
	syn, ok := listing.ParseSynopsis(res.Doc)
	return synopsisPage{fetched: true, found: ok, syn: syn}
}
