package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/voyagen/tvlistings/internal/listing"
	"github.com/voyagen/tvlistings/internal/models"
	"github.com/voyagen/tvlistings/internal/store"
)

// fetchBroadcasts fetches the schedule of every channel for every needed date
// and inserts each broadcast found. A (channel, date) page that cannot be
// fetched is skipped without affecting the other pairs.
func (p *Pipeline) fetchBroadcasts(ctx context.Context, tx store.Tx, needed []time.Time, rep *Report) error {
	sources, err := tx.ListChannelSources(ctx)
	if err != nil {
		return err
	}
	total := len(sources) * len(needed)
	rep.PairsTotal = total

	done := 0
	for _, src := range sources {
		for _, day := range needed {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "broadcasts cancelled")
			}
			n, err := p.fetchChannelDay(ctx, tx, src, day)
			if err != nil {
				return err
			}
			if n < 0 {
				rep.PairsSkipped++
			} else {
				rep.BroadcastsInserted += n
			}
			done++
			p.counter(done, total)
		}
	}
	p.log.WithFields(log.Fields{
		"stage":    StageBroadcasts,
		"pairs":    total,
		"skipped":  rep.PairsSkipped,
		"inserted": rep.BroadcastsInserted,
	}).Info("broadcasts fetched")
	return nil
}

// fetchChannelDay returns the number of rows inserted, or -1 when the page was skipped.
func (p *Pipeline) fetchChannelDay(ctx context.Context, tx store.Tx, src models.ChannelSource, day time.Time) (int, error) {
	pageURL, err := listing.DayURL(src.URL, day)
	if err != nil {
		p.log.WithFields(log.Fields{
			"stage":   StageBroadcasts,
			"channel": src.ID,
			"reason":  err.Error(),
		}).Warn("fetch skipped")
		p.metrics.Fetch(StageBroadcasts, false)
		return -1, nil
	}
	res := p.fetch(ctx, StageBroadcasts, pageURL)
	if !res.OK() {
		return -1, nil
	}

	entries := listing.ParseBroadcasts(res.Doc)
	for _, e := range entries {
		b := models.Broadcast{
			ChannelID:  src.ID,
			Date:       day,
			StartTime:  e.StartTime,
			Title:      e.Title,
			Episode:    e.Episode,
			Genre:      e.Genre,
			Duration:   e.Duration,
			EpisodeURL: e.EpisodeURL,
			Thumbnail:  e.Thumbnail,
			ListingURL: pageURL,
		}
		if _, err := tx.InsertBroadcast(ctx, b); err != nil {
			return 0, err
		}
	}
	p.metrics.Rows("programmation", "insert", int64(len(entries)))
	return len(entries), nil
}
