package service

import (
	"context"

	"github.com/pkg/errors"

	"github.com/voyagen/tvlistings/internal/listing"
	"github.com/voyagen/tvlistings/internal/models"
	"github.com/voyagen/tvlistings/internal/store"
)

// reconcileChannels walks every provider page: channels seen for the first
// time are added to the catalog, and the provider's numbering column is
// rewritten for every channel on the page. A provider whose page cannot be
// fetched is skipped.
func (p *Pipeline) reconcileChannels(ctx context.Context, tx store.Tx, rep *Report) error {
	names, err := tx.ChannelNames(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[fold(n)] = struct{}{}
	}

	for _, prov := range p.providers {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "reconcile cancelled")
		}
		res := p.fetch(ctx, StageChannels, prov.URL)
		if !res.OK() {
			rep.ProvidersSkipped++
			continue
		}

		entries := listing.ParseChannels(res.Doc)
		p.log.WithField("provider", prov.Provider).Debugf("%d channels on page", len(entries))
		for _, e := range entries {
			if e.Name == nil {
				continue
			}
			key := fold(*e.Name)
			if _, ok := known[key]; !ok {
				if _, err := tx.InsertChannel(ctx, models.Channel{Name: *e.Name, URL: e.URL, Logo: e.Logo}); err != nil {
					return err
				}
				known[key] = struct{}{}
				rep.ChannelsInserted++
				p.metrics.Rows("chaines", "insert", 1)
			}
			// Runs for known channels too; a later duplicate on the page wins.
			if err := tx.SetChannelNumber(ctx, prov.Provider, *e.Name, e.Number); err != nil {
				return err
			}
			rep.NumbersUpdated++
			p.metrics.Rows("chaines", "update", 1)
		}
	}
	return nil
}
