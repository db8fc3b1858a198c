package service

import (
	"context"

	"github.com/voyagen/tvlistings/internal/store"
)

// collectChannels drops channels left without any broadcast, including
// channels a provider lists but whose schedule could not be found.
func (p *Pipeline) collectChannels(ctx context.Context, tx store.Tx, rep *Report) error {
	n, err := tx.DeleteOrphanChannels(ctx)
	if err != nil {
		return err
	}
	rep.ChannelsDeleted = n
	p.metrics.Rows("chaines", "delete", n)
	if n > 0 {
		p.log.WithField("stage", StageCleanup).Infof("removed %d channels without broadcasts", n)
	}
	return nil
}
