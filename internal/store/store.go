package store

import (
	"context"
	"time"

	"github.com/voyagen/tvlistings/internal/models"
)

// Store hands out transactions over the listings database. Every pipeline stage
// runs inside exactly one InTx call: fn's writes commit together when it
// returns nil and are rolled back when it returns an error.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Close()
}

// Tx defines the statements the refresh pipeline runs inside a transaction.
type Tx interface {
	// ChannelNames returns the names of all catalog channels.
	ChannelNames(ctx context.Context) ([]string, error)
	// InsertChannel adds a channel to the catalog and returns its id.
	InsertChannel(ctx context.Context, ch models.Channel) (int64, error)
	// SetChannelNumber writes one provider's numbering for the channel named
	// name (case-insensitive). A nil number clears the slot.
	SetChannelNumber(ctx context.Context, p models.Provider, name string, number *int) error
	// ListChannelSources returns id and listing URL of every channel that has one.
	ListChannelSources(ctx context.Context) ([]models.ChannelSource, error)

	// BroadcastDates returns the distinct emission dates currently stored.
	BroadcastDates(ctx context.Context) ([]time.Time, error)
	// DeleteBroadcastsOn removes every broadcast on date (summaries cascade).
	DeleteBroadcastsOn(ctx context.Context, date time.Time) (int64, error)
	// InsertBroadcast adds one broadcast row and returns its id.
	InsertBroadcast(ctx context.Context, b models.Broadcast) (int64, error)
	// ListEpisodeLinks returns broadcasts on any of dates that carry an episode URL.
	ListEpisodeLinks(ctx context.Context, dates []time.Time) ([]models.EpisodeLink, error)

	// InsertSummary adds one summary row and returns its id.
	InsertSummary(ctx context.Context, s models.Summary) (int64, error)

	// DeleteOrphanChannels removes channels that own no broadcast.
	DeleteOrphanChannels(ctx context.Context) (int64, error)
}

// DateOnly truncates t to its calendar day in t's location and returns it as
// midnight UTC, the form DATE columns are scanned into.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
