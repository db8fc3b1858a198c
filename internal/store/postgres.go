package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/voyagen/tvlistings/internal/models"
)

const (
	maxConnectAttempts = 5
	connectRetryDelay  = 2 * time.Second
)

// Postgres implements Store using PostgreSQL. The pipeline is sequential, so
// the pool is capped to a single connection.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}
	cfg.MaxConns = 1
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return &Postgres{pool: pool}, nil
			}
			pool.Close()
		}
		log.WithError(err).Warnf("database connection attempt %d/%d failed", attempt, maxConnectAttempts)
		if attempt < maxConnectAttempts {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "connect")
			case <-time.After(connectRetryDelay):
			}
		}
	}
	return nil, errors.Wrapf(err, "database connection failed after %d attempts", maxConnectAttempts)
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// InTx runs fn inside one database transaction.
func (p *Postgres) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := fn(&pgTx{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

// querier is the subset of pgx.Tx the statements need.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgTx struct {
	db querier
}

// ChannelNames returns every channel name in the catalog.
func (t *pgTx) ChannelNames(ctx context.Context) ([]string, error) {
	rows, err := t.db.Query(ctx, `SELECT nomChaine FROM chaines`)
	if err != nil {
		return nil, errors.Wrap(err, "ChannelNames")
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrap(err, "ChannelNames")
	}
	return names, nil
}

// InsertChannel adds a new catalog row.
func (t *pgTx) InsertChannel(ctx context.Context, ch models.Channel) (int64, error) {
	var id int64
	err := t.db.QueryRow(ctx,
		`INSERT INTO chaines (nomChaine, urlChaine, urlLogo) VALUES ($1, $2, $3) RETURNING idChaine`,
		ch.Name, ch.URL, ch.Logo,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrapf(err, "InsertChannel %q", ch.Name)
	}
	return id, nil
}

// SetChannelNumber updates one provider numbering column.
func (t *pgTx) SetChannelNumber(ctx context.Context, p models.Provider, name string, number *int) error {
	if !p.Valid() {
		return errors.Errorf("SetChannelNumber: unknown provider %q", p)
	}
	query := fmt.Sprintf(`UPDATE chaines SET %s = $1 WHERE lower(nomChaine) = lower($2)`, string(p))
	if _, err := t.db.Exec(ctx, query, number, name); err != nil {
		return errors.Wrapf(err, "SetChannelNumber %s %q", p, name)
	}
	return nil
}

// ListChannelSources returns channels that can be fetched.
func (t *pgTx) ListChannelSources(ctx context.Context) ([]models.ChannelSource, error) {
	rows, err := t.db.Query(ctx,
		`SELECT idChaine, urlChaine FROM chaines WHERE urlChaine IS NOT NULL AND urlChaine <> '' ORDER BY idChaine`)
	if err != nil {
		return nil, errors.Wrap(err, "ListChannelSources")
	}
	defer rows.Close()

	var out []models.ChannelSource
	for rows.Next() {
		var cs models.ChannelSource
		if err := rows.Scan(&cs.ID, &cs.URL); err != nil {
			return nil, errors.Wrap(err, "ListChannelSources scan")
		}
		out = append(out, cs)
	}
	return out, errors.Wrap(rows.Err(), "ListChannelSources")
}

// BroadcastDates returns the distinct stored emission dates, ascending.
func (t *pgTx) BroadcastDates(ctx context.Context) ([]time.Time, error) {
	rows, err := t.db.Query(ctx, `SELECT DISTINCT dateEmission FROM programmation ORDER BY dateEmission`)
	if err != nil {
		return nil, errors.Wrap(err, "BroadcastDates")
	}
	dates, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, errors.Wrap(err, "BroadcastDates")
	}
	for i := range dates {
		dates[i] = DateOnly(dates[i])
	}
	return dates, nil
}

// DeleteBroadcastsOn deletes one date's broadcasts; summaries go by cascade.
func (t *pgTx) DeleteBroadcastsOn(ctx context.Context, date time.Time) (int64, error) {
	tag, err := t.db.Exec(ctx, `DELETE FROM programmation WHERE dateEmission = $1`, DateOnly(date))
	if err != nil {
		return 0, errors.Wrapf(err, "DeleteBroadcastsOn %s", date.Format(time.DateOnly))
	}
	return tag.RowsAffected(), nil
}

// InsertBroadcast adds one broadcast row.
func (t *pgTx) InsertBroadcast(ctx context.Context, b models.Broadcast) (int64, error) {
	var id int64
	err := t.db.QueryRow(ctx,
		`INSERT INTO programmation (idChaine, dateEmission, heureEmission, nomEmission, nomEpisode,
		                            typeEpisode, dureeEpisode, urlEpisode, urlVignette, urlProgrammeChaineDate)
		 VALUES ($1, $2, CAST($3::text AS time), $4, $5, $6, $7, $8, $9, $10)
		 RETURNING idProgrammation`,
		b.ChannelID, DateOnly(b.Date), b.StartTime, b.Title, b.Episode,
		b.Genre, b.Duration, b.EpisodeURL, b.Thumbnail, b.ListingURL,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrapf(err, "InsertBroadcast channel=%d date=%s", b.ChannelID, b.Date.Format(time.DateOnly))
	}
	return id, nil
}

// ListEpisodeLinks returns broadcasts on the given dates that link to a detail page.
func (t *pgTx) ListEpisodeLinks(ctx context.Context, dates []time.Time) ([]models.EpisodeLink, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	days := make([]time.Time, len(dates))
	for i, d := range dates {
		days[i] = DateOnly(d)
	}
	rows, err := t.db.Query(ctx,
		`SELECT idProgrammation, urlEpisode FROM programmation
		 WHERE dateEmission = ANY($1::date[]) AND urlEpisode IS NOT NULL AND urlEpisode <> ''
		 ORDER BY idProgrammation`, days)
	if err != nil {
		return nil, errors.Wrap(err, "ListEpisodeLinks")
	}
	defer rows.Close()

	var out []models.EpisodeLink
	for rows.Next() {
		var l models.EpisodeLink
		if err := rows.Scan(&l.BroadcastID, &l.URL); err != nil {
			return nil, errors.Wrap(err, "ListEpisodeLinks scan")
		}
		out = append(out, l)
	}
	return out, errors.Wrap(rows.Err(), "ListEpisodeLinks")
}

// InsertSummary adds one summary row.
func (t *pgTx) InsertSummary(ctx context.Context, s models.Summary) (int64, error) {
	var id int64
	err := t.db.QueryRow(ctx,
		`INSERT INTO resumes (idProgrammation, nomCompletEpisode, resumeEpisode) VALUES ($1, $2, $3) RETURNING idResume`,
		s.BroadcastID, s.FullTitle, s.Synopsis,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrapf(err, "InsertSummary broadcast=%d", s.BroadcastID)
	}
	return id, nil
}

// DeleteOrphanChannels removes channels with no remaining broadcast.
func (t *pgTx) DeleteOrphanChannels(ctx context.Context) (int64, error) {
	tag, err := t.db.Exec(ctx,
		`DELETE FROM chaines c WHERE NOT EXISTS (SELECT 1 FROM programmation p WHERE p.idChaine = c.idChaine)`)
	if err != nil {
		return 0, errors.Wrap(err, "DeleteOrphanChannels")
	}
	return tag.RowsAffected(), nil
}
