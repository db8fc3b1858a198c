package store

import (
	"context"
	"database/sql"
	"io/fs"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/voyagen/tvlistings/migrations"
)

// EnsureDatabase creates the database named in dsn when the server reports it
// missing. Only URL-form DSNs are handled; keyword DSNs must name an existing
// database.
func EnsureDatabase(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer db.Close()

	err = db.PingContext(ctx)
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "3D000" { // invalid_catalog_name
		return errors.Wrap(err, "ping")
	}

	u, perr := url.Parse(dsn)
	if perr != nil || u.Scheme == "" {
		return errors.Wrap(err, "database does not exist and dsn is not a url")
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return errors.Wrap(err, "database does not exist and dsn names none")
	}
	u.Path = "/postgres"
	admin, err := sql.Open("postgres", u.String())
	if err != nil {
		return errors.Wrap(err, "open maintenance database")
	}
	defer admin.Close()

	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return errors.Wrapf(err, "create database %s", name)
	}
	log.Infof("created database %s", name)
	return nil
}

// dropAll removes every table of the schema, including the migration version table.
const dropAll = `DROP TABLE IF EXISTS resumes, programmation, chaines, schema_migrations CASCADE`

// Migrator applies the embedded schema migrations.
type Migrator struct {
	dsn string
	fs  fs.FS
}

// NewMigrator returns a Migrator for dsn.
func NewMigrator(dsn string) *Migrator {
	return &Migrator{dsn: dsn, fs: migrations.FS}
}

// Ensure brings the schema up to date. When reset is set, every table is
// dropped and rebuilt first, in a single transaction: a failed rebuild leaves
// the previous schema and data in place.
func (m *Migrator) Ensure(ctx context.Context, reset bool) error {
	if reset {
		version, err := m.rebuild(ctx)
		if err != nil {
			return err
		}
		mg, err := m.open()
		if err != nil {
			return err
		}
		err = mg.Force(int(version))
		closeMigrate(mg)
		if err != nil {
			return errors.Wrap(err, "migrate.Force")
		}
		log.Warnf("schema dropped and rebuilt at version %d", version)
	}

	mg, err := m.open()
	if err != nil {
		return err
	}
	defer closeMigrate(mg)

	oldVersion, _, _ := mg.Version()
	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrate.Up")
	}
	newVersion, _, _ := mg.Version()
	if newVersion != oldVersion {
		log.Infof("schema migrated from version %d to %d", oldVersion, newVersion)
	} else {
		log.Debugf("schema version is %d", oldVersion)
	}
	return nil
}

// rebuild drops every table and replays the up migrations inside one
// transaction. It returns the version of the last migration applied.
func (m *Migrator) rebuild(ctx context.Context) (uint64, error) {
	files, err := fs.Glob(m.fs, "*.up.sql")
	if err != nil {
		return 0, errors.Wrap(err, "list migrations")
	}
	sort.Strings(files)

	conn, err := pgx.Connect(ctx, m.dsn)
	if err != nil {
		return 0, errors.Wrap(err, "connect")
	}
	defer conn.Close(context.Background())

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, dropAll); err != nil {
		return 0, errors.Wrap(err, "drop schema")
	}
	var version uint64
	for _, name := range files {
		sql, err := fs.ReadFile(m.fs, name)
		if err != nil {
			return 0, errors.Wrapf(err, "read %s", name)
		}
		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			return 0, errors.Wrapf(err, "apply %s", name)
		}
		v, err := strconv.ParseUint(strings.SplitN(name, "_", 2)[0], 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "migration version of %s", name)
		}
		version = v
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	return version, nil
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	src, err := iofs.New(m.fs, ".")
	if err != nil {
		return nil, errors.Wrap(err, "iofs.New")
	}
	mg, err := migrate.NewWithSourceInstance("iofs", src, m.dsn)
	if err != nil {
		return nil, errors.Wrap(err, "migrate.New")
	}
	return mg, nil
}

func closeMigrate(mg *migrate.Migrate) {
	if srcErr, dbErr := mg.Close(); srcErr != nil || dbErr != nil {
		log.Warnf("migrate close: source=%v database=%v", srcErr, dbErr)
	}
}
