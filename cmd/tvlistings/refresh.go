package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/voyagen/tvlistings/internal/cache"
	"github.com/voyagen/tvlistings/internal/config"
	"github.com/voyagen/tvlistings/internal/fetcher"
	"github.com/voyagen/tvlistings/internal/metrics"
	"github.com/voyagen/tvlistings/internal/service"
	"github.com/voyagen/tvlistings/internal/store"
)

const (
	lockTTL     = 2 * time.Hour
	reportsKept = 50
)

// refresh runs one refresh. Failures are reported on the console and the
// process still exits normally; the next scheduled run starts from whatever
// the last committed stage left behind.
func refresh(c *cli.Context) error {
	debug := c.Bool("debug")
	cfg, err := config.Load()
	if err != nil {
		printError(debug, errors.Wrap(err, "config"))
		return nil
	}
	setupLogging(cfg.LogLevel, debug)

	runID := uuid.New()
	logger := log.WithField("run", runID.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jar, err := fetcher.OpenJar(cfg.CookieFile)
	if err != nil {
		printError(debug, err)
		return nil
	}
	defer func() {
		if err := jar.Save(); err != nil {
			logger.WithError(err).Warn("cookies not saved")
		}
	}()

	if err := store.EnsureDatabase(ctx, cfg.DatabaseURL); err != nil {
		printError(debug, errors.Wrap(err, "database"))
		return nil
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		printError(debug, errors.Wrap(err, "database"))
		return nil
	}
	defer pg.Close()

	var rds *cache.Redis
	if cfg.RedisURL != "" {
		rds, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			printError(debug, err)
			return nil
		}
		defer rds.Close()

		lock, err := cache.TryLock(ctx, rds, cache.LockKey, runID, lockTTL)
		if errors.Is(err, cache.ErrLocked) {
			logger.WithField("holder", cache.Holder(ctx, rds, cache.LockKey)).Warn("another refresh is running, exiting")
			return nil
		}
		if err != nil {
			printError(debug, err)
			return nil
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.WithError(err).Warn("run lock not released")
			}
		}()

		if prev, err := cache.RecentReports[service.Report](ctx, rds, cache.ReportsKey, 1); err == nil && len(prev) > 0 {
			logger.WithFields(log.Fields{
				"status": prev[0].Status,
				"at":     humanize.Time(prev[0].StartedAt),
			}).Info("previous run")
		}
	} else {
		logger.Debug("redis disabled (REDIS_URL not set)")
	}

	rec := metrics.New()
	p := service.New(service.Options{
		Store:  pg,
		Schema: store.NewMigrator(cfg.DatabaseURL),
		Fetcher: fetcher.New(fetcher.Options{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
			Interval:  cfg.RequestInterval,
			Jar:       jar,
		}),
		Providers: cfg.Providers,
		Location:  cfg.Location,
		Progress:  os.Stdout,
		Metrics:   rec,
		Logger:    logger,
	})

	rep, runErr := p.Run(ctx, c.Bool("reset"))
	rep.RunID = runID.String()
	if runErr != nil {
		printError(debug, runErr)
	}

	// The run is over; bookkeeping below must not be cut short by a signal.
	after, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if rds != nil {
		if err := cache.PushReport(after, rds, cache.ReportsKey, rep, reportsKept); err != nil {
			logger.WithError(err).Warn("report not stored")
		}
	}
	if cfg.PushgatewayURL != "" {
		host, _ := os.Hostname()
		if err := rec.Push(after, cfg.PushgatewayURL, host); err != nil {
			logger.WithError(err).Warn("metrics not pushed")
		}
	}

	logger.WithFields(log.Fields{
		"status":     rep.Status,
		"duration":   rep.Duration().Round(time.Second),
		"channels":   rep.ChannelsInserted,
		"broadcasts": humanize.Comma(int64(rep.BroadcastsInserted)),
		"summaries":  humanize.Comma(int64(rep.SummariesInserted)),
		"skipped":    rep.PairsSkipped + rep.EpisodesSkipped + rep.ProvidersSkipped,
	}).Info("refresh finished")
	return nil
}

func openRedis(ctx context.Context, url string) (*cache.Redis, error) {
	rds, err := cache.New(url)
	if err != nil {
		return nil, errors.Wrap(err, "redis")
	}
	if err := rds.Ping(ctx); err != nil {
		_ = rds.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return rds, nil
}

func setupLogging(level string, debug bool) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithError(err).Warnf("unknown log level %q, using info", level)
		lvl = log.InfoLevel
	}
	if debug {
		lvl = log.DebugLevel
	}
	log.SetLevel(lvl)
}

// printError shows err on the console: the full wrapped trace with --debug,
// the message alone otherwise.
func printError(debug bool, err error) {
	if debug {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
