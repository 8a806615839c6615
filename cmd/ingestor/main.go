package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hostel_booking/internal/adapters/cms"
	"hostel_booking/internal/adapters/memcache"
	"hostel_booking/internal/adapters/observability"
	redisad "hostel_booking/internal/adapters/redis"
	"hostel_booking/internal/adapters/seedfile"
	"hostel_booking/internal/app"
	"hostel_booking/internal/domain"
	"hostel_booking/internal/shared"
	mysqlrepo "hostel_booking/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	log.Info().
		Str("source", cfg.HostelSource).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	src := ingestSource(cfg)

	var cache domain.Cache
	if cfg.CacheBackend == shared.CacheRedis {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	} else {
		// nothing shares an in-process cache with the API; invalidation is local only
		cache = memcache.New(cfg.CacheTTL, time.Minute)
	}
	ing := app.NewIngestionService(src, repo, cache)

	ids, err := ing.ListIDs(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list hostel ids")
	}

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup
	var ok, failed atomic.Int64
	start := time.Now()

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("ingestion interrupted")
			break
		}

		wg.Add(1)
		go func(hostelID string) {
			defer wg.Done()
			defer sem.Release(1)

			err := ing.IngestHostel(ctx, hostelID)
			observability.ObserveIngest(err)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("hostel_id", hostelID).Err(err).Msg("ingest failed")
				return
			}
			ok.Add(1)
			log.Debug().Str("hostel_id", hostelID).Msg("ingest ok")
		}(id)
	}

	wg.Wait()
	log.Info().
		Int("total", len(ids)).
		Int64("ok", ok.Load()).
		Int64("failed", failed.Load()).
		Dur("took", time.Since(start)).
		Msg("ingestion completed")
}

func ingestSource(cfg shared.Config) domain.HostelSource {
	if cfg.SeedFile != "" && cfg.HostelSource != shared.SourceCMS {
		s, err := seedfile.Load(cfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("seed file")
		}
		return s
	}
	c, err := cms.New(cfg.CMSBaseURL, cfg.CMSToken, cfg.CMSRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize CMS client")
	}
	return c
}
