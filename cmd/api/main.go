package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hostel_booking/internal/adapters/cms"
	server "hostel_booking/internal/adapters/http_server"
	"hostel_booking/internal/adapters/identity"
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

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db: bookings and profiles always live in MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	repo := mysqlrepo.New(db)

	cache := newCache(ctx, cfg)
	source := hostelSource(cfg, repo)
	catalog := app.NewCatalog(source, cache, cfg.CacheTTL)

	rc := app.ResourceConfig{Timeout: cfg.FetchTimeout, Observe: observability.ObserveFetch}
	listing := app.NewListingService(catalog, rc)
	listing.Start(ctx, cfg.ListingRefreshInterval)
	defer listing.Close()

	bookings := app.NewBookingService(catalog, repo, rc, observability.ObserveDecision)
	defer bookings.Close()

	idp, err := identity.NewResolver(cfg.JWTSecret, repo)
	if err != nil {
		log.Fatal().Err(err).Msg("identity resolver")
	}

	// http
	srv := server.New(server.Options{
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustProxy:     cfg.TrustProxy,
	})
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	profiles := app.NewProfileService(repo)
	srv.MountHandlers(server.NewHandlers(listing, bookings, profiles, idp))

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("source", cfg.HostelSource).Str("cache", cfg.CacheBackend).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

func newCache(ctx context.Context, cfg shared.Config) domain.Cache {
	if cfg.CacheBackend == shared.CacheMemory {
		return memcache.New(cfg.CacheTTL, time.Minute)
	}
	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := c.Ping(ctx); err != nil {
		// cache errors are treated as misses; the API still serves from the source
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
	}
	return c
}

func hostelSource(cfg shared.Config, repo *mysqlrepo.Repo) domain.HostelRepository {
	switch cfg.HostelSource {
	case shared.SourceCMS:
		c, err := cms.New(cfg.CMSBaseURL, cfg.CMSToken, cfg.CMSRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("cms client")
		}
		return c
	case shared.SourceSeed:
		s, err := seedfile.Load(cfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("seed file")
		}
		return s
	}
	return repo
}
