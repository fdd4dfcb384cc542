package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "homio/internal/adapters/http_server"
	"homio/internal/adapters/observability"
	"homio/internal/adapters/profiles"
	redisad "homio/internal/adapters/redis"
	"homio/internal/app"
	"homio/internal/shared"
	mysqlrepo "homio/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	dir, err := profiles.New(cfg.ProfilesBase, cfg.ProfilesKey, 10)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize profiles client")
	}
	q := app.NewQueryService(repo, mysqlrepo.AddressStore{Repo: repo}, cache, cfg.CacheTTL)
	c := app.NewReviewService(repo, mysqlrepo.AddressStore{Repo: repo}, cache)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, C: c, Dir: dir})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
