package main

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"homio/internal/adapters/legacy"
	"homio/internal/adapters/observability"
	redisad "homio/internal/adapters/redis"
	"homio/internal/app"
	"homio/internal/shared"
	mysqlrepo "homio/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.LegacyBase).
		Int("workers", cfg.Workers).
		Int("page_size", cfg.ImportPageSize).
		Msg("importer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := legacy.New(cfg.LegacyBase, cfg.LegacyKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize legacy export client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	imp := app.NewImportService(client, repo, mysqlrepo.AddressStore{Repo: repo}, cache)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup
	var done atomic.Bool
	var imported, skipped atomic.Int64

	for page := 1; !done.Load(); page++ {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			defer sem.Release(1)

			st, last, err := imp.ImportPage(ctx, page, cfg.ImportPageSize)
			if err != nil {
				log.Warn().Int("page", page).Err(err).Msg("import page failed")
				done.Store(true)
				return
			}
			imported.Add(int64(st.Imported))
			skipped.Add(int64(st.Skipped))
			log.Info().
				Int("page", page).
				Int("addresses", st.Addresses).
				Int("imported", st.Imported).
				Int("skipped", st.Skipped).
				Msg("page imported")
			if last {
				done.Store(true)
			}
		}(page)
	}
	wg.Wait()

	log.Info().
		Int64("imported", imported.Load()).
		Int64("skipped", skipped.Load()).
		Msg("import completed")
}
