package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"manga4deck/internal/engine"
	"manga4deck/internal/kavita"
	"manga4deck/pkg/database"
	"manga4deck/pkg/logging"
	"manga4deck/pkg/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	dbCfg := database.Config{Path: filepath.Join(cfg.Data.Dir, "cache.sqlite")}
	if p := os.Getenv("MANGA4DECK_DB_PATH"); p != "" {
		dbCfg.Path = p
	}
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("db migrate failed")
	}

	eng, err := engine.New(db, engine.Config{
		Settings: kavita.Settings{
			IP:       cfg.Server.IP,
			Username: cfg.Server.Username,
			Password: cfg.Server.Password,
			APIKey:   cfg.Server.APIKey,
		},
		CacheDir: filepath.Join(cfg.Data.Dir, "cache"),
	}, logging.Component(logger, "engine"))
	if err != nil {
		logger.Fatal().Err(err).Msg("engine start failed")
	}

	st := eng.Status()
	logger.Info().
		Bool("online", st.Online).
		Str("server", st.IP).
		Str("user", st.LoggedAs).
		Float64("cache_gib", st.CacheSizeGiB).
		Msg("manga4deck running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	eng.Close()
	logger.Info().Msg("stopped")
}
