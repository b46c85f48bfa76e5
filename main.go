package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/arbiter/internal/arbiter"
	"github.com/robalobadob/arbiter/internal/config"
	"github.com/robalobadob/arbiter/internal/httpserver"
	"github.com/robalobadob/arbiter/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	kv, err := store.Open(context.Background(), store.Options{
		Driver:      cfg.StoreDriver,
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}

	arb := arbiter.New(kv)
	srv := httpserver.New(arb, httpserver.Options{
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.TokenTTL,
		ClientOrigin:   cfg.ClientOrigin,
		RequestTimeout: cfg.RequestTimeout,
		Production:     cfg.Production,
	})

	log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("starting arbiter")
	err = srv.Start(":" + cfg.Port)
	_ = kv.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
