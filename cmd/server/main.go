package main

import (
	"context"
	"net/http"

	"github.com/coinview/exchange/internal/api"
	"github.com/coinview/exchange/internal/auth"
	"github.com/coinview/exchange/internal/config"
	"github.com/coinview/exchange/internal/db"
	"github.com/coinview/exchange/internal/logger"
)

// Main entry point: loads config, connects the pool, wires the auth service,
// and serves the HTTP API.
func main() {
	log := logger.New("info", false)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = logger.New(cfg.LogLevel, cfg.LogPretty)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	users := db.NewUserRepository(pool)
	hasher := auth.NewBcryptHasher()
	tokens := auth.NewTokenService(cfg.JWTSecret, auth.TokenTTL)
	authService := auth.NewService(users, hasher, tokens, log)

	handler := api.NewHandler(authService, log)
	router := api.NewRouter(handler)

	log.Info().Str("addr", cfg.Addr()).Msg("starting server")
	if err := http.ListenAndServe(cfg.Addr(), router); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
