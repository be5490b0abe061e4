/*
main.go - HTTP server entry point

PURPOSE:
  Initializes and starts the event card engine server. Handles
  configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment (.env honored)
  2. Pick the journal (memory by default, sqlite optional)
  3. Build the ledger and the actor set
  4. Configure the HTTP router
  5. Start the server with graceful shutdown

STATE:
  The ledger exists only for the lifetime of the process. JOURNAL=sqlite
  with a file path keeps a readable copy of the record journal around for
  development, but card state is rebuilt from nothing on every start -
  persistence is explicitly not a feature of this system.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  active requests, close the journal, exit.

SEE ALSO:
  - api/server.go: Router configuration
  - config: Environment variables
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/festpay/card-engine/actors"
	"github.com/festpay/card-engine/api"
	"github.com/festpay/card-engine/config"
	"github.com/festpay/card-engine/ledger"
	memstore "github.com/festpay/card-engine/ledger/store"
	"github.com/festpay/card-engine/store/sqlite"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("journal", cfg.Journal).
		Msg("starting card engine")

	journal, closeJournal, err := openJournal(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open journal")
	}
	defer closeJournal()

	cards := ledger.NewCardLedger(journal)
	directory := actors.NewDirectory()
	organizer := actors.NewOrganizer(cfg.OrganizerID, cards, directory)
	bank := actors.NewBankTerminal("BANK001", cards)

	handler := api.NewHandler(cards, organizer, bank)
	handler.RegisterTerminal(actors.NewPaymentTerminal("TERM001", "Food Stand", cards))
	handler.RegisterTerminal(actors.NewPaymentTerminal("TERM002", "Merch Shop", cards))

	router := api.NewRouter(handler, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}

func openJournal(cfg config.Config) (ledger.Journal, func(), error) {
	switch cfg.Journal {
	case "sqlite":
		j, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return j, func() { j.Close() }, nil
	default:
		return memstore.NewMemory(), func() {}, nil
	}
}

func setupLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
