// Command server runs the Messenger inventory ledger webhook.
//
//	@title			Ledger Bot API
//	@version		1.0
//	@description	Messenger webhook that keeps an inventory ledger, plus an admin API over the interaction log.
//	@BasePath		/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-ledger-bot/internal/app"
	"github.com/tbourn/go-ledger-bot/internal/config"
	httpapi "github.com/tbourn/go-ledger-bot/internal/http"
	"github.com/tbourn/go-ledger-bot/internal/messenger"
	"github.com/tbourn/go-ledger-bot/internal/observability"
	"github.com/tbourn/go-ledger-bot/internal/repo"
	"github.com/tbourn/go-ledger-bot/internal/services"
	"github.com/tbourn/go-ledger-bot/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// purgeInterval is how often expired dedup records are removed.
const purgeInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// App database: interaction log and processed events.
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	if err := observability.InstrumentGORM(db, cfg.OTEL); err != nil {
		log.Warn().Err(err).Msg("app db tracing disabled")
	}

	led, err := app.OpenLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer led.Close()

	var sender messenger.Sender
	if cfg.Messenger.AccessToken == "" {
		log.Warn().Msg("PAGE_ACCESS_TOKEN not set; replies are logged instead of sent")
		sender = messenger.LogSender{Printf: func(format string, args ...any) {
			log.Info().Msgf(format, args...)
		}}
	} else {
		sender = messenger.NewGraphSender(cfg.Messenger, nil)
	}

	hook := services.NewWebhookService(db, led.Manager, sender, cfg.EventDedupTTL)
	deps := httpapi.Deps{Webhook: hook}
	if cfg.AdminJWTSecret != "" {
		deps.Interactions = &services.InteractionService{DB: db}
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, cfg, deps)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("ledger", cfg.Ledger.Driver).Str("sessions", cfg.Session.Backend).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		t := time.NewTicker(purgeInterval)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if n, err := hook.PurgeExpired(gctx); err != nil {
					log.Warn().Err(err).Msg("purge processed events")
				} else if n > 0 {
					log.Debug().Int64("purged", n).Msg("expired processed events removed")
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
		// in-flight webhook messages still get their replies
		if err := hook.Wait(sctx); err != nil {
			log.Warn().Err(err).Msg("webhook drain incomplete")
		}
		return nil
	})
	return g.Wait()
}
