// Package app assembles the ledger components from configuration. It is
// shared by the webhook server and the operator CLI so both talk to the
// same store with the same layout and policy.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-ledger-bot/internal/cache"
	"github.com/tbourn/go-ledger-bot/internal/config"
	"github.com/tbourn/go-ledger-bot/internal/ledger"
	"github.com/tbourn/go-ledger-bot/internal/observability"
	"github.com/tbourn/go-ledger-bot/internal/repo"
	"github.com/tbourn/go-ledger-bot/internal/session"
	"github.com/tbourn/go-ledger-bot/internal/sheet"
)

// Ledger bundles the configured store, session backend and manager.
// Close releases whatever the backends hold open.
type Ledger struct {
	Store    sheet.Store
	Sessions session.Store
	Layout   ledger.Layout
	Manager  *ledger.Manager

	closers []func() error
}

// OpenLedger builds the ledger stack described by cfg.
func OpenLedger(ctx context.Context, cfg config.Config) (*Ledger, error) {
	layout, err := ledger.NewLayout(cfg.Ledger.Sheet, cfg.Ledger.Columns)
	if err != nil {
		return nil, err
	}
	policy, err := ledger.ParseSoldPolicy(cfg.Ledger.SoldPolicy)
	if err != nil {
		return nil, err
	}

	l := &Ledger{Layout: layout}
	store, err := l.openStore(cfg)
	if err != nil {
		l.Close()
		return nil, err
	}
	l.Store = store

	sessions, err := l.openSessions(ctx, cfg.Session)
	if err != nil {
		l.Close()
		return nil, err
	}
	l.Sessions = sessions

	m := ledger.NewManager(store, sessions, layout)
	m.Policy = policy
	if cfg.Session.TTL > 0 {
		m.SessionTTL = cfg.Session.TTL
	}
	m.EndOnInvalid = cfg.Session.EndOnInvalid
	l.Manager = m
	return l, nil
}

// openStore returns the backend wrapped for tracing, metrics and timeouts,
// and fronted by the read cache when CacheTTL is positive.
func (l *Ledger) openStore(cfg config.Config) (sheet.Store, error) {
	lc := cfg.Ledger
	var (
		backend sheet.Store
		name    = lc.Driver
	)
	switch lc.Driver {
	case "sqlite", "postgres", "mysql":
		db, err := repo.OpenDB(lc.Driver, lc.DSN)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			l.closers = append(l.closers, sqlDB.Close)
		}
		if err := repo.MigrateCells(db); err != nil {
			return nil, fmt.Errorf("migrate cells: %w", err)
		}
		if err := observability.InstrumentGORM(db, cfg.OTEL); err != nil {
			log.Warn().Err(err).Msg("ledger db tracing disabled")
		}
		backend = repo.NewCellStore(db, lc.StoreID)
	case "xlsx":
		x, err := sheet.OpenXLSX(lc.StoreID, lc.Sheet)
		if err != nil {
			return nil, err
		}
		backend = x
	case "memory":
		backend = sheet.NewMemoryStore(lc.Sheet)
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", lc.Driver)
	}

	var store sheet.Store = &sheet.Instrumented{Next: backend, Backend: name, Timeout: lc.StoreTimeout}
	if lc.CacheTTL > 0 {
		store = sheet.NewCachedStore(store, lc.StoreID, cache.New[[][]string](lc.CacheTTL))
	}
	return store, nil
}

func (l *Ledger) openSessions(ctx context.Context, sc config.SessionConfig) (session.Store, error) {
	switch sc.Backend {
	case "", "memory":
		m := session.NewMemoryStore(time.Minute)
		l.closers = append(l.closers, m.Close)
		return m, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
		})
		l.closers = append(l.closers, client.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("redis %s: %w", sc.RedisAddr, err)
		}
		return session.NewRedisStore(client, sc.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported session backend %q", sc.Backend)
	}
}

// Close releases backends in reverse order of opening.
func (l *Ledger) Close() error {
	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	l.closers = nil
	return errors.Join(errs...)
}
