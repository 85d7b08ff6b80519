package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/sehatguru/authkit"
	"github.com/sehatguru/authkit/boltstore"
	"github.com/sehatguru/authkit/bunstore"
	"github.com/sehatguru/authkit/googleid"
	"github.com/sehatguru/authkit/smtpmail"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (env-only when empty)")
	flag.Parse()

	cfg := MustLoadConfig(configPath)

	lgr := setupLogger(cfg.Env)
	lgr.Info("starting authd", "env", cfg.Env, "address", cfg.HTTPServer.Address)

	authLogger := slogAdapter{lgr: lgr.With("component", "authkit")}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	defer bunDB.Close()

	store := bunstore.New(bunDB)
	if err := store.CreateTable(ctx); err != nil {
		log.Fatal(err)
	}

	revoked, cleanup := setupRevocation(ctx, cfg, lgr)
	defer cleanup()

	tokens := authkit.NewTokenService(cfg).WithLogger(authLogger)
	guard := authkit.NewSessionGuard(tokens, revoked, store).WithLogger(authLogger)

	var mailer authkit.Mailer
	if cfg.SMTP.Host != "" {
		mailer = smtpmail.New(smtpmail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			FromName: cfg.SMTP.FromName,
		})
	} else {
		lgr.Warn("no smtp host configured, outbound mail disabled")
	}

	auther := authkit.NewAuthenticator(tokens, revoked, store).
		WithMailer(mailer).
		WithLogger(authLogger)

	resets := authkit.NewPasswordResetFlow(tokens, store, nil, mailer).
		WithLogger(authLogger)
	if cfg.Auth.ResetURL != "" {
		resets = resets.WithResetURL(cfg.Auth.ResetURL)
	}

	controller := authkit.NewHTTPController(auther, guard, resets).
		WithLogger(authLogger)

	if cfg.Google.Audience != "" {
		verifier, err := googleid.New(cfg.Google.JWKSetURL)
		if err != nil {
			log.Fatal(err)
		}
		defer verifier.Close()

		linker := authkit.NewIdentityLinker(store, nil, verifier, cfg.Google.Audience).
			WithLogger(authLogger)
		controller = controller.WithLinker(linker)
	} else {
		lgr.Warn("no google audience configured, federated login disabled")
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       "authd",
			StrictRouting: false,
		}))
	})

	controller.RegisterRoutes(srv.Router().Group("/auth"))

	srv.Serve(cfg.HTTPServer.Address)

	<-ctx.Done()
	lgr.Info("shutting down")
}

// setupRevocation picks the persistent bolt store when a path is configured
// and falls back to the in-memory set otherwise. The returned cleanup closes
// whatever got opened.
func setupRevocation(ctx context.Context, cfg *Config, lgr *slog.Logger) (authkit.RevocationStore, func()) {
	if cfg.DB.RevocationPath == "" {
		return authkit.NewMemoryRevocationStore(), func() {}
	}

	bolt, err := boltstore.New(cfg.DB.RevocationPath)
	if err != nil {
		log.Fatal(err)
	}

	// expired fingerprints are dead weight, sweep them periodically
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n, err := bolt.Prune(now); err != nil {
					lgr.Warn("revocation prune failed", "error", err)
				} else if n > 0 {
					lgr.Debug("revocation prune", "removed", n)
				}
			}
		}
	}()

	return bolt, func() { bolt.Close() }
}

func setupLogger(env string) *slog.Logger {
	var lgr *slog.Logger

	switch env {
	case envLocal:
		lgr = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		lgr = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		lgr = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		lgr = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return lgr
}

// slogAdapter exposes a slog.Logger through the authkit.Logger surface.
// Core call sites pass alternating key/value pairs, which slog accepts
// directly.
type slogAdapter struct {
	lgr *slog.Logger
}

func (s slogAdapter) Debug(format string, args ...any) { s.lgr.Debug(format, args...) }
func (s slogAdapter) Info(format string, args ...any)  { s.lgr.Info(format, args...) }
func (s slogAdapter) Warn(format string, args ...any)  { s.lgr.Warn(format, args...) }
func (s slogAdapter) Error(format string, args ...any) { s.lgr.Error(format, args...) }
