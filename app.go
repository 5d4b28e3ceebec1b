package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/env"
	"github.com/postdeck/postdeck/account"
	"github.com/postdeck/postdeck/assist"
	"github.com/postdeck/postdeck/blobstore/sqlite3"
	"github.com/postdeck/postdeck/random"
	"github.com/postdeck/postdeck/scheduling"
	"github.com/postdeck/postdeck/server"
	"github.com/postdeck/postdeck/web"
)

type App struct {
	server  *server.Server
	handler *web.Handler
	db      *sql.DB
}

func NewApp(ctx context.Context) (*App, error) {
	db, err := sqlite3.NewDB(ctx, env.GetString("DB_DSN", "file:postdeck.db?cache=shared"))
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	err = sqlite3.MigrateUp(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	blobStore := sqlite3.NewStore(db)

	postsRepo, err := scheduling.NewRepository(ctx, blobStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create post repository: %w", err)
	}

	accountSvc := account.NewService(blobStore)

	assistSvc := newAssistService()

	sessionName := env.GetString("SESSION_NAME", "postdeck-"+random.String(4))
	sessionKey := env.GetString("SESSION_KEY", random.String(32))
	cookieStore := sessions.NewCookieStore([]byte(sessionKey))

	csrfAuthKeys := []byte(env.GetString("CSRF_AUTH_KEY", random.String(32)))
	csrfTrustedOrigins := env.GetStringSlice("CSRF_TRUSTED_ORIGINS", []string{})

	httpHandler, err := web.NewHandler(
		accountSvc,
		postsRepo,
		assistSvc,
		cookieStore,
		sessionName,
		csrfAuthKeys,
		csrfTrustedOrigins,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP handler: %w", err)
	}

	app := &App{
		server:  newServer(),
		handler: httpHandler,
		db:      db,
	}

	return app, nil
}

func newAssistService() *assist.Service {
	var gateway assist.Gateway

	apiKey := env.GetString("ASSIST_API_KEY", "")
	if apiKey != "" {
		gateway = assist.NewOpenAIGateway(
			http.DefaultClient,
			env.GetString("ASSIST_BASE_URL", assist.DefaultBaseURL),
			apiKey,
			env.GetString("ASSIST_MODEL", assist.DefaultModel),
		)
	} else {
		slog.Warn("no assist api key configured, captions will use the local fallback")
	}

	timeout := assist.DefaultTimeout

	if timeoutStr := env.GetString("ASSIST_TIMEOUT", ""); timeoutStr != "" {
		parsed, err := time.ParseDuration(timeoutStr)
		if err != nil {
			slog.Warn("invalid assist timeout, using default", "value", timeoutStr)
		} else {
			timeout = parsed
		}
	}

	return assist.NewService(gateway, timeout)
}

func (app *App) Run(ctx context.Context) error {
	// Handle SIGINT (CTRL+C) gracefully.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	defer func() {
		if app.db != nil {
			err := app.db.Close()
			if err != nil {
				slog.ErrorContext(ctx, "failed to close database", "error", err)
			}
		}
	}()

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

func newServer() *server.Server {
	srv := &server.Server{
		Port: env.GetString("PORT", server.DefaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
	}

	return srv
}

func GetLogLevelFromEnv() slog.Level {
	levelStr := env.GetString("LOG_LEVEL", "info")
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", levelStr)

		return slog.LevelInfo
	}
}
