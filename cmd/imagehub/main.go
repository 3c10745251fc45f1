// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the ImageHub server. It loads
// configuration, connects to services, sets up routing, and starts the
// HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"imagehub/internal/cache"
	"imagehub/internal/config"
	"imagehub/internal/database"
	"imagehub/internal/feed"
	"imagehub/internal/files"
	"imagehub/internal/handlers"
	"imagehub/internal/mailer"
	"imagehub/internal/recovery"
	"imagehub/internal/render"
	"imagehub/internal/router"
	"imagehub/internal/session"
	"imagehub/internal/storage"
	"imagehub/internal/store"
	"imagehub/internal/token"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL and run pending migrations.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey: sessions and password recovery tokens.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark session cookies as Secure.
	secureCookies := !cfg.IsDev()
	sessions := session.NewStore(valkeyClient, secureCookies)
	recoveryTokens := recovery.NewStore(valkeyClient)

	// Connect to S3-compatible object storage. Image and avatar files
	// live there, so the server cannot run without it.
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize object storage", "error", err)
		os.Exit(1)
	}
	if storageClient == nil {
		slog.Error("object storage not configured: set S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY")
		os.Exit(1)
	}
	slog.Info("object storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
	fileMgr := files.NewManager(storageClient)

	// Outgoing mail for password recovery. Without SMTP configured the
	// reset links land in the server log, which is enough for dev.
	var mail mailer.Mailer = mailer.Log{}
	if cfg.SMTPHost != "" {
		port, err := strconv.Atoi(cfg.SMTPPort)
		if err != nil {
			slog.Error("invalid SMTP_PORT", "value", cfg.SMTPPort)
			os.Exit(1)
		}
		smtp, err := mailer.NewSMTP(cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
		if err != nil {
			slog.Error("failed to initialize SMTP mailer", "error", err)
			os.Exit(1)
		}
		mail = smtp
	} else {
		slog.Warn("SMTP not configured, recovery mail goes to the log")
	}

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Data stores and the feed layer on top of them.
	imageStore := store.NewImageStore(db)
	categoryStore := store.NewCategoryStore(db)
	accountStore := store.NewAccountStore(db)

	selector := feed.NewSelector(imageStore)
	navigator := feed.NewNavigator(imageStore)
	resolver := feed.NewResolver(categoryStore, accountStore)

	issuer := token.NewIssuer(cfg.JWTSecret)

	// Handler groups.
	imagesHandlers := handlers.NewImages(renderer, selector, navigator, resolver,
		imageStore, categoryStore, accountStore, fileMgr)
	authHandlers := handlers.NewAuth(renderer, sessions, accountStore, recoveryTokens, mail, cfg.BaseURL)
	accountHandlers := handlers.NewAccount(renderer, sessions, accountStore, imageStore, fileMgr)
	apiHandlers := handlers.NewAPI(selector, navigator, imageStore, categoryStore,
		accountStore, issuer, fileMgr)

	r := router.New(sessions, issuer, imagesHandlers, authHandlers, accountHandlers, apiHandlers)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine so the main goroutine can wait for
	// shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited")
}
