// Package main initializes and starts the microfeed HTTP server,
// setting up configuration, logging, storage, repositories,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	nethttp "net/http"

	"github.com/atinyakov/microfeed/internal/common"
	"github.com/atinyakov/microfeed/internal/config"
	"github.com/atinyakov/microfeed/internal/db"
	"github.com/atinyakov/microfeed/internal/logger"
	"github.com/atinyakov/microfeed/internal/repository"
	"github.com/atinyakov/microfeed/internal/repository/memory"
	"github.com/atinyakov/microfeed/internal/server/handler/http"
	"github.com/atinyakov/microfeed/internal/service"
	"github.com/atinyakov/microfeed/internal/validation"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// stores bundles the repositories backing the services.
type stores struct {
	accounts service.AccountRepository
	posts    service.PostRepository
	follows  service.FollowRepository
	closer   func() error
}

func main() {
	// Parse command-line, file and environment configuration.
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init storage", zap.Error(err))
	}
	defer func() {
		if err := st.closer(); err != nil {
			zapLogger.Warn("close storage", zap.Error(err))
		}
	}()

	// Initialize business-logic services.
	v := validation.New(validation.DefaultRules())
	accountService := service.NewAccountService(st.accounts, v)
	graphService := service.NewGraphService(st.follows)
	postService := service.NewPostService(st.posts, v)
	feedService := service.NewFeedService(st.follows, st.posts)

	if options.AdminEmail != "" {
		elevateAdmin(ctx, st.accounts, options.AdminEmail, zapLogger)
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Accounts: &http.AccountHandler{Accounts: accountService, Logger: zapLogger},
		Sessions: &http.SessionHandler{Auth: accountService, Logger: zapLogger},
		Graph:    &http.GraphHandler{Graph: graphService, Accounts: accountService, Logger: zapLogger},
		Posts:    &http.PostHandler{Posts: postService, Accounts: accountService, Logger: zapLogger},
		Feed:     &http.FeedHandler{Feed: feedService, Logger: zapLogger},
	}, accountService, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLSCert != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Addr))
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), options.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}

// openStores connects to PostgreSQL when a DSN is configured and falls back
// to the in-memory store otherwise.
func openStores(ctx context.Context, options *config.Options, log *zap.Logger) (*stores, error) {
	if options.DatabaseDSN == "" {
		log.Warn("no database DSN configured, using in-memory store")
		m := memory.New()
		return &stores{accounts: m, posts: m, follows: m, closer: func() error { return nil }}, nil
	}

	conn, err := db.InitPostgres(ctx, options.DatabaseDriver, options.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	log.Info("database ready", zap.String("driver", options.DatabaseDriver))
	return &stores{
		accounts: repository.NewPostgresAccountRepository(conn),
		posts:    repository.NewPostgresPostRepository(conn),
		follows:  repository.NewPostgresFollowRepository(conn),
		closer:   conn.Close,
	}, nil
}

func elevateAdmin(ctx context.Context, repo service.AccountRepository, email string, log *zap.Logger) {
	a, err := repo.GetAccountByEmail(ctx, email)
	if errors.Is(err, common.ErrAccountNotFound) {
		log.Warn("admin account not found", zap.String("email", email))
		return
	}
	if err != nil {
		log.Error("look up admin account", zap.Error(err))
		return
	}
	if err := repo.SetElevated(ctx, a.ID, true); err != nil {
		log.Error("elevate admin account", zap.Error(err))
		return
	}
	log.Info("admin account elevated", zap.String("id", a.ID))
}
