package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"wellspring/internal/auth"
	"wellspring/internal/cache"
	"wellspring/internal/config"
	"wellspring/internal/data"
	"wellspring/internal/handler"
	"wellspring/internal/logger"
	"wellspring/internal/middleware"
	"wellspring/internal/render"
	"wellspring/internal/revision"
	"wellspring/internal/service"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, nil)

	// --- Database Initialization and Migration ---
	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(cfg.DB.DSN); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	log.Info("Database connection successful.")

	// --- Authorization Setup ---
	log.Info("Initializing authorization...")
	enforcer, err := auth.NewEnforcer("postgres", cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	auth.SeedDefaultPolicies(enforcer, log)

	// --- Render Cache Initialization ---
	log.Info("Initializing SQLite render cache...")
	renderCache, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer renderCache.Close()
	renderer := render.New(renderCache)

	// --- Repositories ---
	wikiRepo := data.NewWikiRepository(db)
	membershipRepo := data.NewMembershipRepository(db)
	pageRepo := data.NewPageRepository(db)
	revisionRepo := data.NewRevisionRepository(db)
	authorRepo := data.NewAuthorRepository(db)
	fileRepo := data.NewFileRepository(db)
	userRepo := data.NewUserRepository(db)
	authRepo := data.NewAuthRepository(db)
	ratingRepo := data.NewRatingRepository(db)
	roleRepo := data.NewRoleRepository(db)

	// --- Services ---
	// Each wiki's history lives in its own git repository under the
	// revisions directory, named by slug.
	storeFactory := func(wiki *data.Wiki) service.PageStore {
		return revision.NewStore(filepath.Join(cfg.Storage.RevisionsDir, wiki.Slug), wiki.Domain)
	}
	pageService := service.NewPageService(pageRepo, revisionRepo, authorRepo, fileRepo, wikiRepo, storeFactory, log)
	wikiService := service.NewWikiService(wikiRepo, membershipRepo, pageService, log)
	userService := service.NewUserService(userRepo, log)
	authService := service.NewAuthService(authRepo, userRepo, time.Duration(cfg.Auth.SessionLifetime)*time.Hour, log)
	ratingService := service.NewRatingService(ratingRepo, pageRepo)
	roleService := service.NewRoleService(roleRepo, membershipRepo)

	if err := authService.LoadBlacklist(cfg.Auth.BlacklistFile); err != nil {
		log.Fatal(err, "Failed to load password blacklist")
	}

	// Open the revision stores of every known wiki before serving.
	log.Info("Warming wiki caches and revision stores...")
	if err := wikiService.Warm(context.Background()); err != nil {
		log.Fatal(err, "Failed to warm wiki caches")
	}

	// --- Handlers and Router ---
	handlers := handler.Handlers{
		Auth:   handler.NewAuthHandler(authService, log),
		User:   handler.NewUserHandler(userService, authService, log),
		Wiki:   handler.NewWikiHandler(wikiService, log),
		Page:   handler.NewPageHandler(pageService, wikiService, renderer, log),
		Role:   handler.NewRoleHandler(roleService, wikiService, log),
		Rating: handler.NewRatingHandler(ratingService, wikiService, log),
	}
	authn := middleware.Authenticator(authService, userService)
	authz := middleware.Authorizer(enforcer)
	router := handler.NewRouter(handlers, authn, authz, log)

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}
