package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/octobees/outreach-crm/internal/auth"
	"github.com/octobees/outreach-crm/internal/config"
	"github.com/octobees/outreach-crm/internal/database"
	"github.com/octobees/outreach-crm/internal/handler"
	middlewarepkg "github.com/octobees/outreach-crm/internal/middleware"
	"github.com/octobees/outreach-crm/internal/repository"
	"github.com/octobees/outreach-crm/internal/router"
	"github.com/octobees/outreach-crm/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	usersRepo := repository.NewPGXUsersRepository(pool)
	contactsRepo := repository.NewPGXContactsRepository(pool)

	authService := service.NewAuthService(usersRepo, jwtManager)
	userService := service.NewUserService(usersRepo)
	contactsService := service.NewContactsService(contactsRepo, cfg.PhoneRegion)

	httpClient := &http.Client{Timeout: 15 * time.Second}
	vendor := service.NewApolloClient(httpClient, cfg.ApolloBaseURL, cfg.ApolloAPIKey)
	enrichmentService := service.NewEnrichmentService(contactsService, vendor)

	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Users:    handler.NewUserAdminHandler(userService),
		Contacts: handler.NewContactsHandler(contactsService),
		Import:   handler.NewImportHandler(contactsService),
		Enrich:   handler.NewEnrichHandler(enrichmentService),
		Scrape:   handler.NewScrapeHandler(nil, cfg.WorkerBaseURL, contactsService),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
