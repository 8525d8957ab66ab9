package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/outreach-crm/internal/auth"
	"github.com/octobees/outreach-crm/internal/config"
	"github.com/octobees/outreach-crm/internal/handler"
	middlewarepkg "github.com/octobees/outreach-crm/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserAdminHandler
	Contacts *handler.ContactsHandler
	Import   *handler.ImportHandler
	Enrich   *handler.EnrichHandler
	Scrape   *handler.ScrapeHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/register", handlers.Auth.Register)
	e.POST("/auth/login", handlers.Auth.Login)

	e.GET("/contacts", handlers.Contacts.List)
	e.GET("/contacts/lookup", handlers.Contacts.Lookup)
	e.GET("/contacts/:id", handlers.Contacts.Get)

	// The worker posts scraped profiles back without a user token.
	e.POST("/scrape-result", handlers.Scrape.SaveResult)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"))
	admin.POST("/import-csv", handlers.Import.UploadCSV)
	admin.GET("/users", handlers.Users.List)
	admin.POST("/users", handlers.Users.Create)
	admin.PATCH("/users/:id", handlers.Users.Update)
	admin.DELETE("/users/:id", handlers.Users.Delete)

	secured.POST("/contacts", handlers.Contacts.Create)

	limiter := middlewarepkg.RateLimiter(cfg.RateLimitScrape, "/contacts/enrich", "/scrape-profile")
	secured.POST("/contacts/enrich", handlers.Enrich.Enrich, limiter)
	secured.POST("/scrape-profile", handlers.Scrape.Enqueue, limiter)
}
