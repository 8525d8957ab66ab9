package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/outreach-crm/internal/dto"
	"github.com/octobees/outreach-crm/internal/identity"
	middleware "github.com/octobees/outreach-crm/internal/middleware"
	"github.com/octobees/outreach-crm/internal/service"
)

// ScrapeHandler forwards profile scrape jobs to the worker service and
// ingests the scraped results through the resolution engine.
type ScrapeHandler struct {
	worker          WorkerPoster
	contactsService *service.ContactsService
}

// NewScrapeHandler constructs a scrape handler backed by an HTTP client.
// If `client == nil`, it automatically creates an ID-token client for Cloud Run → Cloud Run calls.
func NewScrapeHandler(client *http.Client, workerBaseURL string, contactsService *service.ContactsService) *ScrapeHandler {
	return &ScrapeHandler{worker: NewWorkerClient(client, workerBaseURL), contactsService: contactsService}
}

// NewScrapeHandlerWithWorker allows injecting a custom worker client (useful for tests).
func NewScrapeHandlerWithWorker(worker WorkerPoster, contactsService *service.ContactsService) *ScrapeHandler {
	return &ScrapeHandler{worker: worker, contactsService: contactsService}
}

// Enqueue handles POST /scrape-profile requests and forwards them to the worker.
func (h *ScrapeHandler) Enqueue(c echo.Context) error {
	var req dto.ScrapeProfileRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	req.ProfileURL = strings.TrimSpace(req.ProfileURL)
	if req.ProfileURL == "" {
		return Error(c, http.StatusBadRequest, "profile_url is required")
	}

	// Hand the worker the canonical form when we can compute one so the
	// result posted back matches on the strongest key.
	if canonical, ok := identity.CanonicalProfileURL(req.ProfileURL); ok {
		req.ProfileURL = canonical
	}

	payload := map[string]any{"profile_url": req.ProfileURL}

	ctx := c.Request().Context()
	data, err := h.worker.PostJSON(ctx, "/scrape-profile", payload, middleware.RequestIDFromContext(c))
	if err != nil {
		return Error(c, http.StatusBadGateway, err.Error())
	}
	if data == nil {
		data = map[string]any{"status": "queued"}
	}
	return Success(c, http.StatusOK, "profile scrape queued", data)
}

// SaveResult handles POST /scrape-result requests posted back by the worker.
// Scraped fields are noisy, so the payload carries unverified trust.
func (h *ScrapeHandler) SaveResult(c echo.Context) error {
	var req dto.ScrapeResultRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	if strings.TrimSpace(req.ProfileURL) == "" {
		return Error(c, http.StatusBadRequest, "profile_url is required")
	}

	contactReq := dto.ContactRequest{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		JobTitle:    req.Headline,
		Company:     req.Company,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		LinkedInURL: req.ProfileURL,
	}
	for _, address := range req.Emails {
		contactReq.Emails = append(contactReq.Emails, dto.EmailInput{Address: address})
	}

	outcome, err := h.contactsService.Resolve(c.Request().Context(), contactReq, service.SourceTrust{Verified: false})
	if err != nil {
		return contactError(c, err, "failed to persist scraped profile")
	}

	return Success(c, http.StatusOK, "scrape result stored", outcome)
}
