package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/outreach-crm/internal/dto"
	"github.com/octobees/outreach-crm/internal/entity"
	"github.com/octobees/outreach-crm/internal/repository"
	"github.com/octobees/outreach-crm/internal/service"
	"github.com/octobees/outreach-crm/internal/service/scoring"
)

// ContactsHandler exposes the contact resolution endpoints.
type ContactsHandler struct {
	service *service.ContactsService
}

// NewContactsHandler creates a new handler instance.
func NewContactsHandler(service *service.ContactsService) *ContactsHandler {
	return &ContactsHandler{service: service}
}

// Create handles POST /contacts requests. The payload is resolved through
// the engine, so posting an already-known person merges instead of
// duplicating.
func (h *ContactsHandler) Create(c echo.Context) error {
	var req dto.ContactRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	outcome, err := h.service.Resolve(c.Request().Context(), req, service.SourceTrust{Verified: req.IsVerified})
	if err != nil {
		return contactError(c, err, "failed to save contact")
	}

	status := http.StatusOK
	message := "contact merged"
	if outcome.Created {
		status = http.StatusCreated
		message = "contact created"
	}
	return Success(c, status, message, outcome)
}

// List handles GET /contacts requests.
func (h *ContactsHandler) List(c echo.Context) error {
	filter := dto.ListFilter{
		Q:        strings.TrimSpace(c.QueryParam("q")),
		Company:  strings.TrimSpace(c.QueryParam("company")),
		City:     strings.TrimSpace(c.QueryParam("city")),
		Country:  strings.TrimSpace(c.QueryParam("country")),
		Category: strings.TrimSpace(c.QueryParam("category")),
		Page:     parseIntDefault(c.QueryParam("page"), 1),
		PerPage:  parseIntDefault(c.QueryParam("per_page"), 20),
	}

	if verifiedStr := strings.TrimSpace(c.QueryParam("verified")); verifiedStr != "" {
		verified, err := strconv.ParseBool(verifiedStr)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid verified flag")
		}
		filter.Verified = &verified
	}

	if updatedSinceStr := strings.TrimSpace(c.QueryParam("updated_since")); updatedSinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, updatedSinceStr)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid updated_since (use RFC3339)")
		}
		filter.UpdatedSince = &parsed
	}

	contacts, err := h.service.ListContacts(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list contacts")
	}

	return Success(c, http.StatusOK, "contacts retrieved", contacts)
}

// Get handles GET /contacts/:id requests.
func (h *ContactsHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid contact id")
	}

	contact, err := h.service.GetContact(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return Error(c, http.StatusNotFound, "contact not found")
		}
		return Error(c, http.StatusInternalServerError, "failed to fetch contact")
	}

	return Success(c, http.StatusOK, "contact retrieved", map[string]any{
		"contact": contact,
		"score":   outreachScore(contact),
	})
}

// Lookup handles GET /contacts/lookup requests: a read-only match by profile
// URL with a name/company fallback. It never merges.
func (h *ContactsHandler) Lookup(c echo.Context) error {
	contact, err := h.service.Lookup(
		c.Request().Context(),
		c.QueryParam("linkedin_url"),
		c.QueryParam("first_name"),
		c.QueryParam("last_name"),
		c.QueryParam("company"),
	)
	if err != nil {
		var validationErr service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return Error(c, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, repository.ErrContactNotFound):
			return Error(c, http.StatusNotFound, "contact not found")
		default:
			return Error(c, http.StatusInternalServerError, "failed to look up contact")
		}
	}

	return Success(c, http.StatusOK, "contact found", map[string]any{
		"contact": contact,
		"score":   outreachScore(contact),
	})
}

func contactError(c echo.Context, err error, fallback string) error {
	var validationErr service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return Error(c, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, repository.ErrContactDuplicate), errors.Is(err, repository.ErrContactEmailDuplicate):
		return Error(c, http.StatusConflict, "contact already exists")
	default:
		return Error(c, http.StatusInternalServerError, fallback)
	}
}

func outreachScore(contact *entity.ContactWithEmails) scoring.ScoreResult {
	features := scoring.ContactFeatures{
		IsVerified:  contact.IsVerified,
		TotalEmails: len(contact.Emails),
	}
	if contact.LinkedInURL != nil {
		features.LinkedInURL = *contact.LinkedInURL
	}
	if contact.Phone != nil {
		features.Phone = *contact.Phone
	}
	if contact.JobTitle != nil {
		features.JobTitle = *contact.JobTitle
	}
	if contact.Company != nil {
		features.Company = *contact.Company
	}
	if contact.City != nil {
		features.City = *contact.City
	}
	if contact.Country != nil {
		features.Country = *contact.Country
	}
	if contact.Category != nil {
		features.Category = *contact.Category
	}
	for _, email := range contact.Emails {
		if email.IsPrimary {
			features.HasPrimary = true
		}
		if email.IsVerified {
			features.VerifiedEmails++
		}
	}
	return scoring.ComputeScore(features)
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}
