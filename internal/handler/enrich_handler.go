package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/outreach-crm/internal/dto"
	"github.com/octobees/outreach-crm/internal/repository"
	"github.com/octobees/outreach-crm/internal/service"
)

// EnrichHandler triggers vendor person enrichment and reconciles the result
// with local contacts.
type EnrichHandler struct {
	enrichmentService *service.EnrichmentService
}

// NewEnrichHandler wires a new EnrichHandler instance.
func NewEnrichHandler(enrichmentService *service.EnrichmentService) *EnrichHandler {
	return &EnrichHandler{enrichmentService: enrichmentService}
}

// Enrich handles POST /contacts/enrich requests.
func (h *EnrichHandler) Enrich(c echo.Context) error {
	var req dto.EnrichContactRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	outcome, err := h.enrichmentService.EnrichContact(c.Request().Context(), req)
	if err != nil {
		var validationErr service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return Error(c, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, service.ErrVendorNoMatch):
			return Error(c, http.StatusNotFound, "no matching person at vendor")
		case errors.Is(err, repository.ErrContactDuplicate), errors.Is(err, repository.ErrContactEmailDuplicate):
			return Error(c, http.StatusConflict, "contact already exists")
		default:
			return Error(c, http.StatusBadGateway, "failed to enrich contact")
		}
	}

	message := "contact enriched"
	if outcome.Created {
		message = "contact created from vendor record"
	}
	return Success(c, http.StatusOK, message, outcome)
}
