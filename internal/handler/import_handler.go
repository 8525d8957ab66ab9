package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/outreach-crm/internal/service"
)

// ImportHandler handles CSV contact ingestion for administrators.
type ImportHandler struct {
	contactsService *service.ContactsService
}

// NewImportHandler wires a handler backed by the contacts service.
func NewImportHandler(contactsService *service.ContactsService) *ImportHandler {
	return &ImportHandler{contactsService: contactsService}
}

// UploadCSV handles POST /admin/import-csv requests. Each row is resolved in
// its own transaction; the summary reports created, merged, skipped and
// failed rows so a single bad row never aborts the run.
func (h *ImportHandler) UploadCSV(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing csv file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	summary, err := h.contactsService.ImportContactsCSV(c.Request().Context(), file)
	if err != nil {
		var validationErr service.CSVValidationError
		if errors.As(err, &validationErr) {
			return Error(c, http.StatusBadRequest, validationErr.Error())
		}
		return Error(c, http.StatusInternalServerError, "failed to process csv")
	}

	return Success(c, http.StatusOK, "contacts CSV processed", summary)
}
