package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/octobees/outreach-crm/internal/dto"
	"github.com/octobees/outreach-crm/internal/repository"
)

// CSVValidationError indicates that the provided CSV payload is invalid.
type CSVValidationError struct {
	Message string
}

// Error implements the error interface.
func (e CSVValidationError) Error() string {
	return e.Message
}

// ImportRowError records one row that could not be imported.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportSummary reports the per-row outcomes of a bulk import.
type ImportSummary struct {
	Created int              `json:"created"`
	Merged  int              `json:"merged"`
	Skipped int              `json:"skipped"`
	Failed  int              `json:"failed"`
	Total   int              `json:"total"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// vendor enrichment exports mark an address verified either explicitly or
// with a confidence score; at or above this threshold we trust it.
const importConfidenceThreshold = 0.9

var requiredCSVHeaders = []string{"first_name", "last_name"}

var optionalCSVHeaders = []string{"job_title", "company", "city", "state", "country", "category", "phone", "linkedin_url", "email", "email_status", "confidence"}

// ImportContactsCSV ingests contacts from a CSV reader, resolving each row
// through the engine in its own transaction. A bad row is recorded and
// skipped; it never rolls back previously imported rows or aborts the run.
func (s *ContactsService) ImportContactsCSV(ctx context.Context, r io.Reader) (ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ImportSummary{}, CSVValidationError{Message: "csv file is empty"}
		}
		return ImportSummary{}, fmt.Errorf("read csv header: %w", err)
	}

	indexMap, valErr := buildHeaderIndex(header)
	if valErr != nil {
		return ImportSummary{}, valErr
	}

	var (
		summary ImportSummary
		rowNum  = 1
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("read csv row: %w", err)
		}

		rowNum++
		summary.Total++

		firstName := cell(row, indexMap, "first_name")
		lastName := cell(row, indexMap, "last_name")
		if firstName == "" || lastName == "" {
			summary.Skipped++
			continue
		}

		req := dto.ContactRequest{
			FirstName:   firstName,
			LastName:    lastName,
			JobTitle:    cell(row, indexMap, "job_title"),
			Company:     cell(row, indexMap, "company"),
			City:        cell(row, indexMap, "city"),
			State:       cell(row, indexMap, "state"),
			Country:     cell(row, indexMap, "country"),
			Category:    cell(row, indexMap, "category"),
			Phone:       cell(row, indexMap, "phone"),
			LinkedInURL: cell(row, indexMap, "linkedin_url"),
		}
		if email := cell(row, indexMap, "email"); email != "" {
			req.Emails = []dto.EmailInput{{
				Address:  email,
				Verified: emailVerifiedFromVendor(cell(row, indexMap, "email_status"), cell(row, indexMap, "confidence")),
			}}
		}

		// CSV rows are a noisy source: contact-level trust stays false and
		// only the vendor email columns may mark an address verified.
		outcome, err := s.Resolve(ctx, req, SourceTrust{Verified: false})
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, ImportRowError{Row: rowNum, Reason: classifyImportError(err)})
			log.Printf("csv import: row %d failed: %v", rowNum, err)
			continue
		}

		if outcome.Created {
			summary.Created++
		} else {
			summary.Merged++
		}
	}

	return summary, nil
}

func buildHeaderIndex(header []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	missing := make([]string, 0)
	for _, required := range requiredCSVHeaders {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, CSVValidationError{Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))}
	}
	return index, nil
}

func cell(row []string, index map[string]int, column string) string {
	idx, ok := index[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func emailVerifiedFromVendor(status, confidence string) bool {
	if strings.EqualFold(strings.TrimSpace(status), "verified") {
		return true
	}
	if confidence = strings.TrimSpace(confidence); confidence != "" {
		if value, err := strconv.ParseFloat(confidence, 64); err == nil && value >= importConfidenceThreshold {
			return true
		}
	}
	return false
}

func classifyImportError(err error) string {
	switch {
	case errors.Is(err, repository.ErrContactDuplicate), errors.Is(err, repository.ErrContactEmailDuplicate):
		return "conflict: " + err.Error()
	default:
		var validationErr ValidationError
		if errors.As(err, &validationErr) {
			return "invalid: " + validationErr.Message
		}
		return err.Error()
	}
}
