package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/octobees/outreach-crm/internal/dto"
)

// ErrVendorNoMatch indicates the vendor found no person for the request.
var ErrVendorNoMatch = errors.New("vendor found no matching person")

// VendorClient fetches person records from the enrichment vendor.
type VendorClient interface {
	MatchPerson(ctx context.Context, req dto.EnrichContactRequest) (*dto.VendorPerson, error)
}

// ApolloClient implements VendorClient against an Apollo-style people API.
type ApolloClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewApolloClient builds a vendor client for the given base URL and API key.
func NewApolloClient(client *http.Client, baseURL, apiKey string) *ApolloClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ApolloClient{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

// MatchPerson calls the vendor people-match endpoint.
func (c *ApolloClient) MatchPerson(ctx context.Context, req dto.EnrichContactRequest) (*dto.VendorPerson, error) {
	payload := map[string]any{}
	if req.LinkedInURL != "" {
		payload["linkedin_url"] = req.LinkedInURL
	}
	if req.FirstName != "" {
		payload["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		payload["last_name"] = req.LastName
	}
	if req.Company != "" {
		payload["organization_name"] = req.Company
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal vendor payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/people/match", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create vendor request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("vendor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrVendorNoMatch
	}
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("vendor error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var vendorResp struct {
		Person *dto.VendorPerson `json:"person"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&vendorResp); err != nil {
		return nil, fmt.Errorf("decode vendor response: %w", err)
	}
	if vendorResp.Person == nil {
		return nil, ErrVendorNoMatch
	}
	return vendorResp.Person, nil
}

var _ VendorClient = (*ApolloClient)(nil)

// EnrichmentService reconciles vendor person records with local contacts.
type EnrichmentService struct {
	contacts *ContactsService
	vendor   VendorClient
}

// NewEnrichmentService wires the enrichment flow.
func NewEnrichmentService(contacts *ContactsService, vendor VendorClient) *EnrichmentService {
	return &EnrichmentService{contacts: contacts, vendor: vendor}
}

// EnrichContact looks the person up at the vendor and resolves the response
// through the engine. The vendor is authoritative for email validity, so
// every field from this source carries verified trust.
func (s *EnrichmentService) EnrichContact(ctx context.Context, req dto.EnrichContactRequest) (*ResolveOutcome, error) {
	req.LinkedInURL = strings.TrimSpace(req.LinkedInURL)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Company = strings.TrimSpace(req.Company)

	if req.LinkedInURL == "" && (req.FirstName == "" || req.LastName == "") {
		return nil, ValidationError{Message: "linkedin_url or first_name and last_name are required"}
	}

	person, err := s.vendor.MatchPerson(ctx, req)
	if err != nil {
		return nil, err
	}

	contactReq := dto.ContactRequest{
		FirstName:   person.FirstName,
		LastName:    person.LastName,
		JobTitle:    person.Title,
		Company:     person.Organization,
		City:        person.City,
		State:       person.State,
		Country:     person.Country,
		Phone:       person.Phone,
		LinkedInURL: person.LinkedInURL,
	}
	// The vendor occasionally omits names on URL-keyed matches; fall back to
	// the request so the required-identity validation still holds.
	if contactReq.FirstName == "" {
		contactReq.FirstName = req.FirstName
	}
	if contactReq.LastName == "" {
		contactReq.LastName = req.LastName
	}
	if contactReq.LinkedInURL == "" {
		contactReq.LinkedInURL = req.LinkedInURL
	}
	if person.Email != "" {
		contactReq.Emails = []dto.EmailInput{{Address: person.Email, Verified: true}}
	}

	return s.contacts.Resolve(ctx, contactReq, SourceTrust{Verified: true})
}
