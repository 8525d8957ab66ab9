package dto

import "time"

// EmailInput is a single address supplied alongside a contact payload.
type EmailInput struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified,omitempty"`
}

// ContactRequest is the shared field shape accepted by every ingestion entry
// point: interactive creation, CSV rows and scrape results all map onto it.
type ContactRequest struct {
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	JobTitle    string       `json:"job_title,omitempty"`
	Company     string       `json:"company,omitempty"`
	City        string       `json:"city,omitempty"`
	State       string       `json:"state,omitempty"`
	Country     string       `json:"country,omitempty"`
	Category    string       `json:"category,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	LinkedInURL string       `json:"linkedin_url,omitempty"`
	Emails      []EmailInput `json:"emails,omitempty"`
	IsVerified  bool         `json:"is_verified,omitempty"`
}

// ListFilter contains query parameters for contact listing endpoints.
type ListFilter struct {
	Q            string
	Company      string
	City         string
	Country      string
	Category     string
	Verified     *bool
	UpdatedSince *time.Time
	Page         int
	PerPage      int
}
