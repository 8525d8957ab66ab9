package entity

import (
	"time"

	"github.com/google/uuid"
)

// Contact represents a person known to the CRM. First and last name are the
// only required identity fields; everything else is filled in over time by
// merges from manual entry, CSV imports, scraping and vendor enrichment.
type Contact struct {
	ID          uuid.UUID  `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	JobTitle    *string    `json:"job_title,omitempty"`
	Company     *string    `json:"company,omitempty"`
	City        *string    `json:"city,omitempty"`
	State       *string    `json:"state,omitempty"`
	Country     *string    `json:"country,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	LinkedInURL *string    `json:"linkedin_url,omitempty"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ContactEmail is one address belonging to exactly one contact. At most one
// email per contact is primary; the first address ever attached wins.
type ContactEmail struct {
	ID         uuid.UUID `json:"id"`
	ContactID  uuid.UUID `json:"contact_id"`
	Email      string    `json:"email"`
	IsPrimary  bool      `json:"is_primary"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ContactWithEmails bundles a contact with its full email set for responses.
type ContactWithEmails struct {
	Contact
	Emails []ContactEmail `json:"emails"`
}
