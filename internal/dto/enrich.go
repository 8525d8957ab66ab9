package dto

// EnrichContactRequest identifies the person to enrich through the vendor
// people API. A LinkedIn URL is preferred; name plus company is the fallback.
type EnrichContactRequest struct {
	LinkedInURL string `json:"linkedin_url,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Company     string `json:"company,omitempty"`
}

// VendorPerson is the person record returned by the enrichment vendor. Every
// field from this source is treated as verified: the vendor is considered
// authoritative for email validity.
type VendorPerson struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Title        string `json:"title,omitempty"`
	Organization string `json:"organization_name,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Country      string `json:"country,omitempty"`
	LinkedInURL  string `json:"linkedin_url,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}
