package dto

// ScrapeProfileRequest asks the worker to scrape one LinkedIn profile.
type ScrapeProfileRequest struct {
	ProfileURL string `json:"profile_url"`
}

// ScrapeResultRequest is the payload posted back by the worker after scraping
// a profile page. Free-text fields carry scraping noise and are normalized
// before matching.
type ScrapeResultRequest struct {
	ProfileURL string   `json:"profile_url"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Headline   string   `json:"headline,omitempty"`
	Company    string   `json:"company,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	Country    string   `json:"country,omitempty"`
	Emails     []string `json:"emails,omitempty"`
}
