// Package scoring rates how ready a contact is for outreach based on the
// identity and reachability signals accumulated by merges.
package scoring

import "strings"

const (
	categoryIdentity     = "identity_confidence"
	categoryReachability = "reachability"
	categoryProfile      = "profile_completeness"
)

// ContactFeatures captures the resolution signals used for scoring.
type ContactFeatures struct {
	LinkedInURL    string
	IsVerified     bool
	TotalEmails    int
	VerifiedEmails int
	HasPrimary     bool
	Phone          string
	JobTitle       string
	Company        string
	City           string
	Country        string
	Category       string
}

// ScoreResult reports the aggregate score and the per-category breakdown.
type ScoreResult struct {
	Total     int            `json:"total"`
	Breakdown map[string]int `json:"breakdown"`
}

// ComputeScore evaluates the provided features and returns the score
// breakdown. Totals cap at 100.
func ComputeScore(input ContactFeatures) ScoreResult {
	breakdown := map[string]int{
		categoryIdentity:     scoreIdentityConfidence(input),
		categoryReachability: scoreReachability(input),
		categoryProfile:      scoreProfileCompleteness(input),
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}

	return ScoreResult{
		Total:     total,
		Breakdown: breakdown,
	}
}

// scoreIdentityConfidence weighs the strength of the identity match keys. A
// canonical profile URL dominates because slugs collide far less often than
// names.
func scoreIdentityConfidence(input ContactFeatures) int {
	score := 0
	if canonicalProfile(input.LinkedInURL) {
		score += 25
	} else if strings.TrimSpace(input.LinkedInURL) != "" {
		score += 10
	}
	if input.IsVerified {
		score += 15
	}
	if score > 40 {
		return 40
	}
	return score
}

func scoreReachability(input ContactFeatures) int {
	score := 0
	if input.HasPrimary {
		score += 10
	}
	if input.VerifiedEmails > 0 {
		score += 15
	}
	if input.TotalEmails > 1 {
		score += 5
	}
	if strings.TrimSpace(input.Phone) != "" {
		score += 10
	}
	if score > 40 {
		return 40
	}
	return score
}

func scoreProfileCompleteness(input ContactFeatures) int {
	score := 0
	if strings.TrimSpace(input.JobTitle) != "" {
		score += 5
	}
	if strings.TrimSpace(input.Company) != "" {
		score += 5
	}
	if strings.TrimSpace(input.City) != "" || strings.TrimSpace(input.Country) != "" {
		score += 5
	}
	if strings.TrimSpace(input.Category) != "" {
		score += 5
	}
	if score > 20 {
		return 20
	}
	return score
}

func canonicalProfile(url string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(url)), "https://www.linkedin.com/in/")
}
