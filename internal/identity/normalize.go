package identity

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

// companySeparators are the scraping-noise delimiters seen in free-text
// company fields ("Acme Corp · Full-time", "Acme | Hiring!").
var companySeparators = []string{"·", "|", ","}

// CompanyName strips scraping noise from a raw company string: everything
// after the first separator is dropped, internal whitespace is collapsed.
// Empty or missing input yields an empty string.
func CompanyName(raw string) string {
	cut := raw
	for _, sep := range companySeparators {
		if idx := strings.Index(cut, sep); idx >= 0 {
			cut = cut[:idx]
		}
	}
	return strings.Join(strings.Fields(cut), " ")
}

// EmailAddress normalizes an address for comparison and storage.
func EmailAddress(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidEmail reports whether the normalized address has plausible syntax and
// an IDNA-mappable domain. It performs no network lookups.
func ValidEmail(address string) bool {
	address = EmailAddress(address)
	if !emailPattern.MatchString(address) {
		return false
	}
	domain := address[strings.LastIndex(address, "@")+1:]
	if !validDomainShape(domain) {
		return false
	}
	ascii, err := idnaProfile.ToASCII(domain)
	return err == nil && ascii != ""
}

// PhoneNumber normalizes a phone into E.164, or returns an empty string when
// the input cannot be parsed as a valid number for the region.
func PhoneNumber(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	number, err := phonenumbers.Parse(raw, strings.ToUpper(strings.TrimSpace(region)))
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func validDomainShape(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	for _, part := range strings.Split(domain, ".") {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}
