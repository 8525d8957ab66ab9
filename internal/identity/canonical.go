// Package identity holds the pure matching-key helpers used by contact
// resolution: LinkedIn profile URL canonicalization and free-text cleanup.
package identity

import (
	"net/url"
	"regexp"
	"strings"
)

const canonicalProfilePrefix = "https://www.linkedin.com/in/"

// The slug must be the entire first path segment after /in/. Slugs with
// characters outside this class (dots, percent-encoded unicode) are not
// canonicalizable; truncating them would collapse distinct profiles onto
// one key.
var profileSlugPattern = regexp.MustCompile(`(?i)^/in/([a-z0-9_-]+)(?:/|$)`)

// CanonicalProfileURL normalizes a raw LinkedIn profile URL into the single
// canonical form https://www.linkedin.com/in/{slug}/ (lowercase slug, https,
// www host, exactly one trailing slash). The second return value is false when
// the input is not a recognizable LinkedIn profile URL, including profile
// slugs containing characters outside letters, digits, hyphen and underscore;
// callers are expected to fall back to raw-variant or name based matching in
// that case.
func CanonicalProfileURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(raw), "http://") && !strings.HasPrefix(strings.ToLower(raw), "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return "", false
	}

	match := profileSlugPattern.FindStringSubmatch(u.Path)
	if match == nil {
		return "", false
	}

	return canonicalProfilePrefix + strings.ToLower(match[1]) + "/", true
}

// CanonicalVariants returns the lookup forms matched against stored
// linkedin_url values for a canonical URL: https and legacy http, each with
// and without the trailing slash. Rows written before canonicalization was
// introduced may hold any of these. The result feeds a single `= ANY` query,
// so ordering carries no precedence.
func CanonicalVariants(canonical string) []string {
	trimmed := strings.TrimSuffix(canonical, "/")
	return dedupe([]string{
		canonical,
		trimmed,
		"http://" + strings.TrimPrefix(canonical, "https://"),
		"http://" + strings.TrimPrefix(trimmed, "https://"),
	})
}

// FallbackVariants builds a best-effort set of lookup forms for values that
// fail canonicalization but are still plausibly profile URLs (partial hosts,
// odd paths). It covers scheme, www, trailing-slash and query/fragment
// differences. Used only as a secondary matching key, never for storage.
func FallbackVariants(raw string) []string {
	base := strings.ToLower(strings.TrimSpace(raw))
	if base == "" {
		return nil
	}

	seeds := []string{base}
	if stripped := stripQueryFragment(base); stripped != base {
		seeds = append(seeds, stripped)
	}

	var variants []string
	for _, seed := range seeds {
		for _, slashed := range []string{seed, toggleTrailingSlash(seed)} {
			variants = append(variants, slashed)
			variants = append(variants, toggleScheme(slashed)...)
			variants = append(variants, toggleWWW(slashed)...)
		}
	}
	return dedupe(variants)
}

func stripQueryFragment(value string) string {
	if idx := strings.IndexAny(value, "?#"); idx >= 0 {
		return value[:idx]
	}
	return value
}

func toggleTrailingSlash(value string) string {
	if strings.HasSuffix(value, "/") {
		return strings.TrimSuffix(value, "/")
	}
	return value + "/"
}

func toggleScheme(value string) []string {
	switch {
	case strings.HasPrefix(value, "https://"):
		return []string{"http://" + strings.TrimPrefix(value, "https://")}
	case strings.HasPrefix(value, "http://"):
		return []string{"https://" + strings.TrimPrefix(value, "http://")}
	default:
		return []string{"https://" + value, "http://" + value}
	}
}

func toggleWWW(value string) []string {
	scheme := ""
	rest := value
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(value, prefix) {
			scheme = prefix
			rest = strings.TrimPrefix(value, prefix)
			break
		}
	}
	if strings.HasPrefix(rest, "www.") {
		return []string{scheme + strings.TrimPrefix(rest, "www.")}
	}
	return []string{scheme + "www." + rest}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
