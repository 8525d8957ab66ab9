package service

import (
	"context"
	"errors"

	"github.com/octobees/outreach-crm/internal/entity"
	"github.com/octobees/outreach-crm/internal/identity"
	"github.com/octobees/outreach-crm/internal/repository"
)

// MatchSignals carries the normalized identity signals used to locate an
// existing contact. CanonicalURL and RawURL are mutually exclusive: RawURL is
// only consulted when canonicalization failed.
type MatchSignals struct {
	CanonicalURL string
	RawURL       string
	FirstName    string
	LastName     string
	Company      string
}

// findExistingContact applies the matching precedence: canonical URL first,
// raw URL variants second, name plus company last. A profile URL is a far
// stronger identity signal than a human name, so a URL tier that finds
// nothing still falls through to the name tier, but a URL hit is never
// second-guessed. Returns (nil, nil) when no tier matches.
func findExistingContact(ctx context.Context, store repository.ContactsStore, signals MatchSignals) (*entity.Contact, error) {
	var variants []string
	switch {
	case signals.CanonicalURL != "":
		variants = identity.CanonicalVariants(signals.CanonicalURL)
	case signals.RawURL != "":
		variants = identity.FallbackVariants(signals.RawURL)
	}

	if len(variants) > 0 {
		contact, err := store.FindByURLVariants(ctx, variants)
		if err == nil {
			return contact, nil
		}
		if !errors.Is(err, repository.ErrContactNotFound) {
			return nil, err
		}
	}

	if signals.FirstName == "" || signals.LastName == "" {
		return nil, nil
	}

	contact, err := store.FindByName(ctx, signals.FirstName, signals.LastName, signals.Company)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return contact, nil
}
