package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/octobees/outreach-crm/internal/entity"
	"github.com/octobees/outreach-crm/internal/identity"
	"github.com/octobees/outreach-crm/internal/repository"
)

// SourceTrust describes how much the calling source is trusted. Vendor
// enrichment passes Verified true; scraped and CSV data pass false.
type SourceTrust struct {
	Verified bool
}

// contactFields is the normalized field set a merge may contribute.
type contactFields struct {
	FirstName   string
	LastName    string
	JobTitle    string
	Company     string
	City        string
	State       string
	Country     string
	Category    string
	Phone       string
	LinkedInURL string
}

// buildMergePatch computes the fill-gaps patch for an existing contact:
// an incoming value is written only when the stored value is empty, so a
// later, noisier source never degrades an earlier, cleaner one. is_verified
// is the one exception: it may be promoted unconditionally, never demoted.
func buildMergePatch(existing *entity.Contact, incoming contactFields, trust SourceTrust) repository.ContactPatch {
	patch := repository.ContactPatch{}

	fillGap := func(current *string, value string) *string {
		if value == "" {
			return nil
		}
		if current != nil && *current != "" {
			return nil
		}
		return &value
	}

	patch.JobTitle = fillGap(existing.JobTitle, incoming.JobTitle)
	patch.Company = fillGap(existing.Company, incoming.Company)
	patch.City = fillGap(existing.City, incoming.City)
	patch.State = fillGap(existing.State, incoming.State)
	patch.Country = fillGap(existing.Country, incoming.Country)
	patch.Category = fillGap(existing.Category, incoming.Category)
	patch.Phone = fillGap(existing.Phone, incoming.Phone)
	patch.LinkedInURL = fillGap(existing.LinkedInURL, incoming.LinkedInURL)

	if trust.Verified && !existing.IsVerified {
		verified := true
		patch.Verified = &verified
	}

	return patch
}

// newContact builds the insert payload for a previously unknown person.
func newContact(incoming contactFields, trust SourceTrust) *entity.Contact {
	contact := &entity.Contact{
		FirstName:  incoming.FirstName,
		LastName:   incoming.LastName,
		IsVerified: trust.Verified,
	}
	contact.JobTitle = ptrOrNil(incoming.JobTitle)
	contact.Company = ptrOrNil(incoming.Company)
	contact.City = ptrOrNil(incoming.City)
	contact.State = ptrOrNil(incoming.State)
	contact.Country = ptrOrNil(incoming.Country)
	contact.Category = ptrOrNil(incoming.Category)
	contact.Phone = ptrOrNil(incoming.Phone)
	contact.LinkedInURL = ptrOrNil(incoming.LinkedInURL)
	return contact
}

// mergeEmail upserts one (contact, address) pair. Re-adding an existing
// address is a no-op apart from a possible verified promotion; a new address
// is inserted with the primary flag decided inside the current transaction.
func mergeEmail(ctx context.Context, store repository.ContactsStore, contactID uuid.UUID, address string, trust SourceTrust) error {
	address = identity.EmailAddress(address)
	if address == "" {
		return nil
	}

	existing, err := store.FindEmail(ctx, contactID, address)
	if err == nil {
		if trust.Verified && !existing.IsVerified {
			return store.MarkEmailVerified(ctx, existing.ID)
		}
		return nil
	}
	if !errors.Is(err, repository.ErrEmailNotFound) {
		return err
	}

	_, err = store.InsertEmail(ctx, contactID, address, trust.Verified)
	return err
}

func ptrOrNil(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
