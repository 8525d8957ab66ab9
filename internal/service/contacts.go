package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/octobees/outreach-crm/internal/dto"
	"github.com/octobees/outreach-crm/internal/entity"
	"github.com/octobees/outreach-crm/internal/identity"
	"github.com/octobees/outreach-crm/internal/repository"
)

// ValidationError indicates that a contact payload failed the identity
// checks before any storage access was attempted.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return e.Message
}

// ContactsService runs the identity resolution engine: every ingestion entry
// point funnels through Resolve, which matches, merges and attaches emails
// inside a single transaction.
type ContactsService struct {
	repo        repository.ContactsRepository
	phoneRegion string
}

// ResolveOutcome reports the authoritative post-merge state and whether the
// payload created a new contact or merged into an existing one.
type ResolveOutcome struct {
	Contact entity.ContactWithEmails `json:"contact"`
	Created bool                     `json:"created"`
}

// NewContactsService creates a new instance of ContactsService.
func NewContactsService(repo repository.ContactsRepository, phoneRegion string) *ContactsService {
	if strings.TrimSpace(phoneRegion) == "" {
		phoneRegion = "US"
	}
	return &ContactsService{repo: repo, phoneRegion: phoneRegion}
}

// Resolve decides whether the payload describes a new person or an already
// known one and merges accordingly. The whole match → merge-contact →
// merge-emails sequence runs in one transaction; a failure anywhere rolls
// back the contact and its email set together.
func (s *ContactsService) Resolve(ctx context.Context, req dto.ContactRequest, trust SourceTrust) (*ResolveOutcome, error) {
	fields, signals, err := s.normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	var outcome ResolveOutcome
	err = s.repo.InTx(ctx, func(store repository.ContactsStore) error {
		existing, err := findExistingContact(ctx, store, signals)
		if err != nil {
			return err
		}

		var contact *entity.Contact
		if existing == nil {
			contact, err = store.Insert(ctx, newContact(fields, trust))
			if err != nil {
				return err
			}
			outcome.Created = true
		} else {
			contact, err = store.Update(ctx, existing.ID, buildMergePatch(existing, fields, trust))
			if err != nil {
				return err
			}
		}

		// Email merge depends on the post-merge contact id, hence the fixed
		// ordering inside the transaction.
		for _, email := range req.Emails {
			emailTrust := SourceTrust{Verified: trust.Verified || email.Verified}
			if err := mergeEmail(ctx, store, contact.ID, email.Address, emailTrust); err != nil {
				return err
			}
		}

		emails, err := store.ListEmails(ctx, contact.ID)
		if err != nil {
			return err
		}

		outcome.Contact = entity.ContactWithEmails{Contact: *contact, Emails: emails}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &outcome, nil
}

// Lookup finds a contact by profile URL with a name/company fallback and
// returns it with its emails. Read-only: the merger is never invoked.
func (s *ContactsService) Lookup(ctx context.Context, rawURL, firstName, lastName, company string) (*entity.ContactWithEmails, error) {
	signals := MatchSignals{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Company:   identity.CompanyName(company),
	}
	if rawURL = strings.TrimSpace(rawURL); rawURL != "" {
		if canonical, ok := identity.CanonicalProfileURL(rawURL); ok {
			signals.CanonicalURL = canonical
		} else {
			signals.RawURL = rawURL
		}
	}

	if signals.CanonicalURL == "" && signals.RawURL == "" && (signals.FirstName == "" || signals.LastName == "") {
		return nil, ValidationError{Message: "linkedin_url or first_name and last_name are required"}
	}

	contact, err := findExistingContact(ctx, s.repo, signals)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, repository.ErrContactNotFound
	}

	emails, err := s.repo.ListEmails(ctx, contact.ID)
	if err != nil {
		return nil, err
	}
	return &entity.ContactWithEmails{Contact: *contact, Emails: emails}, nil
}

// GetContact fetches one contact with its email set.
func (s *ContactsService) GetContact(ctx context.Context, id uuid.UUID) (*entity.ContactWithEmails, error) {
	contact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	emails, err := s.repo.ListEmails(ctx, contact.ID)
	if err != nil {
		return nil, err
	}
	return &entity.ContactWithEmails{Contact: *contact, Emails: emails}, nil
}

// ListContacts returns contacts respecting pagination defaults.
func (s *ContactsService) ListContacts(ctx context.Context, filter dto.ListFilter) ([]entity.Contact, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.repo.List(ctx, filter)
}

// normalizeRequest validates identity fields and consolidates the per-call
// normalization: company noise stripping, phone E.164, URL canonicalization.
func (s *ContactsService) normalizeRequest(req dto.ContactRequest) (contactFields, MatchSignals, error) {
	fields := contactFields{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		JobTitle:  strings.TrimSpace(req.JobTitle),
		Company:   identity.CompanyName(req.Company),
		City:      strings.TrimSpace(req.City),
		State:     strings.TrimSpace(req.State),
		Country:   strings.TrimSpace(req.Country),
		Category:  strings.TrimSpace(req.Category),
		Phone:     identity.PhoneNumber(req.Phone, s.phoneRegion),
	}

	if fields.FirstName == "" || fields.LastName == "" {
		return contactFields{}, MatchSignals{}, ValidationError{Message: "first_name and last_name are required"}
	}

	signals := MatchSignals{
		FirstName: fields.FirstName,
		LastName:  fields.LastName,
		Company:   fields.Company,
	}

	if rawURL := strings.TrimSpace(req.LinkedInURL); rawURL != "" {
		if canonical, ok := identity.CanonicalProfileURL(rawURL); ok {
			signals.CanonicalURL = canonical
			fields.LinkedInURL = canonical
		} else {
			// Not canonicalizable but still worth keeping as-is for display
			// and as a secondary match key.
			signals.RawURL = rawURL
			fields.LinkedInURL = rawURL
		}
	}

	for _, email := range req.Emails {
		addr := identity.EmailAddress(email.Address)
		if addr != "" && !identity.ValidEmail(addr) {
			return contactFields{}, MatchSignals{}, ValidationError{Message: fmt.Sprintf("invalid email address %q", email.Address)}
		}
	}

	return fields, signals, nil
}
