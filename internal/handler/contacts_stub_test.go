package handler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/outreach-crm/internal/dto"
	"github.com/octobees/outreach-crm/internal/entity"
	"github.com/octobees/outreach-crm/internal/repository"
)

// stubContactsRepo is a small in-memory ContactsRepository backing the
// handler tests through a real ContactsService.
type stubContactsRepo struct {
	contacts []entity.Contact
	emails   []entity.ContactEmail
	listErr  error
}

func (s *stubContactsRepo) InTx(ctx context.Context, fn func(repository.ContactsStore) error) error {
	return fn(s)
}

func (s *stubContactsRepo) FindByURLVariants(ctx context.Context, variants []string) (*entity.Contact, error) {
	set := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		set[v] = struct{}{}
	}
	for i := range s.contacts {
		c := s.contacts[i]
		if c.LinkedInURL == nil {
			continue
		}
		if _, ok := set[strings.ToLower(*c.LinkedInURL)]; ok {
			copied := c
			return &copied, nil
		}
	}
	return nil, repository.ErrContactNotFound
}

func (s *stubContactsRepo) FindByName(ctx context.Context, firstName, lastName, company string) (*entity.Contact, error) {
	for i := range s.contacts {
		c := s.contacts[i]
		if strings.EqualFold(c.FirstName, firstName) && strings.EqualFold(c.LastName, lastName) {
			copied := c
			return &copied, nil
		}
	}
	return nil, repository.ErrContactNotFound
}

func (s *stubContactsRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Contact, error) {
	for i := range s.contacts {
		if s.contacts[i].ID == id {
			copied := s.contacts[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrContactNotFound
}

func (s *stubContactsRepo) Insert(ctx context.Context, contact *entity.Contact) (*entity.Contact, error) {
	now := time.Now()
	copied := *contact
	copied.ID = uuid.New()
	copied.CreatedAt = now
	copied.UpdatedAt = now
	s.contacts = append(s.contacts, copied)
	result := copied
	return &result, nil
}

func (s *stubContactsRepo) Update(ctx context.Context, id uuid.UUID, patch repository.ContactPatch) (*entity.Contact, error) {
	for i := range s.contacts {
		if s.contacts[i].ID != id {
			continue
		}
		c := &s.contacts[i]
		if patch.JobTitle != nil {
			c.JobTitle = patch.JobTitle
		}
		if patch.Company != nil {
			c.Company = patch.Company
		}
		if patch.Phone != nil {
			c.Phone = patch.Phone
		}
		if patch.LinkedInURL != nil {
			c.LinkedInURL = patch.LinkedInURL
		}
		if patch.Verified != nil {
			c.IsVerified = *patch.Verified
		}
		c.UpdatedAt = time.Now()
		copied := *c
		return &copied, nil
	}
	return nil, repository.ErrContactNotFound
}

func (s *stubContactsRepo) List(ctx context.Context, filter dto.ListFilter) ([]entity.Contact, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.contacts, nil
}

func (s *stubContactsRepo) ListEmails(ctx context.Context, contactID uuid.UUID) ([]entity.ContactEmail, error) {
	var out []entity.ContactEmail
	for _, e := range s.emails {
		if e.ContactID == contactID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubContactsRepo) FindEmail(ctx context.Context, contactID uuid.UUID, address string) (*entity.ContactEmail, error) {
	for i := range s.emails {
		if s.emails[i].ContactID == contactID && s.emails[i].Email == address {
			copied := s.emails[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrEmailNotFound
}

func (s *stubContactsRepo) InsertEmail(ctx context.Context, contactID uuid.UUID, address string, verified bool) (*entity.ContactEmail, error) {
	hasAny := false
	for _, e := range s.emails {
		if e.ContactID == contactID {
			if e.Email == address {
				return nil, repository.ErrContactEmailDuplicate
			}
			hasAny = true
		}
	}
	now := time.Now()
	email := entity.ContactEmail{
		ID:         uuid.New(),
		ContactID:  contactID,
		Email:      address,
		IsPrimary:  !hasAny,
		IsVerified: verified,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.emails = append(s.emails, email)
	copied := email
	return &copied, nil
}

func (s *stubContactsRepo) MarkEmailVerified(ctx context.Context, emailID uuid.UUID) error {
	for i := range s.emails {
		if s.emails[i].ID == emailID {
			s.emails[i].IsVerified = true
			return nil
		}
	}
	return repository.ErrEmailNotFound
}

var _ repository.ContactsRepository = (*stubContactsRepo)(nil)

func newTestContact(first, last string, url *string) *entity.Contact {
	return &entity.Contact{FirstName: first, LastName: last, LinkedInURL: url}
}
