package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/octobees/outreach-crm/internal/dto"
	"github.com/octobees/outreach-crm/internal/entity"
)

func scanContactRow(id uuid.UUID, first, last, linkedinURL string, verified bool) func(dest ...any) error {
	return func(dest ...any) error {
		now := time.Now()
		*dest[0].(*uuid.UUID) = id
		*dest[1].(*string) = first
		*dest[2].(*string) = last
		for i := 3; i <= 9; i++ {
			*dest[i].(*sql.NullString) = sql.NullString{}
		}
		*dest[10].(*sql.NullString) = sql.NullString{String: linkedinURL, Valid: linkedinURL != ""}
		*dest[11].(*bool) = verified
		*dest[12].(*time.Time) = now
		*dest[13].(*time.Time) = now
		return nil
	}
}

func TestContactsStore_FindByURLVariants(t *testing.T) {
	id := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	var gotArgs []any
	store := &pgxContactsStore{q: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			gotArgs = args
			return &stubRow{scan: scanContactRow(id, "Jane", "Doe", "https://www.linkedin.com/in/janedoe/", false)}
		},
	}}

	variants := []string{"https://www.linkedin.com/in/janedoe/", "https://www.linkedin.com/in/janedoe"}
	contact, err := store.FindByURLVariants(context.Background(), variants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contact.ID != id {
		t.Fatalf("unexpected contact: %+v", contact)
	}
	if len(gotArgs) != 1 {
		t.Fatalf("variant membership must be a single array argument, got %d args", len(gotArgs))
	}

	// Empty variant sets never reach the database.
	store.q = &stubPool{queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
		t.Fatalf("query must not run for empty variants")
		return nil
	}}
	if _, err := store.FindByURLVariants(context.Background(), nil); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestContactsStore_FindByName(t *testing.T) {
	var gotQuery string
	var gotArgs []any
	store := &pgxContactsStore{q: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			gotQuery = query
			gotArgs = args
			return &stubRow{scan: scanContactRow(uuid.New(), "Jane", "Doe", "", false)}
		},
	}}

	if _, err := store.FindByName(context.Background(), "Jane", "Doe", "Acme"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "company ILIKE") || len(gotArgs) != 3 {
		t.Fatalf("expected company clause with 3 args, got %q %v", gotQuery, gotArgs)
	}

	if _, err := store.FindByName(context.Background(), "Jane", "Doe", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(gotQuery, "company ILIKE") || len(gotArgs) != 2 {
		t.Fatalf("company clause must be omitted when unknown, got %q %v", gotQuery, gotArgs)
	}

	store.q = &stubPool{queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
		return &stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
	}}
	if _, err := store.FindByName(context.Background(), "No", "Body", ""); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestContactsStore_InsertDuplicate(t *testing.T) {
	store := &pgxContactsStore{q: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error {
				return &pgconn.PgError{Code: "23505", ConstraintName: "contacts_linkedin_url_lower_key"}
			}}
		},
	}}

	url := "https://www.linkedin.com/in/janedoe/"
	contact := &entity.Contact{FirstName: "Jane", LastName: "Doe", LinkedInURL: &url}
	if _, err := store.Insert(context.Background(), contact); !errors.Is(err, ErrContactDuplicate) {
		t.Fatalf("expected ErrContactDuplicate, got %v", err)
	}
}

func TestContactsStore_Update(t *testing.T) {
	var gotQuery string
	var gotArgs []any
	store := &pgxContactsStore{q: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			gotQuery = query
			gotArgs = args
			return &stubRow{scan: scanContactRow(uuid.New(), "Jane", "Doe", "", true)}
		},
	}}

	company := "Acme Corp"
	verified := true
	patch := ContactPatch{Company: &company, Verified: &verified}
	contact, err := store.Update(context.Background(), uuid.New(), patch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !contact.IsVerified {
		t.Fatalf("expected verified contact back")
	}
	if !strings.Contains(gotQuery, "company = $1") || !strings.Contains(gotQuery, "is_verified = $2") {
		t.Fatalf("unexpected set clauses: %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "updated_at = NOW()") {
		t.Fatalf("updated_at must always be bumped: %q", gotQuery)
	}
	if len(gotArgs) != 3 {
		t.Fatalf("expected patch values plus id, got %v", gotArgs)
	}

	// An empty patch still bumps updated_at.
	if _, err := store.Update(context.Background(), uuid.New(), ContactPatch{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "SET updated_at = NOW()") {
		t.Fatalf("empty patch must still touch the row: %q", gotQuery)
	}
}

func TestContactsStore_List(t *testing.T) {
	var gotQuery string
	var gotArgs []any
	store := &pgxContactsStore{q: &stubPool{
		queryFunc: func(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
			gotQuery = query
			gotArgs = args
			return &stubRows{scans: []func(dest ...any) error{
				scanContactRow(uuid.New(), "Jane", "Doe", "", true),
				scanContactRow(uuid.New(), "John", "Smith", "", false),
			}}, nil
		},
	}}

	verified := true
	since := time.Now().Add(-time.Hour)
	contacts, err := store.List(context.Background(), dto.ListFilter{
		Q:            "jane",
		Verified:     &verified,
		UpdatedSince: &since,
		Page:         2,
		PerPage:      10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}
	if !strings.Contains(gotQuery, "ILIKE") || !strings.Contains(gotQuery, "is_verified") || !strings.Contains(gotQuery, "updated_at >=") {
		t.Fatalf("missing filter clauses: %q", gotQuery)
	}
	// Three search args, verified, since, limit and offset.
	if len(gotArgs) != 7 {
		t.Fatalf("unexpected arg count: %v", gotArgs)
	}
	if gotArgs[5] != 10 || gotArgs[6] != 10 {
		t.Fatalf("expected limit 10 offset 10 for page 2, got %v", gotArgs)
	}
}

func TestContactsStore_InsertEmail(t *testing.T) {
	var gotQuery string
	store := &pgxContactsStore{q: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			gotQuery = query
			return &stubRow{scan: func(dest ...any) error {
				now := time.Now()
				*dest[0].(*uuid.UUID) = uuid.New()
				*dest[1].(*uuid.UUID) = args[0].(uuid.UUID)
				*dest[2].(*string) = args[1].(string)
				*dest[3].(*bool) = true
				*dest[4].(*bool) = args[2].(bool)
				*dest[5].(*time.Time) = now
				*dest[6].(*time.Time) = now
				return nil
			}}
		},
	}}

	email, err := store.InsertEmail(context.Background(), uuid.New(), "jane@acme.com", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !email.IsPrimary || !email.IsVerified {
		t.Fatalf("unexpected email: %+v", email)
	}
	// The primary flag must be decided by the insert statement itself, not a
	// separate read.
	if !strings.Contains(gotQuery, "NOT EXISTS") {
		t.Fatalf("expected single-statement primary decision: %q", gotQuery)
	}

	store.q = &stubPool{queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
		return &stubRow{scan: func(dest ...any) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "contact_emails_contact_id_email_key"}
		}}
	}}
	if _, err := store.InsertEmail(context.Background(), uuid.New(), "jane@acme.com", false); !errors.Is(err, ErrContactEmailDuplicate) {
		t.Fatalf("expected ErrContactEmailDuplicate, got %v", err)
	}
}

func TestContactsStore_MarkEmailVerified(t *testing.T) {
	store := &pgxContactsStore{q: &stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}}
	if err := store.MarkEmailVerified(context.Background(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.q = &stubPool{execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}}
	if err := store.MarkEmailVerified(context.Background(), uuid.New()); !errors.Is(err, ErrEmailNotFound) {
		t.Fatalf("expected ErrEmailNotFound, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if isUniqueViolation(errors.New("plain"), "contacts") {
		t.Fatalf("plain errors are not unique violations")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}, "contacts") {
		t.Fatalf("foreign key violations must not match")
	}
	if !isUniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "contacts_linkedin_url_lower_key"}, "contacts_linkedin_url") {
		t.Fatalf("constraint name prefix must match")
	}
	if !isUniqueViolation(&pgconn.PgError{Code: "23505", Message: `duplicate key value violates unique constraint "contact_emails_contact_id_email_key"`}, "contact_emails") {
		t.Fatalf("message fallback must match")
	}
}

func TestNullStringHelpers(t *testing.T) {
	if nullStringToPtr(sql.NullString{}) != nil {
		t.Fatalf("invalid null string must map to nil")
	}
	value := nullStringToPtr(sql.NullString{String: "x", Valid: true})
	if value == nil || *value != "x" {
		t.Fatalf("unexpected pointer value: %v", value)
	}

	if stringOrNil(nil) != nil {
		t.Fatalf("nil pointer must stay nil")
	}
	empty := ""
	if stringOrNil(&empty) != nil {
		t.Fatalf("empty string must map to SQL NULL")
	}
	filled := "x"
	if stringOrNil(&filled) != "x" {
		t.Fatalf("unexpected value")
	}
}
