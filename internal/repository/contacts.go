package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/outreach-crm/internal/dto"
	"github.com/octobees/outreach-crm/internal/entity"
)

// Sentinel errors surfaced by the contacts repository. Duplicate errors are
// distinct so bulk callers can classify and skip conflicting rows instead of
// aborting the whole run.
var (
	ErrContactNotFound       = errors.New("contact not found")
	ErrEmailNotFound         = errors.New("contact email not found")
	ErrContactDuplicate      = errors.New("contact already exists")
	ErrContactEmailDuplicate = errors.New("contact email already exists")
)

// ContactPatch lists the optional fields a merge may write. Nil pointers are
// left untouched; the merger only sets a pointer when the stored value is
// empty, so a patch never clobbers populated data.
type ContactPatch struct {
	JobTitle    *string
	Company     *string
	City        *string
	State       *string
	Country     *string
	Category    *string
	Phone       *string
	LinkedInURL *string
	Verified    *bool
}

// ContactsStore declares the row-level operations the resolution engine runs.
// The same implementation serves both pool-backed reads and transaction-scoped
// writes; within a transaction every call shares one connection.
type ContactsStore interface {
	FindByURLVariants(ctx context.Context, variants []string) (*entity.Contact, error)
	FindByName(ctx context.Context, firstName, lastName, company string) (*entity.Contact, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Contact, error)
	Insert(ctx context.Context, contact *entity.Contact) (*entity.Contact, error)
	Update(ctx context.Context, id uuid.UUID, patch ContactPatch) (*entity.Contact, error)
	List(ctx context.Context, filter dto.ListFilter) ([]entity.Contact, error)
	ListEmails(ctx context.Context, contactID uuid.UUID) ([]entity.ContactEmail, error)
	FindEmail(ctx context.Context, contactID uuid.UUID, address string) (*entity.ContactEmail, error)
	InsertEmail(ctx context.Context, contactID uuid.UUID, address string, verified bool) (*entity.ContactEmail, error)
	MarkEmailVerified(ctx context.Context, emailID uuid.UUID) error
}

// ContactsRepository couples the store operations with the transaction
// wrapper used by every merge flow.
type ContactsRepository interface {
	ContactsStore
	InTx(ctx context.Context, fn func(ContactsStore) error) error
}

// querier is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGXContactsRepository implements ContactsRepository using pgx.
type PGXContactsRepository struct {
	pgxContactsStore
	pool *pgxpool.Pool
}

// NewPGXContactsRepository wires a pgx backed repository. Reads issued
// directly on the repository run on the pool; writes go through InTx.
func NewPGXContactsRepository(pool *pgxpool.Pool) *PGXContactsRepository {
	return &PGXContactsRepository{pgxContactsStore: pgxContactsStore{q: pool}, pool: pool}
}

// InTx runs fn inside a single transaction so a partially-applied contact is
// never observable: commit on success, rollback on any error, connection
// always released. Conflicts are surfaced as typed duplicate errors, never
// retried here.
func (r *PGXContactsRepository) InTx(ctx context.Context, fn func(ContactsStore) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin contact tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgxContactsStore{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit contact tx: %w", err)
	}
	return nil
}

type pgxContactsStore struct {
	q querier
}

const contactColumns = `id, first_name, last_name, job_title, company, city, state, country, category, phone, linkedin_url, is_verified, created_at, updated_at`

const emailColumns = `id, contact_id, email, is_primary, is_verified, created_at, updated_at`

// FindByURLVariants looks up a contact whose stored linkedin_url matches any
// of the supplied lowercase variants. The membership test is a single query
// on purpose: concurrent callers must see one consistent round-trip result,
// not a sequence of dependent lookups.
func (s *pgxContactsStore) FindByURLVariants(ctx context.Context, variants []string) (*entity.Contact, error) {
	if len(variants) == 0 {
		return nil, ErrContactNotFound
	}

	query := `
        SELECT ` + contactColumns + `
        FROM contacts
        WHERE linkedin_url IS NOT NULL AND LOWER(linkedin_url) = ANY($1)
        ORDER BY updated_at DESC
        LIMIT 1
    `
	contact, err := scanContact(s.q.QueryRow(ctx, query, variants))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("query contact by url variants: %w", err)
	}
	return contact, nil
}

// FindByName matches on exact case-insensitive first and last name, narrowed
// by a case-insensitive company substring when company is known. Ties resolve
// to the most recently updated row.
func (s *pgxContactsStore) FindByName(ctx context.Context, firstName, lastName, company string) (*entity.Contact, error) {
	query := strings.Builder{}
	query.WriteString(`
        SELECT ` + contactColumns + `
        FROM contacts
        WHERE LOWER(first_name) = LOWER($1) AND LOWER(last_name) = LOWER($2)
    `)
	args := []any{firstName, lastName}
	if company != "" {
		query.WriteString(" AND company ILIKE '%' || $3 || '%'")
		args = append(args, company)
	}
	query.WriteString(" ORDER BY updated_at DESC LIMIT 1")

	contact, err := scanContact(s.q.QueryRow(ctx, query.String(), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("query contact by name: %w", err)
	}
	return contact, nil
}

// GetByID retrieves a contact by identifier.
func (s *pgxContactsStore) GetByID(ctx context.Context, id uuid.UUID) (*entity.Contact, error) {
	contact, err := scanContact(s.q.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("query contact by id: %w", err)
	}
	return contact, nil
}

// Insert creates a new contact row and returns the authoritative state.
func (s *pgxContactsStore) Insert(ctx context.Context, contact *entity.Contact) (*entity.Contact, error) {
	if contact == nil {
		return nil, fmt.Errorf("contact payload is nil")
	}

	query := `
        INSERT INTO contacts (first_name, last_name, job_title, company, city, state, country, category, phone, linkedin_url, is_verified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING ` + contactColumns + `
    `
	row := s.q.QueryRow(ctx, query,
		contact.FirstName,
		contact.LastName,
		stringOrNil(contact.JobTitle),
		stringOrNil(contact.Company),
		stringOrNil(contact.City),
		stringOrNil(contact.State),
		stringOrNil(contact.Country),
		stringOrNil(contact.Category),
		stringOrNil(contact.Phone),
		stringOrNil(contact.LinkedInURL),
		contact.IsVerified,
	)

	inserted, err := scanContact(row)
	if err != nil {
		if isUniqueViolation(err, "contacts_linkedin_url") {
			return nil, fmt.Errorf("%w: %v", ErrContactDuplicate, err)
		}
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	return inserted, nil
}

// Update applies a merge patch. updated_at is bumped even for an empty patch
// so "last touched" reflects last-seen rather than last-changed.
func (s *pgxContactsStore) Update(ctx context.Context, id uuid.UUID, patch ContactPatch) (*entity.Contact, error) {
	setClauses := make([]string, 0)
	args := make([]any, 0)
	idx := 1

	appendSet := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if patch.JobTitle != nil {
		appendSet("job_title", *patch.JobTitle)
	}
	if patch.Company != nil {
		appendSet("company", *patch.Company)
	}
	if patch.City != nil {
		appendSet("city", *patch.City)
	}
	if patch.State != nil {
		appendSet("state", *patch.State)
	}
	if patch.Country != nil {
		appendSet("country", *patch.Country)
	}
	if patch.Category != nil {
		appendSet("category", *patch.Category)
	}
	if patch.Phone != nil {
		appendSet("phone", *patch.Phone)
	}
	if patch.LinkedInURL != nil {
		appendSet("linkedin_url", *patch.LinkedInURL)
	}
	if patch.Verified != nil {
		appendSet("is_verified", *patch.Verified)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE contacts SET %s WHERE id = $%d RETURNING `+contactColumns, strings.Join(setClauses, ", "), idx)

	contact, err := scanContact(s.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		if isUniqueViolation(err, "contacts_linkedin_url") {
			return nil, fmt.Errorf("%w: %v", ErrContactDuplicate, err)
		}
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return contact, nil
}

// List retrieves contacts matching the provided filter, most recently updated
// first.
func (s *pgxContactsStore) List(ctx context.Context, filter dto.ListFilter) ([]entity.Contact, error) {
	baseQuery := strings.Builder{}
	baseQuery.WriteString(`SELECT ` + contactColumns + ` FROM contacts`)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		clauses = append(clauses, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR company ILIKE $%d)", idx, idx+1, idx+2))
		args = append(args, pattern, pattern, pattern)
		idx += 3
	}
	if filter.Company != "" {
		clauses = append(clauses, fmt.Sprintf("company ILIKE $%d", idx))
		args = append(args, fmt.Sprintf("%%%s%%", filter.Company))
		idx++
	}
	if filter.City != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(city) = LOWER($%d)", idx))
		args = append(args, filter.City)
		idx++
	}
	if filter.Country != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(country) = LOWER($%d)", idx))
		args = append(args, filter.Country)
		idx++
	}
	if filter.Category != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(category) = LOWER($%d)", idx))
		args = append(args, filter.Category)
		idx++
	}
	if filter.Verified != nil {
		clauses = append(clauses, fmt.Sprintf("is_verified = $%d", idx))
		args = append(args, *filter.Verified)
		idx++
	}
	if filter.UpdatedSince != nil {
		clauses = append(clauses, fmt.Sprintf("updated_at >= $%d", idx))
		args = append(args, *filter.UpdatedSince)
		idx++
	}

	if len(clauses) > 0 {
		baseQuery.WriteString(" WHERE ")
		baseQuery.WriteString(strings.Join(clauses, " AND "))
	}

	baseQuery.WriteString(" ORDER BY updated_at DESC, last_name ASC, first_name ASC")

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage
	baseQuery.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, perPage, offset)

	rows, err := s.q.Query(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

// ListEmails returns every address attached to a contact, primary first.
func (s *pgxContactsStore) ListEmails(ctx context.Context, contactID uuid.UUID) ([]entity.ContactEmail, error) {
	rows, err := s.q.Query(ctx, `SELECT `+emailColumns+` FROM contact_emails WHERE contact_id = $1 ORDER BY is_primary DESC, created_at ASC`, contactID)
	if err != nil {
		return nil, fmt.Errorf("list contact emails: %w", err)
	}
	defer rows.Close()

	var emails []entity.ContactEmail
	for rows.Next() {
		var email entity.ContactEmail
		if err := rows.Scan(&email.ID, &email.ContactID, &email.Email, &email.IsPrimary, &email.IsVerified, &email.CreatedAt, &email.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan contact email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact emails: %w", err)
	}
	return emails, nil
}

// FindEmail fetches a (contact, address) pair if present.
func (s *pgxContactsStore) FindEmail(ctx context.Context, contactID uuid.UUID, address string) (*entity.ContactEmail, error) {
	var email entity.ContactEmail
	row := s.q.QueryRow(ctx, `SELECT `+emailColumns+` FROM contact_emails WHERE contact_id = $1 AND email = $2`, contactID, address)
	if err := row.Scan(&email.ID, &email.ContactID, &email.Email, &email.IsPrimary, &email.IsVerified, &email.CreatedAt, &email.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("query contact email: %w", err)
	}
	return &email, nil
}

// InsertEmail attaches a new address. The primary flag is decided by the
// same statement that inserts the row: the first address a contact ever
// receives becomes primary. The partial unique index on (contact_id) WHERE
// is_primary is the backstop for races across transactions.
func (s *pgxContactsStore) InsertEmail(ctx context.Context, contactID uuid.UUID, address string, verified bool) (*entity.ContactEmail, error) {
	query := `
        INSERT INTO contact_emails (contact_id, email, is_primary, is_verified)
        VALUES (
            $1,
            $2,
            NOT EXISTS (SELECT 1 FROM contact_emails WHERE contact_id = $1),
            $3
        )
        RETURNING ` + emailColumns + `
    `
	var email entity.ContactEmail
	row := s.q.QueryRow(ctx, query, contactID, address, verified)
	if err := row.Scan(&email.ID, &email.ContactID, &email.Email, &email.IsPrimary, &email.IsVerified, &email.CreatedAt, &email.UpdatedAt); err != nil {
		if isUniqueViolation(err, "contact_emails") {
			return nil, fmt.Errorf("%w: %v", ErrContactEmailDuplicate, err)
		}
		return nil, fmt.Errorf("insert contact email: %w", err)
	}
	return &email, nil
}

// MarkEmailVerified promotes the verified flag. Verification is monotonic:
// there is no demotion path.
func (s *pgxContactsStore) MarkEmailVerified(ctx context.Context, emailID uuid.UUID) error {
	cmd, err := s.q.Exec(ctx, `UPDATE contact_emails SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, emailID)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrEmailNotFound
	}
	return nil
}

func isUniqueViolation(err error, constraintPrefix string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return strings.Contains(pgErr.ConstraintName, constraintPrefix) || strings.Contains(pgErr.Message, constraintPrefix)
}

func scanContact(row pgx.Row) (*entity.Contact, error) {
	var (
		c           entity.Contact
		jobTitle    sql.NullString
		company     sql.NullString
		city        sql.NullString
		state       sql.NullString
		country     sql.NullString
		category    sql.NullString
		phone       sql.NullString
		linkedinURL sql.NullString
	)

	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&jobTitle,
		&company,
		&city,
		&state,
		&country,
		&category,
		&phone,
		&linkedinURL,
		&c.IsVerified,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.JobTitle = nullStringToPtr(jobTitle)
	c.Company = nullStringToPtr(company)
	c.City = nullStringToPtr(city)
	c.State = nullStringToPtr(state)
	c.Country = nullStringToPtr(country)
	c.Category = nullStringToPtr(category)
	c.Phone = nullStringToPtr(phone)
	c.LinkedInURL = nullStringToPtr(linkedinURL)

	return &c, nil
}

func scanContacts(rows pgx.Rows) ([]entity.Contact, error) {
	var contacts []entity.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

func nullStringToPtr(value sql.NullString) *string {
	if value.Valid {
		val := value.String
		return &val
	}
	return nil
}

func stringOrNil(value *string) any {
	if value == nil {
		return nil
	}
	if *value == "" {
		return nil
	}
	return *value
}
