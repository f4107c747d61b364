package members

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicalrxq/member-portal/pkg/airtable"
)

// TableName is the display name of the members table.
const TableName = "Members"

// Candidate display names, most recent naming first.
var (
	EmailCandidates              = []string{"Email Address", "Email"}
	PasswordHashCandidates       = []string{"passwordHash", "Password Hash"}
	TemporaryPasswordCandidates  = []string{"temporaryPassword"}
	FirstNameCandidates          = []string{"Pharmacist First Name", "First Name"}
	LastNameCandidates           = []string{"Pharmacist Last Name", "Last Name"}
	PharmacyNameCandidates       = []string{"Pharmacy Name"}
	SubscriptionStatusCandidates = []string{"Subscription Status"}
	LastLoginCandidates          = []string{"Last Login"}
)

// ErrNotFound is returned when no member matches the lookup.
var ErrNotFound = errors.New("member not found")

type schemaResolver interface {
	TableID(ctx context.Context, tableName string) (string, error)
	FirstExistingFieldName(ctx context.Context, tableName string, candidates []string) (string, error)
}

type recordStore interface {
	ListRecords(ctx context.Context, params airtable.ListParams) (*airtable.Page, error)
	GetRecord(ctx context.Context, tableID, recordID string) (*airtable.Record, error)
	UpdateRecordByNames(ctx context.Context, params airtable.UpdateParams) (*airtable.Record, error)
}

// Fields holds the display names currently used by the members table.
// Empty values mark optional fields missing from the schema.
type Fields struct {
	Email              string
	PasswordHash       string
	TemporaryPassword  string
	FirstName          string
	LastName           string
	PharmacyName       string
	SubscriptionStatus string
	LastLogin          string
}

// Member is a request-scoped copy of a member record.
type Member struct {
	ID                 string
	Email              string
	PasswordHash       string
	TemporaryPassword  string
	FirstName          string
	LastName           string
	PharmacyName       string
	SubscriptionStatus string
	LastLogin          string

	tableID        string
	lastLoginField string
}

// Repository reads and updates member records.
type Repository struct {
	schema schemaResolver
	store  recordStore
}

func NewRepository(schema schemaResolver, store recordStore) *Repository {
	return &Repository{schema: schema, store: store}
}

// ResolveFields resolves the members table id and the field names in current use.
// Only the email field is required.
func (r *Repository) ResolveFields(ctx context.Context) (string, Fields, error) {
	tableID, err := r.schema.TableID(ctx, TableName)
	if err != nil {
		return "", Fields{}, err
	}
	email, err := r.schema.FirstExistingFieldName(ctx, TableName, EmailCandidates)
	if err != nil {
		return "", Fields{}, err
	}
	fields := Fields{Email: email}
	optional := []struct {
		target     *string
		candidates []string
	}{
		{&fields.PasswordHash, PasswordHashCandidates},
		{&fields.TemporaryPassword, TemporaryPasswordCandidates},
		{&fields.FirstName, FirstNameCandidates},
		{&fields.LastName, LastNameCandidates},
		{&fields.PharmacyName, PharmacyNameCandidates},
		{&fields.SubscriptionStatus, SubscriptionStatusCandidates},
		{&fields.LastLogin, LastLoginCandidates},
	}
	for _, opt := range optional {
		name, err := r.schema.FirstExistingFieldName(ctx, TableName, opt.candidates)
		if err != nil {
			if airtable.IsFieldAbsent(err) {
				continue
			}
			return "", Fields{}, err
		}
		*opt.target = name
	}
	return tableID, fields, nil
}

// FindByEmail matches the email field case-insensitively and then fetches the
// record keyed by display name, which credential checks need.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Member, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, ErrNotFound
	}
	tableID, fields, err := r.ResolveFields(ctx)
	if err != nil {
		return nil, err
	}

	page, err := r.store.ListRecords(ctx, airtable.ListParams{
		TableID:         tableID,
		FilterByFormula: airtable.LowerEquals(fields.Email, normalized),
		PageSize:        1,
	})
	if err != nil {
		return nil, fmt.Errorf("query member by email: %w", err)
	}
	if len(page.Records) == 0 {
		return nil, ErrNotFound
	}

	record, err := r.store.GetRecord(ctx, tableID, page.Records[0].ID)
	if err != nil {
		return nil, fmt.Errorf("fetch member record: %w", err)
	}
	return fromRecord(tableID, fields, record), nil
}

// UpdateLastLogin stamps the member's last-login field. It reports false when
// the table has no such field.
func (r *Repository) UpdateLastLogin(ctx context.Context, member *Member, at time.Time) (bool, error) {
	if member == nil || member.lastLoginField == "" || member.tableID == "" {
		return false, nil
	}
	_, err := r.store.UpdateRecordByNames(ctx, airtable.UpdateParams{
		TableID:  member.tableID,
		RecordID: member.ID,
		Fields: map[string]any{
			member.lastLoginField: FormatTimestamp(at),
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// FormatTimestamp renders t as an ISO-8601 UTC timestamp with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func fromRecord(tableID string, fields Fields, record *airtable.Record) *Member {
	values := record.Fields
	return &Member{
		ID:                 record.ID,
		Email:              text(values, fields.Email),
		PasswordHash:       text(values, fields.PasswordHash),
		TemporaryPassword:  text(values, fields.TemporaryPassword),
		FirstName:          text(values, fields.FirstName),
		LastName:           text(values, fields.LastName),
		PharmacyName:       text(values, fields.PharmacyName),
		SubscriptionStatus: text(values, fields.SubscriptionStatus),
		LastLogin:          text(values, fields.LastLogin),
		tableID:            tableID,
		lastLoginField:     fields.LastLogin,
	}
}

// text reads a string value. Lookup fields arrive as arrays; their first string is used.
func text(values map[string]any, field string) string {
	if field == "" {
		return ""
	}
	switch v := values[field].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
