package airtable

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/clinicalrxq/member-portal/pkg/errors"
)

// ConfigError reports a setting that is required for the attempted operation but unset.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("airtable: %s is not configured", e.Setting)
}

type SchemaErrorKind string

const (
	SchemaNotFound           SchemaErrorKind = "not_found"
	SchemaNoCandidateMatched SchemaErrorKind = "no_candidate_matched"
	SchemaAuthMissing        SchemaErrorKind = "auth_missing"
	SchemaHTTP               SchemaErrorKind = "http"
)

// SchemaError reports a failed name-to-identifier resolution or metadata fetch.
type SchemaError struct {
	Kind       SchemaErrorKind
	Table      string
	Field      string
	Candidates []string
	Status     int
	Body       string
	Err        error
}

func (e *SchemaError) Error() string {
	switch e.Kind {
	case SchemaNotFound:
		if e.Field != "" {
			return fmt.Sprintf("airtable: field not found: %s.%s", e.Table, e.Field)
		}
		return fmt.Sprintf("airtable: table not found by name: %s", e.Table)
	case SchemaNoCandidateMatched:
		return fmt.Sprintf("airtable: none of the candidate fields exist in %s: %s", e.Table, strings.Join(e.Candidates, ", "))
	case SchemaAuthMissing:
		return "airtable: metadata fetch requires an access token"
	case SchemaHTTP:
		return fmt.Sprintf("airtable: metadata error %d: %s", e.Status, e.Body)
	}
	return "airtable: schema error"
}

func (e *SchemaError) Unwrap() error { return e.Err }

func (e *SchemaError) HTTPStatus() int { return e.Status }

func (e *SchemaError) ResponseBody() string { return e.Body }

type StoreErrorKind string

const (
	StoreHTTP    StoreErrorKind = "http"
	StoreNetwork StoreErrorKind = "network"
	StoreDecode  StoreErrorKind = "decode"
)

// StoreError reports a record request that failed after the retry policy was exhausted.
type StoreError struct {
	Kind     StoreErrorKind
	Op       string
	Status   int
	Body     string
	Attempts int
	Err      error
}

func (e *StoreError) Error() string {
	switch e.Kind {
	case StoreHTTP:
		return fmt.Sprintf("airtable: %s failed with status %d after %d attempt(s): %s", e.Op, e.Status, e.Attempts, e.Body)
	case StoreDecode:
		return fmt.Sprintf("airtable: %s returned an undecodable body: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("airtable: %s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) HTTPStatus() int { return e.Status }

func (e *StoreError) ResponseBody() string { return e.Body }

// IsSchemaKind reports whether err carries a SchemaError of the given kind.
func IsSchemaKind(err error, kind SchemaErrorKind) bool {
	var se *SchemaError
	return errors.As(err, &se) && se.Kind == kind
}

// IsFieldAbsent reports whether err only says a table or field is missing from
// the current metadata. Callers resolving optional fields treat it as "feature absent".
func IsFieldAbsent(err error) bool {
	return IsSchemaKind(err, SchemaNotFound) || IsSchemaKind(err, SchemaNoCandidateMatched)
}

// Classify maps a client failure onto an API error code. Missing credentials or
// base settings render as not configured; everything else is a dependency failure.
func Classify(err error, message string) error {
	if err == nil || pkgerrors.As(err) != nil {
		return err
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) || IsSchemaKind(err, SchemaAuthMissing) {
		return pkgerrors.Wrap(pkgerrors.CodeNotConfigured, err, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
