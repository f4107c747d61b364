package airtable

import "time"

// Field is one column of a backend table.
type Field struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Table is a backend table and its fields.
type Table struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Snapshot is the metadata of one base at a point in time.
type Snapshot struct {
	FetchedAtEpochMs int64   `json:"fetchedAtEpochMs"`
	BaseID           string  `json:"baseId"`
	Tables           []Table `json:"tables"`
}

// FetchedAt returns the fetch time as a time.Time.
func (s *Snapshot) FetchedAt() time.Time {
	return time.UnixMilli(s.FetchedAtEpochMs)
}

// Fresh reports whether the snapshot belongs to baseID and is younger than ttl at now.
func (s *Snapshot) Fresh(baseID string, now time.Time, ttl time.Duration) bool {
	if s == nil || s.BaseID != baseID {
		return false
	}
	return now.UnixMilli()-s.FetchedAtEpochMs < ttl.Milliseconds()
}

// Table finds a table by exact name.
func (s *Snapshot) Table(name string) (*Table, error) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], nil
		}
	}
	return nil, &SchemaError{Kind: SchemaNotFound, Table: name}
}

// TableID resolves a table name to its identifier.
func (s *Snapshot) TableID(tableName string) (string, error) {
	table, err := s.Table(tableName)
	if err != nil {
		return "", err
	}
	return table.ID, nil
}

// FieldID resolves a field name within a table to its identifier.
func (s *Snapshot) FieldID(tableName, fieldName string) (string, error) {
	table, err := s.Table(tableName)
	if err != nil {
		return "", err
	}
	if field, ok := table.field(fieldName); ok {
		return field.ID, nil
	}
	return "", &SchemaError{Kind: SchemaNotFound, Table: tableName, Field: fieldName}
}

// FirstExistingFieldName returns the first candidate present in the table, in candidate order.
func (s *Snapshot) FirstExistingFieldName(tableName string, candidates []string) (string, error) {
	table, err := s.Table(tableName)
	if err != nil {
		return "", err
	}
	for _, candidate := range candidates {
		if _, ok := table.field(candidate); ok {
			return candidate, nil
		}
	}
	return "", &SchemaError{
		Kind:       SchemaNoCandidateMatched,
		Table:      tableName,
		Candidates: append([]string(nil), candidates...),
	}
}

// FirstFieldID resolves the first present candidate to its field identifier.
func (s *Snapshot) FirstFieldID(tableName string, candidates []string) (string, error) {
	name, err := s.FirstExistingFieldName(tableName, candidates)
	if err != nil {
		return "", err
	}
	return s.FieldID(tableName, name)
}

func (t *Table) field(name string) (Field, bool) {
	for _, field := range t.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}
