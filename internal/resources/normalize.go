package resources

import (
	"strings"

	"github.com/clinicalrxq/member-portal/pkg/airtable"
)

const untitled = "Untitled"

// LibraryResource is the normalized shape handed to the resource library.
type LibraryResource struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description *string               `json:"description,omitempty"`
	Type        *string               `json:"type,omitempty"`
	Attachments []airtable.Attachment `json:"attachments"`
}

// fieldIDs are the resolved resource field identifiers. Empty means the field is absent.
type fieldIDs struct {
	name        string
	description string
	file        string
	kind        string
}

func (f fieldIDs) projection() []string {
	out := make([]string, 0, 4)
	for _, id := range []string{f.name, f.description, f.file, f.kind} {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Normalize converts a field-id keyed resource record.
func normalize(record airtable.Record, ids fieldIDs) LibraryResource {
	values := record.Fields
	name, _ := lookup(values, ids.name).(string)
	if name == "" {
		name = untitled
	}
	var description *string
	if text, ok := lookup(values, ids.description).(string); ok && text != "" {
		description = &text
	}
	attachments := []airtable.Attachment{}
	if ids.file != "" {
		attachments = airtable.Attachments(values[ids.file])
	}
	return LibraryResource{
		ID:          record.ID,
		Name:        name,
		Description: description,
		Type:        CoerceType(lookup(values, ids.kind)),
		Attachments: attachments,
	}
}

func lookup(values map[string]any, id string) any {
	if id == "" {
		return nil
	}
	return values[id]
}

// typeShape tags the forms a resource type value arrives in.
type typeShape int

const (
	typeAbsent typeShape = iota
	typeText
	typeTextList
	typeNamedList
	typeNamed
)

// classifyType maps a raw type value to its shape and the label it carries.
// Shapes are tried in order: text, list of text, list of named objects, named object.
func classifyType(value any) (typeShape, string) {
	switch v := value.(type) {
	case string:
		return typeText, v
	case []any:
		if len(v) == 0 {
			return typeAbsent, ""
		}
		switch first := v[0].(type) {
		case string:
			return typeTextList, first
		case map[string]any:
			if name := nameOf(first); name != "" {
				return typeNamedList, name
			}
		}
	case []string:
		if len(v) > 0 {
			return typeTextList, v[0]
		}
	case map[string]any:
		if name := nameOf(v); name != "" {
			return typeNamed, name
		}
	}
	return typeAbsent, ""
}

func nameOf(object map[string]any) string {
	name, _ := object["name"].(string)
	return name
}

// CoerceType reduces a raw type value to a label, or nil when no shape matches.
// Text values are kept verbatim, so "" and [""] yield an empty label; named
// objects need a non-empty name.
func CoerceType(value any) *string {
	shape, label := classifyType(value)
	if shape == typeAbsent {
		return nil
	}
	return &label
}

// rollupIDs reads the record ids of a category rollup. Rollups configured with
// ARRAYJOIN arrive as one comma-separated string.
func rollupIDs(value any) []string {
	var raw []string
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = v
	case string:
		raw = strings.Split(v, ",")
	}
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
