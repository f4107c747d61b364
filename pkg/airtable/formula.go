package airtable

import "strings"

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// FieldRef wraps a field name in formula braces.
func FieldRef(name string) string {
	return "{" + name + "}"
}

// Quote renders value as a single-quoted formula string literal.
func Quote(value string) string {
	return "'" + quoteReplacer.Replace(value) + "'"
}

// LowerEquals matches a field case-insensitively against value.
func LowerEquals(fieldName, value string) string {
	return "LOWER(" + FieldRef(fieldName) + ")=" + Quote(strings.ToLower(value))
}

// RecordIDIn matches any of the given record identifiers.
func RecordIDIn(ids []string) string {
	terms := make([]string, 0, len(ids))
	for _, id := range ids {
		terms = append(terms, "RECORD_ID()="+Quote(id))
	}
	return "OR(" + strings.Join(terms, ",") + ")"
}
