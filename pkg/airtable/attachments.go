package airtable

import "encoding/json"

// Attachment is one file entry of an attachment field.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Type     string `json:"type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Attachments extracts file entries from a raw attachment field value.
// Entries without a url are skipped and malformed input yields an empty slice.
func Attachments(value any) []Attachment {
	items, ok := value.([]any)
	if !ok {
		return []Attachment{}
	}
	out := make([]Attachment, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		link, _ := entry["url"].(string)
		if link == "" {
			continue
		}
		filename, _ := entry["filename"].(string)
		mime, _ := entry["type"].(string)
		out = append(out, Attachment{
			URL:      link,
			Filename: filename,
			Type:     mime,
			Size:     sizeOf(entry["size"]),
		})
	}
	return out
}

func sizeOf(value any) int64 {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return int64(v)
		}
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	}
	return 0
}
