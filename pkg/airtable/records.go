package airtable

import (
	"context"
	"net/http"
	"strconv"
)

// Record is one backend row. Field keys are identifiers or names depending on the request.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort orders list results by a field name or identifier.
type Sort struct {
	Field     string
	Direction SortDirection
}

// ListParams selects one page of records. Responses are always keyed by field id.
type ListParams struct {
	TableID         string
	FilterByFormula string
	Sort            []Sort
	PageSize        int
	MaxRecords      int
	Fields          []string
	Offset          string
}

// Page is one page of records and the offset of the next, if any.
type Page struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

func (p ListParams) query() map[string][]string {
	q := map[string][]string{"returnFieldsByFieldId": {"true"}}
	if p.FilterByFormula != "" {
		q["filterByFormula"] = []string{p.FilterByFormula}
	}
	if p.PageSize > 0 {
		q["pageSize"] = []string{strconv.Itoa(p.PageSize)}
	}
	if p.MaxRecords > 0 {
		q["maxRecords"] = []string{strconv.Itoa(p.MaxRecords)}
	}
	if p.Offset != "" {
		q["offset"] = []string{p.Offset}
	}
	if len(p.Fields) > 0 {
		q["fields[]"] = append([]string(nil), p.Fields...)
	}
	for i, s := range p.Sort {
		prefix := "sort[" + strconv.Itoa(i) + "]"
		q[prefix+"[field]"] = []string{s.Field}
		if s.Direction != "" {
			q[prefix+"[direction]"] = []string{string(s.Direction)}
		}
	}
	return q
}

// ListRecords fetches a single page, throttled and retried per the client policy.
func (c *Client) ListRecords(ctx context.Context, params ListParams) (*Page, error) {
	if params.TableID == "" {
		return nil, &ConfigError{Setting: "table id"}
	}
	baseID, token, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}
	var page Page
	err = c.do(ctx, token, request{
		op:     "list_records",
		method: http.MethodGet,
		path:   []string{baseID, params.TableID},
		query:  params.query(),
		retry:  true,
	}, &page)
	if err != nil {
		return nil, err
	}
	if page.Records == nil {
		page.Records = []Record{}
	}
	return &page, nil
}

// ListAllRecords follows offsets until the final page. Pages are fetched one at a time.
func (c *Client) ListAllRecords(ctx context.Context, params ListParams) ([]Record, error) {
	records := []Record{}
	for {
		page, err := c.ListRecords(ctx, params)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if page.Offset == "" {
			return records, nil
		}
		params.Offset = page.Offset
	}
}

// ByIDsParams selects records by identifier.
type ByIDsParams struct {
	TableID   string
	RecordIDs []string
	Fields    []string
}

// ListRecordsByIDs fetches records in fixed-size chunks. A chunk takes one
// request when the page size covers it and follows offsets otherwise.
// Result order follows the store's ordering, not the input order.
func (c *Client) ListRecordsByIDs(ctx context.Context, params ByIDsParams) ([]Record, error) {
	records := []Record{}
	for start := 0; start < len(params.RecordIDs); start += c.chunkSize {
		end := min(start+c.chunkSize, len(params.RecordIDs))
		chunk, err := c.ListAllRecords(ctx, ListParams{
			TableID:         params.TableID,
			FilterByFormula: RecordIDIn(params.RecordIDs[start:end]),
			PageSize:        c.pageSize,
			Fields:          params.Fields,
		})
		if err != nil {
			return nil, err
		}
		records = append(records, chunk...)
	}
	return records, nil
}

// GetRecord fetches one record with fields keyed by name.
func (c *Client) GetRecord(ctx context.Context, tableID, recordID string) (*Record, error) {
	if tableID == "" || recordID == "" {
		return nil, &ConfigError{Setting: "table id and record id"}
	}
	baseID, token, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}
	var record Record
	err = c.do(ctx, token, request{
		op:     "get_record",
		method: http.MethodGet,
		path:   []string{baseID, tableID, recordID},
		retry:  true,
	}, &record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateParams describes a partial update with fields keyed by name.
type UpdateParams struct {
	TableID               string
	RecordID              string
	Fields                map[string]any
	ReturnFieldsByFieldID bool
}

type updateBody struct {
	Fields                map[string]any `json:"fields"`
	ReturnFieldsByFieldID bool           `json:"returnFieldsByFieldId"`
}

// UpdateRecordByNames patches a record. Writes are never retried.
func (c *Client) UpdateRecordByNames(ctx context.Context, params UpdateParams) (*Record, error) {
	if params.TableID == "" || params.RecordID == "" {
		return nil, &ConfigError{Setting: "table id and record id"}
	}
	baseID, token, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}
	fields := params.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	var record Record
	err = c.do(ctx, token, request{
		op:     "update_record",
		method: http.MethodPatch,
		path:   []string{baseID, params.TableID, params.RecordID},
		body:   updateBody{Fields: fields, ReturnFieldsByFieldID: params.ReturnFieldsByFieldID},
	}, &record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
