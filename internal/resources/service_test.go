package resources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicalrxq/member-portal/pkg/airtable"
)

type snapshotResolver struct {
	snap *airtable.Snapshot
}

func (s snapshotResolver) TableID(_ context.Context, name string) (string, error) {
	return s.snap.TableID(name)
}

func (s snapshotResolver) FirstExistingFieldName(_ context.Context, table string, candidates []string) (string, error) {
	return s.snap.FirstExistingFieldName(table, candidates)
}

func (s snapshotResolver) FirstFieldID(_ context.Context, table string, candidates []string) (string, error) {
	return s.snap.FirstFieldID(table, candidates)
}

type fakeStore struct {
	listCalls  []airtable.ListParams
	byIDCalls  []airtable.ByIDsParams
	categories []airtable.Record
	resources  []airtable.Record
	err        error
}

func (f *fakeStore) ListAllRecords(_ context.Context, params airtable.ListParams) ([]airtable.Record, error) {
	f.listCalls = append(f.listCalls, params)
	if f.err != nil {
		return nil, f.err
	}
	if params.TableID == "tblCategories" {
		return f.categories, nil
	}
	return f.resources, nil
}

func (f *fakeStore) ListRecordsByIDs(_ context.Context, params airtable.ByIDsParams) ([]airtable.Record, error) {
	f.byIDCalls = append(f.byIDCalls, params)
	return f.resources, nil
}

func librarySchema() *airtable.Snapshot {
	return &airtable.Snapshot{
		BaseID: "appBase",
		Tables: []airtable.Table{
			{
				ID:   "tblResources",
				Name: ResourcesTable,
				Fields: []airtable.Field{
					{ID: "fldName", Name: "name"},
					{ID: "fldDesc", Name: "description"},
					{ID: "fldFile", Name: "resourceFile"},
					{ID: "fldType", Name: "typeName"},
				},
			},
			{
				ID:   "tblCategories",
				Name: CategoriesTable,
				Fields: []airtable.Field{
					{ID: "fldCatName", Name: "categoryName"},
					{ID: "fldRollup", Name: "linkedResourceIds"},
				},
			},
		},
	}
}

func TestParseCategoryKey(t *testing.T) {
	key, err := ParseCategoryKey(" Billing ")
	require.NoError(t, err)
	assert.Equal(t, CategoryBilling, key)
	assert.Equal(t, "Medical Billing", key.DisplayName())

	_, err = ParseCategoryKey("pricing")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestListAllProjectsResolvedFields(t *testing.T) {
	store := &fakeStore{resources: []airtable.Record{
		{ID: "rec1", Fields: map[string]any{"fldName": "Intake Form", "fldType": []any{"Form"}}},
	}}
	svc := NewService(snapshotResolver{snap: librarySchema()}, store, nil)

	got, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Intake Form", got[0].Name)
	assert.Equal(t, "Form", *got[0].Type)

	require.Len(t, store.listCalls, 1)
	assert.Equal(t, "tblResources", store.listCalls[0].TableID)
	assert.Equal(t, []string{"fldName", "fldDesc", "fldFile", "fldType"}, store.listCalls[0].Fields)
	assert.Equal(t, 100, store.listCalls[0].PageSize)
}

func TestListAllWithoutNameFieldFails(t *testing.T) {
	snap := librarySchema()
	snap.Tables[0].Fields = snap.Tables[0].Fields[1:]
	svc := NewService(snapshotResolver{snap: snap}, &fakeStore{}, nil)

	_, err := svc.ListAll(context.Background())
	assert.True(t, airtable.IsSchemaKind(err, airtable.SchemaNoCandidateMatched))
}

func TestListByCategoryJoinsRollup(t *testing.T) {
	store := &fakeStore{
		categories: []airtable.Record{{ID: "recCat", Fields: map[string]any{"fldRollup": []any{"rec1", "rec2"}}}},
		resources: []airtable.Record{
			{ID: "rec1", Fields: map[string]any{"fldName": "Superbill Template"}},
			{ID: "rec2", Fields: map[string]any{"fldName": "Coding Guide"}},
		},
	}
	svc := NewService(snapshotResolver{snap: librarySchema()}, store, nil)

	got, err := svc.ListByCategory(context.Background(), CategoryBilling)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Len(t, store.listCalls, 1)
	lookup := store.listCalls[0]
	assert.Equal(t, "tblCategories", lookup.TableID)
	assert.Equal(t, "LOWER({categoryName})='medical billing'", lookup.FilterByFormula)
	assert.Equal(t, 1, lookup.MaxRecords)
	assert.Equal(t, []string{"fldRollup"}, lookup.Fields)
	assert.Equal(t, []airtable.Sort{{Field: "categoryName", Direction: airtable.SortAsc}}, lookup.Sort)

	require.Len(t, store.byIDCalls, 1)
	assert.Equal(t, []string{"rec1", "rec2"}, store.byIDCalls[0].RecordIDs)
	assert.Equal(t, "tblResources", store.byIDCalls[0].TableID)
}

func TestListByCategoryEmptyRollupSkipsResourceRequest(t *testing.T) {
	store := &fakeStore{categories: []airtable.Record{{ID: "recCat", Fields: map[string]any{}}}}
	svc := NewService(snapshotResolver{snap: librarySchema()}, store, nil)

	got, err := svc.ListByCategory(context.Background(), CategoryHandouts)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, store.byIDCalls)
}

func TestListByCategoryMissingCategoryYieldsEmpty(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(snapshotResolver{snap: librarySchema()}, store, nil)

	got, err := svc.ListByCategory(context.Background(), CategoryClinical)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, store.byIDCalls)
}

func TestListByCategoryRejectsUnknownKey(t *testing.T) {
	svc := NewService(snapshotResolver{snap: librarySchema()}, &fakeStore{}, nil)
	_, err := svc.ListByCategory(context.Background(), CategoryKey("pricing"))
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestListByCategoryPropagatesStoreErrors(t *testing.T) {
	storeErr := &airtable.StoreError{Kind: airtable.StoreHTTP, Op: "list records", Status: 422}
	svc := NewService(snapshotResolver{snap: librarySchema()}, &fakeStore{err: storeErr}, nil)

	_, err := svc.ListByCategory(context.Background(), CategoryBilling)
	var se *airtable.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 422, se.Status)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

type staticConfig struct{}

func (staticConfig) BaseID(context.Context) string { return "appBase" }

func (staticConfig) Token(context.Context) (string, bool) { return "pat-test", true }

func TestListAllPagesThroughClient(t *testing.T) {
	var offsets []string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		offset := req.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		start, count, next := 0, 100, "page2"
		if offset == "page2" {
			start, count, next = 100, 25, ""
		}
		records := make([]string, 0, count)
		for i := start; i < start+count; i++ {
			records = append(records, fmt.Sprintf(`{"id":"rec%03d","fields":{"fldName":"Resource %d"}}`, i, i))
		}
		body := `{"records":[` + strings.Join(records, ",") + `]`
		if next != "" {
			body += `,"offset":"` + next + `"`
		}
		body += "}"
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}, nil
	})
	policy := airtable.DefaultRetryPolicy()
	policy.MinInterval = 0
	client, err := airtable.NewClient(staticConfig{},
		airtable.WithHTTPClient(&http.Client{Transport: rt}),
		airtable.WithAPIURL("https://store.test/v0"),
		airtable.WithRetryPolicy(policy),
	)
	require.NoError(t, err)

	svc := NewService(snapshotResolver{snap: librarySchema()}, client, nil)
	got, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 125)
	assert.Equal(t, []string{"", "page2"}, offsets)
	assert.Equal(t, "Resource 124", got[124].Name)
}
