package resources

import (
	"context"
	"errors"
	"strings"

	"github.com/clinicalrxq/member-portal/pkg/airtable"
	"github.com/clinicalrxq/member-portal/pkg/logger"
)

const (
	ResourcesTable  = "Resources"
	CategoriesTable = "ResourceCategories"
)

var (
	NameCandidates         = []string{"resourceName", "name"}
	DescriptionCandidates  = []string{"description"}
	FileCandidates         = []string{"resourceFile", "file"}
	TypeCandidates         = []string{"typeName", "resourceType"}
	RollupCandidates       = []string{"linkedResourceID", "linkedResourceIds"}
	CategoryNameCandidates = []string{"categoryName", "Category"}
)

// CategoryKey selects one of the fixed resource categories.
type CategoryKey string

const (
	CategoryHandouts CategoryKey = "handouts"
	CategoryBilling  CategoryKey = "billing"
	CategoryClinical CategoryKey = "clinical"
)

var categoryNames = map[CategoryKey]string{
	CategoryHandouts: "Patient Handouts",
	CategoryBilling:  "Medical Billing",
	CategoryClinical: "Clinical Resources",
}

var ErrUnknownCategory = errors.New("unknown resource category")

// ParseCategoryKey accepts handouts, billing or clinical in any case.
func ParseCategoryKey(raw string) (CategoryKey, error) {
	key := CategoryKey(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := categoryNames[key]; !ok {
		return "", ErrUnknownCategory
	}
	return key, nil
}

// DisplayName is the category record name the key maps to.
func (k CategoryKey) DisplayName() string {
	return categoryNames[k]
}

type schemaResolver interface {
	TableID(ctx context.Context, tableName string) (string, error)
	FirstExistingFieldName(ctx context.Context, tableName string, candidates []string) (string, error)
	FirstFieldID(ctx context.Context, tableName string, candidates []string) (string, error)
}

type recordStore interface {
	ListAllRecords(ctx context.Context, params airtable.ListParams) ([]airtable.Record, error)
	ListRecordsByIDs(ctx context.Context, params airtable.ByIDsParams) ([]airtable.Record, error)
}

// Service lists library resources.
type Service struct {
	schema schemaResolver
	store  recordStore
	logg   *logger.Logger
}

func NewService(schema schemaResolver, store recordStore, logg *logger.Logger) *Service {
	return &Service{schema: schema, store: store, logg: logg}
}

// ListAll returns every resource with only the normalized fields projected.
func (s *Service) ListAll(ctx context.Context) ([]LibraryResource, error) {
	tableID, ids, err := s.resourceFields(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListAllRecords(ctx, airtable.ListParams{
		TableID:  tableID,
		Fields:   ids.projection(),
		PageSize: 100,
	})
	if err != nil {
		return nil, err
	}
	out := normalizeAll(records, ids)
	s.logg.Debug(s.logg.WithField(ctx, "resources", len(out)), "resources.list_all")
	return out, nil
}

// ListByCategory returns the resources linked from the category's rollup.
// A missing category or an empty rollup yields an empty list.
func (s *Service) ListByCategory(ctx context.Context, key CategoryKey) ([]LibraryResource, error) {
	displayName, ok := categoryNames[key]
	if !ok {
		return nil, ErrUnknownCategory
	}
	ctx = s.logg.WithField(ctx, "category", string(key))

	recordIDs, err := s.categoryResourceIDs(ctx, displayName)
	if err != nil {
		return nil, err
	}
	if len(recordIDs) == 0 {
		s.logg.Debug(ctx, "resources.category.empty")
		return []LibraryResource{}, nil
	}

	tableID, ids, err := s.resourceFields(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListRecordsByIDs(ctx, airtable.ByIDsParams{
		TableID:   tableID,
		RecordIDs: recordIDs,
		Fields:    ids.projection(),
	})
	if err != nil {
		return nil, err
	}
	return normalizeAll(records, ids), nil
}

// categoryResourceIDs finds the category record by name and reads its rollup.
// The first matching record wins.
func (s *Service) categoryResourceIDs(ctx context.Context, displayName string) ([]string, error) {
	tableID, err := s.schema.TableID(ctx, CategoriesTable)
	if err != nil {
		return nil, err
	}
	rollupID, err := s.schema.FirstFieldID(ctx, CategoriesTable, RollupCandidates)
	if err != nil {
		return nil, err
	}
	nameField, err := s.schema.FirstExistingFieldName(ctx, CategoriesTable, CategoryNameCandidates)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListAllRecords(ctx, airtable.ListParams{
		TableID:         tableID,
		FilterByFormula: airtable.LowerEquals(nameField, displayName),
		Sort:            []airtable.Sort{{Field: nameField, Direction: airtable.SortAsc}},
		PageSize:        100,
		MaxRecords:      1,
		Fields:          []string{rollupID},
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return rollupIDs(records[0].Fields[rollupID]), nil
}

// resourceFields resolves the resources table. Only the name field is required.
func (s *Service) resourceFields(ctx context.Context) (string, fieldIDs, error) {
	tableID, err := s.schema.TableID(ctx, ResourcesTable)
	if err != nil {
		return "", fieldIDs{}, err
	}
	name, err := s.schema.FirstFieldID(ctx, ResourcesTable, NameCandidates)
	if err != nil {
		return "", fieldIDs{}, err
	}
	ids := fieldIDs{name: name}
	for _, opt := range []struct {
		target     *string
		candidates []string
	}{
		{&ids.description, DescriptionCandidates},
		{&ids.file, FileCandidates},
		{&ids.kind, TypeCandidates},
	} {
		id, err := s.schema.FirstFieldID(ctx, ResourcesTable, opt.candidates)
		if err != nil {
			if airtable.IsFieldAbsent(err) {
				continue
			}
			return "", fieldIDs{}, err
		}
		*opt.target = id
	}
	return tableID, ids, nil
}

func normalizeAll(records []airtable.Record, ids fieldIDs) []LibraryResource {
	out := make([]LibraryResource, 0, len(records))
	for _, record := range records {
		out = append(out, normalize(record, ids))
	}
	return out
}
