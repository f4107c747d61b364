package airtable

import (
	"context"
	"time"

	"github.com/clinicalrxq/member-portal/pkg/logger"
	"github.com/clinicalrxq/member-portal/pkg/metrics"
)

// DefaultMetadataTTL bounds how long a cached snapshot is trusted.
const DefaultMetadataTTL = 5 * time.Minute

type metadataFetcher interface {
	FetchMetadata(ctx context.Context, baseID, token string) ([]Table, error)
}

// Resolver maps human-readable table and field names to stable identifiers,
// backed by a single cached metadata snapshot.
type Resolver struct {
	config  ConfigProvider
	fetcher metadataFetcher
	cache   MetadataCache
	ttl     time.Duration
	now     func() time.Time
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

// ResolverOption configures optional resolver behavior.
type ResolverOption func(*Resolver)

// WithMetadataTTL overrides the snapshot validity window.
func WithMetadataTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock overrides the time source used for cache validity.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithResolverLogger sets the logger used for fetch and cache entries.
func WithResolverLogger(logg *logger.Logger) ResolverOption {
	return func(r *Resolver) { r.logg = logg }
}

// WithResolverMetrics counts cache hits, misses and fetches.
func WithResolverMetrics(m *metrics.StoreMetrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver builds a resolver that fetches through fetcher and keeps snapshots in cache.
func NewResolver(config ConfigProvider, fetcher metadataFetcher, cache MetadataCache, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		config:  config,
		fetcher: fetcher,
		cache:   cache,
		ttl:     DefaultMetadataTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.cache == nil {
		r.cache = NewMemoryCache()
	}
	return r
}

// Metadata returns a snapshot for the active base, fetching a new one when the
// cached entry is missing, stale, or belongs to a different base.
func (r *Resolver) Metadata(ctx context.Context) (*Snapshot, error) {
	baseID := r.config.BaseID(ctx)
	ctx = r.logg.WithBaseID(ctx, baseID)

	cached, err := r.cache.Load(ctx)
	if err != nil {
		r.metrics.IncCache(metrics.CacheError)
		r.logg.WarnErr(ctx, "airtable.metadata_cache.read_failed", err)
	}
	if cached.Fresh(baseID, r.now(), r.ttl) {
		r.metrics.IncCache(metrics.CacheHit)
		return cached, nil
	}
	r.metrics.IncCache(metrics.CacheMiss)

	token, ok := r.config.Token(ctx)
	if !ok {
		return nil, &SchemaError{Kind: SchemaAuthMissing, Err: &ConfigError{Setting: "access token"}}
	}
	tables, err := r.fetcher.FetchMetadata(ctx, baseID, token)
	if err != nil {
		return nil, err
	}
	r.metrics.IncCache(metrics.CacheFetch)

	snapshot := &Snapshot{
		FetchedAtEpochMs: r.now().UnixMilli(),
		BaseID:           baseID,
		Tables:           tables,
	}
	if err := r.cache.Store(ctx, snapshot); err != nil {
		r.metrics.IncCache(metrics.CacheError)
		r.logg.WarnErr(ctx, "airtable.metadata_cache.write_failed", err)
	}
	r.logg.Debug(r.logg.WithField(ctx, "tables", len(tables)), "airtable.metadata.fetched")
	return snapshot, nil
}

// Invalidate drops the cached snapshot so the next lookup refetches.
func (r *Resolver) Invalidate(ctx context.Context) error {
	return r.cache.Invalidate(ctx)
}

// TableID returns the identifier of the table named tableName.
func (r *Resolver) TableID(ctx context.Context, tableName string) (string, error) {
	snapshot, err := r.Metadata(ctx)
	if err != nil {
		return "", err
	}
	return snapshot.TableID(tableName)
}

// FieldID returns the identifier of fieldName in tableName.
func (r *Resolver) FieldID(ctx context.Context, tableName, fieldName string) (string, error) {
	snapshot, err := r.Metadata(ctx)
	if err != nil {
		return "", err
	}
	return snapshot.FieldID(tableName, fieldName)
}

// FirstExistingFieldName returns the first candidate present in tableName.
func (r *Resolver) FirstExistingFieldName(ctx context.Context, tableName string, candidates []string) (string, error) {
	snapshot, err := r.Metadata(ctx)
	if err != nil {
		return "", err
	}
	return snapshot.FirstExistingFieldName(tableName, candidates)
}

// FirstFieldID returns the identifier of the first candidate present in tableName.
func (r *Resolver) FirstFieldID(ctx context.Context, tableName string, candidates []string) (string, error) {
	snapshot, err := r.Metadata(ctx)
	if err != nil {
		return "", err
	}
	return snapshot.FirstFieldID(tableName, candidates)
}
