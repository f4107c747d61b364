package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicalrxq/member-portal/api/responses"
	"github.com/clinicalrxq/member-portal/internal/resources"
	"github.com/clinicalrxq/member-portal/pkg/airtable"
	pkgerrors "github.com/clinicalrxq/member-portal/pkg/errors"
	"github.com/clinicalrxq/member-portal/pkg/logger"
)

type resourceLister interface {
	ListAll(ctx context.Context) ([]resources.LibraryResource, error)
	ListByCategory(ctx context.Context, key resources.CategoryKey) ([]resources.LibraryResource, error)
}

// ResourcesList returns the whole resource library.
func ResourcesList(svc resourceLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, airtable.Classify(err, "list resources"))
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ResourcesByCategory returns the resources linked from one category.
func ResourcesByCategory(svc resourceLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "key")
		key, err := resources.ParseCategoryKey(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown resource category").
				WithDetails(map[string]any{"key": raw, "allowed": []resources.CategoryKey{resources.CategoryHandouts, resources.CategoryBilling, resources.CategoryClinical}}))
			return
		}

		ctx := logg.WithField(r.Context(), "category", string(key))
		list, err := svc.ListByCategory(ctx, key)
		if err != nil {
			responses.WriteError(ctx, logg, w, airtable.Classify(err, "list category resources"))
			return
		}
		responses.WriteSuccess(w, list)
	}
}
