package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/clinicalrxq/member-portal/internal/resources"
	"github.com/clinicalrxq/member-portal/pkg/airtable"
)

type stubResources struct {
	list     []resources.LibraryResource
	err      error
	category resources.CategoryKey
}

func (s *stubResources) ListAll(context.Context) ([]resources.LibraryResource, error) {
	return s.list, s.err
}

func (s *stubResources) ListByCategory(_ context.Context, key resources.CategoryKey) ([]resources.LibraryResource, error) {
	s.category = key
	return s.list, s.err
}

func resourceRouter(svc *stubResources) http.Handler {
	r := chi.NewRouter()
	r.Get("/resources", ResourcesList(svc, nil))
	r.Get("/resources/categories/{key}", ResourcesByCategory(svc, nil))
	return r
}

func TestResourcesList(t *testing.T) {
	svc := &stubResources{list: []resources.LibraryResource{{ID: "rec1", Name: "Intake Form", Attachments: []airtable.Attachment{}}}}
	rec := httptest.NewRecorder()
	resourceRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resources", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data []resources.LibraryResource `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Name != "Intake Form" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestResourcesByCategoryParsesKey(t *testing.T) {
	svc := &stubResources{list: []resources.LibraryResource{}}
	rec := httptest.NewRecorder()
	resourceRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resources/categories/Clinical", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.category != resources.CategoryClinical {
		t.Fatalf("unexpected category %q", svc.category)
	}
	if body := rec.Body.String(); body != "{\"data\":[]}\n" {
		t.Fatalf("expected empty list, got %s", body)
	}
}

func TestResourcesByCategoryRejectsUnknownKey(t *testing.T) {
	svc := &stubResources{}
	rec := httptest.NewRecorder()
	resourceRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resources/categories/pricing", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.category != "" {
		t.Fatalf("service should not be called")
	}
}

func TestResourcesStoreFailureIsDependencyError(t *testing.T) {
	svc := &stubResources{err: &airtable.StoreError{Kind: airtable.StoreHTTP, Op: "list records", Status: 503, Attempts: 4}}
	rec := httptest.NewRecorder()
	resourceRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resources", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestResourcesWithoutTokenReportsNotConfigured(t *testing.T) {
	svc := &stubResources{err: &airtable.ConfigError{Setting: "access token"}}
	rec := httptest.NewRecorder()
	resourceRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resources", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "BACKEND_NOT_CONFIGURED" {
		t.Fatalf("unexpected code %q", body.Error.Code)
	}
}
