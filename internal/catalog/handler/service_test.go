package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	apperrors "venivici/pkg/errors"
	"venivici/pkg/logger"
	"venivici/pkg/model"
)

type mockCatalogService struct {
	createFunc  func(ctx context.Context, svc *model.Service) error
	getByIDFunc func(ctx context.Context, id string) (*model.Service, error)
	getAllFunc  func(ctx context.Context) ([]*model.Service, error)
	updateFunc  func(ctx context.Context, id string, update *model.ServiceUpdate) (*model.Service, error)
	deleteFunc  func(ctx context.Context, id string) error
}

func (m *mockCatalogService) Create(ctx context.Context, svc *model.Service) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, svc)
	}
	return nil
}

func (m *mockCatalogService) GetByID(ctx context.Context, id string) (*model.Service, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Service{ID: id}, nil
}

func (m *mockCatalogService) GetAll(ctx context.Context) ([]*model.Service, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx)
	}
	return []*model.Service{}, nil
}

func (m *mockCatalogService) Update(ctx context.Context, id string, update *model.ServiceUpdate) (*model.Service, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, update)
	}
	return &model.Service{ID: id}, nil
}

func (m *mockCatalogService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func newRouter(svc *mockCatalogService) *httprouter.Router {
	router := httprouter.New()
	NewServiceHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestGetAll_ReturnsArray(t *testing.T) {
	price := 40000.0
	svc := &mockCatalogService{
		getAllFunc: func(ctx context.Context) ([]*model.Service, error) {
			return []*model.Service{{ID: "1", Name: "Neck Pain", Price: &price}}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []model.Service
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Neck Pain" {
		t.Errorf("body = %+v", got)
	}
}

func TestCreate_Returns201(t *testing.T) {
	svc := &mockCatalogService{
		createFunc: func(ctx context.Context, s *model.Service) error {
			s.ID = "6650f1a2b3c4d5e6f7a8b9c0"
			return nil
		},
	}
	body := `{"name":"Acupuncture","description":"Needles","duration":"30 min","price":60000}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/services", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "6650f1a2b3c4d5e6f7a8b9c0") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCreate_InvalidJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/services", strings.NewReader("{"))
	newRouter(&mockCatalogService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := &mockCatalogService{
		getByIDFunc: func(ctx context.Context, id string) (*model.Service, error) {
			return nil, apperrors.NotFoundWithID("Service", id)
		},
	}

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services/id/abc", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	var updatedID string
	svc := &mockCatalogService{
		updateFunc: func(ctx context.Context, id string, update *model.ServiceUpdate) (*model.Service, error) {
			updatedID = id
			return &model.Service{ID: id, Price: update.Price}, nil
		},
	}
	router := newRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/services/id/s1", strings.NewReader(`{"price":55000}`)))
	if rec.Code != http.StatusOK || updatedID != "s1" {
		t.Errorf("PATCH status = %d, id = %q", rec.Code, updatedID)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/services/id/s1", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", rec.Code)
	}
}
