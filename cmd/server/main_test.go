package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shonsungje/hotdeal-notifier/internal/models"
)

type stubDeals struct {
	deals map[string]models.DealRecord
	err   error
}

func (s *stubDeals) ListRecent(_ context.Context, limit int) ([]models.DealRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.DealRecord
	for _, d := range s.deals {
		if len(out) == limit {
			break
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *stubDeals) GetDealByKey(_ context.Context, key string) (*models.DealRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if d, ok := s.deals[key]; ok {
		return &d, nil
	}
	return nil, nil
}

func newTestMux(deals dealLister) *http.ServeMux {
	srv := &server{deals: deals}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/deals", srv.handleListDeals)
	mux.HandleFunc("GET /api/deals/{site}/{id}", srv.handleGetDeal)
	mux.HandleFunc("GET /health", srv.handleHealth)
	return mux
}

func TestHandleGetDeal(t *testing.T) {
	stub := &stubDeals{deals: map[string]models.DealRecord{
		"ppomppu:123456": {Site: models.SitePpomppu, OriginID: "123456", Title: "갤럭시 버즈 특가"},
	}}
	mux := newTestMux(stub)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "existing deal", path: "/api/deals/ppomppu/123456", wantStatus: http.StatusOK},
		{name: "unknown id", path: "/api/deals/ppomppu/999999", wantStatus: http.StatusNotFound},
		{name: "same id wrong site", path: "/api/deals/fmkorea/123456", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleGetDeal_ResponseBody(t *testing.T) {
	stub := &stubDeals{deals: map[string]models.DealRecord{
		"ppomppu:123456": {Site: models.SitePpomppu, OriginID: "123456", Title: "갤럭시 버즈 특가"},
	}}
	mux := newTestMux(stub)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/deals/ppomppu/123456", nil))

	var body struct {
		Success bool              `json:"success"`
		Deal    models.DealRecord `json:"deal"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success {
		t.Error("Expected success=true")
	}
	if body.Deal.Title != "갤럭시 버즈 특가" {
		t.Errorf("Title = %q", body.Deal.Title)
	}
}

func TestHandleGetDeal_StoreError(t *testing.T) {
	mux := newTestMux(&stubDeals{err: errors.New("firestore unavailable")})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/deals/ppomppu/123456", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHandleListDeals(t *testing.T) {
	stub := &stubDeals{deals: map[string]models.DealRecord{
		"ppomppu:1": {Site: models.SitePpomppu, OriginID: "1", Title: "딜 하나"},
	}}
	mux := newTestMux(stub)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/deals", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Success bool                `json:"success"`
		Deals   []models.DealRecord `json:"deals"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success || len(body.Deals) != 1 {
		t.Errorf("success = %v, deals = %d", body.Success, len(body.Deals))
	}
}
