package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cleberrangel/clickup-risk-api/internal/logger"
	"github.com/cleberrangel/clickup-risk-api/internal/model"
	"github.com/cleberrangel/clickup-risk-api/internal/risk"
	"github.com/cleberrangel/clickup-risk-api/internal/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("error", true)
}

type fakeRiskService struct {
	itemResult      *service.ItemRiskResult
	estimateResult  *service.EstimateResult
	portfolioResult *service.PortfolioResult
	exportBuffer    *bytes.Buffer
	err             error

	savedItemID string
	savedReq    model.EstimateRequest
	deletedID   string
}

func (f *fakeRiskService) ItemRisk(ctx context.Context, itemID string) (*service.ItemRiskResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.itemResult, nil
}

func (f *fakeRiskService) SaveEstimate(ctx context.Context, itemID string, req model.EstimateRequest) (*service.EstimateResult, error) {
	f.savedItemID = itemID
	f.savedReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.estimateResult, nil
}

func (f *fakeRiskService) DeleteEstimate(ctx context.Context, itemID string) error {
	f.deletedID = itemID
	return f.err
}

func (f *fakeRiskService) Portfolio(ctx context.Context, assigneeID string) (*service.PortfolioResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.portfolioResult, nil
}

func (f *fakeRiskService) ExportPortfolio(ctx context.Context, assigneeID string) (*bytes.Buffer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.exportBuffer, nil
}

func setupRouter(svc RiskServicer) *gin.Engine {
	r := gin.New()
	h := NewRiskHandler(svc)

	r.GET("/api/v1/items/:id/risk", h.GetItemRisk)
	r.PUT("/api/v1/items/:id/estimate", h.SaveEstimate)
	r.DELETE("/api/v1/items/:id/estimate", h.DeleteEstimate)
	r.GET("/api/v1/portfolio", h.GetPortfolio)
	r.GET("/api/v1/portfolio/report", h.ExportPortfolio)

	return r
}

func TestGetItemRiskHandler(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := &fakeRiskService{
		itemResult: &service.ItemRiskResult{
			ItemID:  "abc",
			Name:    "Fix login flow",
			Verdict: risk.ItemVerdict{Level: risk.LevelOK, Reason: "ETA comfortably before due date"},
			Portfolio: &risk.PortfolioVerdict{
				Level:     risk.LevelOK,
				Reason:    "Total estimate fits within the time budget.",
				OpenCount: 1,
			},
			EvaluatedAt: now,
		},
	}

	r := setupRouter(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/abc/risk", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp model.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if !strings.Contains(w.Body.String(), `"portfolio"`) {
		t.Errorf("item risk response missing portfolio verdict: %s", w.Body.String())
	}
}

func TestGetItemRiskHandlerNotFound(t *testing.T) {
	svc := &fakeRiskService{err: model.ErrNotFound}

	r := setupRouter(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/ghost/risk", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSaveEstimateHandler(t *testing.T) {
	svc := &fakeRiskService{
		estimateResult: &service.EstimateResult{
			ItemID:  "abc",
			Verdict: risk.ItemVerdict{Level: risk.LevelAtRisk, Reason: "Less than one day of buffer"},
		},
	}

	r := setupRouter(svc)
	w := httptest.NewRecorder()
	body := strings.NewReader(`{"remaining_hours": 12.5}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/items/abc/estimate", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.savedItemID != "abc" {
		t.Errorf("expected save for abc, got %q", svc.savedItemID)
	}
	if svc.savedReq.RemainingHours == nil || *svc.savedReq.RemainingHours != 12.5 {
		t.Errorf("payload not forwarded: %+v", svc.savedReq)
	}
}

func TestSaveEstimateHandlerBadPayload(t *testing.T) {
	svc := &fakeRiskService{}

	r := setupRouter(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/items/abc/estimate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSaveEstimateHandlerInvalidEstimate(t *testing.T) {
	svc := &fakeRiskService{err: model.ErrInvalidEstimate}

	r := setupRouter(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/items/abc/estimate", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDeleteEstimateHandler(t *testing.T) {
	svc := &fakeRiskService{}

	r := setupRouter(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/items/abc/estimate", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.deletedID != "abc" {
		t.Errorf("expected delete for abc, got %q", svc.deletedID)
	}
}

func TestDeleteEstimateHandlerNotFound(t *testing.T) {
	svc := &fakeRiskService{err: model.ErrNotFound}

	r := setupRouter(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/items/ghost/estimate", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetPortfolioHandler(t *testing.T) {
	svc := &fakeRiskService{
		portfolioResult: &service.PortfolioResult{
			Assignee: "worker-1",
			Verdict: risk.PortfolioVerdict{
				Level:     risk.LevelOK,
				Reason:    "Total estimate fits within the time budget.",
				OpenCount: 2,
			},
		},
	}

	r := setupRouter(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio?assignee=worker-1", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"open_count":2`) {
		t.Errorf("portfolio verdict missing from body: %s", w.Body.String())
	}
}

func TestGetPortfolioHandlerMissingAssignee(t *testing.T) {
	svc := &fakeRiskService{err: model.ErrMissingAssignee}

	r := setupRouter(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGetPortfolioHandlerRateLimited(t *testing.T) {
	svc := &fakeRiskService{err: model.ErrRateLimited}

	r := setupRouter(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
}

func TestExportPortfolioHandler(t *testing.T) {
	svc := &fakeRiskService{
		exportBuffer: bytes.NewBufferString("xlsx-bytes"),
	}

	r := setupRouter(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/report", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("expected attachment disposition, got %q", cd)
	}
}
