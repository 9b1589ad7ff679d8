package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clinicops/internal/marketing/filter"
	"clinicops/internal/marketing/service"
	"clinicops/pkg/logger"
	"clinicops/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type stubChannelService struct {
	listFunc   func(ctx context.Context, tenantID int64) ([]*model.Channel, error)
	deleteFunc func(ctx context.Context, id string, tenantID int64) error
}

func (s *stubChannelService) List(ctx context.Context, tenantID int64) ([]*model.Channel, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, tenantID)
	}
	return []*model.Channel{}, nil
}

func (s *stubChannelService) Create(ctx context.Context, input *model.ChannelInput, tenantID int64) (*model.Channel, error) {
	return &model.Channel{ID: "65f000000000000000000001", TenantID: tenantID, Name: input.Name}, nil
}

func (s *stubChannelService) Update(ctx context.Context, input *model.ChannelInput, tenantID int64) error {
	return nil
}

func (s *stubChannelService) Delete(ctx context.Context, id string, tenantID int64) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, id, tenantID)
	}
	return nil
}

func (s *stubChannelService) GetBudget(ctx context.Context, tenantID int64) (*model.BudgetSummary, error) {
	return &model.BudgetSummary{Budget: 5000}, nil
}

func (s *stubChannelService) UpdateBudget(ctx context.Context, tenantID int64, amount float64) (float64, error) {
	return amount, nil
}

type stubMetricsService struct {
	metricsFunc    func(ctx context.Context, c *filter.Criteria) (*service.MetricsReport, error)
	recordsFunc    func(ctx context.Context, c *filter.Criteria) ([]*model.BookingRecord, error)
	countLeadsFunc func(ctx context.Context, c *filter.Criteria) (int64, error)
}

func (s *stubMetricsService) Metrics(ctx context.Context, c *filter.Criteria) (*service.MetricsReport, error) {
	if s.metricsFunc != nil {
		return s.metricsFunc(ctx, c)
	}
	return &service.MetricsReport{}, nil
}

func (s *stubMetricsService) Breakdown(ctx context.Context, c *filter.Criteria) (*service.ChannelBreakdown, error) {
	return &service.ChannelBreakdown{ByChannel: map[string]*service.ChannelTotals{}}, nil
}

func (s *stubMetricsService) Records(ctx context.Context, c *filter.Criteria) ([]*model.BookingRecord, error) {
	if s.recordsFunc != nil {
		return s.recordsFunc(ctx, c)
	}
	return []*model.BookingRecord{}, nil
}

func (s *stubMetricsService) CountRecords(ctx context.Context, c *filter.Criteria) (int64, error) {
	return 0, nil
}

func (s *stubMetricsService) CountLeads(ctx context.Context, c *filter.Criteria) (int64, error) {
	if s.countLeadsFunc != nil {
		return s.countLeadsFunc(ctx, c)
	}
	return 0, nil
}

func (s *stubMetricsService) CountPatients(ctx context.Context, c *filter.Criteria) (int64, error) {
	return 0, nil
}

func (s *stubMetricsService) ExamPrices(ctx context.Context, tenantID, examID int64) (*model.ExamPrices, error) {
	return &model.ExamPrices{}, nil
}

type stubAttributionService struct{}

func (s *stubAttributionService) PerExam(ctx context.Context, c *filter.Criteria) (*service.ExamAttributionReport, error) {
	return &service.ExamAttributionReport{PerExam: []service.ExamAttribution{}}, nil
}

func (s *stubAttributionService) PerDoctor(ctx context.Context, c *filter.Criteria) (*service.DoctorAttributionReport, error) {
	return &service.DoctorAttributionReport{PerDoctor: []service.DoctorAttribution{}}, nil
}

func newTestRouter(channels *stubChannelService, metrics *stubMetricsService) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	h := NewMarketingHandler(channels, metrics, &stubAttributionService{}, log)
	router := httprouter.New()
	h.RegisterRoutes(router)
	return router
}

func TestListChannelsRequiresTenantHeader(t *testing.T) {
	router := newTestRouter(&stubChannelService{}, &stubMetricsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketing/channels", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without tenant header", rec.Code)
	}
}

func TestListChannelsScopedToHeaderTenant(t *testing.T) {
	var gotTenant int64
	channels := &stubChannelService{
		listFunc: func(ctx context.Context, tenantID int64) ([]*model.Channel, error) {
			gotTenant = tenantID
			return []*model.Channel{{ID: "65f000000000000000000001", TenantID: tenantID, Name: "Google Ads"}}, nil
		},
	}
	router := newTestRouter(channels, &stubMetricsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketing/channels", nil)
	req.Header.Set("X-Tenant-ID", "42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if gotTenant != 42 {
		t.Errorf("service called with tenant %d, want 42", gotTenant)
	}
}

func TestGetMetricsPassesFiltersThrough(t *testing.T) {
	var gotCriteria *filter.Criteria
	metrics := &stubMetricsService{
		metricsFunc: func(ctx context.Context, c *filter.Criteria) (*service.MetricsReport, error) {
			gotCriteria = c
			return &service.MetricsReport{ROAS: 4}, nil
		},
	}
	router := newTestRouter(&stubChannelService{}, metrics)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketing/metrics?month=3&year=2025&status=Completed", nil)
	req.Header.Set("X-Tenant-ID", "7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if gotCriteria == nil || gotCriteria.TenantID != 7 || gotCriteria.Month != 3 || gotCriteria.Year != 2025 {
		t.Errorf("criteria = %+v, want tenant=7 month=3 year=2025", gotCriteria)
	}

	var body struct {
		Data struct {
			ROAS float64 `json:"roas"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Data.ROAS != 4 {
		t.Errorf("roas = %v, want 4", body.Data.ROAS)
	}
}

func TestListMarketingRecordsPassesFiltersThrough(t *testing.T) {
	var gotCriteria *filter.Criteria
	metrics := &stubMetricsService{
		recordsFunc: func(ctx context.Context, c *filter.Criteria) ([]*model.BookingRecord, error) {
			gotCriteria = c
			return []*model.BookingRecord{{ID: "65f000000000000000000001"}}, nil
		},
	}
	router := newTestRouter(&stubChannelService{}, metrics)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketing/records?status=Completed&channel=Google+Ads&take=10", nil)
	req.Header.Set("X-Tenant-ID", "7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if gotCriteria == nil || gotCriteria.TenantID != 7 || gotCriteria.Status != "Completed" {
		t.Errorf("criteria = %+v, want tenant=7 status=Completed", gotCriteria)
	}
	if gotCriteria != nil && gotCriteria.Channel != "google ads" {
		t.Errorf("criteria channel = %q, want sanitized %q", gotCriteria.Channel, "google ads")
	}
}

func TestCountLeadsEndpoint(t *testing.T) {
	metrics := &stubMetricsService{
		countLeadsFunc: func(ctx context.Context, c *filter.Criteria) (int64, error) {
			return 23, nil
		},
	}
	router := newTestRouter(&stubChannelService{}, metrics)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/marketing/leads/count?month=3&year=2025", nil)
	req.Header.Set("X-Tenant-ID", "7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Data.Total != 23 {
		t.Errorf("total = %d, want 23", body.Data.Total)
	}
}

func TestDeleteChannelRoutesID(t *testing.T) {
	var gotID string
	channels := &stubChannelService{
		deleteFunc: func(ctx context.Context, id string, tenantID int64) error {
			gotID = id
			return nil
		},
	}
	router := newTestRouter(channels, &stubMetricsService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/marketing/channels/65f000000000000000000001", nil)
	req.Header.Set("X-Tenant-ID", "1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if gotID != "65f000000000000000000001" {
		t.Errorf("deleted id = %q, want path id", gotID)
	}
}

func TestCreateChannelRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&stubChannelService{}, &stubMetricsService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/marketing/channels", strings.NewReader("{not json"))
	req.Header.Set("X-Tenant-ID", "1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for malformed body", rec.Code)
	}
}
