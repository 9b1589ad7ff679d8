package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	marketingerrors "clinicops/internal/marketing/errors"
	"clinicops/internal/marketing/filter"
	"clinicops/internal/marketing/service"
	apperrors "clinicops/pkg/errors"
	httputil "clinicops/pkg/http"
	"clinicops/pkg/logger"
	"clinicops/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type MarketingHandler struct {
	channels    service.ChannelService
	metrics     service.MetricsService
	attribution service.AttributionService
	log         *logger.Logger
}

func NewMarketingHandler(
	channels service.ChannelService,
	metrics service.MetricsService,
	attribution service.AttributionService,
	log *logger.Logger,
) *MarketingHandler {
	return &MarketingHandler{
		channels:    channels,
		metrics:     metrics,
		attribution: attribution,
		log:         log,
	}
}

func (h *MarketingHandler) ListChannels(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "ListChannels", err)
		return
	}

	channels, err := h.channels.List(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, "ListChannels", err)
		return
	}

	if err := httputil.WriteSuccess(w, channels); err != nil {
		h.log.Error("failed to write success response", "handler", "ListChannels", "error", err)
	}
}

func (h *MarketingHandler) CreateChannel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "CreateChannel", err)
		return
	}

	var input model.ChannelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, "CreateChannel", apperrors.InvalidInput("Invalid request body"))
		return
	}

	channel, err := h.channels.Create(r.Context(), &input, tenantID)
	if err != nil {
		h.writeError(w, "CreateChannel", err)
		return
	}

	if err := httputil.WriteCreated(w, channel); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateChannel", "error", err)
	}
}

func (h *MarketingHandler) UpdateChannel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "UpdateChannel", err)
		return
	}

	var input model.ChannelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, "UpdateChannel", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.channels.Update(r.Context(), &input, tenantID); err != nil {
		h.writeError(w, "UpdateChannel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *MarketingHandler) DeleteChannel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "DeleteChannel", err)
		return
	}

	if err := h.channels.Delete(r.Context(), ps.ByName("id"), tenantID); err != nil {
		h.writeError(w, "DeleteChannel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *MarketingHandler) GetBudget(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "GetBudget", err)
		return
	}

	summary, err := h.channels.GetBudget(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, "GetBudget", err)
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBudget", "error", err)
	}
}

func (h *MarketingHandler) UpdateBudget(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "UpdateBudget", err)
		return
	}

	var body struct {
		Budget float64 `json:"budget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "UpdateBudget", apperrors.InvalidInput("Invalid request body"))
		return
	}

	amount, err := h.channels.UpdateBudget(r.Context(), tenantID, body.Budget)
	if err != nil {
		h.writeError(w, "UpdateBudget", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]float64{"budget": amount}); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateBudget", "error", err)
	}
}

func (h *MarketingHandler) GetMetrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria, ok := h.parseCriteria(w, r, "GetMetrics")
	if !ok {
		return
	}

	report, err := h.metrics.Metrics(r.Context(), criteria)
	if err != nil {
		h.writeError(w, "GetMetrics", err)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMetrics", "error", err)
	}
}

func (h *MarketingHandler) GetChannelBreakdown(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria, ok := h.parseCriteria(w, r, "GetChannelBreakdown")
	if !ok {
		return
	}

	breakdown, err := h.metrics.Breakdown(r.Context(), criteria)
	if err != nil {
		h.writeError(w, "GetChannelBreakdown", err)
		return
	}

	if err := httputil.WriteSuccess(w, breakdown); err != nil {
		h.log.Error("failed to write success response", "handler", "GetChannelBreakdown", "error", err)
	}
}

func (h *MarketingHandler) ListRecords(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria, ok := h.parseCriteria(w, r, "ListRecords")
	if !ok {
		return
	}

	records, err := h.metrics.Records(r.Context(), criteria)
	if err != nil {
		h.writeError(w, "ListRecords", err)
		return
	}

	if err := httputil.WriteSuccess(w, records); err != nil {
		h.log.Error("failed to write success response", "handler", "ListRecords", "error", err)
	}
}

func (h *MarketingHandler) CountRecords(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria, ok := h.parseCriteria(w, r, "CountRecords")
	if !ok {
		return
	}

	total, err := h.metrics.CountRecords(r.Context(), criteria)
	if err != nil {
		h.writeError(w, "CountRecords", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]int64{"total": total}); err != nil {
		h.log.Error("failed to write success response", "handler", "CountRecords", "error", err)
	}
}

func (h *MarketingHandler) CountPatients(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria, ok := h.parseCriteria(w, r, "CountPatients")
	if !ok {
		return
	}

	total, err := h.metrics.CountPatients(r.Context(), criteria)
	if err != nil {
		h.writeError(w, "CountPatients", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]int64{"total": total}); err != nil {
		h.log.Error("failed to write success response", "handler", "CountPatients", "error", err)
	}
}

func (h *MarketingHandler) CountLeads(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria, ok := h.parseCriteria(w, r, "CountLeads")
	if !ok {
		return
	}

	total, err := h.metrics.CountLeads(r.Context(), criteria)
	if err != nil {
		h.writeError(w, "CountLeads", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]int64{"total": total}); err != nil {
		h.log.Error("failed to write success response", "handler", "CountLeads", "error", err)
	}
}

func (h *MarketingHandler) GetExamPrices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "GetExamPrices", err)
		return
	}

	examID, _ := strconv.ParseInt(r.URL.Query().Get("examID"), 10, 64)
	prices, err := h.metrics.ExamPrices(r.Context(), tenantID, examID)
	if err != nil {
		h.writeError(w, "GetExamPrices", err)
		return
	}

	if err := httputil.WriteSuccess(w, prices); err != nil {
		h.log.Error("failed to write success response", "handler", "GetExamPrices", "error", err)
	}
}

func (h *MarketingHandler) GetExamAttribution(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria, ok := h.parseCriteria(w, r, "GetExamAttribution")
	if !ok {
		return
	}

	report, err := h.attribution.PerExam(r.Context(), criteria)
	if err != nil {
		h.writeError(w, "GetExamAttribution", err)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "GetExamAttribution", "error", err)
	}
}

func (h *MarketingHandler) GetDoctorAttribution(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria, ok := h.parseCriteria(w, r, "GetDoctorAttribution")
	if !ok {
		return
	}

	report, err := h.attribution.PerDoctor(r.Context(), criteria)
	if err != nil {
		h.writeError(w, "GetDoctorAttribution", err)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "GetDoctorAttribution", "error", err)
	}
}

func (h *MarketingHandler) parseCriteria(w http.ResponseWriter, r *http.Request, handlerName string) (*filter.Criteria, bool) {
	criteria, err := filter.Parse(r.Header.Get(httputil.TenantHeader), r.URL.Query())
	if err != nil {
		if errors.Is(err, marketingerrors.ErrMissingTenant) {
			h.writeError(w, handlerName, apperrors.MissingTenant())
		} else {
			h.writeError(w, handlerName, apperrors.InvalidInput(err.Error()))
		}
		return nil, false
	}
	return criteria, true
}

func (h *MarketingHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}
