package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"clinicops/internal/leads/repository"
	"clinicops/internal/leads/service"
	apperrors "clinicops/pkg/errors"
	httputil "clinicops/pkg/http"
	"clinicops/pkg/logger"
	"clinicops/pkg/model"
	"clinicops/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type LeadHandler struct {
	leads service.LeadService
	log   *logger.Logger
}

func NewLeadHandler(leads service.LeadService, log *logger.Logger) *LeadHandler {
	return &LeadHandler{
		leads: leads,
		log:   log,
	}
}

func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	params, err := h.parseListParams(r)
	if err != nil {
		h.writeError(w, "ListLeads", err)
		return
	}

	page, err := h.leads.List(r.Context(), params)
	if err != nil {
		h.writeError(w, "ListLeads", err)
		return
	}

	if err := httputil.WriteSuccess(w, page); err != nil {
		h.log.Error("failed to write success response", "handler", "ListLeads", "error", err)
	}
}

func (h *LeadHandler) CreateLead(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "CreateLead", err)
		return
	}

	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		h.writeError(w, "CreateLead", apperrors.InvalidInput("Invalid request body"))
		return
	}
	lead.TenantID = tenantID

	created, err := h.leads.Create(r.Context(), &lead)
	if err != nil {
		h.writeError(w, "CreateLead", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateLead", "error", err)
	}
}

func (h *LeadHandler) UpdateLead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "UpdateLead", err)
		return
	}

	var update model.LeadUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, "UpdateLead", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.leads.Update(r.Context(), tenantID, ps.ByName("id"), &update); err != nil {
		h.writeError(w, "UpdateLead", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LeadHandler) DeleteLead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "DeleteLead", err)
		return
	}

	if err := h.leads.Delete(r.Context(), tenantID, ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteLead", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LeadHandler) parseListParams(r *http.Request) (repository.ListParams, error) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		return repository.ListParams{}, err
	}

	take, skip, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		return repository.ListParams{}, err
	}

	query := r.URL.Query()
	params := repository.ListParams{
		TenantID: tenantID,
		Name:     sanitizer.TrimAndNormalize(query.Get("name")),
		Phone:    sanitizer.SanitizePhone(query.Get("phone")),
		Channel:  sanitizer.SanitizeChannelLabel(query.Get("channel")),
		Take:     take,
		Skip:     skip,
	}

	if raw := query.Get("examID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			params.ExamID = id
		}
	}
	if raw := query.Get("doctorID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			params.DoctorID = id
		}
	}

	switch query.Get("scheduled") {
	case "true":
		scheduled := true
		params.Scheduled = &scheduled
	case "false":
		scheduled := false
		params.Scheduled = &scheduled
	}

	if from, err := parseDate(query.Get("startDate")); err == nil && from != nil {
		params.From = from
	}
	if to, err := parseDate(query.Get("endDate")); err == nil && to != nil {
		// The end date filter is inclusive of the whole day.
		end := to.AddDate(0, 0, 1)
		params.To = &end
	}

	// A month filter only applies when no explicit range was given.
	if params.From == nil && params.To == nil {
		if month, err := strconv.Atoi(query.Get("month")); err == nil && month >= 1 && month <= 12 {
			year, err := strconv.Atoi(query.Get("year"))
			if err != nil || year <= 0 {
				year = time.Now().UTC().Year()
			}
			from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			to := from.AddDate(0, 1, 0)
			params.From = &from
			params.To = &to
		}
	}

	return params, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
	}
	t = t.UTC()
	return &t, nil
}

func (h *LeadHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}
