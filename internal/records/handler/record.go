package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"clinicops/internal/records/repository"
	"clinicops/internal/records/service"
	"clinicops/internal/records/validator"
	apperrors "clinicops/pkg/errors"
	httputil "clinicops/pkg/http"
	"clinicops/pkg/logger"
	"clinicops/pkg/model"
	"clinicops/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type RecordHandler struct {
	records service.RecordService
	log     *logger.Logger
}

func NewRecordHandler(records service.RecordService, log *logger.Logger) *RecordHandler {
	return &RecordHandler{
		records: records,
		log:     log,
	}
}

func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	params, err := h.parseListParams(r)
	if err != nil {
		h.writeError(w, "ListRecords", err)
		return
	}

	page, err := h.records.List(r.Context(), params)
	if err != nil {
		h.writeError(w, "ListRecords", err)
		return
	}

	if err := httputil.WriteSuccess(w, page); err != nil {
		h.log.Error("failed to write success response", "handler", "ListRecords", "error", err)
	}
}

func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "CreateRecord", err)
		return
	}

	var input validator.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, "CreateRecord", apperrors.InvalidInput("Invalid request body"))
		return
	}
	input.TenantID = tenantID

	confirmation, err := h.records.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, "CreateRecord", err)
		return
	}

	if err := httputil.WriteCreated(w, confirmation); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateRecord", "error", err)
	}
}

func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "UpdateRecord", err)
		return
	}

	var update model.RecordUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, "UpdateRecord", apperrors.InvalidInput("Invalid request body"))
		return
	}

	confirmation, err := h.records.Update(r.Context(), tenantID, ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "UpdateRecord", err)
		return
	}

	if err := httputil.WriteSuccess(w, confirmation); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateRecord", "error", err)
	}
}

func (h *RecordHandler) SetAttendance(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "SetAttendance", err)
		return
	}

	var body struct {
		Attended string `json:"attended"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "SetAttendance", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.records.SetAttendance(r.Context(), tenantID, ps.ByName("id"), body.Attended); err != nil {
		h.writeError(w, "SetAttendance", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID, err := httputil.ExtractTenantID(r)
	if err != nil {
		h.writeError(w, "DeleteRecord", err)
		return
	}

	if err := h.records.Delete(r.Context(), tenantID, ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteRecord", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *RecordHandler) parseListParams(r *http.Request) (repository.ListParams, error) {
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
		TenantID:    tenantID,
		PatientName: sanitizer.TrimAndNormalize(query.Get("patientName")),
		Take:        take,
		Skip:        skip,
	}

	if raw := query.Get("patientID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			params.PatientID = id
		}
	}

	switch query.Get("status") {
	case model.StatusScheduled, model.StatusInProgress, model.StatusCompleted:
		params.Status = query.Get("status")
	}

	if from, err := parseDate(query.Get("startDate")); err == nil && from != nil {
		params.From = from
	}
	if to, err := parseDate(query.Get("endDate")); err == nil && to != nil {
		// The end date filter is inclusive of the whole day.
		end := to.AddDate(0, 0, 1)
		params.To = &end
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

func (h *RecordHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}
