package intake

import (
	"context"
	"fmt"
	"time"

	"clinicops/internal/leads/service"
	apperrors "clinicops/pkg/errors"
	"clinicops/pkg/kafka"
	"clinicops/pkg/logger"
	"clinicops/pkg/model"
)

// payload is the wire shape emitted by the external lead capture forms.
type payload struct {
	TenantID int64      `json:"tenant_id"`
	Name     string     `json:"name"`
	Phone    string     `json:"phone"`
	Channel  string     `json:"channel"`
	ExamID   int64      `json:"exam_id,omitempty"`
	DoctorID int64      `json:"doctor_id,omitempty"`
	CallDate *time.Time `json:"call_date,omitempty"`
}

// Handler turns consumed intake messages into stored leads.
type Handler struct {
	leads service.LeadService
	log   *logger.Logger
}

func NewHandler(leads service.LeadService, log *logger.Logger) *Handler {
	return &Handler{
		leads: leads,
		log:   log,
	}
}

// HandleMessage decodes and stores one intake message. Malformed or invalid
// payloads are surfaced as permanent errors so the consumer routes them to
// the DLQ instead of retrying.
func (h *Handler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var p payload
	if err := msg.DecodeValue(&p); err != nil {
		h.log.Error("Failed to decode lead intake payload",
			"event_id", msg.GetEventID(),
			"error", err,
		)
		return fmt.Errorf("malformed lead payload: %w", err)
	}

	tenantID := msg.GetTenantID()
	if tenantID <= 0 {
		tenantID = p.TenantID
	}

	lead := &model.Lead{
		TenantID: tenantID,
		Name:     p.Name,
		Phone:    p.Phone,
		Channel:  p.Channel,
		ExamID:   p.ExamID,
		DoctorID: p.DoctorID,
	}
	if p.CallDate != nil {
		lead.CallDate = p.CallDate.UTC()
	}

	created, err := h.leads.Create(ctx, lead)
	if err != nil {
		if apperrors.IsAppError(err) && apperrors.AsAppError(err).HTTPStatus < 500 {
			h.log.Warn("Rejected lead intake payload",
				"event_id", msg.GetEventID(),
				"tenant_id", tenantID,
				"error", err,
			)
			return fmt.Errorf("invalid lead payload: %w", err)
		}
		return err
	}

	h.log.Info("Lead ingested",
		"event_id", msg.GetEventID(),
		"tenant_id", created.TenantID,
		"lead_id", created.ID,
		"channel", created.Channel,
	)
	return nil
}
