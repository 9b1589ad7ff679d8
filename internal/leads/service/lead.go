package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	leaderrors "clinicops/internal/leads/errors"
	"clinicops/internal/leads/repository"
	"clinicops/internal/leads/validator"
	"clinicops/pkg/config"
	apperrors "clinicops/pkg/errors"
	"clinicops/pkg/kafka"
	"clinicops/pkg/locale"
	"clinicops/pkg/model"
	"clinicops/pkg/sanitizer"
)

// Audit event types published on lead writes.
const (
	EventLeadCreated = "lead.created"
	EventLeadUpdated = "lead.updated"
	EventLeadDeleted = "lead.deleted"
)

// AuditPublisher emits lead audit events. Publishing is best effort; a
// failed publish never fails the mutation it describes.
type AuditPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// ChannelCounter bumps the per-channel lead tally kept by the marketing
// ledger. A missing channel is not an error.
type ChannelCounter interface {
	IncrementLeads(ctx context.Context, tenantID int64, channelName string, delta int64) error
}

// LeadPage is one listing page plus the total match count.
type LeadPage struct {
	Leads []*model.Lead `json:"leads"`
	Total int64         `json:"total"`
}

type LeadService interface {
	List(ctx context.Context, params repository.ListParams) (*LeadPage, error)
	Create(ctx context.Context, lead *model.Lead) (*model.Lead, error)
	Update(ctx context.Context, tenantID int64, id string, update *model.LeadUpdate) error
	Delete(ctx context.Context, tenantID int64, id string) error
}

type leadService struct {
	repo      repository.LeadRepository
	channels  ChannelCounter
	validator *validator.LeadValidator
	publisher AuditPublisher
	cfg       *config.Config
}

func NewLeadService(
	repo repository.LeadRepository,
	channels ChannelCounter,
	leadValidator *validator.LeadValidator,
	publisher AuditPublisher,
	cfg *config.Config,
) LeadService {
	return &leadService{
		repo:      repo,
		channels:  channels,
		validator: leadValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *leadService) List(ctx context.Context, params repository.ListParams) (*LeadPage, error) {
	if params.TenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		s.cfg.Log.Error("Failed to list leads", "tenant_id", params.TenantID, "error", err)
		return nil, apperrors.Internal("Failed to list leads", err)
	}
	return &LeadPage{Leads: leads, Total: total}, nil
}

// Create normalizes the contact details before persisting: the phone to
// E.164, the channel label to its canonical lowercase form. The country is
// inferred from the phone's international prefix. A successful insert bumps
// the channel's lead tally in the marketing ledger.
func (s *leadService) Create(ctx context.Context, lead *model.Lead) (*model.Lead, error) {
	if lead.TenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	lead.Name = sanitizer.TrimAndNormalize(lead.Name)
	lead.Phone = sanitizer.SanitizePhone(lead.Phone)
	lead.Channel = sanitizer.SanitizeChannelLabel(lead.Channel)
	if country := locale.InferCountryFromPhone(lead.Phone); country != nil {
		lead.Country = country.Code
	}
	if lead.CallDate.IsZero() {
		lead.CallDate = time.Now().UTC()
	}

	if err := s.validator.Validate(lead); err != nil {
		s.cfg.Log.Warn("Lead validation failed",
			"tenant_id", lead.TenantID,
			"name", lead.Name,
			"error", err,
		)
		return nil, apperrors.Validation("Lead validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, lead); err != nil {
		s.cfg.Log.Error("Failed to create lead",
			"tenant_id", lead.TenantID,
			"channel", lead.Channel,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create lead", err)
	}

	if s.channels != nil && lead.Channel != "" {
		if err := s.channels.IncrementLeads(ctx, lead.TenantID, lead.Channel, 1); err != nil {
			s.cfg.Log.Warn("Failed to increment channel lead count",
				"tenant_id", lead.TenantID,
				"channel", lead.Channel,
				"error", err,
			)
		}
	}

	s.cfg.Log.Info("Lead created",
		"tenant_id", lead.TenantID,
		"lead_id", lead.ID,
		"channel", lead.Channel,
	)
	s.publishAudit(ctx, EventLeadCreated, lead.TenantID, lead)

	return lead, nil
}

func (s *leadService) Update(ctx context.Context, tenantID int64, id string, update *model.LeadUpdate) error {
	if tenantID <= 0 {
		return apperrors.MissingTenant()
	}
	if id == "" {
		return apperrors.InvalidInput("Lead ID cannot be empty")
	}

	if update.Name != "" {
		update.Name = sanitizer.TrimAndNormalize(update.Name)
	}
	if update.Phone != "" {
		update.Phone = sanitizer.SanitizePhone(update.Phone)
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		return apperrors.Validation("Lead validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	result, err := s.repo.Update(ctx, id, tenantID, update)
	if err != nil {
		if errors.Is(err, leaderrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid lead ID format")
		}
		s.cfg.Log.Error("Failed to update lead",
			"tenant_id", tenantID,
			"lead_id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to update lead", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundWithID("Lead", id)
	}

	s.cfg.Log.Info("Lead updated", "tenant_id", tenantID, "lead_id", id)
	s.publishAudit(ctx, EventLeadUpdated, tenantID, map[string]any{"lead_id": id})
	return nil
}

// Delete soft-deletes within the tenant's scope; an id owned by another
// tenant, or an already deleted lead, reads as not found.
func (s *leadService) Delete(ctx context.Context, tenantID int64, id string) error {
	if tenantID <= 0 {
		return apperrors.MissingTenant()
	}
	if id == "" {
		return apperrors.InvalidInput("Lead ID cannot be empty")
	}

	if err := s.repo.SoftDelete(ctx, id, tenantID); err != nil {
		if errors.Is(err, leaderrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Lead", id)
		}
		if errors.Is(err, leaderrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid lead ID format")
		}
		s.cfg.Log.Error("Failed to delete lead",
			"tenant_id", tenantID,
			"lead_id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete lead", err)
	}

	s.cfg.Log.Info("Lead deleted", "tenant_id", tenantID, "lead_id", id)
	s.publishAudit(ctx, EventLeadDeleted, tenantID, map[string]any{"lead_id": id})
	return nil
}

func (s *leadService) publishAudit(ctx context.Context, eventType string, tenantID int64, payload any) {
	if s.publisher == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(fmt.Sprintf("%d", tenantID)).
		WithValue(payload).
		WithEventType(eventType).
		WithTenantID(tenantID).
		WithSource(s.cfg.ServiceName).
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish audit event",
			"event_type", eventType,
			"tenant_id", tenantID,
			"error", err,
		)
	}
}
