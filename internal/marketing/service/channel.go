package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	marketingerrors "clinicops/internal/marketing/errors"
	"clinicops/internal/marketing/repository"
	"clinicops/internal/marketing/validator"
	"clinicops/pkg/config"
	apperrors "clinicops/pkg/errors"
	"clinicops/pkg/kafka"
	"clinicops/pkg/model"
	"clinicops/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// Audit event types published on channel and budget writes.
const (
	EventChannelCreated = "channel.created"
	EventChannelUpdated = "channel.updated"
	EventChannelDeleted = "channel.deleted"
	EventBudgetUpdated  = "budget.updated"
)

const lockRetryInterval = 50 * time.Millisecond

// AuditPublisher emits channel audit events. Publishing is best effort; a
// failed publish never fails the mutation it describes.
type AuditPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type ChannelService interface {
	List(ctx context.Context, tenantID int64) ([]*model.Channel, error)
	Create(ctx context.Context, input *model.ChannelInput, tenantID int64) (*model.Channel, error)
	Update(ctx context.Context, input *model.ChannelInput, tenantID int64) error
	Delete(ctx context.Context, id string, tenantID int64) error

	GetBudget(ctx context.Context, tenantID int64) (*model.BudgetSummary, error)
	UpdateBudget(ctx context.Context, tenantID int64, amount float64) (float64, error)
}

type channelService struct {
	repo      repository.ChannelRepository
	catalog   repository.CatalogRepository
	locks     repository.WriteLockRepository
	validator *validator.ChannelValidator
	publisher AuditPublisher
	cfg       *config.Config
}

func NewChannelService(
	repo repository.ChannelRepository,
	catalog repository.CatalogRepository,
	locks repository.WriteLockRepository,
	channelValidator *validator.ChannelValidator,
	publisher AuditPublisher,
	cfg *config.Config,
) ChannelService {
	return &channelService{
		repo:      repo,
		catalog:   catalog,
		locks:     locks,
		validator: channelValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *channelService) List(ctx context.Context, tenantID int64) ([]*model.Channel, error) {
	if tenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	channels, err := s.repo.FindAll(ctx, tenantID)
	if err != nil {
		s.cfg.Log.Error("Failed to list channels", "tenant_id", tenantID, "error", err)
		return nil, apperrors.Internal("Failed to list channels", err)
	}
	return channels, nil
}

func (s *channelService) Create(ctx context.Context, input *model.ChannelInput, tenantID int64) (*model.Channel, error) {
	if tenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	s.sanitize(input)
	if err := s.validator.Validate(input); err != nil {
		s.cfg.Log.Warn("Channel validation failed",
			"tenant_id", tenantID,
			"name", input.Name,
			"error", err,
		)
		return nil, apperrors.Validation("Channel validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	admin, err := s.resolveAdmin(ctx, input.UpdatedBy)
	if err != nil {
		return nil, err
	}

	channel := &model.Channel{
		TenantID:  tenantID,
		Name:      input.Name,
		Budget:    input.Budget,
		Cost:      input.Cost,
		Clicks:    input.Clicks,
		Leads:     input.Leads,
		CreatedBy: admin.ID,
		UpdatedBy: admin.ID,
	}

	err = s.withWriteLock(ctx, tenantID, "channel:"+sanitizer.SanitizeChannelLabel(input.Name), func(ctx context.Context) error {
		return s.repo.Create(ctx, channel)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create channel",
			"tenant_id", tenantID,
			"name", input.Name,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create channel", err)
	}

	s.cfg.Log.Info("Channel created",
		"tenant_id", tenantID,
		"channel_id", channel.ID,
		"name", channel.Name,
	)
	s.publishAudit(ctx, EventChannelCreated, tenantID, channel)

	return channel, nil
}

// Update replaces the mutable fields of an existing channel. When the
// payload carries no id the call is a silent no-op.
func (s *channelService) Update(ctx context.Context, input *model.ChannelInput, tenantID int64) error {
	if tenantID <= 0 {
		return apperrors.MissingTenant()
	}

	s.sanitize(input)
	if err := s.validator.Validate(input); err != nil {
		return apperrors.Validation("Channel validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	admin, err := s.resolveAdmin(ctx, input.UpdatedBy)
	if err != nil {
		return err
	}

	if input.ID == "" {
		s.cfg.Log.Warn("Channel update without id ignored",
			"tenant_id", tenantID,
			"name", input.Name,
		)
		return nil
	}

	channel := &model.Channel{
		TenantID:  tenantID,
		Name:      input.Name,
		Budget:    input.Budget,
		Cost:      input.Cost,
		Clicks:    input.Clicks,
		Leads:     input.Leads,
		UpdatedBy: admin.ID,
	}

	// The replace and the post-image read run in one transaction; the audit
	// event carries the exact resulting document, lead increments included.
	var updated *model.Channel
	err = s.withWriteLock(ctx, tenantID, "channel:"+input.ID, func(ctx context.Context) error {
		return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			result, err := s.repo.Update(sessCtx, input.ID, channel)
			if err != nil {
				return err
			}
			if result.MatchedCount == 0 {
				return fmt.Errorf("%w: %s", marketingerrors.ErrChannelNotFound, input.ID)
			}
			updated, err = s.repo.FindByID(sessCtx, input.ID)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, marketingerrors.ErrChannelNotFound) {
			return apperrors.NotFoundWithID("Channel", input.ID)
		}
		if errors.Is(err, marketingerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid channel ID format")
		}
		s.cfg.Log.Error("Failed to update channel",
			"tenant_id", tenantID,
			"channel_id", input.ID,
			"error", err,
		)
		return apperrors.Internal("Failed to update channel", err)
	}

	s.cfg.Log.Info("Channel updated", "tenant_id", tenantID, "channel_id", input.ID)
	s.publishAudit(ctx, EventChannelUpdated, tenantID, updated)

	return nil
}

// Delete removes a channel within the tenant's scope; an id owned by
// another tenant reads as not found.
func (s *channelService) Delete(ctx context.Context, id string, tenantID int64) error {
	if tenantID <= 0 {
		return apperrors.MissingTenant()
	}
	if id == "" {
		return apperrors.InvalidInput("Channel ID cannot be empty")
	}

	err := s.withWriteLock(ctx, tenantID, "channel:"+id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id, tenantID)
	})
	if err != nil {
		if errors.Is(err, marketingerrors.ErrChannelNotFound) {
			return apperrors.NotFoundWithID("Channel", id)
		}
		if errors.Is(err, marketingerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid channel ID format")
		}
		s.cfg.Log.Error("Failed to delete channel",
			"tenant_id", tenantID,
			"channel_id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete channel", err)
	}

	s.cfg.Log.Info("Channel deleted", "tenant_id", tenantID, "channel_id", id)
	s.publishAudit(ctx, EventChannelDeleted, tenantID, &model.Channel{ID: id, TenantID: tenantID})

	return nil
}

// GetBudget returns the tenant-wide budget scalar alongside the summed
// channel ledger totals.
func (s *channelService) GetBudget(ctx context.Context, tenantID int64) (*model.BudgetSummary, error) {
	if tenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	budget, err := s.repo.GetTenantBudget(ctx, tenantID)
	if err != nil {
		if errors.Is(err, marketingerrors.ErrTenantNotFound) {
			return nil, apperrors.NotFoundWithID("Tenant", fmt.Sprintf("%d", tenantID))
		}
		s.cfg.Log.Error("Failed to get tenant budget", "tenant_id", tenantID, "error", err)
		return nil, apperrors.Internal("Failed to get tenant budget", err)
	}

	channels, err := s.repo.FindAll(ctx, tenantID)
	if err != nil {
		s.cfg.Log.Error("Failed to list channels for budget", "tenant_id", tenantID, "error", err)
		return nil, apperrors.Internal("Failed to get tenant budget", err)
	}

	summary := &model.BudgetSummary{Budget: budget}
	for _, channel := range channels {
		summary.TotalCost += channel.Cost
		summary.TotalClicks += channel.Clicks
		summary.TotalLeads += channel.Leads
	}
	return summary, nil
}

func (s *channelService) UpdateBudget(ctx context.Context, tenantID int64, amount float64) (float64, error) {
	if tenantID <= 0 {
		return 0, apperrors.MissingTenant()
	}
	if err := s.validator.ValidateBudget(amount); err != nil {
		return 0, apperrors.Validation("Budget validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.withWriteLock(ctx, tenantID, "budget", func(ctx context.Context) error {
		return s.repo.UpdateTenantBudget(ctx, tenantID, amount)
	})
	if err != nil {
		if errors.Is(err, marketingerrors.ErrTenantNotFound) {
			return 0, apperrors.NotFoundWithID("Tenant", fmt.Sprintf("%d", tenantID))
		}
		s.cfg.Log.Error("Failed to update tenant budget", "tenant_id", tenantID, "error", err)
		return 0, apperrors.Internal("Failed to update tenant budget", err)
	}

	s.cfg.Log.Info("Tenant budget updated", "tenant_id", tenantID, "budget", amount)
	s.publishAudit(ctx, EventBudgetUpdated, tenantID, map[string]any{"budget": amount})

	return amount, nil
}

func (s *channelService) sanitize(input *model.ChannelInput) {
	input.Name = sanitizer.TrimAndNormalize(input.Name)
	input.Budget = sanitizer.NormalizeMoney(input.Budget)
	input.Cost = sanitizer.NormalizeMoney(input.Cost)
	input.Clicks = sanitizer.NormalizeCount(input.Clicks)
	input.Leads = sanitizer.NormalizeCount(input.Leads)
}

func (s *channelService) resolveAdmin(ctx context.Context, adminID int64) (*model.Admin, error) {
	admin, err := s.catalog.FindAdminByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, marketingerrors.ErrAdminNotFound) {
			return nil, apperrors.NotFoundWithID("Admin", fmt.Sprintf("%d", adminID))
		}
		s.cfg.Log.Error("Failed to resolve admin", "admin_id", adminID, "error", err)
		return nil, apperrors.Internal("Failed to resolve admin", err)
	}
	return admin, nil
}

// withWriteLock serializes writers on one (tenant, key) pair. Contention is
// waited out until the request context expires; last writer wins.
func (s *channelService) withWriteLock(ctx context.Context, tenantID int64, key string, fn func(ctx context.Context) error) error {
	var lock *model.WriteLock
	for {
		var err error
		lock, err = s.locks.Acquire(ctx, tenantID, key)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return apperrors.Timeout("Timed out waiting for write lock")
		case <-time.After(lockRetryInterval):
		}
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), lock.ID); err != nil {
			s.cfg.Log.Error("Failed to release write lock", "lock_id", lock.ID, "error", err)
		}
	}()

	return fn(ctx)
}

func (s *channelService) publishAudit(ctx context.Context, eventType string, tenantID int64, payload any) {
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
