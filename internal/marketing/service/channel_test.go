package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	marketingerrors "clinicops/internal/marketing/errors"
	"clinicops/internal/marketing/validator"
	apperrors "clinicops/pkg/errors"
	"clinicops/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

func newChannelService(
	repo *mockChannelRepository,
	catalog *mockCatalogRepository,
	publisher *mockPublisher,
) ChannelService {
	return NewChannelService(
		repo,
		catalog,
		&mockWriteLockRepository{},
		validator.NewChannelValidator(),
		publisher,
		testConfig(),
	)
}

func TestCreateChannel(t *testing.T) {
	repo := &mockChannelRepository{}
	publisher := &mockPublisher{}
	svc := newChannelService(repo, &mockCatalogRepository{}, publisher)

	input := &model.ChannelInput{
		Name:      "  Google   Ads ",
		Budget:    1500,
		UpdatedBy: 3,
	}
	channel, err := svc.Create(context.Background(), input, 1)
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if channel.Name != "Google Ads" {
		t.Errorf("channel name = %q, want sanitized %q", channel.Name, "Google Ads")
	}
	if channel.TenantID != 1 {
		t.Errorf("channel tenant = %d, want 1", channel.TenantID)
	}
	if channel.CreatedBy != 3 || channel.UpdatedBy != 3 {
		t.Errorf("audit fields = %d/%d, want 3/3", channel.CreatedBy, channel.UpdatedBy)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("published %d audit events, want 1", len(publisher.published))
	}
	if got := publisher.published[0].GetEventType(); got != EventChannelCreated {
		t.Errorf("audit event type = %q, want %q", got, EventChannelCreated)
	}
}

func TestCreateChannelUnresolvableAdmin(t *testing.T) {
	catalog := &mockCatalogRepository{
		findAdminFunc: func(ctx context.Context, id int64) (*model.Admin, error) {
			return nil, fmt.Errorf("%w: %d", marketingerrors.ErrAdminNotFound, id)
		},
	}
	svc := newChannelService(&mockChannelRepository{}, catalog, &mockPublisher{})

	_, err := svc.Create(context.Background(), &model.ChannelInput{Name: "Instagram", UpdatedBy: 99}, 1)
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("Create() with unknown admin status = %d, want 404", appErr.HTTPStatus)
	}
}

func TestCreateChannelPublishFailureDoesNotFail(t *testing.T) {
	publisher := &mockPublisher{err: fmt.Errorf("broker unreachable")}
	svc := newChannelService(&mockChannelRepository{}, &mockCatalogRepository{}, publisher)

	_, err := svc.Create(context.Background(), &model.ChannelInput{Name: "Instagram", UpdatedBy: 3}, 1)
	if err != nil {
		t.Errorf("Create() error = %v, want nil despite publish failure", err)
	}
}

func TestUpdateChannelWithoutIDIsNoOp(t *testing.T) {
	repo := &mockChannelRepository{}
	publisher := &mockPublisher{}
	svc := newChannelService(repo, &mockCatalogRepository{}, publisher)

	err := svc.Update(context.Background(), &model.ChannelInput{Name: "Instagram", UpdatedBy: 3}, 1)
	if err != nil {
		t.Fatalf("Update() without id error = %v, want silent no-op", err)
	}
	if repo.updateCalls != 0 {
		t.Errorf("repo.Update called %d times, want 0", repo.updateCalls)
	}
	if len(publisher.published) != 0 {
		t.Errorf("published %d audit events, want 0 for a no-op", len(publisher.published))
	}
}

func TestUpdateChannelAuditsTransactionalPostImage(t *testing.T) {
	repo := &mockChannelRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Channel, error) {
			return &model.Channel{ID: id, TenantID: 1, Name: "Google Ads", Leads: 12}, nil
		},
	}
	publisher := &mockPublisher{}
	svc := newChannelService(repo, &mockCatalogRepository{}, publisher)

	err := svc.Update(context.Background(), &model.ChannelInput{
		ID:        "65f000000000000000000001",
		Name:      "Google Ads",
		Leads:     3,
		UpdatedBy: 3,
	}, 1)
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	if repo.txCalls != 1 {
		t.Errorf("update ran %d transactions, want 1", repo.txCalls)
	}
	if repo.updateCalls != 1 {
		t.Errorf("repo.Update called %d times, want 1", repo.updateCalls)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("published %d audit events, want 1", len(publisher.published))
	}
	msg := publisher.published[0]
	var got model.Channel
	if err := msg.DecodeValue(&got); err != nil {
		t.Fatalf("DecodeValue() unexpected error: %v", err)
	}
	if got.Leads != 12 {
		t.Errorf("audit event leads = %d, want the stored post-image 12", got.Leads)
	}
}

func TestUpdateChannelUnknownID(t *testing.T) {
	repo := &mockChannelRepository{
		updateFunc: func(ctx context.Context, id string, channel *model.Channel) (*mongo.UpdateResult, error) {
			return &mongo.UpdateResult{MatchedCount: 0}, nil
		},
	}
	svc := newChannelService(repo, &mockCatalogRepository{}, &mockPublisher{})

	err := svc.Update(context.Background(), &model.ChannelInput{
		ID:        "65f000000000000000000009",
		Name:      "Instagram",
		UpdatedBy: 3,
	}, 1)
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("Update() unknown id status = %d, want 404", appErr.HTTPStatus)
	}
}

func TestDeleteChannelEnforcesTenantScope(t *testing.T) {
	var gotTenant int64
	repo := &mockChannelRepository{
		deleteFunc: func(ctx context.Context, id string, tenantID int64) error {
			gotTenant = tenantID
			return fmt.Errorf("%w: %s", marketingerrors.ErrChannelNotFound, id)
		},
	}
	svc := newChannelService(repo, &mockCatalogRepository{}, &mockPublisher{})

	err := svc.Delete(context.Background(), "65f000000000000000000001", 2)
	if gotTenant != 2 {
		t.Errorf("delete ran with tenant %d, want 2", gotTenant)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("Delete() of another tenant's channel status = %d, want 404", appErr.HTTPStatus)
	}
}

func TestGetBudgetSumsChannelLedgers(t *testing.T) {
	repo := &mockChannelRepository{
		getTenantBudgetFunc: func(ctx context.Context, tenantID int64) (float64, error) {
			return 5000, nil
		},
		findAllFunc: func(ctx context.Context, tenantID int64) ([]*model.Channel, error) {
			return []*model.Channel{
				{TenantID: tenantID, Name: "Google Ads", Cost: 50, Clicks: 100, Leads: 10},
				{TenantID: tenantID, Name: "Instagram", Cost: 30, Clicks: 40, Leads: 5},
			}, nil
		},
	}
	svc := newChannelService(repo, &mockCatalogRepository{}, &mockPublisher{})

	summary, err := svc.GetBudget(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetBudget() unexpected error: %v", err)
	}

	if summary.Budget != 5000 {
		t.Errorf("Budget = %v, want 5000", summary.Budget)
	}
	if summary.TotalCost != 80 || summary.TotalClicks != 140 || summary.TotalLeads != 15 {
		t.Errorf("summary = %+v, want cost=80 clicks=140 leads=15", summary)
	}
}

func TestUpdateBudget(t *testing.T) {
	var gotAmount float64
	repo := &mockChannelRepository{
		updateTenantBudgetFunc: func(ctx context.Context, tenantID int64, amount float64) error {
			gotAmount = amount
			return nil
		},
	}
	publisher := &mockPublisher{}
	svc := newChannelService(repo, &mockCatalogRepository{}, publisher)

	amount, err := svc.UpdateBudget(context.Background(), 1, 7500)
	if err != nil {
		t.Fatalf("UpdateBudget() unexpected error: %v", err)
	}
	if amount != 7500 || gotAmount != 7500 {
		t.Errorf("UpdateBudget() = %v (stored %v), want 7500", amount, gotAmount)
	}
	if len(publisher.published) != 1 || publisher.published[0].GetEventType() != EventBudgetUpdated {
		t.Errorf("expected one %s audit event", EventBudgetUpdated)
	}
}

func TestUpdateBudgetNegativeAmount(t *testing.T) {
	svc := newChannelService(&mockChannelRepository{}, &mockCatalogRepository{}, &mockPublisher{})

	_, err := svc.UpdateBudget(context.Background(), 1, -10)
	if err == nil {
		t.Fatal("UpdateBudget(-10) error = nil, want validation error")
	}
}

func TestChannelOperationsRequireTenant(t *testing.T) {
	svc := newChannelService(&mockChannelRepository{}, &mockCatalogRepository{}, &mockPublisher{})
	ctx := context.Background()

	if _, err := svc.List(ctx, 0); err == nil {
		t.Error("List() without tenant error = nil, want error")
	}
	if _, err := svc.Create(ctx, &model.ChannelInput{Name: "x", UpdatedBy: 1}, 0); err == nil {
		t.Error("Create() without tenant error = nil, want error")
	}
	if err := svc.Delete(ctx, "65f000000000000000000001", 0); err == nil {
		t.Error("Delete() without tenant error = nil, want error")
	}
	if _, err := svc.GetBudget(ctx, 0); err == nil {
		t.Error("GetBudget() without tenant error = nil, want error")
	}
}
