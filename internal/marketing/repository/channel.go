package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	marketingerrors "clinicops/internal/marketing/errors"
	"clinicops/pkg/config"
	mongotx "clinicops/pkg/db/mongo"
	"clinicops/pkg/model"
	"clinicops/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ChannelCollectionName = "Channels"
	TenantCollectionName  = "Tenants"
)

type ChannelRepository interface {
	FindAll(ctx context.Context, tenantID int64) ([]*model.Channel, error)
	FindByID(ctx context.Context, id string) (*model.Channel, error)
	Create(ctx context.Context, channel *model.Channel) error
	Update(ctx context.Context, id string, channel *model.Channel) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string, tenantID int64) error
	IncrementLeads(ctx context.Context, tenantID int64, channelName string, delta int64) error

	GetTenantBudget(ctx context.Context, tenantID int64) (float64, error)
	UpdateTenantBudget(ctx context.Context, tenantID int64, amount float64) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoChannelRepository struct {
	cfg       *config.Config
	channels  *mongo.Collection
	tenants   *mongo.Collection
	txManager mongotx.TransactionManager
}

func NewMongoChannelRepository(cfg *config.Config) ChannelRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoChannelRepository{
		cfg:       cfg,
		channels:  db.Collection(ChannelCollectionName),
		tenants:   db.Collection(TenantCollectionName),
		txManager: mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoChannelRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

// FindAll lists a tenant's channels ordered by ascending id.
func (r *mongoChannelRepository) FindAll(ctx context.Context, tenantID int64) ([]*model.Channel, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if tenantID <= 0 {
		return nil, marketingerrors.ErrMissingTenant
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.channels.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer cursor.Close(ctx)

	channels := []*model.Channel{}
	if err := cursor.All(ctx, &channels); err != nil {
		return nil, fmt.Errorf("failed to decode channels: %w", err)
	}
	return channels, nil
}

func (r *mongoChannelRepository) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", marketingerrors.ErrInvalidID, id)
	}

	var channel model.Channel
	err = r.channels.FindOne(ctx, bson.M{"_id": objectID}).Decode(&channel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", marketingerrors.ErrChannelNotFound, id)
		}
		return nil, fmt.Errorf("failed to find channel: %w", err)
	}
	return &channel, nil
}

func (r *mongoChannelRepository) Create(ctx context.Context, channel *model.Channel) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	channel.NameKey = channelNameKey(channel.Name)
	channel.CreatedAt = now
	channel.UpdatedAt = now

	result, err := r.channels.InsertOne(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		channel.ID = oid.Hex()
	}
	return nil
}

func (r *mongoChannelRepository) Update(ctx context.Context, id string, channel *model.Channel) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", marketingerrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{
		"name":       channel.Name,
		"name_key":   channelNameKey(channel.Name),
		"budget":     channel.Budget,
		"cost":       channel.Cost,
		"clicks":     channel.Clicks,
		"leads":      channel.Leads,
		"updated_by": channel.UpdatedBy,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.channels.UpdateOne(ctx, bson.M{"_id": objectID, "tenant_id": channel.TenantID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update channel: %w", err)
	}
	return result, nil
}

// Delete removes a channel by id within the owning tenant's scope.
func (r *mongoChannelRepository) Delete(ctx context.Context, id string, tenantID int64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", marketingerrors.ErrInvalidID, id)
	}

	result, err := r.channels.DeleteOne(ctx, bson.M{"_id": objectID, "tenant_id": tenantID})
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", marketingerrors.ErrChannelNotFound, id)
	}
	return nil
}

// IncrementLeads bumps the lead counter of the tenant's channel with the
// given name. Missing channels are ignored so intake never fails on a label
// that has no ledger entry.
func (r *mongoChannelRepository) IncrementLeads(ctx context.Context, tenantID int64, channelName string, delta int64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.channels.UpdateOne(ctx,
		incrementLeadsFilter(tenantID, channelName),
		bson.M{"$inc": bson.M{"leads": delta}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment channel leads: %w", err)
	}
	return nil
}

// channelNameKey is the canonical lookup form of a channel name. Both the
// stored document and any name-based predicate go through it, so a lead
// tagged "google ads" still reaches the "Google Ads" ledger entry.
func channelNameKey(name string) string {
	return sanitizer.SanitizeChannelLabel(name)
}

func incrementLeadsFilter(tenantID int64, channelName string) bson.M {
	return bson.M{"tenant_id": tenantID, "name_key": channelNameKey(channelName)}
}

func (r *mongoChannelRepository) GetTenantBudget(ctx context.Context, tenantID int64) (float64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var tenant model.Tenant
	err := r.tenants.FindOne(ctx, bson.M{"_id": tenantID}).Decode(&tenant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, fmt.Errorf("%w: %d", marketingerrors.ErrTenantNotFound, tenantID)
		}
		return 0, fmt.Errorf("failed to find tenant: %w", err)
	}
	return tenant.BudgetTotal, nil
}

func (r *mongoChannelRepository) UpdateTenantBudget(ctx context.Context, tenantID int64, amount float64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.tenants.UpdateOne(ctx,
		bson.M{"_id": tenantID},
		bson.M{"$set": bson.M{"budget_total": amount}},
	)
	if err != nil {
		return fmt.Errorf("failed to update tenant budget: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %d", marketingerrors.ErrTenantNotFound, tenantID)
	}
	return nil
}

func (r *mongoChannelRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
