package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	leaderrors "clinicops/internal/leads/errors"
	"clinicops/pkg/config"
	"clinicops/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const LeadCollectionName = "Leads"

// ListParams narrows a tenant's lead listing. Zero-valued fields are not
// applied. Soft-deleted leads are always excluded.
type ListParams struct {
	TenantID  int64
	Name      string
	Phone     string
	Channel   string
	ExamID    int64
	DoctorID  int64
	Scheduled *bool
	From      *time.Time
	To        *time.Time
	Take      int
	Skip      int64
}

type LeadRepository interface {
	List(ctx context.Context, params ListParams) ([]*model.Lead, int64, error)
	Create(ctx context.Context, lead *model.Lead) error
	Update(ctx context.Context, id string, tenantID int64, update *model.LeadUpdate) (*mongo.UpdateResult, error)
	SoftDelete(ctx context.Context, id string, tenantID int64) error
}

type mongoLeadRepository struct {
	cfg   *config.Config
	leads *mongo.Collection
}

func NewMongoLeadRepository(cfg *config.Config) LeadRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLeadRepository{
		cfg:   cfg,
		leads: db.Collection(LeadCollectionName),
	}
}

func (r *mongoLeadRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func listFilter(params ListParams) (bson.M, error) {
	if params.TenantID <= 0 {
		return nil, leaderrors.ErrMissingTenant
	}

	filter := bson.M{
		"tenant_id":  params.TenantID,
		"deleted_at": nil,
	}
	if params.Name != "" {
		filter["name"] = primitive.Regex{Pattern: regexEscape(params.Name), Options: "i"}
	}
	if params.Phone != "" {
		filter["phone"] = params.Phone
	}
	if params.Channel != "" {
		filter["channel"] = params.Channel
	}
	if params.ExamID > 0 {
		filter["exam_id"] = params.ExamID
	}
	if params.DoctorID > 0 {
		filter["doctor_id"] = params.DoctorID
	}
	if params.Scheduled != nil {
		filter["scheduled"] = *params.Scheduled
	}
	if params.From != nil || params.To != nil {
		window := bson.M{}
		if params.From != nil {
			window["$gte"] = *params.From
		}
		if params.To != nil {
			window["$lt"] = *params.To
		}
		filter["call_date"] = window
	}
	return filter, nil
}

// List returns one page of leads, most recent call first, together with the
// total match count.
func (r *mongoLeadRepository) List(ctx context.Context, params ListParams) ([]*model.Lead, int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter, err := listFilter(params)
	if err != nil {
		return nil, 0, err
	}

	var (
		wg       sync.WaitGroup
		leads    []*model.Lead
		total    int64
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		opts := options.Find().
			SetSort(bson.D{{Key: "call_date", Value: -1}, {Key: "_id", Value: -1}}).
			SetLimit(int64(config.NormalizePaginationLimit(params.Take))).
			SetSkip(config.NormalizeOffset(params.Skip))

		cursor, err := r.leads.Find(ctx, filter, opts)
		if err != nil {
			findErr = fmt.Errorf("failed to list leads: %w", err)
			return
		}
		defer cursor.Close(ctx)

		leads = []*model.Lead{}
		if err := cursor.All(ctx, &leads); err != nil {
			findErr = fmt.Errorf("failed to decode leads: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		n, err := r.leads.CountDocuments(ctx, filter)
		if err != nil {
			countErr = fmt.Errorf("failed to count leads: %w", err)
			return
		}
		total = n
	}()
	wg.Wait()

	if findErr != nil {
		return nil, 0, findErr
	}
	if countErr != nil {
		return nil, 0, countErr
	}
	return leads, total, nil
}

func (r *mongoLeadRepository) Create(ctx context.Context, lead *model.Lead) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lead.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.leads.InsertOne(ctx, lead)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		lead.ID = oid.Hex()
	}
	return nil
}

// Update applies the non-nil fields of the partial update to a live lead.
// Soft-deleted leads cannot be mutated.
func (r *mongoLeadRepository) Update(ctx context.Context, id string, tenantID int64, update *model.LeadUpdate) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", leaderrors.ErrInvalidID, id)
	}

	set := bson.M{}
	if update.Name != "" {
		set["name"] = update.Name
	}
	if update.Phone != "" {
		set["phone"] = update.Phone
	}
	if update.ExamID != nil {
		set["exam_id"] = *update.ExamID
	}
	if update.DoctorID != nil {
		set["doctor_id"] = *update.DoctorID
	}
	if update.CallDate != nil {
		set["call_date"] = *update.CallDate
	}
	if update.Scheduled != nil {
		set["scheduled"] = *update.Scheduled
	}

	result, err := r.leads.UpdateOne(ctx,
		bson.M{"_id": objectID, "tenant_id": tenantID, "deleted_at": nil},
		bson.M{"$set": set},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return result, nil
}

// SoftDelete stamps deleted_at instead of removing the document so intake
// counters and historical reports keep their denominators.
func (r *mongoLeadRepository) SoftDelete(ctx context.Context, id string, tenantID int64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", leaderrors.ErrInvalidID, id)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.leads.UpdateOne(ctx,
		bson.M{"_id": objectID, "tenant_id": tenantID, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": now}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", leaderrors.ErrNotFound, id)
	}
	return nil
}

func regexEscape(s string) string {
	escaped := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '\\', '.', '+', '*', '?', '(', ')', '|', '[', ']', '{', '}', '^', '$':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return string(escaped)
}
