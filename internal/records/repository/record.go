package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	recorderrors "clinicops/internal/records/errors"
	"clinicops/pkg/config"
	"clinicops/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const RecordCollectionName = "Booking_records"

// ListParams narrows a tenant's booking record listing. Zero-valued fields
// are not applied.
type ListParams struct {
	TenantID    int64
	PatientID   int64
	PatientName string
	Status      string
	From        *time.Time
	To          *time.Time
	Take        int
	Skip        int64
}

type RecordRepository interface {
	List(ctx context.Context, params ListParams) ([]*model.BookingRecord, int64, error)
	FindByID(ctx context.Context, id string, tenantID int64) (*model.BookingRecord, error)
	Create(ctx context.Context, record *model.BookingRecord) error
	Update(ctx context.Context, id string, tenantID int64, update *model.RecordUpdate) (*mongo.UpdateResult, error)
	SetAttendance(ctx context.Context, id string, tenantID int64, attended string) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string, tenantID int64) error
}

type mongoRecordRepository struct {
	cfg     *config.Config
	records *mongo.Collection
}

func NewMongoRecordRepository(cfg *config.Config) RecordRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRecordRepository{
		cfg:     cfg,
		records: db.Collection(RecordCollectionName),
	}
}

func (r *mongoRecordRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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
		return nil, recorderrors.ErrMissingTenant
	}

	filter := bson.M{"tenant_id": params.TenantID}
	if params.PatientID > 0 {
		filter["patient_id"] = params.PatientID
	}
	if params.PatientName != "" {
		filter["patient_name"] = primitive.Regex{Pattern: regexEscape(params.PatientName), Options: "i"}
	}
	if params.Status != "" {
		filter["status"] = params.Status
	}
	if params.From != nil || params.To != nil {
		window := bson.M{}
		if params.From != nil {
			window["$gte"] = *params.From
		}
		if params.To != nil {
			window["$lt"] = *params.To
		}
		filter["exam_date"] = window
	}
	return filter, nil
}

// List returns one page of records, newest exam first, together with the
// total match count so the caller can paginate.
func (r *mongoRecordRepository) List(ctx context.Context, params ListParams) ([]*model.BookingRecord, int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter, err := listFilter(params)
	if err != nil {
		return nil, 0, err
	}

	var (
		wg       sync.WaitGroup
		records  []*model.BookingRecord
		total    int64
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		opts := options.Find().
			SetSort(bson.D{{Key: "exam_date", Value: -1}, {Key: "_id", Value: -1}}).
			SetLimit(int64(config.NormalizePaginationLimit(params.Take))).
			SetSkip(config.NormalizeOffset(params.Skip))

		cursor, err := r.records.Find(ctx, filter, opts)
		if err != nil {
			findErr = fmt.Errorf("failed to list booking records: %w", err)
			return
		}
		defer cursor.Close(ctx)

		records = []*model.BookingRecord{}
		if err := cursor.All(ctx, &records); err != nil {
			findErr = fmt.Errorf("failed to decode booking records: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		n, err := r.records.CountDocuments(ctx, filter)
		if err != nil {
			countErr = fmt.Errorf("failed to count booking records: %w", err)
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
	return records, total, nil
}

func (r *mongoRecordRepository) FindByID(ctx context.Context, id string, tenantID int64) (*model.BookingRecord, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", recorderrors.ErrInvalidID, id)
	}

	var record model.BookingRecord
	err = r.records.FindOne(ctx, bson.M{"_id": objectID, "tenant_id": tenantID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: %s", recorderrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking record: %w", err)
	}
	return &record, nil
}

func (r *mongoRecordRepository) Create(ctx context.Context, record *model.BookingRecord) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	record.CreatedAt = now
	record.UpdatedAt = now

	result, err := r.records.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create booking record: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

// Update applies the non-empty fields of the partial update. The filter is
// tenant scoped so one tenant can never touch another tenant's record.
func (r *mongoRecordRepository) Update(ctx context.Context, id string, tenantID int64, update *model.RecordUpdate) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", recorderrors.ErrInvalidID, id)
	}

	set := bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}
	if update.Status != "" {
		set["status"] = update.Status
	}
	if update.ResultLink != "" {
		set["result_link"] = update.ResultLink
	}
	if update.Attended != nil {
		set["attended"] = *update.Attended
	}
	if update.ExamDate != nil {
		set["exam_date"] = *update.ExamDate
	}
	if update.DoctorID != nil {
		set["doctor_id"] = *update.DoctorID
	}

	result, err := r.records.UpdateOne(ctx, bson.M{"_id": objectID, "tenant_id": tenantID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update booking record: %w", err)
	}
	return result, nil
}

func (r *mongoRecordRepository) SetAttendance(ctx context.Context, id string, tenantID int64, attended string) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", recorderrors.ErrInvalidID, id)
	}

	result, err := r.records.UpdateOne(ctx,
		bson.M{"_id": objectID, "tenant_id": tenantID},
		bson.M{"$set": bson.M{
			"attended":   attended,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update attendance: %w", err)
	}
	return result, nil
}

func (r *mongoRecordRepository) Delete(ctx context.Context, id string, tenantID int64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", recorderrors.ErrInvalidID, id)
	}

	result, err := r.records.DeleteOne(ctx, bson.M{"_id": objectID, "tenant_id": tenantID})
	if err != nil {
		return fmt.Errorf("failed to delete booking record: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", recorderrors.ErrNotFound, id)
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
