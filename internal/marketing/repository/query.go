package repository

import (
	"context"
	"fmt"
	"time"

	marketingerrors "clinicops/internal/marketing/errors"
	"clinicops/internal/marketing/filter"
	"clinicops/pkg/config"
	"clinicops/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RecordCollectionName  = "Booking_records"
	PatientCollectionName = "Patients"
	LeadCollectionName    = "Leads"
)

// QueryRepository runs filtered counts and row reads over the booking,
// patient and lead collections. All predicates combine conjunctively; an
// absent criteria field adds no clause.
type QueryRepository interface {
	CountRecords(ctx context.Context, c *filter.Criteria) (int64, error)
	FindRecords(ctx context.Context, c *filter.Criteria) ([]*model.BookingRecord, error)
	SumRecordPrices(ctx context.Context, c *filter.Criteria) (float64, error)
	CountPatients(ctx context.Context, c *filter.Criteria) (int64, error)
	CountLeads(ctx context.Context, c *filter.Criteria) (int64, error)
}

type mongoQueryRepository struct {
	cfg      *config.Config
	records  *mongo.Collection
	patients *mongo.Collection
	leads    *mongo.Collection
}

func NewMongoQueryRepository(cfg *config.Config) QueryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoQueryRepository{
		cfg:      cfg,
		records:  db.Collection(RecordCollectionName),
		patients: db.Collection(PatientCollectionName),
		leads:    db.Collection(LeadCollectionName),
	}
}

func (r *mongoQueryRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoQueryRepository) CountRecords(ctx context.Context, c *filter.Criteria) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	predicate, err := recordFilter(c)
	if err != nil {
		return 0, err
	}

	count, err := r.records.CountDocuments(ctx, predicate)
	if err != nil {
		return 0, fmt.Errorf("failed to count booking records: %w", err)
	}
	return count, nil
}

func (r *mongoQueryRepository) FindRecords(ctx context.Context, c *filter.Criteria) ([]*model.BookingRecord, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	predicate, err := recordFilter(c)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "exam_date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(config.NormalizePaginationLimit(c.Take))).
		SetSkip(config.NormalizeOffset(c.Skip))

	cursor, err := r.records.Find(ctx, predicate, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*model.BookingRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode booking records: %w", err)
	}
	return records, nil
}

// SumRecordPrices adds up the snapshotted exam price of every record the
// criteria matches. Pagination does not apply; the sum always covers the
// full match set.
func (r *mongoQueryRepository) SumRecordPrices(ctx context.Context, c *filter.Criteria) (float64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	predicate, err := recordFilter(c)
	if err != nil {
		return 0, err
	}

	pipeline := []bson.M{
		{"$match": predicate},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$price"}}},
	}

	cursor, err := r.records.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum record prices: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode record price sum: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

func (r *mongoQueryRepository) CountPatients(ctx context.Context, c *filter.Criteria) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	predicate, err := patientFilter(c)
	if err != nil {
		return 0, err
	}

	count, err := r.patients.CountDocuments(ctx, predicate)
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

func (r *mongoQueryRepository) CountLeads(ctx context.Context, c *filter.Criteria) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	predicate, err := leadFilter(c)
	if err != nil {
		return 0, err
	}

	count, err := r.leads.CountDocuments(ctx, predicate)
	if err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

// recordFilter translates criteria into the booking-record predicate.
// Every clause is a typed bson value, never interpolated text.
func recordFilter(c *filter.Criteria) (bson.M, error) {
	if c == nil || c.TenantID <= 0 {
		return nil, marketingerrors.ErrMissingTenant
	}

	predicate := bson.M{"tenant_id": c.TenantID}

	if c.Status != "" {
		predicate["status"] = c.Status
	}
	if c.ExamID > 0 {
		predicate["exam_id"] = c.ExamID
	}
	if c.ExamType != "" {
		predicate["exam_type"] = c.ExamType
	}
	if c.ExamName != "" {
		predicate["exam_name"] = caseInsensitive(c.ExamName)
	}
	if c.Attended != "" {
		predicate["attended"] = c.Attended
	}
	if c.Channel != "" {
		predicate["channel"] = c.Channel
	}
	if c.DoctorID > 0 {
		predicate["doctor_id"] = c.DoctorID
	}
	if c.PatientID > 0 {
		predicate["patient_id"] = c.PatientID
	}
	if c.Gender != "" {
		predicate["gender"] = c.Gender
	}
	if c.PatientName != "" {
		predicate["patient_name"] = caseInsensitive(c.PatientName)
	}

	if from, to := c.Window(); from != nil || to != nil {
		window := bson.M{}
		if from != nil {
			window["$gte"] = *from
		}
		if to != nil {
			window["$lt"] = *to
		}
		predicate["exam_date"] = window
	}

	return predicate, nil
}

func patientFilter(c *filter.Criteria) (bson.M, error) {
	if c == nil || c.TenantID <= 0 {
		return nil, marketingerrors.ErrMissingTenant
	}

	predicate := bson.M{"tenants": c.TenantID}

	if c.PatientID > 0 {
		predicate["_id"] = c.PatientID
	}
	if c.Gender != "" {
		predicate["gender"] = c.Gender
	}
	if c.Channel != "" {
		// Patients.channel is written by the patient importer and may keep
		// display casing; the sanitized label matches it case-insensitively.
		predicate["channel"] = caseInsensitiveExact(c.Channel)
	}
	if c.PatientName != "" {
		predicate["full_name"] = caseInsensitive(c.PatientName)
	}

	return predicate, nil
}

func leadFilter(c *filter.Criteria) (bson.M, error) {
	if c == nil || c.TenantID <= 0 {
		return nil, marketingerrors.ErrMissingTenant
	}

	predicate := bson.M{
		"tenant_id":  c.TenantID,
		"deleted_at": nil,
	}

	if c.Channel != "" {
		predicate["channel"] = c.Channel
	}
	if c.DoctorID > 0 {
		predicate["doctor_id"] = c.DoctorID
	}
	if c.ExamID > 0 {
		predicate["exam_id"] = c.ExamID
	}
	if c.PatientName != "" {
		predicate["name"] = caseInsensitive(c.PatientName)
	}

	if from, to := c.Window(); from != nil || to != nil {
		window := bson.M{}
		if from != nil {
			window["$gte"] = *from
		}
		if to != nil {
			window["$lt"] = *to
		}
		predicate["call_date"] = window
	}

	return predicate, nil
}

func caseInsensitive(term string) bson.M {
	return bson.M{"$regex": primitive.Regex{Pattern: regexEscape(term), Options: "i"}}
}

func caseInsensitiveExact(term string) bson.M {
	return bson.M{"$regex": primitive.Regex{Pattern: "^" + regexEscape(term) + "$", Options: "i"}}
}

// regexEscape quotes regex metacharacters so free-text filters stay literal
// substring matches.
func regexEscape(term string) string {
	const meta = `\.+*?()|[]{}^$`
	out := make([]rune, 0, len(term))
	for _, r := range term {
		for _, m := range meta {
			if r == m {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, r)
	}
	return string(out)
}
