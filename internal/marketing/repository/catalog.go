package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	marketingerrors "clinicops/internal/marketing/errors"
	"clinicops/pkg/config"
	"clinicops/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AdminCollectionName  = "Admins"
	ExamCollectionName   = "Exam_catalog"
	DoctorCollectionName = "Doctors"
)

// CatalogRepository resolves the upstream-owned catalogs the aggregation
// cross-references: admins for audit fields, exams for prices, doctors for
// attribution.
type CatalogRepository interface {
	FindAdminByID(ctx context.Context, id int64) (*model.Admin, error)
	FindExamsByTenant(ctx context.Context, tenantID int64) ([]*model.ExamCatalogEntry, error)
	FindExamPrices(ctx context.Context, tenantID, examID int64) (*model.ExamPrices, error)
	FindDoctorsByTenant(ctx context.Context, tenantID int64) ([]*model.Doctor, error)
}

type mongoCatalogRepository struct {
	cfg     *config.Config
	admins  *mongo.Collection
	exams   *mongo.Collection
	doctors *mongo.Collection
}

func NewMongoCatalogRepository(cfg *config.Config) CatalogRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCatalogRepository{
		cfg:     cfg,
		admins:  db.Collection(AdminCollectionName),
		exams:   db.Collection(ExamCollectionName),
		doctors: db.Collection(DoctorCollectionName),
	}
}

func (r *mongoCatalogRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoCatalogRepository) FindAdminByID(ctx context.Context, id int64) (*model.Admin, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var admin model.Admin
	err := r.admins.FindOne(ctx, bson.M{"_id": id}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %d", marketingerrors.ErrAdminNotFound, id)
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	return &admin, nil
}

func (r *mongoCatalogRepository) FindExamsByTenant(ctx context.Context, tenantID int64) ([]*model.ExamCatalogEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if tenantID <= 0 {
		return nil, marketingerrors.ErrMissingTenant
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.exams.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list exam catalog: %w", err)
	}
	defer cursor.Close(ctx)

	exams := []*model.ExamCatalogEntry{}
	if err := cursor.All(ctx, &exams); err != nil {
		return nil, fmt.Errorf("failed to decode exam catalog: %w", err)
	}
	return exams, nil
}

func (r *mongoCatalogRepository) FindExamPrices(ctx context.Context, tenantID, examID int64) (*model.ExamPrices, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	predicate := bson.M{"tenant_id": tenantID}
	if examID > 0 {
		predicate["_id"] = examID
	}

	var exam model.ExamCatalogEntry
	err := r.exams.FindOne(ctx, predicate).Decode(&exam)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("exam %d: %w", examID, mongo.ErrNoDocuments)
		}
		return nil, fmt.Errorf("failed to find exam prices: %w", err)
	}
	return &model.ExamPrices{Price: exam.Price, DoctorPrice: exam.DoctorPrice}, nil
}

func (r *mongoCatalogRepository) FindDoctorsByTenant(ctx context.Context, tenantID int64) ([]*model.Doctor, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if tenantID <= 0 {
		return nil, marketingerrors.ErrMissingTenant
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.doctors.Find(ctx, bson.M{"tenants": tenantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	defer cursor.Close(ctx)

	doctors := []*model.Doctor{}
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("failed to decode doctors: %w", err)
	}
	return doctors, nil
}
