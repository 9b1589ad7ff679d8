package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	recorderrors "clinicops/internal/records/errors"
	"clinicops/pkg/config"
	"clinicops/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ExamCollectionName    = "Exam_catalog"
	PatientCollectionName = "Patients"
	DoctorCollectionName  = "Doctors"
	AdminCollectionName   = "Admins"
)

// ReferenceRepository resolves the upstream-owned entities a booking record
// snapshots at creation time.
type ReferenceRepository interface {
	FindExamByID(ctx context.Context, tenantID, examID int64) (*model.ExamCatalogEntry, error)
	FindPatientByID(ctx context.Context, tenantID, patientID int64) (*model.Patient, error)
	FindDoctorByID(ctx context.Context, doctorID int64) (*model.Doctor, error)
	FindAdminByID(ctx context.Context, adminID int64) (*model.Admin, error)
}

type mongoReferenceRepository struct {
	cfg      *config.Config
	exams    *mongo.Collection
	patients *mongo.Collection
	doctors  *mongo.Collection
	admins   *mongo.Collection
}

func NewMongoReferenceRepository(cfg *config.Config) ReferenceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReferenceRepository{
		cfg:      cfg,
		exams:    db.Collection(ExamCollectionName),
		patients: db.Collection(PatientCollectionName),
		doctors:  db.Collection(DoctorCollectionName),
		admins:   db.Collection(AdminCollectionName),
	}
}

func (r *mongoReferenceRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoReferenceRepository) FindExamByID(ctx context.Context, tenantID, examID int64) (*model.ExamCatalogEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var exam model.ExamCatalogEntry
	err := r.exams.FindOne(ctx, bson.M{"_id": examID, "tenant_id": tenantID}).Decode(&exam)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %d", recorderrors.ErrExamNotFound, examID)
		}
		return nil, fmt.Errorf("failed to find exam: %w", err)
	}
	return &exam, nil
}

func (r *mongoReferenceRepository) FindPatientByID(ctx context.Context, tenantID, patientID int64) (*model.Patient, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var patient model.Patient
	err := r.patients.FindOne(ctx, bson.M{"_id": patientID, "tenants": tenantID}).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %d", recorderrors.ErrPatientNotFound, patientID)
		}
		return nil, fmt.Errorf("failed to find patient: %w", err)
	}
	return &patient, nil
}

func (r *mongoReferenceRepository) FindDoctorByID(ctx context.Context, doctorID int64) (*model.Doctor, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doctor model.Doctor
	err := r.doctors.FindOne(ctx, bson.M{"_id": doctorID}).Decode(&doctor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("doctor %d: %w", doctorID, mongo.ErrNoDocuments)
		}
		return nil, fmt.Errorf("failed to find doctor: %w", err)
	}
	return &doctor, nil
}

func (r *mongoReferenceRepository) FindAdminByID(ctx context.Context, adminID int64) (*model.Admin, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var admin model.Admin
	err := r.admins.FindOne(ctx, bson.M{"_id": adminID}).Decode(&admin)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("admin %d: %w", adminID, mongo.ErrNoDocuments)
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	return &admin, nil
}
