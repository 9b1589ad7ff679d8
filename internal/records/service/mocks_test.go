package service

import (
	"context"
	"fmt"
	"time"

	recorderrors "clinicops/internal/records/errors"
	"clinicops/internal/records/repository"
	"clinicops/pkg/config"
	"clinicops/pkg/kafka"
	"clinicops/pkg/logger"
	"clinicops/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &config.Config{
		Log:          log,
		ServiceName:  "test",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

type mockRecordRepository struct {
	listFunc          func(ctx context.Context, params repository.ListParams) ([]*model.BookingRecord, int64, error)
	findByIDFunc      func(ctx context.Context, id string, tenantID int64) (*model.BookingRecord, error)
	createFunc        func(ctx context.Context, record *model.BookingRecord) error
	updateFunc        func(ctx context.Context, id string, tenantID int64, update *model.RecordUpdate) (*mongo.UpdateResult, error)
	setAttendanceFunc func(ctx context.Context, id string, tenantID int64, attended string) (*mongo.UpdateResult, error)
	deleteFunc        func(ctx context.Context, id string, tenantID int64) error

	created     []*model.BookingRecord
	updateCalls int
}

func (m *mockRecordRepository) List(ctx context.Context, params repository.ListParams) ([]*model.BookingRecord, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, params)
	}
	return []*model.BookingRecord{}, 0, nil
}

func (m *mockRecordRepository) FindByID(ctx context.Context, id string, tenantID int64) (*model.BookingRecord, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id, tenantID)
	}
	return nil, fmt.Errorf("record %s: not found", id)
}

func (m *mockRecordRepository) Create(ctx context.Context, record *model.BookingRecord) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, record)
	}
	record.ID = fmt.Sprintf("record-%d", len(m.created)+1)
	m.created = append(m.created, record)
	return nil
}

func (m *mockRecordRepository) Update(ctx context.Context, id string, tenantID int64, update *model.RecordUpdate) (*mongo.UpdateResult, error) {
	m.updateCalls++
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, tenantID, update)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockRecordRepository) SetAttendance(ctx context.Context, id string, tenantID int64, attended string) (*mongo.UpdateResult, error) {
	if m.setAttendanceFunc != nil {
		return m.setAttendanceFunc(ctx, id, tenantID, attended)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockRecordRepository) Delete(ctx context.Context, id string, tenantID int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id, tenantID)
	}
	return nil
}

type mockReferenceRepository struct {
	exams    map[int64]*model.ExamCatalogEntry
	patients map[int64]*model.Patient
	doctors  map[int64]*model.Doctor
	admins   map[int64]*model.Admin
}

func (m *mockReferenceRepository) FindExamByID(ctx context.Context, tenantID, examID int64) (*model.ExamCatalogEntry, error) {
	exam, ok := m.exams[examID]
	if !ok || exam.TenantID != tenantID {
		return nil, fmt.Errorf("%w: %d", recorderrors.ErrExamNotFound, examID)
	}
	return exam, nil
}

func (m *mockReferenceRepository) FindPatientByID(ctx context.Context, tenantID, patientID int64) (*model.Patient, error) {
	patient, ok := m.patients[patientID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", recorderrors.ErrPatientNotFound, patientID)
	}
	for _, tenant := range patient.Tenants {
		if tenant == tenantID {
			return patient, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", recorderrors.ErrPatientNotFound, patientID)
}

func (m *mockReferenceRepository) FindDoctorByID(ctx context.Context, doctorID int64) (*model.Doctor, error) {
	doctor, ok := m.doctors[doctorID]
	if !ok {
		return nil, fmt.Errorf("doctor %d: not found", doctorID)
	}
	return doctor, nil
}

func (m *mockReferenceRepository) FindAdminByID(ctx context.Context, adminID int64) (*model.Admin, error) {
	admin, ok := m.admins[adminID]
	if !ok {
		return nil, fmt.Errorf("admin %d: not found", adminID)
	}
	return admin, nil
}

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}
