package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	recorderrors "clinicops/internal/records/errors"
	"clinicops/internal/records/repository"
	"clinicops/internal/records/validator"
	"clinicops/pkg/config"
	apperrors "clinicops/pkg/errors"
	"clinicops/pkg/kafka"
	"clinicops/pkg/model"
	"clinicops/pkg/sanitizer"
)

// Audit event types published on booking record writes.
const (
	EventRecordCreated = "record.created"
	EventRecordUpdated = "record.updated"
	EventRecordDeleted = "record.deleted"
)

// AuditPublisher emits booking audit events. Publishing is best effort; a
// failed publish never fails the mutation it describes.
type AuditPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// RecordPage is one listing page plus the total match count.
type RecordPage struct {
	Records []*model.BookingRecord `json:"records"`
	Total   int64                  `json:"total"`
}

// BookingConfirmation is returned after a successful creation so the caller
// can notify the patient without a second round trip.
type BookingConfirmation struct {
	ID           string    `json:"id"`
	ExamName     string    `json:"exam_name"`
	ExamDate     time.Time `json:"exam_date"`
	DoctorName   string    `json:"doctor_name,omitempty"`
	PatientName  string    `json:"patient_name"`
	PatientPhone string    `json:"patient_phone,omitempty"`
}

// UpdateConfirmation carries the patient contact details after a status
// change, again to spare the caller a lookup.
type UpdateConfirmation struct {
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone,omitempty"`
}

type RecordService interface {
	List(ctx context.Context, params repository.ListParams) (*RecordPage, error)
	Create(ctx context.Context, input *validator.RecordInput) (*BookingConfirmation, error)
	Update(ctx context.Context, tenantID int64, id string, update *model.RecordUpdate) (*UpdateConfirmation, error)
	SetAttendance(ctx context.Context, tenantID int64, id string, attended string) error
	Delete(ctx context.Context, tenantID int64, id string) error
}

type recordService struct {
	repo      repository.RecordRepository
	refs      repository.ReferenceRepository
	validator *validator.RecordValidator
	publisher AuditPublisher
	cfg       *config.Config
}

func NewRecordService(
	repo repository.RecordRepository,
	refs repository.ReferenceRepository,
	recordValidator *validator.RecordValidator,
	publisher AuditPublisher,
	cfg *config.Config,
) RecordService {
	return &recordService{
		repo:      repo,
		refs:      refs,
		validator: recordValidator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *recordService) List(ctx context.Context, params repository.ListParams) (*RecordPage, error) {
	if params.TenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	records, total, err := s.repo.List(ctx, params)
	if err != nil {
		s.cfg.Log.Error("Failed to list booking records", "tenant_id", params.TenantID, "error", err)
		return nil, apperrors.Internal("Failed to list booking records", err)
	}
	return &RecordPage{Records: records, Total: total}, nil
}

// Create books an exam for a patient. The exam's name, type and both prices
// plus the patient's acquisition channel, gender and name are snapshotted
// onto the record so reporting never joins back to the catalogs.
func (s *recordService) Create(ctx context.Context, input *validator.RecordInput) (*BookingConfirmation, error) {
	if input.TenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}
	if err := s.validator.ValidateInput(input); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"tenant_id", input.TenantID,
			"patient_id", input.PatientID,
			"error", err,
		)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	exam, err := s.refs.FindExamByID(ctx, input.TenantID, input.ExamID)
	if err != nil {
		if errors.Is(err, recorderrors.ErrExamNotFound) {
			return nil, apperrors.NotFoundWithID("Exam", fmt.Sprintf("%d", input.ExamID))
		}
		s.cfg.Log.Error("Failed to resolve exam", "exam_id", input.ExamID, "error", err)
		return nil, apperrors.Internal("Failed to resolve exam", err)
	}

	patient, err := s.refs.FindPatientByID(ctx, input.TenantID, input.PatientID)
	if err != nil {
		if errors.Is(err, recorderrors.ErrPatientNotFound) {
			return nil, apperrors.NotFoundWithID("Patient", fmt.Sprintf("%d", input.PatientID))
		}
		s.cfg.Log.Error("Failed to resolve patient", "patient_id", input.PatientID, "error", err)
		return nil, apperrors.Internal("Failed to resolve patient", err)
	}

	admin, err := s.refs.FindAdminByID(ctx, input.CreatedBy)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve admin", "admin_id", input.CreatedBy, "error", err)
		return nil, apperrors.NotFoundWithID("Admin", fmt.Sprintf("%d", input.CreatedBy))
	}

	doctorName := ""
	if input.DoctorID > 0 {
		doctor, err := s.refs.FindDoctorByID(ctx, input.DoctorID)
		if err != nil {
			s.cfg.Log.Error("Failed to resolve doctor", "doctor_id", input.DoctorID, "error", err)
			return nil, apperrors.NotFoundWithID("Doctor", fmt.Sprintf("%d", input.DoctorID))
		}
		doctorName = doctor.FullName
	}

	record := &model.BookingRecord{
		TenantID:    input.TenantID,
		PatientID:   patient.ID,
		PatientName: patient.FullName,
		ExamID:      exam.ID,
		ExamName:    exam.Name,
		ExamType:    exam.Category,
		Price:       exam.Price,
		DoctorPrice: exam.DoctorPrice,
		DoctorID:    input.DoctorID,
		Channel:     sanitizer.SanitizeChannelLabel(patient.Channel),
		Gender:      patient.Gender,
		Status:      model.StatusScheduled,
		ExamDate:    input.ExamDate.UTC(),
		CreatedBy:   admin.ID,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.cfg.Log.Error("Failed to create booking record",
			"tenant_id", input.TenantID,
			"patient_id", input.PatientID,
			"exam_id", input.ExamID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create booking record", err)
	}

	s.cfg.Log.Info("Booking record created",
		"tenant_id", input.TenantID,
		"record_id", record.ID,
		"exam_id", exam.ID,
		"patient_id", patient.ID,
	)
	s.publishAudit(ctx, EventRecordCreated, input.TenantID, record)

	return &BookingConfirmation{
		ID:           record.ID,
		ExamName:     exam.Name,
		ExamDate:     record.ExamDate,
		DoctorName:   doctorName,
		PatientName:  patient.FullName,
		PatientPhone: patient.Phone,
	}, nil
}

// Update applies a partial status mutation. Moving a record to Completed
// requires the result link in the same payload.
func (s *recordService) Update(ctx context.Context, tenantID int64, id string, update *model.RecordUpdate) (*UpdateConfirmation, error) {
	if tenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Record ID cannot be empty")
	}

	if err := s.validator.ValidateUpdate(update); err != nil {
		if errors.Is(err, recorderrors.ErrMissingResultLink) {
			return nil, apperrors.Validation("Completing a record requires a result link", nil)
		}
		return nil, apperrors.Validation("Record validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	result, err := s.repo.Update(ctx, id, tenantID, update)
	if err != nil {
		if errors.Is(err, recorderrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid record ID format")
		}
		s.cfg.Log.Error("Failed to update booking record",
			"tenant_id", tenantID,
			"record_id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update booking record", err)
	}
	if result.MatchedCount == 0 {
		return nil, apperrors.NotFoundWithID("Record", id)
	}

	s.cfg.Log.Info("Booking record updated",
		"tenant_id", tenantID,
		"record_id", id,
		"status", update.Status,
	)
	s.publishAudit(ctx, EventRecordUpdated, tenantID, map[string]any{
		"record_id": id,
		"status":    update.Status,
	})

	return s.confirmation(ctx, tenantID, id)
}

// SetAttendance marks whether the patient showed up.
func (s *recordService) SetAttendance(ctx context.Context, tenantID int64, id string, attended string) error {
	if tenantID <= 0 {
		return apperrors.MissingTenant()
	}
	if id == "" {
		return apperrors.InvalidInput("Record ID cannot be empty")
	}

	result, err := s.repo.SetAttendance(ctx, id, tenantID, attended)
	if err != nil {
		if errors.Is(err, recorderrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid record ID format")
		}
		s.cfg.Log.Error("Failed to update attendance",
			"tenant_id", tenantID,
			"record_id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to update attendance", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundWithID("Record", id)
	}

	s.cfg.Log.Info("Attendance updated", "tenant_id", tenantID, "record_id", id, "attended", attended)
	return nil
}

// Delete removes a record within the tenant's scope; an id owned by another
// tenant reads as not found.
func (s *recordService) Delete(ctx context.Context, tenantID int64, id string) error {
	if tenantID <= 0 {
		return apperrors.MissingTenant()
	}
	if id == "" {
		return apperrors.InvalidInput("Record ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id, tenantID); err != nil {
		if errors.Is(err, recorderrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Record", id)
		}
		if errors.Is(err, recorderrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid record ID format")
		}
		s.cfg.Log.Error("Failed to delete booking record",
			"tenant_id", tenantID,
			"record_id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete booking record", err)
	}

	s.cfg.Log.Info("Booking record deleted", "tenant_id", tenantID, "record_id", id)
	s.publishAudit(ctx, EventRecordDeleted, tenantID, map[string]any{"record_id": id})
	return nil
}

func (s *recordService) confirmation(ctx context.Context, tenantID int64, id string) (*UpdateConfirmation, error) {
	record, err := s.repo.FindByID(ctx, id, tenantID)
	if err != nil {
		s.cfg.Log.Warn("Failed to load record for confirmation", "record_id", id, "error", err)
		return &UpdateConfirmation{}, nil
	}

	confirmation := &UpdateConfirmation{PatientName: record.PatientName}
	patient, err := s.refs.FindPatientByID(ctx, tenantID, record.PatientID)
	if err == nil {
		confirmation.PatientName = patient.FullName
		confirmation.PatientPhone = patient.Phone
	}
	return confirmation, nil
}

func (s *recordService) publishAudit(ctx context.Context, eventType string, tenantID int64, payload any) {
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
