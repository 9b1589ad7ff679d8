package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	recorderrors "clinicops/internal/records/errors"
	"clinicops/internal/records/repository"
	"clinicops/internal/records/validator"
	apperrors "clinicops/pkg/errors"
	"clinicops/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

func newTestService(repo *mockRecordRepository, refs *mockReferenceRepository, pub *mockPublisher) RecordService {
	return NewRecordService(repo, refs, validator.NewRecordValidator(), pub, testConfig())
}

func defaultRefs() *mockReferenceRepository {
	return &mockReferenceRepository{
		exams: map[int64]*model.ExamCatalogEntry{
			5: {ID: 5, TenantID: 7, Name: "MRI Scan", Category: "Imaging", Price: 300, DoctorPrice: 90},
		},
		patients: map[int64]*model.Patient{
			9: {ID: 9, FullName: "Ana Souza", Phone: "+5511999990000", Gender: "F", Channel: "  Google Ads  ", Tenants: []int64{7}},
		},
		doctors: map[int64]*model.Doctor{
			3: {ID: 3, FullName: "Dr. Lima", Tenants: []int64{7}},
		},
		admins: map[int64]*model.Admin{
			2: {ID: 2, FullName: "Back Office"},
		},
	}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	if !apperrors.IsAppError(err) {
		t.Fatalf("expected an app error, got %v", err)
	}
	if got := apperrors.AsAppError(err).HTTPStatus; got != want {
		t.Fatalf("expected HTTP status %d, got %d (%v)", want, got, err)
	}
}

func TestCreateRecordSnapshotsCatalogData(t *testing.T) {
	repo := &mockRecordRepository{}
	pub := &mockPublisher{}
	svc := newTestService(repo, defaultRefs(), pub)

	examDate := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	confirmation, err := svc.Create(context.Background(), &validator.RecordInput{
		TenantID:  7,
		PatientID: 9,
		ExamID:    5,
		DoctorID:  3,
		ExamDate:  examDate,
		CreatedBy: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 created record, got %d", len(repo.created))
	}
	record := repo.created[0]

	if record.Status != model.StatusScheduled {
		t.Errorf("expected status %q, got %q", model.StatusScheduled, record.Status)
	}
	if record.ExamName != "MRI Scan" || record.ExamType != "Imaging" {
		t.Errorf("exam snapshot wrong: %q / %q", record.ExamName, record.ExamType)
	}
	if record.Price != 300 || record.DoctorPrice != 90 {
		t.Errorf("price snapshot wrong: %v / %v", record.Price, record.DoctorPrice)
	}
	if record.Channel != "google ads" {
		t.Errorf("expected normalized channel %q, got %q", "google ads", record.Channel)
	}
	if record.PatientName != "Ana Souza" || record.Gender != "F" {
		t.Errorf("patient snapshot wrong: %q / %q", record.PatientName, record.Gender)
	}
	if !record.ExamDate.Equal(examDate) {
		t.Errorf("expected exam date %v, got %v", examDate, record.ExamDate)
	}

	if confirmation.ExamName != "MRI Scan" {
		t.Errorf("confirmation exam name wrong: %q", confirmation.ExamName)
	}
	if confirmation.DoctorName != "Dr. Lima" {
		t.Errorf("confirmation doctor name wrong: %q", confirmation.DoctorName)
	}
	if confirmation.PatientName != "Ana Souza" || confirmation.PatientPhone != "+5511999990000" {
		t.Errorf("confirmation patient contact wrong: %q / %q", confirmation.PatientName, confirmation.PatientPhone)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(pub.published))
	}
	if got := pub.published[0].GetEventType(); got != EventRecordCreated {
		t.Errorf("expected event type %q, got %q", EventRecordCreated, got)
	}
}

func TestCreateRecordUnknownExam(t *testing.T) {
	svc := newTestService(&mockRecordRepository{}, defaultRefs(), &mockPublisher{})

	_, err := svc.Create(context.Background(), &validator.RecordInput{
		TenantID:  7,
		PatientID: 9,
		ExamID:    999,
		ExamDate:  time.Now().UTC(),
		CreatedBy: 2,
	})
	assertStatus(t, err, http.StatusNotFound)
}

func TestCreateRecordPatientOutsideTenant(t *testing.T) {
	refs := defaultRefs()
	refs.exams[5].TenantID = 12
	svc := newTestService(&mockRecordRepository{}, refs, &mockPublisher{})

	_, err := svc.Create(context.Background(), &validator.RecordInput{
		TenantID:  12,
		PatientID: 9,
		ExamID:    5,
		ExamDate:  time.Now().UTC(),
		CreatedBy: 2,
	})
	assertStatus(t, err, http.StatusNotFound)
}

func TestCreateRecordMissingExamDate(t *testing.T) {
	repo := &mockRecordRepository{}
	svc := newTestService(repo, defaultRefs(), &mockPublisher{})

	_, err := svc.Create(context.Background(), &validator.RecordInput{
		TenantID:  7,
		PatientID: 9,
		ExamID:    5,
		CreatedBy: 2,
	})
	assertStatus(t, err, http.StatusUnprocessableEntity)
	if len(repo.created) != 0 {
		t.Errorf("expected no record created, got %d", len(repo.created))
	}
}

func TestUpdateRecordCompletedRequiresResultLink(t *testing.T) {
	repo := &mockRecordRepository{}
	svc := newTestService(repo, defaultRefs(), &mockPublisher{})

	_, err := svc.Update(context.Background(), 7, "65f000000000000000000001", &model.RecordUpdate{
		Status: model.StatusCompleted,
	})
	assertStatus(t, err, http.StatusUnprocessableEntity)
	if repo.updateCalls != 0 {
		t.Errorf("expected no repository update, got %d calls", repo.updateCalls)
	}
}

func TestUpdateRecordCompletedWithLink(t *testing.T) {
	repo := &mockRecordRepository{
		findByIDFunc: func(ctx context.Context, id string, tenantID int64) (*model.BookingRecord, error) {
			return &model.BookingRecord{ID: id, TenantID: tenantID, PatientID: 9, PatientName: "Ana Souza"}, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, defaultRefs(), pub)

	confirmation, err := svc.Update(context.Background(), 7, "65f000000000000000000001", &model.RecordUpdate{
		Status:     model.StatusCompleted,
		ResultLink: "https://results.example.com/65f000000000000000000001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmation.PatientName != "Ana Souza" {
		t.Errorf("expected patient name in confirmation, got %q", confirmation.PatientName)
	}
	if confirmation.PatientPhone != "+5511999990000" {
		t.Errorf("expected patient phone in confirmation, got %q", confirmation.PatientPhone)
	}
	if len(pub.published) != 1 || pub.published[0].GetEventType() != EventRecordUpdated {
		t.Errorf("expected one %s event", EventRecordUpdated)
	}
}

func TestUpdateRecordNotFound(t *testing.T) {
	repo := &mockRecordRepository{
		updateFunc: func(ctx context.Context, id string, tenantID int64, update *model.RecordUpdate) (*mongo.UpdateResult, error) {
			return &mongo.UpdateResult{MatchedCount: 0}, nil
		},
	}
	svc := newTestService(repo, defaultRefs(), &mockPublisher{})

	_, err := svc.Update(context.Background(), 7, "65f000000000000000000001", &model.RecordUpdate{
		Status: model.StatusInProgress,
	})
	assertStatus(t, err, http.StatusNotFound)
}

func TestSetAttendanceNotFound(t *testing.T) {
	repo := &mockRecordRepository{
		setAttendanceFunc: func(ctx context.Context, id string, tenantID int64, attended string) (*mongo.UpdateResult, error) {
			return &mongo.UpdateResult{MatchedCount: 0}, nil
		},
	}
	svc := newTestService(repo, defaultRefs(), &mockPublisher{})

	err := svc.SetAttendance(context.Background(), 7, "65f000000000000000000001", "yes")
	assertStatus(t, err, http.StatusNotFound)
}

func TestDeleteRecordOutsideTenantReadsAsNotFound(t *testing.T) {
	repo := &mockRecordRepository{
		deleteFunc: func(ctx context.Context, id string, tenantID int64) error {
			return fmt.Errorf("%w: %s", recorderrors.ErrNotFound, id)
		},
	}
	svc := newTestService(repo, defaultRefs(), &mockPublisher{})

	err := svc.Delete(context.Background(), 8, "65f000000000000000000001")
	assertStatus(t, err, http.StatusNotFound)
}

func TestOperationsRequireTenant(t *testing.T) {
	svc := newTestService(&mockRecordRepository{}, defaultRefs(), &mockPublisher{})
	ctx := context.Background()

	if _, err := svc.List(ctx, repository.ListParams{}); err == nil {
		t.Error("List: expected an error without a tenant")
	}
	if _, err := svc.Create(ctx, &validator.RecordInput{PatientID: 9, ExamID: 5, CreatedBy: 2, ExamDate: time.Now()}); err == nil {
		t.Error("Create: expected an error without a tenant")
	}
	if _, err := svc.Update(ctx, 0, "65f000000000000000000001", &model.RecordUpdate{}); err == nil {
		t.Error("Update: expected an error without a tenant")
	}
	if err := svc.Delete(ctx, 0, "65f000000000000000000001"); err == nil {
		t.Error("Delete: expected an error without a tenant")
	}
}

func TestCreateRecordPublishFailureDoesNotFail(t *testing.T) {
	repo := &mockRecordRepository{}
	pub := &mockPublisher{err: context.DeadlineExceeded}
	svc := newTestService(repo, defaultRefs(), pub)

	_, err := svc.Create(context.Background(), &validator.RecordInput{
		TenantID:  7,
		PatientID: 9,
		ExamID:    5,
		ExamDate:  time.Now().UTC(),
		CreatedBy: 2,
	})
	if err != nil {
		t.Fatalf("publish failure must not fail the mutation: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected the record to be created, got %d", len(repo.created))
	}
}
