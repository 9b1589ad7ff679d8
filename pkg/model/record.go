package model

import "time"

// Booking record lifecycle statuses.
const (
	StatusScheduled  = "Scheduled"
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
)

// BookingRecord ties a patient to an exam catalog entry within a tenant.
// Exam name/type/prices and the patient's acquisition-channel label are
// snapshotted at creation so that aggregation never needs a join.
type BookingRecord struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID    int64     `json:"tenant_id" bson:"tenant_id" validate:"required,gt=0"`
	PatientID   int64     `json:"patient_id" bson:"patient_id" validate:"required,gt=0"`
	PatientName string    `json:"patient_name,omitempty" bson:"patient_name,omitempty"`
	ExamID      int64     `json:"exam_id" bson:"exam_id" validate:"required,gt=0"`
	ExamName    string    `json:"exam_name" bson:"exam_name"`
	ExamType    string    `json:"exam_type,omitempty" bson:"exam_type,omitempty"`
	Price       float64   `json:"price" bson:"price" validate:"omitempty,gte=0"`
	DoctorPrice float64   `json:"doctor_price" bson:"doctor_price" validate:"omitempty,gte=0"`
	DoctorID    int64     `json:"doctor_id,omitempty" bson:"doctor_id,omitempty"`
	Channel     string    `json:"channel,omitempty" bson:"channel,omitempty"`
	Gender      string    `json:"gender,omitempty" bson:"gender,omitempty"`
	Status      string    `json:"status" bson:"status" validate:"required,oneof=Scheduled InProgress Completed"`
	Attended    string    `json:"attended,omitempty" bson:"attended,omitempty"`
	ResultLink  string    `json:"result_link,omitempty" bson:"result_link,omitempty"`
	ExamDate    time.Time `json:"exam_date" bson:"exam_date" validate:"required"`
	CreatedBy   int64     `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// RecordUpdate carries a partial status/link/attendance mutation. A nil
// field leaves the stored value untouched.
type RecordUpdate struct {
	Status     string     `json:"status,omitempty" validate:"omitempty,oneof=Scheduled InProgress Completed"`
	ResultLink string     `json:"result_link,omitempty" validate:"omitempty,url"`
	Attended   *string    `json:"attended,omitempty"`
	ExamDate   *time.Time `json:"exam_date,omitempty"`
	DoctorID   *int64     `json:"doctor_id,omitempty" validate:"omitempty,gt=0"`
}
