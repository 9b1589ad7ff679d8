package model

import "time"

// Lead is a prospective patient contact, independent of any booking record.
// Scheduled flips when a call turns into an appointment.
type Lead struct {
	ID        string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID  int64      `json:"tenant_id" bson:"tenant_id" validate:"required,gt=0"`
	Name      string     `json:"name" bson:"name" validate:"required,min=2,max=120"`
	Phone     string     `json:"phone" bson:"phone" validate:"omitempty,e164"`
	Country   string     `json:"country,omitempty" bson:"country,omitempty"`
	Channel   string     `json:"channel,omitempty" bson:"channel,omitempty"`
	ExamID    int64      `json:"exam_id,omitempty" bson:"exam_id,omitempty" validate:"omitempty,gt=0"`
	DoctorID  int64      `json:"doctor_id,omitempty" bson:"doctor_id,omitempty" validate:"omitempty,gt=0"`
	CallDate  time.Time  `json:"call_date" bson:"call_date" validate:"required"`
	Scheduled bool       `json:"scheduled" bson:"scheduled"`
	CreatedAt time.Time  `json:"created_at,omitempty" bson:"created_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// LeadUpdate carries a partial lead mutation.
type LeadUpdate struct {
	Name      string     `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Phone     string     `json:"phone,omitempty" validate:"omitempty,e164"`
	ExamID    *int64     `json:"exam_id,omitempty" validate:"omitempty,gt=0"`
	DoctorID  *int64     `json:"doctor_id,omitempty" validate:"omitempty,gt=0"`
	CallDate  *time.Time `json:"call_date,omitempty"`
	Scheduled *bool      `json:"scheduled,omitempty"`
}
