package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	marketingerrors "clinicops/internal/marketing/errors"
	"clinicops/pkg/model"
	"clinicops/pkg/sanitizer"
)

// Criteria is the validated filter set shared by every aggregation query.
// A zero-value field imposes no constraint.
type Criteria struct {
	TenantID int64

	StartDate *time.Time
	EndDate   *time.Time
	Month     int
	Year      int

	Status      string
	ExamID      int64
	ExamType    string
	ExamName    string
	Attended    string
	Channel     string
	DoctorID    int64
	PatientID   int64
	Gender      string
	PatientName string

	Take int
	Skip int64
}

// Parse builds a Criteria from the raw tenant header and query string.
// Numeric fields that fail to parse are treated as absent; only the tenant
// id is mandatory.
func Parse(rawTenant string, q url.Values) (*Criteria, error) {
	tenantID, err := strconv.ParseInt(strings.TrimSpace(rawTenant), 10, 64)
	if err != nil || tenantID <= 0 {
		return nil, marketingerrors.ErrMissingTenant
	}

	c := &Criteria{
		TenantID:    tenantID,
		Status:      parseStatus(q.Get("status")),
		ExamID:      parseOptionalInt64(q.Get("examID")),
		ExamType:    sanitizer.TrimAndNormalize(q.Get("examType")),
		ExamName:    sanitizer.TrimAndNormalize(q.Get("exam_name")),
		Attended:    sanitizer.TrimAndNormalize(q.Get("attended")),
		Channel:     sanitizer.SanitizeChannelLabel(q.Get("channel")),
		DoctorID:    parseOptionalInt64(q.Get("doctorID")),
		PatientID:   parseOptionalInt64(q.Get("patientID")),
		Gender:      sanitizer.TrimAndNormalize(q.Get("gender")),
		PatientName: sanitizer.TrimAndNormalize(q.Get("name")),
		Month:       int(parseOptionalInt64(q.Get("month"))),
		Year:        int(parseOptionalInt64(q.Get("year"))),
		Take:        int(parseOptionalInt64(q.Get("take"))),
		Skip:        parseOptionalInt64(q.Get("skip")),
	}

	if c.Channel == "" {
		// the patient-count endpoints use the channel's original name
		c.Channel = sanitizer.SanitizeChannelLabel(q.Get("canal"))
	}

	if raw := q.Get("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid startDate: %w", err)
		}
		c.StartDate = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid endDate: %w", err)
		}
		c.EndDate = &t
	}

	if c.Month != 0 && c.Year == 0 {
		c.Year = time.Now().UTC().Year()
	}

	return c, nil
}

// Window resolves the effective [from, to) interval. An explicit date range
// wins over month/year; the end date is inclusive of its full day, so the
// upper bound is the following midnight. Returns nils when no time filter
// is present.
func (c *Criteria) Window() (*time.Time, *time.Time) {
	if c.StartDate != nil || c.EndDate != nil {
		var from, to *time.Time
		if c.StartDate != nil {
			f := c.StartDate.UTC().Truncate(24 * time.Hour)
			from = &f
		}
		if c.EndDate != nil {
			t := c.EndDate.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
			to = &t
		}
		return from, to
	}

	if c.Month >= 1 && c.Month <= 12 {
		year := c.Year
		if year == 0 {
			year = time.Now().UTC().Year()
		}
		from := time.Date(year, time.Month(c.Month), 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0)
		return &from, &to
	}

	return nil, nil
}

// WithExam returns a copy constrained to one exam catalog entry.
func (c *Criteria) WithExam(examID int64) *Criteria {
	clone := *c
	clone.ExamID = examID
	return &clone
}

// WithExamName returns a copy constrained to one exam name.
func (c *Criteria) WithExamName(name string) *Criteria {
	clone := *c
	clone.ExamName = sanitizer.TrimAndNormalize(name)
	return &clone
}

// WithDoctor returns a copy constrained to one doctor.
func (c *Criteria) WithDoctor(doctorID int64) *Criteria {
	clone := *c
	clone.DoctorID = doctorID
	return &clone
}

// WithChannel returns a copy constrained to one channel label.
func (c *Criteria) WithChannel(label string) *Criteria {
	clone := *c
	clone.Channel = sanitizer.SanitizeChannelLabel(label)
	return &clone
}

func parseStatus(raw string) string {
	switch strings.TrimSpace(raw) {
	case model.StatusScheduled, model.StatusInProgress, model.StatusCompleted:
		return strings.TrimSpace(raw)
	default:
		return ""
	}
}

func parseOptionalInt64(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
