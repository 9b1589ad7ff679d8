package repository

import (
	"errors"
	"net/url"
	"testing"
	"time"

	marketingerrors "clinicops/internal/marketing/errors"
	"clinicops/internal/marketing/filter"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mustParse(t *testing.T, tenant string, q url.Values) *filter.Criteria {
	t.Helper()
	c, err := filter.Parse(tenant, q)
	if err != nil {
		t.Fatalf("filter.Parse() unexpected error: %v", err)
	}
	return c
}

func TestRecordFilterRequiresTenant(t *testing.T) {
	_, err := recordFilter(nil)
	if !errors.Is(err, marketingerrors.ErrMissingTenant) {
		t.Errorf("recordFilter(nil) error = %v, want ErrMissingTenant", err)
	}

	_, err = recordFilter(&filter.Criteria{})
	if !errors.Is(err, marketingerrors.ErrMissingTenant) {
		t.Errorf("recordFilter(zero tenant) error = %v, want ErrMissingTenant", err)
	}
}

func TestRecordFilterOmittedFieldsAddNoClause(t *testing.T) {
	c := mustParse(t, "7", url.Values{})

	predicate, err := recordFilter(c)
	if err != nil {
		t.Fatalf("recordFilter() unexpected error: %v", err)
	}

	if len(predicate) != 1 {
		t.Errorf("predicate has %d clauses, want only the tenant scope: %v", len(predicate), predicate)
	}
	if predicate["tenant_id"] != int64(7) {
		t.Errorf("tenant_id clause = %v, want 7", predicate["tenant_id"])
	}
}

func TestRecordFilterConjunctiveClauses(t *testing.T) {
	q := url.Values{}
	q.Set("status", "Completed")
	q.Set("examID", "3")
	q.Set("examType", "imaging")
	q.Set("attended", "yes")
	q.Set("channel", "Google Ads")
	q.Set("doctorID", "11")
	q.Set("gender", "F")

	c := mustParse(t, "7", q)
	predicate, err := recordFilter(c)
	if err != nil {
		t.Fatalf("recordFilter() unexpected error: %v", err)
	}

	want := map[string]any{
		"tenant_id": int64(7),
		"status":    "Completed",
		"exam_id":   int64(3),
		"exam_type": "imaging",
		"attended":  "yes",
		"channel":   "google ads",
		"doctor_id": int64(11),
		"gender":    "F",
	}
	for field, value := range want {
		got, ok := predicate[field]
		if !ok {
			t.Errorf("predicate missing %q clause", field)
			continue
		}
		if got != value {
			t.Errorf("predicate[%q] = %v, want %v", field, got, value)
		}
	}
}

func TestRecordFilterDateWindow(t *testing.T) {
	q := url.Values{}
	q.Set("startDate", "2025-01-01")
	q.Set("endDate", "2025-01-31")

	c := mustParse(t, "7", q)
	predicate, err := recordFilter(c)
	if err != nil {
		t.Fatalf("recordFilter() unexpected error: %v", err)
	}

	window, ok := predicate["exam_date"].(bson.M)
	if !ok {
		t.Fatalf("exam_date clause = %T, want bson.M", predicate["exam_date"])
	}

	from, ok := window["$gte"].(time.Time)
	if !ok || !from.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("$gte = %v, want 2025-01-01T00:00:00Z", window["$gte"])
	}
	to, ok := window["$lt"].(time.Time)
	if !ok || !to.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("$lt = %v, want 2025-02-01T00:00:00Z (inclusive end day)", window["$lt"])
	}
}

func TestRecordFilterExamNameCaseInsensitive(t *testing.T) {
	q := url.Values{}
	q.Set("exam_name", "Ressonância")

	c := mustParse(t, "7", q)
	predicate, err := recordFilter(c)
	if err != nil {
		t.Fatalf("recordFilter() unexpected error: %v", err)
	}

	clause, ok := predicate["exam_name"].(bson.M)
	if !ok {
		t.Fatalf("exam_name clause = %T, want bson.M regex", predicate["exam_name"])
	}
	if _, ok := clause["$regex"]; !ok {
		t.Errorf("exam_name clause %v lacks $regex", clause)
	}
}

func TestPatientFilterScopesByTenantMembership(t *testing.T) {
	q := url.Values{}
	q.Set("gender", "M")
	q.Set("canal", "indicacao")

	c := mustParse(t, "9", q)
	predicate, err := patientFilter(c)
	if err != nil {
		t.Fatalf("patientFilter() unexpected error: %v", err)
	}

	if predicate["tenants"] != int64(9) {
		t.Errorf("tenants clause = %v, want 9", predicate["tenants"])
	}
	if predicate["gender"] != "M" {
		t.Errorf("gender clause = %v, want M", predicate["gender"])
	}
	if _, ok := predicate["channel"].(bson.M); !ok {
		t.Errorf("channel clause = %#v, want a regex match", predicate["channel"])
	}
}

func TestPatientFilterChannelMatchesStoredCasing(t *testing.T) {
	q := url.Values{}
	q.Set("channel", "Google Ads")

	c := mustParse(t, "7", q)
	predicate, err := patientFilter(c)
	if err != nil {
		t.Fatalf("patientFilter() unexpected error: %v", err)
	}

	clause, ok := predicate["channel"].(bson.M)
	if !ok {
		t.Fatalf("channel clause = %#v, want a regex match", predicate["channel"])
	}
	re, ok := clause["$regex"].(primitive.Regex)
	if !ok {
		t.Fatalf("channel clause = %#v, want primitive.Regex", clause["$regex"])
	}
	if re.Pattern != "^google ads$" {
		t.Errorf("pattern = %q, want the anchored sanitized label", re.Pattern)
	}
	if re.Options != "i" {
		t.Errorf("options = %q, want case-insensitive", re.Options)
	}
}

func TestLeadFilterExcludesSoftDeleted(t *testing.T) {
	c := mustParse(t, "4", url.Values{})
	predicate, err := leadFilter(c)
	if err != nil {
		t.Fatalf("leadFilter() unexpected error: %v", err)
	}

	deleted, ok := predicate["deleted_at"]
	if !ok {
		t.Fatal("lead predicate lacks deleted_at clause")
	}
	if deleted != nil {
		t.Errorf("deleted_at clause = %v, want nil", deleted)
	}
}

func TestRegexEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a.b", `a\.b`},
		{"x(1)", `x\(1\)`},
		{"100%", "100%"},
	}
	for _, tt := range tests {
		if got := regexEscape(tt.in); got != tt.want {
			t.Errorf("regexEscape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
