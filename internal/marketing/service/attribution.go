package service

import (
	"context"
	"sync"

	"clinicops/internal/marketing/filter"
	"clinicops/internal/marketing/repository"
	"clinicops/pkg/config"
	apperrors "clinicops/pkg/errors"
)

// ExamAttribution is one catalog entry's revenue line: matched booking
// count times patient price and doctor payout price.
type ExamAttribution struct {
	Name        string  `json:"name"`
	Quantity    int64   `json:"quantity"`
	Total       float64 `json:"total"`
	TotalDoctor float64 `json:"totalDoctor"`
	Profit      float64 `json:"profit"`
	Percent     float64 `json:"percent"`
}

// ExamAttributionReport is the per-exam breakdown plus tenant totals.
type ExamAttributionReport struct {
	TotalInvoice       float64           `json:"generalTotalInvoice"`
	TotalDoctorInvoice float64           `json:"doctorTotalInvoice"`
	PerExam            []ExamAttribution `json:"totalPerExam"`
}

// DoctorAttribution is one doctor's matched booking count and accumulated
// payout across the exams they performed.
type DoctorAttribution struct {
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Payout   float64 `json:"payout"`
}

// DoctorAttributionReport is the per-doctor breakdown plus the summed
// doctor invoice.
type DoctorAttributionReport struct {
	TotalDoctorInvoice float64             `json:"totalInvoiceDoctor"`
	PerDoctor          []DoctorAttribution `json:"quantityExamDoctor"`
}

type AttributionService interface {
	PerExam(ctx context.Context, c *filter.Criteria) (*ExamAttributionReport, error)
	PerDoctor(ctx context.Context, c *filter.Criteria) (*DoctorAttributionReport, error)
}

type attributionService struct {
	queries repository.QueryRepository
	catalog repository.CatalogRepository
	cfg     *config.Config
}

func NewAttributionService(
	queries repository.QueryRepository,
	catalog repository.CatalogRepository,
	cfg *config.Config,
) AttributionService {
	return &attributionService{
		queries: queries,
		catalog: catalog,
		cfg:     cfg,
	}
}

// PerExam walks the tenant's exam catalog and prices each entry's matched
// bookings. The per-exam count queries are independent, so they fan out
// concurrently up to AttributionConcurrency in flight.
func (s *attributionService) PerExam(ctx context.Context, c *filter.Criteria) (*ExamAttributionReport, error) {
	if c == nil || c.TenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	exams, err := s.catalog.FindExamsByTenant(ctx, c.TenantID)
	if err != nil {
		s.cfg.Log.Error("Failed to load exam catalog", "tenant_id", c.TenantID, "error", err)
		return nil, apperrors.Internal("Failed to compute exam attribution", err)
	}

	report := &ExamAttributionReport{PerExam: make([]ExamAttribution, len(exams))}
	if len(exams) == 0 {
		return report, nil
	}

	counts, err := s.countPerItem(ctx, len(exams), func(ctx context.Context, i int) (int64, error) {
		return s.queries.CountRecords(ctx, c.WithExam(exams[i].ID))
	})
	if err != nil {
		s.cfg.Log.Error("Failed to count bookings per exam", "tenant_id", c.TenantID, "error", err)
		return nil, apperrors.Internal("Failed to compute exam attribution", err)
	}

	for i, exam := range exams {
		quantity := counts[i]
		total := float64(quantity) * exam.Price
		totalDoctor := float64(quantity) * exam.DoctorPrice
		profit := total - totalDoctor

		var percent float64
		if total != 0 {
			percent = profit / total * 100
		}

		report.PerExam[i] = ExamAttribution{
			Name:        exam.Name,
			Quantity:    quantity,
			Total:       total,
			TotalDoctor: totalDoctor,
			Profit:      profit,
			Percent:     percent,
		}
		report.TotalInvoice += total
		report.TotalDoctorInvoice += totalDoctor
	}

	return report, nil
}

// PerDoctor counts each doctor's matched bookings and accumulates their
// payout from the snapshotted doctor price of those bookings.
func (s *attributionService) PerDoctor(ctx context.Context, c *filter.Criteria) (*DoctorAttributionReport, error) {
	if c == nil || c.TenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	doctors, err := s.catalog.FindDoctorsByTenant(ctx, c.TenantID)
	if err != nil {
		s.cfg.Log.Error("Failed to load doctor catalog", "tenant_id", c.TenantID, "error", err)
		return nil, apperrors.Internal("Failed to compute doctor attribution", err)
	}

	report := &DoctorAttributionReport{PerDoctor: make([]DoctorAttribution, len(doctors))}
	if len(doctors) == 0 {
		return report, nil
	}

	type doctorTotals struct {
		quantity int64
		payout   float64
	}

	totals := make([]doctorTotals, len(doctors))
	_, err = s.countPerItem(ctx, len(doctors), func(ctx context.Context, i int) (int64, error) {
		scoped := c.WithDoctor(doctors[i].ID)

		quantity, err := s.queries.CountRecords(ctx, scoped)
		if err != nil {
			return 0, err
		}
		payout, err := s.sumDoctorPayout(ctx, scoped)
		if err != nil {
			return 0, err
		}

		totals[i] = doctorTotals{quantity: quantity, payout: payout}
		return quantity, nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to count bookings per doctor", "tenant_id", c.TenantID, "error", err)
		return nil, apperrors.Internal("Failed to compute doctor attribution", err)
	}

	for i, doctor := range doctors {
		report.PerDoctor[i] = DoctorAttribution{
			Name:     doctor.FullName,
			Quantity: totals[i].quantity,
			Payout:   totals[i].payout,
		}
		report.TotalDoctorInvoice += totals[i].payout
	}

	return report, nil
}

// sumDoctorPayout prices one doctor's completed bookings through the exam
// catalog: count per exam times that exam's doctor price.
func (s *attributionService) sumDoctorPayout(ctx context.Context, c *filter.Criteria) (float64, error) {
	exams, err := s.catalog.FindExamsByTenant(ctx, c.TenantID)
	if err != nil {
		return 0, err
	}

	var payout float64
	for _, exam := range exams {
		quantity, err := s.queries.CountRecords(ctx, c.WithExam(exam.ID))
		if err != nil {
			return 0, err
		}
		payout += float64(quantity) * exam.DoctorPrice
	}
	return payout, nil
}

// countPerItem runs one count query per catalog item with a bounded number
// in flight. The first error wins; remaining results are discarded.
func (s *attributionService) countPerItem(ctx context.Context, n int, count func(ctx context.Context, i int) (int64, error)) ([]int64, error) {
	concurrency := s.cfg.AttributionConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > n {
		concurrency = n
	}

	counts := make([]int64, n)
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed {
				return
			}

			result, err := count(ctx, i)
			mu.Lock()
			if err != nil && firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			counts[i] = result
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return counts, nil
}
