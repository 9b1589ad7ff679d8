package service

import (
	"context"
	"sync"

	"clinicops/internal/marketing/filter"
	"clinicops/internal/marketing/repository"
	"clinicops/pkg/config"
	apperrors "clinicops/pkg/errors"
	"clinicops/pkg/model"
	"clinicops/pkg/sanitizer"
)

// Funnel is the clicks -> leads -> appointments -> completed progression
// for one tenant or channel over the filtered window.
type Funnel struct {
	Clicks       int64 `json:"clicks"`
	Leads        int64 `json:"leads"`
	Appointments int64 `json:"appointments"`
	Completed    int64 `json:"completed"`
}

// MetricsReport carries the derived funnel and financial KPIs. Every ratio
// is total: a zero denominator yields 0, never NaN or infinity.
type MetricsReport struct {
	CPL             float64 `json:"cpl"`
	CAP             float64 `json:"cap"`
	ROAS            float64 `json:"roas"`
	ROASPercentage  float64 `json:"roasPercentage"`
	AverageTicket   float64 `json:"averageTicket"`
	CPC             float64 `json:"cpc"`
	LTV             float64 `json:"ltv"`
	AppointmentRate float64 `json:"appointmentRate"`
	NoShowRate      float64 `json:"noShowRate"`
	ConversionRate  float64 `json:"conversionRate"`
	Revenue         float64 `json:"revenue"`
	Cost            float64 `json:"cost"`
	Funnel          Funnel  `json:"funnel"`
}

// ChannelTotals is one channel's ledger sums plus the patient and completed
// booking counts cross-referenced by channel label.
type ChannelTotals struct {
	Clicks            int64   `json:"clicks"`
	Cost              float64 `json:"cost"`
	Leads             int64   `json:"leads"`
	Patients          int64   `json:"patients"`
	CompletedBookings int64   `json:"completedBookings"`
}

// ChannelBreakdown maps channel name to its totals plus a tenant-wide row.
type ChannelBreakdown struct {
	ByChannel map[string]*ChannelTotals `json:"byChannel"`
	Total     ChannelTotals             `json:"total"`
}

type MetricsService interface {
	Metrics(ctx context.Context, c *filter.Criteria) (*MetricsReport, error)
	Breakdown(ctx context.Context, c *filter.Criteria) (*ChannelBreakdown, error)
	Records(ctx context.Context, c *filter.Criteria) ([]*model.BookingRecord, error)
	CountRecords(ctx context.Context, c *filter.Criteria) (int64, error)
	CountPatients(ctx context.Context, c *filter.Criteria) (int64, error)
	CountLeads(ctx context.Context, c *filter.Criteria) (int64, error)
	ExamPrices(ctx context.Context, tenantID, examID int64) (*model.ExamPrices, error)
}

type metricsService struct {
	queries  repository.QueryRepository
	channels repository.ChannelRepository
	catalog  repository.CatalogRepository
	cfg      *config.Config
}

func NewMetricsService(
	queries repository.QueryRepository,
	channels repository.ChannelRepository,
	catalog repository.CatalogRepository,
	cfg *config.Config,
) MetricsService {
	return &metricsService{
		queries:  queries,
		channels: channels,
		catalog:  catalog,
		cfg:      cfg,
	}
}

// Metrics combines the channel ledger totals with booking outcome counts
// into the derived KPI set.
func (s *metricsService) Metrics(ctx context.Context, c *filter.Criteria) (*MetricsReport, error) {
	if c == nil || c.TenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	channels, err := s.channels.FindAll(ctx, c.TenantID)
	if err != nil {
		s.cfg.Log.Error("Failed to load channel ledger", "tenant_id", c.TenantID, "error", err)
		return nil, apperrors.Internal("Failed to compute metrics", err)
	}

	var cost float64
	var clicks, leads int64
	for _, channel := range channels {
		if c.Channel != "" && sanitizer.SanitizeChannelLabel(channel.Name) != c.Channel {
			continue
		}
		cost += channel.Cost
		clicks += channel.Clicks
		leads += channel.Leads
	}

	var completed, inProgress, scheduled int64
	var revenue float64
	var errCompleted, errInProgress, errScheduled, errRevenue error

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		completed, errCompleted = s.queries.CountRecords(ctx, withStatus(c, model.StatusCompleted))
	}()
	go func() {
		defer wg.Done()
		inProgress, errInProgress = s.queries.CountRecords(ctx, withStatus(c, model.StatusInProgress))
	}()
	go func() {
		defer wg.Done()
		scheduled, errScheduled = s.queries.CountRecords(ctx, withStatus(c, model.StatusScheduled))
	}()
	go func() {
		defer wg.Done()
		revenue, errRevenue = s.queries.SumRecordPrices(ctx, withStatus(c, model.StatusCompleted))
	}()
	wg.Wait()

	for _, err := range []error{errCompleted, errInProgress, errScheduled, errRevenue} {
		if err != nil {
			s.cfg.Log.Error("Failed to count booking outcomes", "tenant_id", c.TenantID, "error", err)
			return nil, apperrors.Internal("Failed to compute metrics", err)
		}
	}

	return compute(cost, clicks, leads, completed, inProgress, scheduled, revenue), nil
}

// Breakdown sums each channel's own ledger plus the patients and completed
// bookings whose recorded acquisition label matches the channel's name.
// Matching is by normalized name, not by id.
func (s *metricsService) Breakdown(ctx context.Context, c *filter.Criteria) (*ChannelBreakdown, error) {
	if c == nil || c.TenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	channels, err := s.channels.FindAll(ctx, c.TenantID)
	if err != nil {
		s.cfg.Log.Error("Failed to load channel ledger", "tenant_id", c.TenantID, "error", err)
		return nil, apperrors.Internal("Failed to compute channel breakdown", err)
	}

	breakdown := &ChannelBreakdown{ByChannel: make(map[string]*ChannelTotals, len(channels))}
	for _, channel := range channels {
		scoped := c.WithChannel(channel.Name)

		var patients, bookings int64
		var errPatients, errBookings error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			patients, errPatients = s.queries.CountPatients(ctx, scoped)
		}()
		go func() {
			defer wg.Done()
			bookings, errBookings = s.queries.CountRecords(ctx, withStatus(scoped, model.StatusCompleted))
		}()
		wg.Wait()

		if errPatients != nil {
			s.cfg.Log.Error("Failed to count patients per channel",
				"tenant_id", c.TenantID,
				"channel", channel.Name,
				"error", errPatients,
			)
			return nil, apperrors.Internal("Failed to compute channel breakdown", errPatients)
		}
		if errBookings != nil {
			s.cfg.Log.Error("Failed to count bookings per channel",
				"tenant_id", c.TenantID,
				"channel", channel.Name,
				"error", errBookings,
			)
			return nil, apperrors.Internal("Failed to compute channel breakdown", errBookings)
		}

		totals, ok := breakdown.ByChannel[channel.Name]
		if !ok {
			totals = &ChannelTotals{}
			breakdown.ByChannel[channel.Name] = totals
		}
		totals.Clicks += channel.Clicks
		totals.Cost += channel.Cost
		totals.Leads += channel.Leads
		totals.Patients += patients
		totals.CompletedBookings += bookings

		breakdown.Total.Clicks += channel.Clicks
		breakdown.Total.Cost += channel.Cost
		breakdown.Total.Leads += channel.Leads
		breakdown.Total.Patients += patients
		breakdown.Total.CompletedBookings += bookings
	}

	return breakdown, nil
}

// Records returns the filtered booking rows behind the aggregate counts,
// most recent exam date first, paginated by take/skip.
func (s *metricsService) Records(ctx context.Context, c *filter.Criteria) ([]*model.BookingRecord, error) {
	if c == nil || c.TenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	records, err := s.queries.FindRecords(ctx, c)
	if err != nil {
		s.cfg.Log.Error("Failed to list booking records", "tenant_id", c.TenantID, "error", err)
		return nil, apperrors.Internal("Failed to list booking records", err)
	}
	return records, nil
}

func (s *metricsService) CountRecords(ctx context.Context, c *filter.Criteria) (int64, error) {
	if c == nil || c.TenantID <= 0 {
		return 0, apperrors.MissingTenant()
	}

	count, err := s.queries.CountRecords(ctx, c)
	if err != nil {
		s.cfg.Log.Error("Failed to count booking records", "tenant_id", c.TenantID, "error", err)
		return 0, apperrors.Internal("Failed to count booking records", err)
	}
	return count, nil
}

func (s *metricsService) CountPatients(ctx context.Context, c *filter.Criteria) (int64, error) {
	if c == nil || c.TenantID <= 0 {
		return 0, apperrors.MissingTenant()
	}

	count, err := s.queries.CountPatients(ctx, c)
	if err != nil {
		s.cfg.Log.Error("Failed to count patients", "tenant_id", c.TenantID, "error", err)
		return 0, apperrors.Internal("Failed to count patients", err)
	}
	return count, nil
}

func (s *metricsService) CountLeads(ctx context.Context, c *filter.Criteria) (int64, error) {
	if c == nil || c.TenantID <= 0 {
		return 0, apperrors.MissingTenant()
	}

	count, err := s.queries.CountLeads(ctx, c)
	if err != nil {
		s.cfg.Log.Error("Failed to count leads", "tenant_id", c.TenantID, "error", err)
		return 0, apperrors.Internal("Failed to count leads", err)
	}
	return count, nil
}

func (s *metricsService) ExamPrices(ctx context.Context, tenantID, examID int64) (*model.ExamPrices, error) {
	if tenantID <= 0 {
		return nil, apperrors.MissingTenant()
	}

	prices, err := s.catalog.FindExamPrices(ctx, tenantID, examID)
	if err != nil {
		s.cfg.Log.Warn("Exam price lookup failed",
			"tenant_id", tenantID,
			"exam_id", examID,
			"error", err,
		)
		return nil, apperrors.NotFound("Exam")
	}
	return prices, nil
}

// compute derives every KPI from the raw totals. Each metric is guarded
// independently so sparse data degrades to zeros instead of errors.
func compute(cost float64, clicks, leads, completed, inProgress, scheduled int64, revenue float64) *MetricsReport {
	appointments := completed + inProgress + scheduled

	roas := ratio(revenue, cost)

	return &MetricsReport{
		CPL:             ratio(cost, float64(leads)),
		CAP:             ratio(cost, float64(appointments)),
		ROAS:            roas,
		ROASPercentage:  (roas - 1) * 100,
		AverageTicket:   ratio(revenue, float64(completed)),
		CPC:             ratio(cost, float64(clicks)),
		LTV:             ratio(revenue, float64(leads)),
		AppointmentRate: ratio(float64(appointments), float64(leads)),
		NoShowRate:      1 - ratio(float64(completed), float64(appointments)),
		ConversionRate:  ratio(float64(completed), float64(leads)),
		Revenue:         revenue,
		Cost:            cost,
		Funnel: Funnel{
			Clicks:       clicks,
			Leads:        leads,
			Appointments: appointments,
			Completed:    completed,
		},
	}
}

// ratio divides with a zero-denominator guard.
func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func withStatus(c *filter.Criteria, status string) *filter.Criteria {
	clone := *c
	clone.Status = status
	return &clone
}
