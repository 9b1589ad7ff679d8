package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"clinicops/internal/marketing/filter"
	"clinicops/pkg/config"
	mongotx "clinicops/pkg/db/mongo"
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
		Log:                    log,
		ServiceName:            "test",
		ReadTimeout:            5 * time.Second,
		WriteTimeout:           5 * time.Second,
		AttributionConcurrency: 4,
	}
}

type mockQueryRepository struct {
	countRecordsFunc    func(ctx context.Context, c *filter.Criteria) (int64, error)
	findRecordsFunc     func(ctx context.Context, c *filter.Criteria) ([]*model.BookingRecord, error)
	sumRecordPricesFunc func(ctx context.Context, c *filter.Criteria) (float64, error)
	countPatientsFunc   func(ctx context.Context, c *filter.Criteria) (int64, error)
	countLeadsFunc      func(ctx context.Context, c *filter.Criteria) (int64, error)
}

func (m *mockQueryRepository) CountRecords(ctx context.Context, c *filter.Criteria) (int64, error) {
	if m.countRecordsFunc != nil {
		return m.countRecordsFunc(ctx, c)
	}
	return 0, nil
}

func (m *mockQueryRepository) FindRecords(ctx context.Context, c *filter.Criteria) ([]*model.BookingRecord, error) {
	if m.findRecordsFunc != nil {
		return m.findRecordsFunc(ctx, c)
	}
	return []*model.BookingRecord{}, nil
}

func (m *mockQueryRepository) SumRecordPrices(ctx context.Context, c *filter.Criteria) (float64, error) {
	if m.sumRecordPricesFunc != nil {
		return m.sumRecordPricesFunc(ctx, c)
	}
	return 0, nil
}

func (m *mockQueryRepository) CountPatients(ctx context.Context, c *filter.Criteria) (int64, error) {
	if m.countPatientsFunc != nil {
		return m.countPatientsFunc(ctx, c)
	}
	return 0, nil
}

func (m *mockQueryRepository) CountLeads(ctx context.Context, c *filter.Criteria) (int64, error) {
	if m.countLeadsFunc != nil {
		return m.countLeadsFunc(ctx, c)
	}
	return 0, nil
}

type mockChannelRepository struct {
	findAllFunc            func(ctx context.Context, tenantID int64) ([]*model.Channel, error)
	findByIDFunc           func(ctx context.Context, id string) (*model.Channel, error)
	createFunc             func(ctx context.Context, channel *model.Channel) error
	updateFunc             func(ctx context.Context, id string, channel *model.Channel) (*mongo.UpdateResult, error)
	deleteFunc             func(ctx context.Context, id string, tenantID int64) error
	getTenantBudgetFunc    func(ctx context.Context, tenantID int64) (float64, error)
	updateTenantBudgetFunc func(ctx context.Context, tenantID int64, amount float64) error

	updateCalls int
	txCalls     int
}

func (m *mockChannelRepository) FindAll(ctx context.Context, tenantID int64) ([]*model.Channel, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, tenantID)
	}
	return []*model.Channel{}, nil
}

func (m *mockChannelRepository) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Channel{ID: id}, nil
}

func (m *mockChannelRepository) Create(ctx context.Context, channel *model.Channel) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, channel)
	}
	channel.ID = "65f000000000000000000001"
	return nil
}

func (m *mockChannelRepository) Update(ctx context.Context, id string, channel *model.Channel) (*mongo.UpdateResult, error) {
	m.updateCalls++
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, channel)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockChannelRepository) Delete(ctx context.Context, id string, tenantID int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id, tenantID)
	}
	return nil
}

func (m *mockChannelRepository) IncrementLeads(ctx context.Context, tenantID int64, channelName string, delta int64) error {
	return nil
}

func (m *mockChannelRepository) GetTenantBudget(ctx context.Context, tenantID int64) (float64, error) {
	if m.getTenantBudgetFunc != nil {
		return m.getTenantBudgetFunc(ctx, tenantID)
	}
	return 0, nil
}

func (m *mockChannelRepository) UpdateTenantBudget(ctx context.Context, tenantID int64, amount float64) error {
	if m.updateTenantBudgetFunc != nil {
		return m.updateTenantBudgetFunc(ctx, tenantID, amount)
	}
	return nil
}

func (m *mockChannelRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.txCalls++
	return fn(nil)
}

type mockCatalogRepository struct {
	findAdminFunc   func(ctx context.Context, id int64) (*model.Admin, error)
	findExamsFunc   func(ctx context.Context, tenantID int64) ([]*model.ExamCatalogEntry, error)
	findPricesFunc  func(ctx context.Context, tenantID, examID int64) (*model.ExamPrices, error)
	findDoctorsFunc func(ctx context.Context, tenantID int64) ([]*model.Doctor, error)
}

func (m *mockCatalogRepository) FindAdminByID(ctx context.Context, id int64) (*model.Admin, error) {
	if m.findAdminFunc != nil {
		return m.findAdminFunc(ctx, id)
	}
	return &model.Admin{ID: id, FullName: "Test Admin"}, nil
}

func (m *mockCatalogRepository) FindExamsByTenant(ctx context.Context, tenantID int64) ([]*model.ExamCatalogEntry, error) {
	if m.findExamsFunc != nil {
		return m.findExamsFunc(ctx, tenantID)
	}
	return []*model.ExamCatalogEntry{}, nil
}

func (m *mockCatalogRepository) FindExamPrices(ctx context.Context, tenantID, examID int64) (*model.ExamPrices, error) {
	if m.findPricesFunc != nil {
		return m.findPricesFunc(ctx, tenantID, examID)
	}
	return &model.ExamPrices{}, nil
}

func (m *mockCatalogRepository) FindDoctorsByTenant(ctx context.Context, tenantID int64) ([]*model.Doctor, error) {
	if m.findDoctorsFunc != nil {
		return m.findDoctorsFunc(ctx, tenantID)
	}
	return []*model.Doctor{}, nil
}

type mockWriteLockRepository struct {
	acquireErr error
}

func (m *mockWriteLockRepository) Acquire(ctx context.Context, tenantID int64, key string) (*model.WriteLock, error) {
	if m.acquireErr != nil {
		return nil, m.acquireErr
	}
	return &model.WriteLock{ID: fmt.Sprintf("%d:%s", tenantID, key)}, nil
}

func (m *mockWriteLockRepository) Release(ctx context.Context, lockID string) error {
	return nil
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

func mustCriteria(t *testing.T, tenantID int64) *filter.Criteria {
	t.Helper()
	return &filter.Criteria{TenantID: tenantID}
}
