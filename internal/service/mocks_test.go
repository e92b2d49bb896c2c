package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"listing_studio/internal/model"
	"listing_studio/internal/repository"
	"listing_studio/pkg/market"
)

// ==================== Mock 实现 ====================

// mockMarket 上游市场 API
type mockMarket struct {
	mock.Mock
}

func (m *mockMarket) CreateListing(ctx context.Context, payload *market.ListingPayload) (*market.CreateListingResp, error) {
	args := m.Called(ctx, payload)
	resp, _ := args.Get(0).(*market.CreateListingResp)
	return resp, args.Error(1)
}

func (m *mockMarket) UpdateListing(ctx context.Context, listingID int64, payload *market.ListingPayload) error {
	args := m.Called(ctx, listingID, payload)
	return args.Error(0)
}

func (m *mockMarket) UploadMedia(ctx context.Context, listingID int64, files []market.MediaUpload, sortOrders []string) error {
	args := m.Called(ctx, listingID, files, sortOrders)
	return args.Error(0)
}

func (m *mockMarket) UpdateStatus(ctx context.Context, listingID int64, status string) error {
	args := m.Called(ctx, listingID, status)
	return args.Error(0)
}

func (m *mockMarket) GetListing(ctx context.Context, listingID int64) (*market.ListingRecord, error) {
	args := m.Called(ctx, listingID)
	rec, _ := args.Get(0).(*market.ListingRecord)
	return rec, args.Error(1)
}

func (m *mockMarket) ListMyListings(ctx context.Context, status string) ([]market.ListingSummary, error) {
	args := m.Called(ctx, status)
	list, _ := args.Get(0).([]market.ListingSummary)
	return list, args.Error(1)
}

func (m *mockMarket) Profile(ctx context.Context) (*market.Profile, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(*market.Profile)
	return p, args.Error(1)
}

// stubCategoryAPI 固定的两级分类
type stubCategoryAPI struct {
	mu       sync.Mutex
	parents  []market.Category
	children map[int64][]market.Category
	err      error
	calls    int
}

func (s *stubCategoryAPI) ParentCategories(ctx context.Context) ([]market.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.parents, nil
}

func (s *stubCategoryAPI) Subcategories(ctx context.Context, categoryID int64) ([]market.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.children[categoryID], nil
}

func numPtr(v float64) *market.Number {
	n := market.Number(v)
	return &n
}

func newStubCategoryAPI() *stubCategoryAPI {
	return &stubCategoryAPI{
		parents: []market.Category{
			{CategoryID: 3, Name: "Design"},
			{CategoryID: 4, Name: "Writing"},
		},
		children: map[int64][]market.Category{
			3: {{CategoryID: 31, Name: "Logo Design", ParentID: numPtr(3)}, {CategoryID: 32, Name: "Branding", ParentID: numPtr(3)}},
			4: {{CategoryID: 41, Name: "Copywriting", ParentID: numPtr(4)}},
		},
	}
}

// ==================== 测试数据库 ====================

func setupServiceTestDB(t *testing.T) repository.SubmissionLogRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "连接测试数据库失败")
	require.NoError(t, db.AutoMigrate(&model.SubmissionLog{}), "数据库迁移失败")
	return repository.NewSubmissionLogRepository(db)
}
