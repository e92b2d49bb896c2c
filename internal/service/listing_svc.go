package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"listing_studio/internal/api/dto"
	"listing_studio/internal/draft"
	"listing_studio/internal/model"
	"listing_studio/pkg/market"
)

// SellerAPI 卖家 Listing 管理用到的上游接口
type SellerAPI interface {
	ListMyListings(ctx context.Context, status string) ([]market.ListingSummary, error)
	GetListing(ctx context.Context, listingID int64) (*market.ListingRecord, error)
	UpdateStatus(ctx context.Context, listingID int64, status string) error
}

// ParentCategorySource 顶级分类
type ParentCategorySource interface {
	Parents(ctx context.Context) ([]model.Category, error)
}

// ListingService 卖家 Listing 服务
type ListingService struct {
	api        SellerAPI
	categories ParentCategorySource
}

// NewListingService 创建卖家 Listing 服务
func NewListingService(api SellerAPI, categories ParentCategorySource) *ListingService {
	return &ListingService{api: api, categories: categories}
}

// ListMine 当前卖家的 Listing
func (s *ListingService) ListMine(ctx context.Context, status string) ([]dto.ListingItem, error) {
	if status != "" && !model.ValidListingStatus(status) {
		return nil, draft.Validation(fmt.Sprintf("Unknown status: %s", status))
	}

	list, err := s.api.ListMyListings(ctx, status)
	if err != nil {
		return nil, draft.Transport(err)
	}
	return toListingItems(list, nil), nil
}

// ChangeStatus 变更状态并计算新统计
// 旧状态取自上游当前记录，而不是调用方缓存的副本
func (s *ListingService) ChangeStatus(ctx context.Context, listingID int64, newStatus string, stats model.ListingStats) (*dto.ChangeStatusResult, error) {
	if !model.ValidListingStatus(newStatus) {
		return nil, draft.Validation(fmt.Sprintf("Unknown status: %s", newStatus))
	}

	rec, err := s.api.GetListing(ctx, listingID)
	if err != nil {
		return nil, draft.Transport(err)
	}
	oldStatus := rec.Status

	if err := s.api.UpdateStatus(ctx, listingID, newStatus); err != nil {
		return nil, draft.Transport(err)
	}

	return &dto.ChangeStatusResult{
		ListingID: listingID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Stats:     model.ApplyStatusChange(stats, oldStatus, newStatus),
	}, nil
}

// Dashboard 并发加载 Listing 与分类，全部返回后汇总
func (s *ListingService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	var (
		listings   []market.ListingSummary
		categories []model.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listings, err = s.api.ListMyListings(gctx, "")
		if err != nil {
			return fmt.Errorf("加载 Listing 失败: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = s.categories.Parents(gctx)
		if err != nil {
			return fmt.Errorf("加载分类失败: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, draft.Transport(err)
	}

	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	statuses := make([]string, 0, len(listings))
	for _, l := range listings {
		statuses = append(statuses, l.Status)
	}

	return &dto.DashboardResponse{
		Stats:      model.CountStatuses(statuses),
		Listings:   toListingItems(listings, names),
		Categories: categories,
	}, nil
}

func toListingItems(list []market.ListingSummary, categoryNames map[int64]string) []dto.ListingItem {
	items := make([]dto.ListingItem, 0, len(list))
	for _, l := range list {
		item := dto.ListingItem{
			ListingID:  l.ListingID.Int64(),
			Title:      l.Title,
			Status:     l.Status,
			CategoryID: l.CategoryID.Int64(),
			MinPrice:   l.MinPrice.Float64(),
			MaxPrice:   l.MaxPrice.Float64(),
			CreatedAt:  l.CreatedAt,
		}
		if categoryNames != nil {
			item.CategoryName = categoryNames[item.CategoryID]
		}
		items = append(items, item)
	}
	return items
}
