package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"listing_studio/internal/model"
	"listing_studio/pkg/cache"
	"listing_studio/pkg/logger"
	"listing_studio/pkg/market"
)

// CategoryAPI 上游分类接口
type CategoryAPI interface {
	ParentCategories(ctx context.Context) ([]market.Category, error)
	Subcategories(ctx context.Context, categoryID int64) ([]market.Category, error)
}

// CategoryService 两级分类（带缓存）
// 缓存读写失败只记录日志，不影响主流程
type CategoryService struct {
	api   CategoryAPI
	cache cache.Cache
	ttl   time.Duration
}

// NewCategoryService 创建分类服务
func NewCategoryService(api CategoryAPI, c cache.Cache, ttl time.Duration) *CategoryService {
	if c == nil {
		c = cache.NewNoop()
	}
	return &CategoryService{api: api, cache: c, ttl: ttl}
}

const (
	parentCategoriesKey    = "categories:parent"
	subcategoriesKeyFormat = "categories:%d:subcategories"
)

// Parents 顶级分类
func (s *CategoryService) Parents(ctx context.Context) ([]model.Category, error) {
	return s.cached(ctx, parentCategoriesKey, func() ([]market.Category, error) {
		return s.api.ParentCategories(ctx)
	})
}

// Subcategories 子分类
func (s *CategoryService) Subcategories(ctx context.Context, categoryID int64) ([]model.Category, error) {
	key := fmt.Sprintf(subcategoriesKeyFormat, categoryID)
	return s.cached(ctx, key, func() ([]market.Category, error) {
		return s.api.Subcategories(ctx, categoryID)
	})
}

// Refresh 丢弃父分类及已缓存父分类下的子分类，再从上游重新加载父分类
// 多实例共享 Redis 时用于上游分类变更后的手动刷新
func (s *CategoryService) Refresh(ctx context.Context) ([]model.Category, error) {
	keys := []string{parentCategoriesKey}
	if data, ok, err := s.cache.Get(ctx, parentCategoriesKey); err == nil && ok {
		var parents []model.Category
		if err := json.Unmarshal(data, &parents); err == nil {
			for _, p := range parents {
				keys = append(keys, fmt.Sprintf(subcategoriesKeyFormat, p.ID))
			}
		}
	}

	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.L().Warnf("[Category] 清除缓存失败 key=%s: %v", key, err)
		}
	}
	return s.Parents(ctx)
}

func (s *CategoryService) cached(ctx context.Context, key string, load func() ([]market.Category, error)) ([]model.Category, error) {
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		logger.L().Warnf("[Category] 读取缓存失败 key=%s: %v", key, err)
	} else if ok {
		var cats []model.Category
		if err := json.Unmarshal(data, &cats); err == nil {
			return cats, nil
		}
	}

	raw, err := load()
	if err != nil {
		return nil, fmt.Errorf("加载分类失败: %w", err)
	}
	cats := toModelCategories(raw)

	if data, err := json.Marshal(cats); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			logger.L().Warnf("[Category] 写入缓存失败 key=%s: %v", key, err)
		}
	}
	return cats, nil
}

func toModelCategories(raw []market.Category) []model.Category {
	out := make([]model.Category, 0, len(raw))
	for _, c := range raw {
		cat := model.Category{
			ID:   c.CategoryID.Int64(),
			Name: c.Name,
		}
		if c.ParentID != nil {
			pid := c.ParentID.Int64()
			cat.ParentID = &pid
		}
		out = append(out, cat)
	}
	return out
}
