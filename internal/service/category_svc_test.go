package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing_studio/pkg/cache"
)

func TestCategoryService_CachesResults(t *testing.T) {
	api := newStubCategoryAPI()
	svc := NewCategoryService(api, cache.NewMemory(), time.Minute)
	ctx := context.Background()

	parents, err := svc.Parents(ctx)
	require.NoError(t, err)
	assert.Len(t, parents, 2)

	subs, err := svc.Subcategories(ctx, 3)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.NotNil(t, subs[0].ParentID)
	assert.Equal(t, int64(3), *subs[0].ParentID)

	// 第二次读缓存
	_, err = svc.Parents(ctx)
	require.NoError(t, err)
	_, err = svc.Subcategories(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls)

	// 不同分类各自缓存
	_, err = svc.Subcategories(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, api.calls)
}

func TestCategoryService_Refresh(t *testing.T) {
	api := newStubCategoryAPI()
	svc := NewCategoryService(api, cache.NewMemory(), time.Minute)
	ctx := context.Background()

	_, err := svc.Parents(ctx)
	require.NoError(t, err)
	_, err = svc.Subcategories(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls)

	parents, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, parents, 2)
	assert.Equal(t, 3, api.calls)

	// 子分类缓存也被丢弃
	_, err = svc.Subcategories(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, api.calls)

	// 刷新后的父分类重新进入缓存
	_, err = svc.Parents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, api.calls)
}

func TestCategoryService_NoCache(t *testing.T) {
	api := newStubCategoryAPI()
	svc := NewCategoryService(api, nil, time.Minute)

	_, _ = svc.Parents(context.Background())
	_, _ = svc.Parents(context.Background())
	assert.Equal(t, 2, api.calls)
}

func TestCategoryService_Error(t *testing.T) {
	api := newStubCategoryAPI()
	api.err = errors.New("bad gateway")
	svc := NewCategoryService(api, cache.NewMemory(), time.Minute)

	_, err := svc.Subcategories(context.Background(), 3)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad gateway")
}
