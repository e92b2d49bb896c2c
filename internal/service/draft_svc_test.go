package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"listing_studio/internal/api/dto"
	"listing_studio/internal/draft"
	"listing_studio/internal/model"
	"listing_studio/pkg/cache"
	"listing_studio/pkg/geo"
	"listing_studio/pkg/market"
)

func newTestDraftService(t *testing.T, api *mockMarket) *DraftService {
	t.Helper()
	ds, err := geo.Default()
	require.NoError(t, err)

	categories := NewCategoryService(newStubCategoryAPI(), cache.NewMemory(), time.Minute)
	submitter := NewSubmissionService(api, nil, false)
	return NewDraftService(ds, categories, api, submitter, time.Hour)
}

// fillLogoDesign 通过服务接口填写一个可提交的新建表单
func fillLogoDesign(t *testing.T, svc *DraftService, userID int64, sessionID string) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.SetBasicInfo(ctx, userID, sessionID, &dto.BasicInfoRequest{
		Title: "Logo Design", Description: "Custom logos", ServiceType: "one_time",
	})
	require.NoError(t, err)
	_, err = svc.SetPricing(ctx, userID, sessionID, &dto.PricingRequest{
		PricingModel: "fixed", MinPrice: 50, MaxPrice: 150,
	})
	require.NoError(t, err)
	_, err = svc.SelectCategory(ctx, userID, sessionID, 3)
	require.NoError(t, err)
	_, err = svc.AddMedia(ctx, userID, sessionID, []model.MediaFile{{Filename: "logo.png", Data: testPNG}})
	require.NoError(t, err)

	for i := 0; i < len(draft.Tabs); i++ {
		_, err = svc.NextTab(ctx, userID, sessionID)
		require.NoError(t, err)
	}
}

func TestDraftService_OpenNew(t *testing.T) {
	svc := newTestDraftService(t, new(mockMarket))

	view, err := svc.Open(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, model.SubmissionModeCreate, view.Mode)
	assert.Equal(t, draft.TabBasic, view.Tab)
	assert.Equal(t, draft.MaxMediaFiles, view.MaxMedia)
	assert.Equal(t, 1, svc.ActiveSessions())
}

func TestDraftService_OpenEditHydrates(t *testing.T) {
	api := new(mockMarket)
	svc := newTestDraftService(t, api)

	api.On("GetListing", mock.Anything, int64(77)).Return(&market.ListingRecord{
		ListingID:        77,
		Title:            "Old title",
		ServiceType:      "ongoing",
		PricingModel:     "hourly",
		MinPrice:         20,
		CategoryID:       3,
		SubcategoryID:    numPtr(32),
		Tags:             []string{"brand"},
		ServiceCountries: []string{"Canada"},
		ServiceStates:    []string{"Ontario"},
		ServiceCities:    []string{"Toronto"},
		Status:           model.ListingStatusInactive,
	}, nil).Once()

	view, err := svc.Open(context.Background(), 7, 77)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionModeUpdate, view.Mode)
	assert.Equal(t, int64(77), view.ListingID)
	assert.Equal(t, "Old title", view.Draft.Title)
	require.NotNil(t, view.Draft.SubcategoryID)
	assert.Equal(t, int64(32), *view.Draft.SubcategoryID)
	assert.Len(t, view.Subcategories, 2)
	require.Len(t, view.Locations, 1)
	assert.Equal(t, "Toronto", view.Locations[0].City)
}

func TestDraftService_OpenEditFailure(t *testing.T) {
	api := new(mockMarket)
	svc := newTestDraftService(t, api)
	api.On("GetListing", mock.Anything, int64(404)).Return(nil, &market.APIError{StatusCode: 404, Message: "Listing not found"})

	_, err := svc.Open(context.Background(), 7, 404)
	assert.ErrorIs(t, err, draft.ErrTransport)
	assert.Equal(t, "Listing not found", draft.UserMessage(err))
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestDraftService_SessionOwnership(t *testing.T) {
	svc := newTestDraftService(t, new(mockMarket))
	ctx := context.Background()

	view, err := svc.Open(ctx, 7, 0)
	require.NoError(t, err)

	_, err = svc.Get(ctx, 8, view.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Get(ctx, 7, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDraftService_LocationFlow(t *testing.T) {
	svc := newTestDraftService(t, new(mockMarket))
	ctx := context.Background()

	view, err := svc.Open(ctx, 7, 0)
	require.NoError(t, err)
	id := view.SessionID

	_, err = svc.SelectCountry(ctx, 7, id, "US")
	require.NoError(t, err)
	view, err = svc.SelectState(ctx, 7, id, "CA")
	require.NoError(t, err)
	assert.NotEmpty(t, view.CityOptions)
	_, err = svc.SelectCity(ctx, 7, id, "Los Angeles")
	require.NoError(t, err)

	view, err = svc.AddLocation(ctx, 7, id)
	require.NoError(t, err)
	require.Len(t, view.Locations, 1)
	assert.Equal(t, []draft.Notice{{Level: draft.NoticeSuccess, Message: "Location added successfully"}}, view.Notifications)

	// 重复添加：返回 duplicate 并附带 warning
	_, _ = svc.SelectCountry(ctx, 7, id, "US")
	_, _ = svc.SelectState(ctx, 7, id, "CA")
	_, _ = svc.SelectCity(ctx, 7, id, "Los Angeles")
	view, err = svc.AddLocation(ctx, 7, id)
	assert.ErrorIs(t, err, draft.ErrDuplicate)
	require.NotNil(t, view)
	assert.Len(t, view.Locations, 1)
	assert.Equal(t, draft.NoticeWarning, view.Notifications[0].Level)

	// 删除不存在的 ID 无操作
	view, err = svc.RemoveLocation(ctx, 7, id, "unknown")
	require.NoError(t, err)
	assert.Len(t, view.Locations, 1)

	view, err = svc.ClearLocations(ctx, 7, id)
	require.NoError(t, err)
	assert.Empty(t, view.Locations)
}

func TestDraftService_CategoryChangeClearsSubcategory(t *testing.T) {
	svc := newTestDraftService(t, new(mockMarket))
	ctx := context.Background()

	view, err := svc.Open(ctx, 7, 0)
	require.NoError(t, err)
	id := view.SessionID

	_, err = svc.SelectCategory(ctx, 7, id, 3)
	require.NoError(t, err)
	sub := int64(31)
	view, err = svc.SelectSubcategory(ctx, 7, id, &sub)
	require.NoError(t, err)
	require.NotNil(t, view.Draft.SubcategoryID)

	view, err = svc.SelectCategory(ctx, 7, id, 4)
	require.NoError(t, err)
	assert.Nil(t, view.Draft.SubcategoryID)
	assert.Equal(t, "Copywriting", view.Subcategories[0].Name)
}

func TestDraftService_MediaCapacity(t *testing.T) {
	svc := newTestDraftService(t, new(mockMarket))
	ctx := context.Background()

	view, err := svc.Open(ctx, 7, 0)
	require.NoError(t, err)
	id := view.SessionID

	files := make([]model.MediaFile, 3)
	for i := range files {
		files[i] = model.MediaFile{Filename: "a.png", Data: testPNG}
	}
	_, err = svc.AddMedia(ctx, 7, id, files)
	require.NoError(t, err)

	view, err = svc.AddMedia(ctx, 7, id, files)
	assert.ErrorIs(t, err, draft.ErrCapacity)
	assert.Len(t, view.Media, 3)

	view, err = svc.RemoveMedia(ctx, 7, id, 0)
	require.NoError(t, err)
	assert.Len(t, view.Media, 2)
}

func TestDraftService_SubmitSuccess(t *testing.T) {
	api := new(mockMarket)
	svc := newTestDraftService(t, api)
	ctx := context.Background()

	var completed int64
	svc.OnComplete(func(sessionID string, userID, listingID int64) { completed = listingID })

	view, err := svc.Open(ctx, 7, 0)
	require.NoError(t, err)
	id := view.SessionID
	fillLogoDesign(t, svc, 7, id)

	api.On("CreateListing", mock.Anything, mock.Anything).
		Return(&market.CreateListingResp{Listing: &market.ListingRecord{ListingID: 101}}, nil).Once()
	api.On("UploadMedia", mock.Anything, int64(101), mock.Anything, []string{"0"}).Return(nil).Once()
	api.On("UpdateStatus", mock.Anything, int64(101), model.ListingStatusActive).Return(nil).Once()

	sess := svc.sessions[id]
	events := svc.Subscribe(id)
	result, notices, err := svc.Submit(ctx, 7, id)
	require.NoError(t, err)
	assert.Equal(t, int64(101), result.ListingID)
	assert.Equal(t, draft.NoticeSuccess, notices[len(notices)-1].Level)
	assert.Equal(t, int64(101), completed)
	api.AssertExpectations(t)

	// 会话关闭，暂存图片释放
	_, err = svc.Get(ctx, 7, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, sess.form.Media.Empty())

	var stages []string
	for len(events) > 0 {
		stages = append(stages, (<-events).Stage)
	}
	assert.Equal(t, []string{dto.StagePayload, dto.StageSaving, dto.StageUploading, dto.StageActivating, dto.StageDone}, stages)
	svc.Unsubscribe(id, events)
}

func TestDraftService_ConcurrentSubmitCreatesOnce(t *testing.T) {
	api := new(mockMarket)
	svc := newTestDraftService(t, api)
	ctx := context.Background()

	view, err := svc.Open(ctx, 7, 0)
	require.NoError(t, err)
	id := view.SessionID
	fillLogoDesign(t, svc, 7, id)

	api.On("CreateListing", mock.Anything, mock.Anything).
		Return(&market.CreateListingResp{Listing: &market.ListingRecord{ListingID: 101}}, nil)
	api.On("UploadMedia", mock.Anything, int64(101), mock.Anything, mock.Anything).Return(nil)
	api.On("UpdateStatus", mock.Anything, int64(101), model.ListingStatusActive).Return(nil)

	// 先占住会话锁，让两次提交都越过查找后在锁上排队
	sess := svc.sessions[id]
	sess.mu.Lock()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.Submit(ctx, 7, id)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	sess.mu.Unlock()
	wg.Wait()

	api.AssertNumberOfCalls(t, "CreateListing", 1)
	api.AssertNumberOfCalls(t, "UpdateStatus", 1)

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrSessionNotFound)
	}
	assert.Equal(t, 1, succeeded)
}

func TestDraftService_AuthorizeKeepsNotices(t *testing.T) {
	svc := newTestDraftService(t, new(mockMarket))
	ctx := context.Background()

	view, err := svc.Open(ctx, 7, 0)
	require.NoError(t, err)
	id := view.SessionID
	svc.sessions[id].form.Notices.Push(draft.NoticeInfo, "Draft restored")

	assert.ErrorIs(t, svc.Authorize(8, id), ErrSessionNotFound)
	assert.ErrorIs(t, svc.Authorize(7, "missing"), ErrSessionNotFound)
	require.NoError(t, svc.Authorize(7, id))

	view, err = svc.Get(ctx, 7, id)
	require.NoError(t, err)
	assert.Equal(t, []draft.Notice{{Level: draft.NoticeInfo, Message: "Draft restored"}}, view.Notifications)
}

func TestDraftService_SubmitFailureKeepsSession(t *testing.T) {
	api := new(mockMarket)
	svc := newTestDraftService(t, api)
	ctx := context.Background()

	view, err := svc.Open(ctx, 7, 0)
	require.NoError(t, err)
	id := view.SessionID
	fillLogoDesign(t, svc, 7, id)

	api.On("CreateListing", mock.Anything, mock.Anything).
		Return(nil, &market.APIError{StatusCode: 422, Message: "Title already used"}).Once()

	_, notices, err := svc.Submit(ctx, 7, id)
	assert.ErrorIs(t, err, draft.ErrTransport)
	require.Len(t, notices, 1)
	assert.Equal(t, draft.Notice{Level: draft.NoticeError, Message: "Title already used"}, notices[0])

	view, err = svc.Get(ctx, 7, id)
	require.NoError(t, err)
	assert.Len(t, view.Media, 1)
	assert.True(t, view.IsLastTab)
}

func TestDraftService_Cancel(t *testing.T) {
	svc := newTestDraftService(t, new(mockMarket))
	ctx := context.Background()

	view, err := svc.Open(ctx, 7, 0)
	require.NoError(t, err)
	_, err = svc.AddMedia(ctx, 7, view.SessionID, []model.MediaFile{{Filename: "logo.png", Data: testPNG}})
	require.NoError(t, err)
	sess := svc.sessions[view.SessionID]

	assert.ErrorIs(t, svc.Cancel(ctx, 8, view.SessionID), ErrSessionNotFound)
	require.NoError(t, svc.Cancel(ctx, 7, view.SessionID))
	assert.Equal(t, 0, svc.ActiveSessions())
	assert.True(t, sess.closed)
	assert.True(t, sess.form.Media.Empty())

	// 已取消的会话不能再取消或修改
	assert.ErrorIs(t, svc.Cancel(ctx, 7, view.SessionID), ErrSessionNotFound)
}

func TestDraftService_CleanupExpired(t *testing.T) {
	svc := newTestDraftService(t, new(mockMarket))
	ctx := context.Background()

	current := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	stale, err := svc.Open(ctx, 7, 0)
	require.NoError(t, err)

	current = current.Add(45 * time.Minute)
	fresh, err := svc.Open(ctx, 7, 0)
	require.NoError(t, err)

	current = current.Add(30 * time.Minute)
	staleSess := svc.sessions[stale.SessionID]
	assert.Equal(t, 1, svc.CleanupExpired())
	assert.True(t, staleSess.closed)

	_, err = svc.Get(ctx, 7, stale.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Get(ctx, 7, fresh.SessionID)
	assert.NoError(t, err)
}

func TestDraftService_SubscribeDropsWhenFull(t *testing.T) {
	svc := newTestDraftService(t, new(mockMarket))

	ch := svc.Subscribe("s-1")
	for i := 0; i < 20; i++ {
		svc.notifyProgress(dto.ProgressEvent{SessionID: "s-1", Stage: dto.StageSaving})
	}
	assert.Len(t, ch, cap(ch))

	svc.Unsubscribe("s-1", ch)
	received := 0
	for range ch {
		received++
	}
	assert.Equal(t, 10, received)
}

func TestDraftService_TransportErrorOnCategory(t *testing.T) {
	ds, err := geo.Default()
	require.NoError(t, err)
	api := &stubCategoryAPI{err: errors.New("upstream down")}
	svc := NewDraftService(ds, NewCategoryService(api, nil, time.Minute), new(mockMarket), NewSubmissionService(new(mockMarket), nil, false), time.Hour)

	view, err := svc.Open(context.Background(), 7, 0)
	require.NoError(t, err)

	view, err = svc.SelectCategory(context.Background(), 7, view.SessionID, 3)
	assert.ErrorIs(t, err, draft.ErrTransport)
	assert.Equal(t, draft.NoticeError, view.Notifications[0].Level)
}
