package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

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

var testPNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// newLogoDesignForm 填好必填项并停在最后一页的新建表单
func newLogoDesignForm(t *testing.T, images int) *draft.Form {
	t.Helper()
	ds, err := geo.Default()
	require.NoError(t, err)
	categories := NewCategoryService(newStubCategoryAPI(), cache.NewMemory(), time.Minute)

	f := draft.NewForm("session-1", 7, ds, categories)
	require.NoError(t, f.SetBasicInfo(model.BasicInfo{
		Title:       "Logo Design",
		Description: "Custom logos",
		ServiceType: model.ServiceTypeOneTime,
	}))
	require.NoError(t, f.SetPricing(model.Pricing{
		PricingModel: model.PricingModelFixed,
		MinPrice:     50,
		MaxPrice:     150,
	}))
	require.NoError(t, f.SelectCategory(context.Background(), 3))

	for i := 0; i < images; i++ {
		require.NoError(t, f.Media.AddFiles(model.MediaFile{Filename: "logo.png", Data: testPNG}))
	}
	for !f.Tabs.IsLast() {
		f.Tabs.Next()
	}
	return f
}

func TestBuildPayload(t *testing.T) {
	f := newLogoDesignForm(t, 0)
	sub := int64(31)
	require.NoError(t, f.SelectSubcategory(&sub))
	require.NoError(t, f.AddTag("logo"))

	ctx := context.Background()
	require.NoError(t, f.Locations.SelectCountry(ctx, "US"))
	require.NoError(t, f.Locations.SelectState(ctx, "CA"))
	require.NoError(t, f.Locations.SelectCity("Los Angeles"))
	_, err := f.AddLocation()
	require.NoError(t, err)

	p := BuildPayload(f)
	assert.Equal(t, "Logo Design", p.Title)
	assert.Equal(t, "one_time", p.ServiceType)
	assert.Equal(t, 150.0, p.MaxPrice)
	assert.Equal(t, int64(3), p.CategoryID)
	require.NotNil(t, p.SubcategoryID)
	assert.Equal(t, int64(31), *p.SubcategoryID)
	assert.Equal(t, []string{"logo"}, p.Tags)
	assert.Equal(t, []string{"United States"}, p.ServiceCountries)
	assert.Equal(t, []string{"California"}, p.ServiceStates)
	assert.Equal(t, []string{"Los Angeles"}, p.ServiceCities)

	// 修改载荷不影响表单
	*p.SubcategoryID = 99
	assert.Equal(t, int64(31), *f.Draft.SubcategoryID)
}

func TestSubmit_CreateSuccess(t *testing.T) {
	api := new(mockMarket)
	logs := setupServiceTestDB(t)
	svc := NewSubmissionService(api, logs, false)
	f := newLogoDesignForm(t, 1)

	api.On("CreateListing", mock.Anything, mock.MatchedBy(func(p *market.ListingPayload) bool {
		return p.Title == "Logo Design" &&
			p.ServiceCountries != nil && len(p.ServiceCountries) == 0 &&
			p.ServiceStates != nil && p.ServiceCities != nil &&
			p.SubcategoryID == nil
	})).Return(&market.CreateListingResp{Listing: &market.ListingRecord{ListingID: 101}}, nil).Once()
	api.On("UploadMedia", mock.Anything, int64(101), mock.MatchedBy(func(files []market.MediaUpload) bool {
		return len(files) == 1 && files[0].ContentType == "image/png"
	}), []string{"0"}).Return(nil).Once()
	api.On("UpdateStatus", mock.Anything, int64(101), model.ListingStatusActive).Return(nil).Once()

	var stages []string
	result, err := svc.Submit(context.Background(), f, func(e dto.ProgressEvent) {
		stages = append(stages, e.Stage)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(101), result.ListingID)
	assert.Equal(t, model.SubmissionModeCreate, result.Mode)
	assert.Equal(t, 1, result.MediaCount)

	api.AssertExpectations(t)
	assert.Equal(t, []string{
		dto.StagePayload, dto.StageSaving, dto.StageUploading, dto.StageActivating, dto.StageDone,
	}, stages)

	history, err := logs.ListByUser(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.SubmissionStatusSuccess, history[0].Status)
	assert.Equal(t, model.SubmissionStepDone, history[0].LastStep)
	assert.Equal(t, int64(101), history[0].ListingID)
	assert.Contains(t, string(history[0].Payload), `"service_countries":[]`)
	assert.NotContains(t, string(history[0].Payload), "service_locations")
}

func TestSubmit_MissingListingID(t *testing.T) {
	api := new(mockMarket)
	logs := setupServiceTestDB(t)
	svc := NewSubmissionService(api, logs, false)
	f := newLogoDesignForm(t, 1)

	api.On("CreateListing", mock.Anything, mock.Anything).
		Return(&market.CreateListingResp{Message: "created"}, nil).Once()

	_, err := svc.Submit(context.Background(), f, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, draft.ErrCreation)
	assert.Equal(t, draft.MsgNoListingID, draft.UserMessage(err))

	api.AssertExpectations(t)
	api.AssertNotCalled(t, "UploadMedia", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)

	history, err := logs.ListByUser(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.SubmissionStatusFailed, history[0].Status)
	assert.Equal(t, string(draft.KindCreation), history[0].ErrorKind)
	assert.Equal(t, model.SubmissionStepCreate, history[0].LastStep)

	// 表单保持可编辑
	assert.Equal(t, 1, f.Media.Len())
}

func TestSubmit_EditWithoutMedia(t *testing.T) {
	api := new(mockMarket)
	svc := NewSubmissionService(api, nil, false)
	f := newLogoDesignForm(t, 0)
	f.ListingID = 77
	f.Status = model.ListingStatusInactive

	api.On("UpdateListing", mock.Anything, int64(77), mock.AnythingOfType("*market.ListingPayload")).Return(nil).Once()
	api.On("UpdateStatus", mock.Anything, int64(77), model.ListingStatusActive).Return(nil).Once()

	result, err := svc.Submit(context.Background(), f, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(77), result.ListingID)
	assert.Equal(t, model.SubmissionModeUpdate, result.Mode)

	api.AssertExpectations(t)
	api.AssertNotCalled(t, "CreateListing", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "UploadMedia", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_NewListingRequiresImage(t *testing.T) {
	api := new(mockMarket)
	svc := NewSubmissionService(api, nil, false)
	f := newLogoDesignForm(t, 0)

	_, err := svc.Submit(context.Background(), f, nil)
	assert.ErrorIs(t, err, draft.ErrValidation)
	assert.Equal(t, draft.MsgImageRequired, draft.UserMessage(err))
	api.AssertNotCalled(t, "CreateListing", mock.Anything, mock.Anything)
}

func TestSubmit_RequiredFields(t *testing.T) {
	api := new(mockMarket)
	svc := NewSubmissionService(api, nil, false)
	f := newLogoDesignForm(t, 1)
	require.NoError(t, f.SetBasicInfo(model.BasicInfo{Description: "Custom logos"}))
	f.Draft.CategoryID = 0

	_, err := svc.Submit(context.Background(), f, nil)
	assert.ErrorIs(t, err, draft.ErrValidation)
	msg := draft.UserMessage(err)
	assert.Contains(t, msg, "title")
	assert.Contains(t, msg, "category_id")
	assert.NotContains(t, msg, "description")
	assert.NotContains(t, msg, "service_type")
	api.AssertNotCalled(t, "CreateListing", mock.Anything, mock.Anything)
}

// 只填标题、价格区间、计价方式和分类，外加一张图片
func TestSubmit_MinimalDraft(t *testing.T) {
	api := new(mockMarket)
	logs := setupServiceTestDB(t)
	svc := NewSubmissionService(api, logs, false)

	ds, err := geo.Default()
	require.NoError(t, err)
	categories := NewCategoryService(newStubCategoryAPI(), cache.NewMemory(), time.Minute)
	f := draft.NewForm("session-1", 7, ds, categories)

	require.NoError(t, f.SetBasicInfo(model.BasicInfo{Title: "Logo Design"}))
	require.NoError(t, f.SetPricing(model.Pricing{PricingModel: model.PricingModelFixed, MinPrice: 500, MaxPrice: 2000}))
	require.NoError(t, f.SelectCategory(context.Background(), 3))
	require.NoError(t, f.Media.AddFiles(model.MediaFile{Filename: "logo.png", Data: testPNG}))
	for !f.Tabs.IsLast() {
		f.Tabs.Next()
	}

	api.On("CreateListing", mock.Anything, mock.MatchedBy(func(p *market.ListingPayload) bool {
		return p.Title == "Logo Design" && p.Description == "" &&
			p.MinPrice == 500 && p.MaxPrice == 2000 &&
			p.PricingModel == "fixed" && p.CategoryID == 3
	})).Return(&market.CreateListingResp{Listing: &market.ListingRecord{ListingID: 101}}, nil).Once()
	api.On("UploadMedia", mock.Anything, int64(101), mock.Anything, []string{"0"}).Return(nil).Once()
	api.On("UpdateStatus", mock.Anything, int64(101), model.ListingStatusActive).Return(nil).Once()

	var completed int64
	f.OnComplete = func(id int64) { completed = id }

	result, err := svc.Submit(context.Background(), f, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(101), result.ListingID)
	f.Complete(result.ListingID)
	assert.Equal(t, int64(101), completed)
	api.AssertExpectations(t)
}

func TestSubmit_NotOnLastTab(t *testing.T) {
	api := new(mockMarket)
	svc := NewSubmissionService(api, nil, false)
	f := newLogoDesignForm(t, 1)
	f.Tabs.Previous()

	_, err := svc.Submit(context.Background(), f, nil)
	assert.ErrorIs(t, err, draft.ErrValidation)
}

func TestSubmit_UploadFailure(t *testing.T) {
	api := new(mockMarket)
	logs := setupServiceTestDB(t)
	svc := NewSubmissionService(api, logs, false)
	f := newLogoDesignForm(t, 2)

	api.On("CreateListing", mock.Anything, mock.Anything).
		Return(&market.CreateListingResp{Listing: &market.ListingRecord{ListingID: 102}}, nil).Once()
	api.On("UploadMedia", mock.Anything, int64(102), mock.Anything, mock.Anything).
		Return(&market.APIError{StatusCode: 413, Message: "File too large"}).Once()

	var last dto.ProgressEvent
	_, err := svc.Submit(context.Background(), f, func(e dto.ProgressEvent) { last = e })
	assert.ErrorIs(t, err, draft.ErrUpload)
	assert.Equal(t, "Failed to upload images: File too large", draft.UserMessage(err))
	assert.Equal(t, dto.StageFailed, last.Stage)

	// 已创建的 Listing 不回滚，也不激活
	api.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)

	history, err := logs.ListByUser(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(102), history[0].ListingID)
	assert.Equal(t, model.SubmissionStepUpload, history[0].LastStep)
}

func TestSubmit_ActivateFailureUsesServerMessage(t *testing.T) {
	api := new(mockMarket)
	svc := NewSubmissionService(api, nil, false)
	f := newLogoDesignForm(t, 0)
	f.ListingID = 77

	api.On("UpdateListing", mock.Anything, int64(77), mock.Anything).Return(nil).Once()
	api.On("UpdateStatus", mock.Anything, int64(77), model.ListingStatusActive).
		Return(&market.APIError{StatusCode: 403, Message: "Listing is locked"}).Once()

	_, err := svc.Submit(context.Background(), f, nil)
	assert.ErrorIs(t, err, draft.ErrTransport)
	assert.Equal(t, "Listing is locked", draft.UserMessage(err))
}

func TestSubmit_ResubmitCreatesAgain(t *testing.T) {
	api := new(mockMarket)
	svc := NewSubmissionService(api, nil, false)
	f := newLogoDesignForm(t, 1)

	api.On("CreateListing", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset")).Twice()

	_, err := svc.Submit(context.Background(), f, nil)
	assert.Error(t, err)
	_, err = svc.Submit(context.Background(), f, nil)
	assert.Error(t, err)

	api.AssertNumberOfCalls(t, "CreateListing", 2)
	assert.False(t, f.IsEdit())
}

func TestSubmit_PositionalSortOrder(t *testing.T) {
	api := new(mockMarket)
	svc := NewSubmissionService(api, nil, true)
	f := newLogoDesignForm(t, 3)

	api.On("CreateListing", mock.Anything, mock.Anything).
		Return(&market.CreateListingResp{Listing: &market.ListingRecord{ListingID: 5}}, nil).Once()
	api.On("UploadMedia", mock.Anything, int64(5), mock.Anything, []string{"0", "1", "2"}).Return(nil).Once()
	api.On("UpdateStatus", mock.Anything, int64(5), model.ListingStatusActive).Return(nil).Once()

	_, err := svc.Submit(context.Background(), f, nil)
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestSubmissionService_History(t *testing.T) {
	logs := setupServiceTestDB(t)
	svc := NewSubmissionService(new(mockMarket), logs, false)
	ctx := context.Background()

	now := time.Now()
	svc.now = func() time.Time { return now }

	require.NoError(t, logs.Create(ctx, &model.SubmissionLog{UserID: 7, Status: model.SubmissionStatusSuccess, DurationMs: 100}))
	require.NoError(t, logs.Create(ctx, &model.SubmissionLog{UserID: 7, Status: model.SubmissionStatusFailed, DurationMs: 300}))
	require.NoError(t, logs.Create(ctx, &model.SubmissionLog{UserID: 8, Status: model.SubmissionStatusSuccess}))

	history, err := svc.History(ctx, 7, 20, 30)
	require.NoError(t, err)
	assert.Len(t, history.Items, 2)
	assert.Equal(t, 30, history.Summary.Days)
	assert.Equal(t, int64(2), history.Summary.TotalRuns)
	assert.Equal(t, int64(1), history.Summary.SuccessCount)
	assert.Equal(t, int64(1), history.Summary.FailedCount)
	assert.InDelta(t, 200.0, history.Summary.AvgDurationMs, 0.01)

	t.Run("未配置数据库", func(t *testing.T) {
		history, err := NewSubmissionService(new(mockMarket), nil, false).History(ctx, 7, 20, 30)
		require.NoError(t, err)
		assert.Empty(t, history.Items)
		assert.Zero(t, history.Summary.TotalRuns)
	})
}

func TestSubmissionService_Detail(t *testing.T) {
	logs := setupServiceTestDB(t)
	svc := NewSubmissionService(new(mockMarket), logs, false)
	ctx := context.Background()

	own := &model.SubmissionLog{UserID: 7, ListingID: 101, Status: model.SubmissionStatusSuccess, Payload: []byte(`{"title":"Logo Design"}`)}
	other := &model.SubmissionLog{UserID: 8, Status: model.SubmissionStatusSuccess}
	require.NoError(t, logs.Create(ctx, own))
	require.NoError(t, logs.Create(ctx, other))

	detail, err := svc.Detail(ctx, 7, own.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(101), detail.ListingID)
	assert.JSONEq(t, `{"title":"Logo Design"}`, string(detail.Payload))

	_, err = svc.Detail(ctx, 7, other.ID)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = svc.Detail(ctx, 7, 9999)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = NewSubmissionService(new(mockMarket), nil, false).Detail(ctx, 7, own.ID)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"未超长", "File too large", 64, "File too large"},
		{"ASCII 截断", "abcdef", 3, "abc"},
		{"不切断多字节字符", "图片过大", 4, "图"},
		{"恰好在字符边界", "图片过大", 6, "图片"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestSubmit_LongNonASCIIErrorIsStored(t *testing.T) {
	api := new(mockMarket)
	logs := setupServiceTestDB(t)
	svc := NewSubmissionService(api, logs, false)
	f := newLogoDesignForm(t, 1)

	// 1024 字节处落在多字节字符中间
	msg := "xx" + strings.Repeat("错", 400)
	api.On("CreateListing", mock.Anything, mock.Anything).
		Return(nil, &market.APIError{StatusCode: 422, Message: msg}).Once()

	_, err := svc.Submit(context.Background(), f, nil)
	require.Error(t, err)

	history, err := logs.ListByUser(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, utf8.ValidString(history[0].ErrorMsg))
	assert.LessOrEqual(t, len(history[0].ErrorMsg), 1024)
}
