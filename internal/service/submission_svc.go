package service

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"listing_studio/internal/api/dto"
	"listing_studio/internal/draft"
	"listing_studio/internal/model"
	"listing_studio/internal/repository"
	"listing_studio/pkg/logger"
	"listing_studio/pkg/market"
)

// ListingAPI 提交流程用到的上游接口
type ListingAPI interface {
	CreateListing(ctx context.Context, payload *market.ListingPayload) (*market.CreateListingResp, error)
	UpdateListing(ctx context.Context, listingID int64, payload *market.ListingPayload) error
	UploadMedia(ctx context.Context, listingID int64, files []market.MediaUpload, sortOrders []string) error
	UpdateStatus(ctx context.Context, listingID int64, status string) error
}

// ProgressFunc 进度回调
type ProgressFunc func(event dto.ProgressEvent)

// SubmissionService 提交编排
// 创建/更新 -> 上传图片 -> 强制激活，顺序执行，任一步失败即停止，不回滚
type SubmissionService struct {
	api      ListingAPI
	logs     repository.SubmissionLogRepository
	validate *validator.Validate

	positionalSortOrder bool
	now                 func() time.Time
}

// NewSubmissionService 创建提交服务
// logs 可为 nil（不记录流水）
func NewSubmissionService(api ListingAPI, logs repository.SubmissionLogRepository, positionalSortOrder bool) *SubmissionService {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &SubmissionService{
		api:                 api,
		logs:                logs,
		validate:            v,
		positionalSortOrder: positionalSortOrder,
		now:                 time.Now,
	}
}

// ==================== 载荷构建 ====================

// BuildPayload 从表单构建上游请求体
// 服务区域展开为三组平行数组，不发送 service_locations
func BuildPayload(form *draft.Form) *market.ListingPayload {
	d := form.Draft
	arrays := form.Locations.ToArrays()

	tags := make([]string, len(d.Tags))
	copy(tags, d.Tags)

	var subcategoryID *int64
	if d.SubcategoryID != nil {
		id := *d.SubcategoryID
		subcategoryID = &id
	}

	return &market.ListingPayload{
		Title:             d.Title,
		Description:       d.Description,
		ServiceType:       string(d.ServiceType),
		PricingModel:      string(d.PricingModel),
		MinPrice:          d.MinPrice,
		MaxPrice:          d.MaxPrice,
		EstimatedTimeline: d.EstimatedTimeline,
		CategoryID:        d.CategoryID,
		SubcategoryID:     subcategoryID,
		Tags:              tags,
		ServiceCountries:  arrays.Countries,
		ServiceStates:     arrays.States,
		ServiceCities:     arrays.Cities,
	}
}

// checkRequired 必填字段校验
func (s *SubmissionService) checkRequired(payload *market.ListingPayload) error {
	err := s.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}
	if len(fields) == 0 {
		return draft.Validation("Please fill in all required fields")
	}
	return draft.Validation("Please fill in all required fields: " + strings.Join(fields, ", "))
}

// ==================== 提交 ====================

// submissionRun 单次执行的状态，结束时写入流水
type submissionRun struct {
	log      *model.SubmissionLog
	started  time.Time
	progress ProgressFunc
	session  string
}

func (r *submissionRun) emit(stage string, progress int, message string, data interface{}) {
	if r.progress == nil {
		return
	}
	r.progress(dto.ProgressEvent{
		SessionID: r.session,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		Data:      data,
	})
}

// Submit 执行提交
// 调用方负责串行化同一表单的提交
func (s *SubmissionService) Submit(ctx context.Context, form *draft.Form, progress ProgressFunc) (*dto.SubmitResult, error) {
	mode := model.SubmissionModeCreate
	if form.IsEdit() {
		mode = model.SubmissionModeUpdate
	}

	run := &submissionRun{
		log: &model.SubmissionLog{
			SessionID:  form.ID,
			UserID:     form.UserID,
			ListingID:  form.ListingID,
			Mode:       mode,
			LastStep:   model.SubmissionStepPayload,
			MediaCount: form.Media.Len(),
		},
		started:  s.now(),
		progress: progress,
		session:  form.ID,
	}

	result, err := s.execute(ctx, form, run)
	s.finish(ctx, run, err)
	if err != nil {
		return nil, err
	}
	result.DurationMs = run.log.DurationMs
	return result, nil
}

func (s *SubmissionService) execute(ctx context.Context, form *draft.Form, run *submissionRun) (*dto.SubmitResult, error) {
	// 1. 本地前置检查，不发起网络调用
	if err := form.CheckSubmittable(); err != nil {
		return nil, err
	}

	payload := BuildPayload(form)
	if err := s.checkRequired(payload); err != nil {
		return nil, err
	}
	if snapshot, err := json.Marshal(payload); err == nil {
		run.log.Payload = datatypes.JSON(snapshot)
	}
	run.emit(dto.StagePayload, 10, "Preparing listing", nil)

	// 2. 创建或更新
	listingID := form.ListingID
	run.emit(dto.StageSaving, 30, "Saving listing", nil)
	if form.IsEdit() {
		run.log.LastStep = model.SubmissionStepUpdate
		if err := s.api.UpdateListing(ctx, listingID, payload); err != nil {
			return nil, draft.Transport(err)
		}
	} else {
		run.log.LastStep = model.SubmissionStepCreate
		resp, err := s.api.CreateListing(ctx, payload)
		if err != nil {
			return nil, draft.Transport(err)
		}
		listingID = resp.ListingID()
		if listingID == 0 {
			return nil, draft.Creation()
		}
		run.log.ListingID = listingID
	}

	// 3. 上传图片（单个 multipart 请求）
	if !form.Media.Empty() {
		run.log.LastStep = model.SubmissionStepUpload
		run.emit(dto.StageUploading, 60, "Uploading images", map[string]int{"count": form.Media.Len()})

		if err := s.api.UploadMedia(ctx, listingID, toUploads(form.Media.Files()), form.Media.SortOrders(s.positionalSortOrder)); err != nil {
			return nil, draft.Upload(err)
		}
	}

	// 4. 无论原状态如何都激活
	run.log.LastStep = model.SubmissionStepActivate
	run.emit(dto.StageActivating, 85, "Activating listing", nil)
	if err := s.api.UpdateStatus(ctx, listingID, model.ListingStatusActive); err != nil {
		return nil, draft.Transport(err)
	}

	run.log.LastStep = model.SubmissionStepDone
	return &dto.SubmitResult{
		ListingID:  listingID,
		Mode:       run.log.Mode,
		MediaCount: run.log.MediaCount,
	}, nil
}

// finish 写入流水并发送结束事件
func (s *SubmissionService) finish(ctx context.Context, run *submissionRun, err error) {
	run.log.DurationMs = s.now().Sub(run.started).Milliseconds()

	if err != nil {
		run.log.Status = model.SubmissionStatusFailed
		run.log.ErrorKind = string(draft.KindOf(err))
		run.log.ErrorMsg = truncate(draft.UserMessage(err), 1024)
		run.emit(dto.StageFailed, 100, draft.UserMessage(err), map[string]string{"kind": run.log.ErrorKind})
		logger.L().Warnf("[Submission] 提交失败 session=%s step=%s kind=%s: %v",
			run.session, run.log.LastStep, run.log.ErrorKind, err)
	} else {
		run.log.Status = model.SubmissionStatusSuccess
		run.emit(dto.StageDone, 100, "Listing saved successfully", map[string]int64{"listing_id": run.log.ListingID})
		logger.L().Infof("[Submission] 提交成功 session=%s listing=%d mode=%s 耗时=%dms",
			run.session, run.log.ListingID, run.log.Mode, run.log.DurationMs)
	}

	if s.logs == nil {
		return
	}
	// 请求已结束时仍需落库
	if err := s.logs.Create(context.WithoutCancel(ctx), run.log); err != nil {
		logger.L().Errorf("[Submission] 写入提交流水失败: %v", err)
	}
}

// ErrSubmissionNotFound 流水不存在或不属于当前用户
var ErrSubmissionNotFound = errors.New("submission not found")

// History 用户最近的提交流水，以及最近 days 天的汇总
func (s *SubmissionService) History(ctx context.Context, userID int64, limit, days int) (*dto.SubmissionHistoryResponse, error) {
	resp := &dto.SubmissionHistoryResponse{
		Summary: dto.SubmissionSummary{Days: days},
		Items:   []dto.SubmissionLogItem{},
	}
	if s.logs == nil {
		return resp, nil
	}

	logs, err := s.logs.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	for _, l := range logs {
		resp.Items = append(resp.Items, toLogItem(&l))
	}

	var since time.Time
	if days > 0 {
		since = s.now().AddDate(0, 0, -days)
	}
	stats, err := s.logs.GetStats(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	resp.Summary.TotalRuns = stats.TotalRuns
	resp.Summary.SuccessCount = stats.SuccessCount
	resp.Summary.FailedCount = stats.FailedCount
	resp.Summary.AvgDurationMs = stats.AvgDurationMs
	return resp, nil
}

// Detail 单条流水，只能查看自己的
func (s *SubmissionService) Detail(ctx context.Context, userID, id int64) (*dto.SubmissionDetail, error) {
	if s.logs == nil {
		return nil, ErrSubmissionNotFound
	}

	l, err := s.logs.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	if l.UserID != userID {
		return nil, ErrSubmissionNotFound
	}

	return &dto.SubmissionDetail{
		SubmissionLogItem: toLogItem(l),
		Payload:           json.RawMessage(l.Payload),
	}, nil
}

func toLogItem(l *model.SubmissionLog) dto.SubmissionLogItem {
	return dto.SubmissionLogItem{
		ID:         l.ID,
		SessionID:  l.SessionID,
		ListingID:  l.ListingID,
		Mode:       l.Mode,
		LastStep:   l.LastStep,
		MediaCount: l.MediaCount,
		Status:     l.Status,
		ErrorKind:  l.ErrorKind,
		ErrorMsg:   l.ErrorMsg,
		DurationMs: l.DurationMs,
		CreatedAt:  l.CreatedAt,
	}
}

func toUploads(files []model.MediaFile) []market.MediaUpload {
	out := make([]market.MediaUpload, 0, len(files))
	for _, f := range files {
		out = append(out, market.MediaUpload{
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Data:        f.Data,
		})
	}
	return out
}

// truncate 按字节截断，不切断多字节字符
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
