package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"listing_studio/internal/api/dto"
	"listing_studio/internal/draft"
	"listing_studio/internal/model"
	"listing_studio/pkg/logger"
	"listing_studio/pkg/market"
)

// ErrSessionNotFound 会话不存在、已过期或不属于当前用户
var ErrSessionNotFound = errors.New("draft session not found")

// ListingReader 编辑模式回填
type ListingReader interface {
	GetListing(ctx context.Context, listingID int64) (*market.ListingRecord, error)
}

// CompletionHook 提交成功后的回调
type CompletionHook func(sessionID string, userID, listingID int64)

// ==================== 会话 ====================

// session 单个表单会话，mu 串行化该表单上的全部操作
// closed 在提交成功、取消或过期后置位，之后的操作一律视为会话不存在
type session struct {
	mu         sync.Mutex
	form       *draft.Form
	lastActive time.Time
	closed     bool
}

// close 关闭会话并释放暂存图片，调用方持有 mu
func (sess *session) close() {
	sess.closed = true
	sess.form.Media.Clear()
}

// ==================== 服务实现 ====================

// DraftService 表单会话服务
type DraftService struct {
	locations  draft.LocationProvider
	categories draft.CategorySource
	reader     ListingReader
	submitter  *SubmissionService

	ttl        time.Duration
	now        func() time.Time
	onComplete CompletionHook

	sessions     map[string]*session
	sessionMutex sync.RWMutex

	// 进度订阅管理
	subscribers     map[string][]chan dto.ProgressEvent
	subscriberMutex sync.RWMutex
}

// NewDraftService 创建表单会话服务
func NewDraftService(
	locations draft.LocationProvider,
	categories draft.CategorySource,
	reader ListingReader,
	submitter *SubmissionService,
	ttl time.Duration,
) *DraftService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &DraftService{
		locations:   locations,
		categories:  categories,
		reader:      reader,
		submitter:   submitter,
		ttl:         ttl,
		now:         time.Now,
		sessions:    make(map[string]*session),
		subscribers: make(map[string][]chan dto.ProgressEvent),
	}
}

// OnComplete 设置提交成功回调
func (s *DraftService) OnComplete(hook CompletionHook) {
	s.onComplete = hook
}

// ==================== 进度订阅 ====================

// Subscribe 订阅会话提交进度
func (s *DraftService) Subscribe(sessionID string) chan dto.ProgressEvent {
	s.subscriberMutex.Lock()
	defer s.subscriberMutex.Unlock()

	ch := make(chan dto.ProgressEvent, 10)
	s.subscribers[sessionID] = append(s.subscribers[sessionID], ch)
	return ch
}

// Unsubscribe 取消订阅
func (s *DraftService) Unsubscribe(sessionID string, ch chan dto.ProgressEvent) {
	s.subscriberMutex.Lock()
	defer s.subscriberMutex.Unlock()

	subs := s.subscribers[sessionID]
	for i, sub := range subs {
		if sub == ch {
			s.subscribers[sessionID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(s.subscribers[sessionID]) == 0 {
		delete(s.subscribers, sessionID)
	}
}

// notifyProgress 通知进度
func (s *DraftService) notifyProgress(event dto.ProgressEvent) {
	s.subscriberMutex.RLock()
	defer s.subscriberMutex.RUnlock()

	for _, ch := range s.subscribers[event.SessionID] {
		select {
		case ch <- event:
		default:
			// channel 已满，跳过
		}
	}
}

// ==================== 会话生命周期 ====================

// Open 打开表单会话
// listingID > 0 时从上游回填（编辑模式）
func (s *DraftService) Open(ctx context.Context, userID, listingID int64) (*dto.DraftView, error) {
	id := uuid.NewString()
	form := draft.NewForm(id, userID, s.locations, s.categories)

	if listingID > 0 {
		rec, err := s.reader.GetListing(ctx, listingID)
		if err != nil {
			return nil, draft.Transport(fmt.Errorf("加载 Listing %d 失败: %w", listingID, err))
		}
		d, countries, states, cities := draftFromRecord(rec)
		form.Hydrate(ctx, listingID, rec.Status, d, countries, states, cities)
	}

	form.OnComplete = func(newListingID int64) {
		if s.onComplete != nil {
			s.onComplete(id, userID, newListingID)
		}
	}
	form.OnCancel = func() {
		logger.L().Infof("[Draft] 会话已取消 session=%s user=%d", id, userID)
	}

	sess := &session{form: form, lastActive: s.now()}
	s.sessionMutex.Lock()
	s.sessions[id] = sess
	s.sessionMutex.Unlock()

	logger.L().Infof("[Draft] 打开会话 session=%s user=%d listing=%d", id, userID, listingID)
	return buildView(form), nil
}

// Get 会话快照
func (s *DraftService) Get(ctx context.Context, userID int64, sessionID string) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error { return nil })
}

// Authorize 校验会话归属，不改变会话状态
func (s *DraftService) Authorize(userID int64, sessionID string) error {
	_, err := s.lookup(userID, sessionID)
	return err
}

// Cancel 放弃编辑
func (s *DraftService) Cancel(ctx context.Context, userID int64, sessionID string) error {
	sess, err := s.acquire(userID, sessionID)
	if err != nil {
		return err
	}

	sess.form.Cancel()
	sess.close()
	sess.mu.Unlock()

	s.remove(sessionID)
	return nil
}

// CleanupExpired 清理闲置超过 TTL 的会话
// 正在提交（持有锁）的会话跳过
func (s *DraftService) CleanupExpired() int {
	cutoff := s.now().Add(-s.ttl)

	s.sessionMutex.RLock()
	var expired []string
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if !sess.closed && sess.lastActive.Before(cutoff) {
			sess.close()
			expired = append(expired, id)
		}
		sess.mu.Unlock()
	}
	s.sessionMutex.RUnlock()

	for _, id := range expired {
		s.remove(id)
	}
	return len(expired)
}

// ActiveSessions 当前会话数
func (s *DraftService) ActiveSessions() int {
	s.sessionMutex.RLock()
	defer s.sessionMutex.RUnlock()
	return len(s.sessions)
}

// ==================== basic / pricing / tags ====================

func (s *DraftService) SetBasicInfo(ctx context.Context, userID int64, sessionID string, req *dto.BasicInfoRequest) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		return f.SetBasicInfo(model.BasicInfo{
			Title:       req.Title,
			Description: req.Description,
			ServiceType: model.ServiceType(req.ServiceType),
		})
	})
}

func (s *DraftService) SetPricing(ctx context.Context, userID int64, sessionID string, req *dto.PricingRequest) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		return f.SetPricing(model.Pricing{
			PricingModel:      model.PricingModel(req.PricingModel),
			MinPrice:          req.MinPrice,
			MaxPrice:          req.MaxPrice,
			EstimatedTimeline: req.EstimatedTimeline,
		})
	})
}

func (s *DraftService) AddTag(ctx context.Context, userID int64, sessionID, tag string) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		return f.AddTag(tag)
	})
}

func (s *DraftService) RemoveTag(ctx context.Context, userID int64, sessionID, tag string) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		f.RemoveTag(tag)
		return nil
	})
}

// ==================== 分类 ====================

func (s *DraftService) SelectCategory(ctx context.Context, userID int64, sessionID string, categoryID int64) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		return f.SelectCategory(ctx, categoryID)
	})
}

func (s *DraftService) SelectSubcategory(ctx context.Context, userID int64, sessionID string, subcategoryID *int64) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		return f.SelectSubcategory(subcategoryID)
	})
}

// ==================== 服务区域 ====================

func (s *DraftService) SelectCountry(ctx context.Context, userID int64, sessionID, code string) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		return f.Locations.SelectCountry(ctx, code)
	})
}

func (s *DraftService) SelectState(ctx context.Context, userID int64, sessionID, code string) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		return f.Locations.SelectState(ctx, code)
	})
}

func (s *DraftService) SelectCity(ctx context.Context, userID int64, sessionID, name string) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		return f.Locations.SelectCity(name)
	})
}

func (s *DraftService) AddLocation(ctx context.Context, userID int64, sessionID string) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		_, err := f.AddLocation()
		return err
	})
}

func (s *DraftService) RemoveLocation(ctx context.Context, userID int64, sessionID, locationID string) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		f.Locations.RemoveLocation(locationID)
		return nil
	})
}

func (s *DraftService) ClearLocations(ctx context.Context, userID int64, sessionID string) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		f.Locations.ClearAll()
		return nil
	})
}

// ==================== 图片 ====================

func (s *DraftService) AddMedia(ctx context.Context, userID int64, sessionID string, files []model.MediaFile) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		return f.Media.AddFiles(files...)
	})
}

func (s *DraftService) RemoveMedia(ctx context.Context, userID int64, sessionID string, index int) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		return f.Media.RemoveFile(index)
	})
}

// ==================== 标签页 ====================

func (s *DraftService) NextTab(ctx context.Context, userID int64, sessionID string) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		f.Tabs.Next()
		return nil
	})
}

func (s *DraftService) PreviousTab(ctx context.Context, userID int64, sessionID string) (*dto.DraftView, error) {
	return s.mutate(userID, sessionID, func(f *draft.Form) error {
		f.Tabs.Previous()
		return nil
	})
}

// ==================== 提交 ====================

// Submit 提交表单
// 成功后会话关闭并触发完成回调；失败时表单保持可编辑，错误进入提示队列
func (s *DraftService) Submit(ctx context.Context, userID int64, sessionID string) (*dto.SubmitResult, []draft.Notice, error) {
	sess, err := s.acquire(userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	defer sess.mu.Unlock()
	sess.lastActive = s.now()

	result, err := s.submitter.Submit(ctx, sess.form, s.notifyProgress)
	if err != nil {
		sess.form.Notices.PushError(err)
		return nil, sess.form.Notices.Drain(), err
	}

	sess.form.Notices.Push(draft.NoticeSuccess, "Listing saved successfully")
	notices := sess.form.Notices.Drain()

	sess.close()
	s.remove(sessionID)
	sess.form.Complete(result.ListingID)
	return result, notices, nil
}

// ==================== 内部辅助 ====================

func (s *DraftService) lookup(userID int64, sessionID string) (*session, error) {
	s.sessionMutex.RLock()
	sess, ok := s.sessions[sessionID]
	s.sessionMutex.RUnlock()

	if !ok || sess.form.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// acquire 查找会话并加锁，已关闭的会话视为不存在
// 成功时调用方负责解锁
func (s *DraftService) acquire(userID int64, sessionID string) (*session, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *DraftService) remove(sessionID string) {
	s.sessionMutex.Lock()
	delete(s.sessions, sessionID)
	s.sessionMutex.Unlock()
}

// mutate 在会话锁内执行一次表单操作并返回快照
// 出错时仍返回快照（部分操作在失败时也会改变选择状态）
func (s *DraftService) mutate(userID int64, sessionID string, fn func(f *draft.Form) error) (*dto.DraftView, error) {
	sess, err := s.acquire(userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	sess.lastActive = s.now()

	err = fn(sess.form)
	if err != nil {
		sess.form.Notices.PushError(err)
	}
	return buildView(sess.form), err
}

func buildView(f *draft.Form) *dto.DraftView {
	mode := model.SubmissionModeCreate
	if f.IsEdit() {
		mode = model.SubmissionModeUpdate
	}

	d := f.Draft
	d.Tags = append([]string{}, f.Draft.Tags...)

	return &dto.DraftView{
		SessionID:     f.ID,
		ListingID:     f.ListingID,
		Mode:          mode,
		Tab:           f.Tabs.Current(),
		TabIndex:      f.Tabs.Index(),
		IsLastTab:     f.Tabs.IsLast(),
		Draft:         d,
		Subcategories: f.Subcategories(),
		Locations:     f.Locations.Locations(),
		Pending:       f.Locations.Pending(),
		StateOptions:  f.Locations.StateOptions(),
		CityOptions:   f.Locations.CityOptions(),
		Media:         f.Media.Files(),
		MaxMedia:      draft.MaxMediaFiles,
		Notifications: f.Notices.Drain(),
	}
}

// draftFromRecord 上游记录转换为草稿
func draftFromRecord(rec *market.ListingRecord) (model.ListingDraft, []string, []string, []string) {
	d := model.ListingDraft{
		BasicInfo: model.BasicInfo{
			Title:       rec.Title,
			Description: rec.Description,
			ServiceType: model.ServiceType(rec.ServiceType),
		},
		Pricing: model.Pricing{
			PricingModel:      model.PricingModel(rec.PricingModel),
			MinPrice:          rec.MinPrice.Float64(),
			MaxPrice:          rec.MaxPrice.Float64(),
			EstimatedTimeline: rec.EstimatedTimeline,
		},
		CategoryID: rec.CategoryID.Int64(),
		Tags:       rec.Tags,
	}
	if rec.SubcategoryID != nil && rec.SubcategoryID.Int64() > 0 {
		id := rec.SubcategoryID.Int64()
		d.SubcategoryID = &id
	}
	return d, rec.ServiceCountries, rec.ServiceStates, rec.ServiceCities
}
