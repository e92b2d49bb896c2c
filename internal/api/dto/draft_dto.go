package dto

import (
	"listing_studio/internal/draft"
	"listing_studio/internal/model"
	"listing_studio/pkg/geo"
)

// ==================== 请求 DTO ====================

// OpenDraftRequest 打开表单会话
// listing_id 为空时新建，否则编辑已有 Listing
type OpenDraftRequest struct {
	ListingID int64 `json:"listing_id" binding:"omitempty,gte=0"`
}

// BasicInfoRequest basic 标签页
type BasicInfoRequest struct {
	Title       string `json:"title" binding:"max=255"`
	Description string `json:"description"`
	ServiceType string `json:"service_type"`
}

// PricingRequest pricing 标签页
type PricingRequest struct {
	PricingModel      string  `json:"pricing_model"`
	MinPrice          float64 `json:"min_price" binding:"gte=0"`
	MaxPrice          float64 `json:"max_price" binding:"gte=0"`
	EstimatedTimeline string  `json:"estimated_timeline"`
}

// TagRequest 添加标签
type TagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// CategoryRequest 选择分类
type CategoryRequest struct {
	CategoryID int64 `json:"category_id" binding:"required,gt=0"`
}

// SubcategoryRequest 选择子分类，null 表示清空
type SubcategoryRequest struct {
	SubcategoryID *int64 `json:"subcategory_id"`
}

// SelectCodeRequest 选择国家/州
type SelectCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// SelectCityRequest 选择城市
type SelectCityRequest struct {
	Name string `json:"name" binding:"required"`
}

// ==================== 响应 DTO ====================

// DraftView 表单会话快照
type DraftView struct {
	SessionID string `json:"session_id"`
	ListingID int64  `json:"listing_id,omitempty"`
	Mode      string `json:"mode"` // create / update

	Tab       draft.Tab `json:"tab"`
	TabIndex  int       `json:"tab_index"`
	IsLastTab bool      `json:"is_last_tab"`

	Draft         model.ListingDraft      `json:"draft"`
	Subcategories []model.Category        `json:"subcategories"`
	Locations     []model.ServiceLocation `json:"service_locations"`
	Pending       draft.PendingLocation   `json:"pending_location"`
	StateOptions  []geo.State             `json:"state_options"`
	CityOptions   []geo.City              `json:"city_options"`
	Media         []model.MediaFile       `json:"media"`
	MaxMedia      int                     `json:"max_media"`

	// 提示由控制器放入响应信封
	Notifications []draft.Notice `json:"-"`
}

// SubmitResult 提交结果
type SubmitResult struct {
	ListingID  int64  `json:"listing_id"`
	Mode       string `json:"mode"`
	MediaCount int    `json:"media_count"`
	DurationMs int64  `json:"duration_ms"`
}

// ProgressEvent SSE 进度事件
type ProgressEvent struct {
	SessionID string      `json:"session_id"`
	Stage     string      `json:"stage"` // payload, saving, uploading, activating, done, failed
	Progress  int         `json:"progress"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
}

// 进度阶段
const (
	StagePayload    = "payload"
	StageSaving     = "saving"
	StageUploading  = "uploading"
	StageActivating = "activating"
	StageDone       = "done"
	StageFailed     = "failed"
)

// IsTerminal 是否为结束阶段
func (e ProgressEvent) IsTerminal() bool {
	return e.Stage == StageDone || e.Stage == StageFailed
}
