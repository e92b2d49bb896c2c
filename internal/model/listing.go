package model

import "strings"

// ==================== 枚举常量 ====================

// ServiceType 服务类型
type ServiceType string

const (
	ServiceTypeOneTime      ServiceType = "one_time"
	ServiceTypeOngoing      ServiceType = "ongoing"
	ServiceTypeConsultation ServiceType = "consultation"
	ServiceTypeProjectBased ServiceType = "project_based"
)

// Valid 是否合法枚举值
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceTypeOneTime, ServiceTypeOngoing, ServiceTypeConsultation, ServiceTypeProjectBased:
		return true
	}
	return false
}

// PricingModel 计价方式
type PricingModel string

const (
	PricingModelFixed       PricingModel = "fixed"
	PricingModelHourly      PricingModel = "hourly"
	PricingModelDaily       PricingModel = "daily"
	PricingModelCustomQuote PricingModel = "custom_quote"
)

func (p PricingModel) Valid() bool {
	switch p {
	case PricingModelFixed, PricingModelHourly, PricingModelDaily, PricingModelCustomQuote:
		return true
	}
	return false
}

// Listing 状态
const (
	ListingStatusActive   = "active"
	ListingStatusInactive = "inactive"
	ListingStatusDraft    = "draft"
)

// ValidListingStatus 是否为上游接受的状态
func ValidListingStatus(status string) bool {
	switch status {
	case ListingStatusActive, ListingStatusInactive, ListingStatusDraft:
		return true
	}
	return false
}

// 媒体文件类型，上传时固定为 image
const MediaFileTypeImage = "image"

// ==================== 草稿 ====================

// BasicInfo 基本信息（basic 标签页）
type BasicInfo struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ServiceType ServiceType `json:"service_type"`
}

// Pricing 价格信息（pricing 标签页）
type Pricing struct {
	PricingModel      PricingModel `json:"pricing_model"`
	MinPrice          float64      `json:"min_price"`
	MaxPrice          float64      `json:"max_price"`
	EstimatedTimeline string       `json:"estimated_timeline"`
}

// ListingDraft 表单中正在编辑的 Listing
// 服务区域与图片由 draft 包中的累加器、暂存区单独维护
type ListingDraft struct {
	BasicInfo
	Pricing
	CategoryID    int64    `json:"category_id"`
	SubcategoryID *int64   `json:"subcategory_id"`
	Tags          []string `json:"tags"`
}

// AddTag 追加标签，保持插入顺序且去重
// 返回 false 表示空标签或已存在
func (d *ListingDraft) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, existing := range d.Tags {
		if existing == tag {
			return false
		}
	}
	d.Tags = append(d.Tags, tag)
	return true
}

// RemoveTag 删除标签，不存在时无操作
func (d *ListingDraft) RemoveTag(tag string) {
	tag = strings.TrimSpace(tag)
	kept := d.Tags[:0]
	for _, existing := range d.Tags {
		if existing != tag {
			kept = append(kept, existing)
		}
	}
	d.Tags = kept
}

// ServiceLocation 服务区域（国家/州/城市 均为显示名称）
type ServiceLocation struct {
	ID      string `json:"id"`
	Country string `json:"country"`
	State   string `json:"state"`
	City    string `json:"city"`
}

// SameAs 按显示名称比较三元组
func (l ServiceLocation) SameAs(country, state, city string) bool {
	return l.Country == country && l.State == state && l.City == city
}

// MediaFile 暂存的待上传图片
type MediaFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Data        []byte `json:"-"`
}

// Category 分类树节点（两级）
type Category struct {
	ID       int64  `json:"category_id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// ==================== 统计 ====================

// ListingStats 卖家 Listing 按状态计数
type ListingStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Draft    int `json:"draft"`
}

// counter 返回状态对应的计数字段
func (s *ListingStats) counter(status string) *int {
	switch status {
	case ListingStatusActive:
		return &s.Active
	case ListingStatusInactive:
		return &s.Inactive
	case ListingStatusDraft:
		return &s.Draft
	}
	return nil
}

// ApplyStatusChange 计算一次状态变更后的统计（纯函数，不修改入参）
// 未知状态或状态未变时原样返回
func ApplyStatusChange(stats ListingStats, oldStatus, newStatus string) ListingStats {
	if oldStatus == newStatus {
		return stats
	}

	next := stats
	from := next.counter(oldStatus)
	to := next.counter(newStatus)
	if from == nil || to == nil {
		return stats
	}

	if *from > 0 {
		*from--
	}
	*to++
	return next
}

// CountStatuses 从状态列表构建统计
func CountStatuses(statuses []string) ListingStats {
	var stats ListingStats
	for _, status := range statuses {
		stats.Total++
		if c := stats.counter(status); c != nil {
			*c++
		}
	}
	return stats
}
