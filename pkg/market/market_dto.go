package market

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ==========================================
// DTO: 上游市场 API 的请求/响应结构
// ==========================================

// ListingPayload 创建/更新 Listing 请求体
// POST /listing
// PUT  /listing/{id}
type ListingPayload struct {
	Title             string   `json:"title" validate:"required"`
	Description       string   `json:"description"`
	ServiceType       string   `json:"service_type" validate:"required,oneof=one_time ongoing consultation project_based"`
	PricingModel      string   `json:"pricing_model" validate:"required,oneof=fixed hourly daily custom_quote"`
	MinPrice          float64  `json:"min_price" validate:"gte=0"`
	MaxPrice          float64  `json:"max_price" validate:"gte=0"`
	EstimatedTimeline string   `json:"estimated_timeline"`
	CategoryID        int64    `json:"category_id" validate:"required,gt=0"`
	SubcategoryID     *int64   `json:"subcategory_id"`
	Tags              []string `json:"tags"`
	ServiceCountries  []string `json:"service_countries"`
	ServiceStates     []string `json:"service_states"`
	ServiceCities     []string `json:"service_cities"`
}

// CreateListingResp 创建 Listing 响应
// {"listing": {"listing_id": 123, ...}}
type CreateListingResp struct {
	Message string          `json:"message"`
	Listing *ListingRecord `json:"listing"`
}

// ListingID 提取新建 ID，缺失时返回 0
func (r *CreateListingResp) ListingID() int64 {
	if r == nil || r.Listing == nil {
		return 0
	}
	return r.Listing.ListingID.Int64()
}

// ListingRecord 上游 Listing 记录
// GET /listing/{id}
type ListingRecord struct {
	ListingID         Number   `json:"listing_id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	ServiceType       string   `json:"service_type"`
	PricingModel      string   `json:"pricing_model"`
	MinPrice          Number   `json:"min_price"`
	MaxPrice          Number   `json:"max_price"`
	EstimatedTimeline string   `json:"estimated_timeline"`
	CategoryID        Number   `json:"category_id"`
	SubcategoryID     *Number  `json:"subcategory_id"`
	Tags              []string `json:"tags"`
	ServiceCountries  []string `json:"service_countries"`
	ServiceStates     []string `json:"service_states"`
	ServiceCities     []string `json:"service_cities"`
	Status            string   `json:"status"`
}

// ListingSummary 卖家 Listing 列表项
// GET /listing/my
type ListingSummary struct {
	ListingID  Number `json:"listing_id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	CategoryID Number `json:"category_id"`
	MinPrice   Number `json:"min_price"`
	MaxPrice   Number `json:"max_price"`
	CreatedAt  string `json:"created_at"`
}

// Category 分类（父级或子级）
// GET /listing/categories/parent
// GET /listing/categories/{id}/subcategories
type Category struct {
	CategoryID Number  `json:"category_id"`
	Name       string  `json:"name"`
	ParentID   *Number `json:"parent_id,omitempty"`
}

// Profile 当前用户资料
// GET /user/profile
type Profile struct {
	UserID Number `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// StatusUpdateReq 状态变更请求
// PATCH /listing/{id}/status
type StatusUpdateReq struct {
	Status string `json:"status"`
}

// MediaUpload 单个待上传文件
type MediaUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ErrorResp 通用错误响应
type ErrorResp struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ==========================================
// Number: 兼容数字与数字字符串
// 上游 decimal 字段常以 "500.00" 形式返回
// ==========================================

type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("无法解析数字字段 %q: %w", s, err)
		}
		*n = Number(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

func (n Number) Float64() float64 {
	return float64(n)
}

func (n Number) Int64() int64 {
	return int64(n)
}
