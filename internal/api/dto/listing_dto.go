package dto

import (
	"encoding/json"
	"time"

	"listing_studio/internal/model"
)

// ==================== 卖家 Listing ====================

// ListMyListingsRequest 列表查询
type ListMyListingsRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=active inactive draft"`
}

// ListingItem 列表项
type ListingItem struct {
	ListingID    int64   `json:"listing_id"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

// ChangeStatusRequest 状态变更
// stats 为前端当前持有的统计，服务端据此计算变更后的统计
type ChangeStatusRequest struct {
	Status string             `json:"status" binding:"required,oneof=active inactive draft"`
	Stats  model.ListingStats `json:"stats"`
}

// ChangeStatusResult 状态变更结果
type ChangeStatusResult struct {
	ListingID int64              `json:"listing_id"`
	OldStatus string             `json:"old_status"`
	NewStatus string             `json:"new_status"`
	Stats     model.ListingStats `json:"stats"`
}

// DashboardResponse 卖家看板
type DashboardResponse struct {
	Stats      model.ListingStats `json:"stats"`
	Listings   []ListingItem      `json:"listings"`
	Categories []model.Category   `json:"categories"`
}

// ==================== 用户 ====================

// ProfileResponse 当前用户
type ProfileResponse struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// ==================== 提交流水 ====================

// ListSubmissionsRequest 提交流水查询
// Days 为统计窗口（天）
type ListSubmissionsRequest struct {
	Limit int `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Days  int `form:"days,default=30" binding:"omitempty,min=1,max=365"`
}

// SubmissionHistoryResponse 提交流水与统计
type SubmissionHistoryResponse struct {
	Summary SubmissionSummary   `json:"summary"`
	Items   []SubmissionLogItem `json:"items"`
}

// SubmissionSummary 统计窗口内的提交汇总
type SubmissionSummary struct {
	Days          int     `json:"days"`
	TotalRuns     int64   `json:"total_runs"`
	SuccessCount  int64   `json:"success_count"`
	FailedCount   int64   `json:"failed_count"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// SubmissionLogItem 提交流水
type SubmissionLogItem struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	ListingID  int64     `json:"listing_id"`
	Mode       string    `json:"mode"`
	LastStep   string    `json:"last_step"`
	MediaCount int       `json:"media_count"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	ErrorMsg   string    `json:"error_msg,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubmissionDetail 单条提交流水，附带载荷快照
type SubmissionDetail struct {
	SubmissionLogItem
	Payload json.RawMessage `json:"payload,omitempty"`
}
