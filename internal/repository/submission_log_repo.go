package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"listing_studio/internal/model"
)

// ==================== 仓储接口 ====================

// SubmissionLogRepository 提交流水仓储接口
type SubmissionLogRepository interface {
	Create(ctx context.Context, log *model.SubmissionLog) error
	GetByID(ctx context.Context, id int64) (*model.SubmissionLog, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.SubmissionLog, error)

	// 统计查询
	GetStats(ctx context.Context, userID int64, since time.Time) (*SubmissionStats, error)

	// 清理
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

// SubmissionStats 提交统计
type SubmissionStats struct {
	TotalRuns     int64   `json:"total_runs"`
	SuccessCount  int64   `json:"success_count"`
	FailedCount   int64   `json:"failed_count"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// ==================== 仓储实现 ====================

type submissionLogRepo struct {
	db *gorm.DB
}

// NewSubmissionLogRepository 创建提交流水仓储
func NewSubmissionLogRepository(db *gorm.DB) SubmissionLogRepository {
	return &submissionLogRepo{db: db}
}

func (r *submissionLogRepo) Create(ctx context.Context, log *model.SubmissionLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *submissionLogRepo) GetByID(ctx context.Context, id int64) (*model.SubmissionLog, error) {
	var log model.SubmissionLog
	if err := r.db.WithContext(ctx).First(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// ListByUser 按时间倒序，limit<=0 时默认 20
func (r *submissionLogRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.SubmissionLog, error) {
	if limit <= 0 {
		limit = 20
	}

	var logs []model.SubmissionLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (r *submissionLogRepo) GetStats(ctx context.Context, userID int64, since time.Time) (*SubmissionStats, error) {
	var stats SubmissionStats

	query := r.db.WithContext(ctx).Model(&model.SubmissionLog{}).Where("user_id = ?", userID)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	err := query.Select(`
		COUNT(*) as total_runs,
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) as success_count,
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) as failed_count,
		COALESCE(AVG(duration_ms), 0) as avg_duration_ms
	`, model.SubmissionStatusSuccess, model.SubmissionStatusFailed).Scan(&stats).Error

	return &stats, err
}

// PurgeBefore 物理删除早于 before 的流水
func (r *submissionLogRepo) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Unscoped().
		Where("created_at < ?", before).
		Delete(&model.SubmissionLog{})
	return result.RowsAffected, result.Error
}
