package model

import "gorm.io/datatypes"

// SubmissionLog Listing 提交流水
// 每次执行提交编排写入一条，不回滚已完成的上游步骤
type SubmissionLog struct {
	BaseModel

	// 关联
	SessionID string `gorm:"size:64;index;comment:表单会话ID"`
	UserID    int64  `gorm:"index;comment:用户ID"`
	ListingID int64  `gorm:"index;comment:上游 Listing ID"`

	// 执行信息
	Mode       string `gorm:"size:16;comment:模式(create/update)"`
	LastStep   string `gorm:"size:32;comment:最后到达的步骤"`
	MediaCount int    `gorm:"default:0;comment:上传图片数量"`
	DurationMs int64  `gorm:"comment:耗时(毫秒)"`

	// 结果
	Status    string `gorm:"size:16;index;comment:状态(success/failed)"`
	ErrorKind string `gorm:"size:32;comment:错误类型"`
	ErrorMsg  string `gorm:"size:1024;comment:错误信息"`

	// 请求快照
	Payload datatypes.JSON `gorm:"comment:提交载荷快照"`
}

func (SubmissionLog) TableName() string {
	return "listing_submission_logs"
}

// ==================== 模式常量 ====================

const (
	SubmissionModeCreate = "create"
	SubmissionModeUpdate = "update"
)

// ==================== 步骤常量 ====================

const (
	SubmissionStepPayload  = "payload"
	SubmissionStepCreate   = "create"
	SubmissionStepUpdate   = "update"
	SubmissionStepUpload   = "upload"
	SubmissionStepActivate = "activate"
	SubmissionStepDone     = "done"
)

// ==================== 状态常量 ====================

const (
	SubmissionStatusSuccess = "success"
	SubmissionStatusFailed  = "failed"
)
