package middleware

import (
	"context"
	"reflect"

	"gorm.io/gorm"
)

// ==================== 审计上下文 ====================

type auditContextKey struct{}

// WithAuditInfo 注入当前用户 ID
func WithAuditInfo(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, auditContextKey{}, userID)
}

// GetAuditUserID 从 context 获取当前用户 ID
func GetAuditUserID(ctx context.Context) int64 {
	if id, ok := ctx.Value(auditContextKey{}).(int64); ok {
		return id
	}
	return 0
}

// ==================== GORM 回调 ====================

// RegisterAuditCallbacks 注册 GORM 审计回调
// Create 时若模型带 UserID 字段且为零值，用 context 中的用户 ID 填充
func RegisterAuditCallbacks(db *gorm.DB) error {
	return db.Callback().Create().Before("gorm:create").Register("audit:user_id", func(tx *gorm.DB) {
		if tx.Statement.Context == nil || tx.Statement.Schema == nil {
			return
		}

		userID := GetAuditUserID(tx.Statement.Context)
		if userID == 0 {
			return
		}

		field := tx.Statement.Schema.LookUpField("UserID")
		if field == nil {
			return
		}

		fill := func(rv reflect.Value) {
			if _, isZero := field.ValueOf(tx.Statement.Context, rv); isZero {
				_ = field.Set(tx.Statement.Context, rv, userID)
			}
		}

		switch tx.Statement.ReflectValue.Kind() {
		case reflect.Struct:
			fill(tx.Statement.ReflectValue)
		case reflect.Slice:
			for i := 0; i < tx.Statement.ReflectValue.Len(); i++ {
				fill(tx.Statement.ReflectValue.Index(i))
			}
		}
	})
}
