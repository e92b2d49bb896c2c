package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"listing_studio/internal/api/dto"
	"listing_studio/internal/draft"
	"listing_studio/internal/service"
)

// ==================== 响应信封 ====================
// {"code": 0, "message": "success", "data": ..., "notifications": [...]}

func respondOK(c *gin.Context, status int, data interface{}, notices []draft.Notice) {
	if notices == nil {
		notices = []draft.Notice{}
	}
	c.JSON(status, gin.H{
		"code":          0,
		"message":       "success",
		"data":          data,
		"notifications": notices,
	})
}

// respondView 返回表单快照，提示从快照中取出
func respondView(c *gin.Context, view *dto.DraftView, err error) {
	if err != nil {
		var notices []draft.Notice
		if view != nil {
			notices = view.Notifications
		}
		respondError(c, err, view, notices)
		return
	}
	respondOK(c, http.StatusOK, view, view.Notifications)
}

// respondError 按错误分类映射状态码
// 未提供提示时用错误本身生成一条
func respondError(c *gin.Context, err error, data interface{}, notices []draft.Notice) {
	status := statusFor(err)
	message := draft.UserMessage(err)

	if len(notices) == 0 {
		var n draft.Notices
		if errors.Is(err, service.ErrSessionNotFound) {
			n.Push(draft.NoticeError, "Draft session not found or expired")
		} else {
			n.PushError(err)
		}
		notices = n.Drain()
	}
	if errors.Is(err, service.ErrSessionNotFound) {
		message = "Draft session not found or expired"
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{
		"code":          status,
		"message":       message,
		"data":          data,
		"notifications": notices,
	})
}

// respondBadRequest 参数绑定失败
func respondBadRequest(c *gin.Context, message string) {
	respondError(c, draft.Validation(message), nil, nil)
}

func statusFor(err error) int {
	if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrSubmissionNotFound) {
		return http.StatusNotFound
	}
	switch draft.KindOf(err) {
	case draft.KindValidation, draft.KindDuplicate, draft.KindCapacity:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
