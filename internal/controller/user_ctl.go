package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"listing_studio/internal/api/dto"
	"listing_studio/internal/middleware"
	"listing_studio/internal/service"
)

// ==================== UserController 用户控制器 ====================

// UserController 当前用户与提交流水
type UserController struct {
	profileService    *service.ProfileService
	submissionService *service.SubmissionService
}

// NewUserController 创建用户控制器
func NewUserController(profileService *service.ProfileService, submissionService *service.SubmissionService) *UserController {
	return &UserController{
		profileService:    profileService,
		submissionService: submissionService,
	}
}

// Me 当前用户
// @Summary 当前用户资料（登录期间缓存）
// @Tags User
// @Produce json
// @Success 200 {object} dto.ProfileResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/me [get]
func (ctrl *UserController) Me(c *gin.Context) {
	profile, err := ctrl.profileService.Current(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, nil, nil)
		return
	}
	respondOK(c, http.StatusOK, profile, nil)
}

// Logout 登出
// @Summary 清除当前用户的缓存资料
// @Tags User
// @Success 200 {object} map[string]interface{}
// @Router /api/logout [post]
func (ctrl *UserController) Logout(c *gin.Context) {
	ctrl.profileService.Logout(middleware.GetUserID(c))
	respondOK(c, http.StatusOK, nil, nil)
}

// Submissions 提交流水
// @Summary 当前用户最近的提交记录及统计
// @Tags User
// @Param limit query int false "条数，默认 20"
// @Param days query int false "统计窗口（天），默认 30"
// @Success 200 {object} dto.SubmissionHistoryResponse
// @Router /api/submissions [get]
func (ctrl *UserController) Submissions(c *gin.Context) {
	var req dto.ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	history, err := ctrl.submissionService.History(c.Request.Context(), middleware.GetUserID(c), req.Limit, req.Days)
	if err != nil {
		respondError(c, err, nil, nil)
		return
	}
	respondOK(c, http.StatusOK, history, nil)
}

// Submission 单条提交流水
// @Summary 提交记录详情（含载荷快照）
// @Tags User
// @Param id path int true "流水ID"
// @Success 200 {object} dto.SubmissionDetail
// @Failure 404 {object} map[string]interface{}
// @Router /api/submissions/{id} [get]
func (ctrl *UserController) Submission(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "Invalid submission id")
		return
	}

	detail, err := ctrl.submissionService.Detail(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err, nil, nil)
		return
	}
	respondOK(c, http.StatusOK, detail, nil)
}
