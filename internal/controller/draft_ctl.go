package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"listing_studio/internal/api/dto"
	"listing_studio/internal/middleware"
	"listing_studio/internal/model"
	"listing_studio/internal/service"
)

// 单张图片大小上限
const maxImageBytes = 10 << 20

// ==================== 控制器 ====================

// DraftController Listing 表单控制器
type DraftController struct {
	draftService *service.DraftService
}

func NewDraftController(draftService *service.DraftService) *DraftController {
	return &DraftController{draftService: draftService}
}

// ==================== 会话 ====================

// Open 打开表单
// @Summary 打开 Listing 表单（新建或编辑）
// @Tags Draft
// @Accept json
// @Produce json
// @Param body body dto.OpenDraftRequest false "listing_id 为空时新建"
// @Success 201 {object} dto.DraftView
// @Router /api/drafts [post]
func (ctrl *DraftController) Open(c *gin.Context) {
	var req dto.OpenDraftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}

	view, err := ctrl.draftService.Open(c.Request.Context(), middleware.GetUserID(c), req.ListingID)
	if err != nil {
		respondError(c, err, nil, nil)
		return
	}
	respondOK(c, http.StatusCreated, view, view.Notifications)
}

// Get 表单快照
// @Summary 获取表单当前状态
// @Tags Draft
// @Param id path string true "会话ID"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id} [get]
func (ctrl *DraftController) Get(c *gin.Context) {
	view, err := ctrl.draftService.Get(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	respondView(c, view, err)
}

// Cancel 放弃编辑
// @Summary 取消表单，不产生任何上游调用
// @Tags Draft
// @Param id path string true "会话ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/drafts/{id} [delete]
func (ctrl *DraftController) Cancel(c *gin.Context) {
	if err := ctrl.draftService.Cancel(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		respondError(c, err, nil, nil)
		return
	}
	respondOK(c, http.StatusOK, nil, nil)
}

// ==================== basic / pricing / tags ====================

// SetBasicInfo 更新基本信息
// @Summary 更新 basic 标签页
// @Tags Draft
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.BasicInfoRequest true "基本信息"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/basic [put]
func (ctrl *DraftController) SetBasicInfo(c *gin.Context) {
	var req dto.BasicInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request: "+err.Error())
		return
	}
	view, err := ctrl.draftService.SetBasicInfo(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), &req)
	respondView(c, view, err)
}

// SetPricing 更新价格
// @Summary 更新 pricing 标签页
// @Tags Draft
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.PricingRequest true "价格信息"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/pricing [put]
func (ctrl *DraftController) SetPricing(c *gin.Context) {
	var req dto.PricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request: "+err.Error())
		return
	}
	view, err := ctrl.draftService.SetPricing(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), &req)
	respondView(c, view, err)
}

// AddTag 添加标签
// @Summary 添加标签
// @Tags Draft
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.TagRequest true "标签"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/tags [post]
func (ctrl *DraftController) AddTag(c *gin.Context) {
	var req dto.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Tag is required")
		return
	}
	view, err := ctrl.draftService.AddTag(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Tag)
	respondView(c, view, err)
}

// RemoveTag 删除标签
// @Summary 删除标签
// @Tags Draft
// @Param id path string true "会话ID"
// @Param tag path string true "标签"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/tags/{tag} [delete]
func (ctrl *DraftController) RemoveTag(c *gin.Context) {
	view, err := ctrl.draftService.RemoveTag(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), c.Param("tag"))
	respondView(c, view, err)
}

// ==================== 分类 ====================

// SelectCategory 选择分类
// @Summary 选择分类（重新加载子分类并清空失效的子分类）
// @Tags Draft
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.CategoryRequest true "分类"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/category [put]
func (ctrl *DraftController) SelectCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Please select a category")
		return
	}
	view, err := ctrl.draftService.SelectCategory(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.CategoryID)
	respondView(c, view, err)
}

// SelectSubcategory 选择子分类
// @Summary 选择子分类，null 清空
// @Tags Draft
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.SubcategoryRequest true "子分类"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/subcategory [put]
func (ctrl *DraftController) SelectSubcategory(c *gin.Context) {
	var req dto.SubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request: "+err.Error())
		return
	}
	view, err := ctrl.draftService.SelectSubcategory(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.SubcategoryID)
	respondView(c, view, err)
}

// ==================== 服务区域 ====================

// SelectCountry 级联选择：国家
// @Summary 选择国家（清空州与城市）
// @Tags Draft
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.SelectCodeRequest true "国家代码"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/location/country [put]
func (ctrl *DraftController) SelectCountry(c *gin.Context) {
	var req dto.SelectCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Please select a country")
		return
	}
	view, err := ctrl.draftService.SelectCountry(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Code)
	respondView(c, view, err)
}

// SelectState 级联选择：州
// @Summary 选择州（清空城市）
// @Tags Draft
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.SelectCodeRequest true "州代码"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/location/state [put]
func (ctrl *DraftController) SelectState(c *gin.Context) {
	var req dto.SelectCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Please select a state")
		return
	}
	view, err := ctrl.draftService.SelectState(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Code)
	respondView(c, view, err)
}

// SelectCity 级联选择：城市
// @Summary 选择城市
// @Tags Draft
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.SelectCityRequest true "城市名称"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/location/city [put]
func (ctrl *DraftController) SelectCity(c *gin.Context) {
	var req dto.SelectCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Please select a city")
		return
	}
	view, err := ctrl.draftService.SelectCity(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Name)
	respondView(c, view, err)
}

// AddLocation 添加服务区域
// @Summary 确认当前 国家/州/城市 选择
// @Tags Draft
// @Param id path string true "会话ID"
// @Success 200 {object} dto.DraftView
// @Failure 400 {object} map[string]interface{}
// @Router /api/drafts/{id}/locations [post]
func (ctrl *DraftController) AddLocation(c *gin.Context) {
	view, err := ctrl.draftService.AddLocation(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	respondView(c, view, err)
}

// RemoveLocation 删除服务区域
// @Summary 删除服务区域（不存在时无操作）
// @Tags Draft
// @Param id path string true "会话ID"
// @Param location_id path string true "区域ID"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/locations/{location_id} [delete]
func (ctrl *DraftController) RemoveLocation(c *gin.Context) {
	view, err := ctrl.draftService.RemoveLocation(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), c.Param("location_id"))
	respondView(c, view, err)
}

// ClearLocations 清空服务区域
// @Summary 清空全部服务区域
// @Tags Draft
// @Param id path string true "会话ID"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/locations [delete]
func (ctrl *DraftController) ClearLocations(c *gin.Context) {
	view, err := ctrl.draftService.ClearLocations(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	respondView(c, view, err)
}

// ==================== 图片 ====================

// UploadMedia 暂存图片
// @Summary 暂存图片（最多 5 张，整批接受或拒绝）
// @Tags Draft
// @Accept multipart/form-data
// @Param id path string true "会话ID"
// @Param media formData file true "图片，可重复"
// @Success 200 {object} dto.DraftView
// @Failure 400 {object} map[string]interface{}
// @Router /api/drafts/{id}/media [post]
func (ctrl *DraftController) UploadMedia(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondBadRequest(c, "Invalid upload: "+err.Error())
		return
	}

	headers := form.File["media"]
	if len(headers) == 0 {
		respondBadRequest(c, "No files selected")
		return
	}

	files := make([]model.MediaFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readMediaFile(fh)
		if err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		files = append(files, f)
	}

	view, err := ctrl.draftService.AddMedia(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), files)
	respondView(c, view, err)
}

// RemoveMedia 删除暂存图片
// @Summary 按位置删除暂存图片
// @Tags Draft
// @Param id path string true "会话ID"
// @Param index path int true "位置"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/media/{index} [delete]
func (ctrl *DraftController) RemoveMedia(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondBadRequest(c, "Invalid image index")
		return
	}
	view, err := ctrl.draftService.RemoveMedia(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), index)
	respondView(c, view, err)
}

func readMediaFile(fh *multipart.FileHeader) (model.MediaFile, error) {
	if fh.Size > maxImageBytes {
		return model.MediaFile{}, fmt.Errorf("%s exceeds the %d MB limit", fh.Filename, maxImageBytes>>20)
	}

	src, err := fh.Open()
	if err != nil {
		return model.MediaFile{}, fmt.Errorf("failed to read %s", fh.Filename)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxImageBytes+1))
	if err != nil {
		return model.MediaFile{}, fmt.Errorf("failed to read %s", fh.Filename)
	}
	if len(data) > maxImageBytes {
		return model.MediaFile{}, fmt.Errorf("%s exceeds the %d MB limit", fh.Filename, maxImageBytes>>20)
	}

	return model.MediaFile{Filename: fh.Filename, Data: data}, nil
}

// ==================== 标签页 ====================

// NextTab 下一页
// @Summary 前进一个标签页（末页饱和）
// @Tags Draft
// @Param id path string true "会话ID"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/tabs/next [post]
func (ctrl *DraftController) NextTab(c *gin.Context) {
	view, err := ctrl.draftService.NextTab(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	respondView(c, view, err)
}

// PreviousTab 上一页
// @Summary 后退一个标签页（首页饱和）
// @Tags Draft
// @Param id path string true "会话ID"
// @Success 200 {object} dto.DraftView
// @Router /api/drafts/{id}/tabs/previous [post]
func (ctrl *DraftController) PreviousTab(c *gin.Context) {
	view, err := ctrl.draftService.PreviousTab(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	respondView(c, view, err)
}

// ==================== 提交 ====================

// Submit 提交表单
// @Summary 创建/更新 -> 上传图片 -> 激活
// @Tags Draft
// @Param id path string true "会话ID"
// @Success 200 {object} dto.SubmitResult
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/drafts/{id}/submit [post]
func (ctrl *DraftController) Submit(c *gin.Context) {
	result, notices, err := ctrl.draftService.Submit(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, nil, notices)
		return
	}
	respondOK(c, http.StatusOK, result, notices)
}

// StreamProgress SSE 订阅提交进度
// @Summary SSE 实时推送提交进度
// @Tags Draft
// @Param id path string true "会话ID"
// @Produce text/event-stream
// @Router /api/drafts/{id}/stream [get]
func (ctrl *DraftController) StreamProgress(c *gin.Context) {
	sessionID := c.Param("id")
	// 只校验归属，不取走待下发的提示
	if err := ctrl.draftService.Authorize(middleware.GetUserID(c), sessionID); err != nil {
		respondError(c, err, nil, nil)
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	progressCh := ctrl.draftService.Subscribe(sessionID)
	defer ctrl.draftService.Unsubscribe(sessionID, progressCh)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	c.SSEvent("ready", gin.H{"session_id": sessionID})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"time": time.Now().Unix()})
			c.Writer.Flush()
		case event, ok := <-progressCh:
			if !ok {
				return
			}
			data, _ := json.Marshal(event)
			c.SSEvent("progress", string(data))
			c.Writer.Flush()

			if event.IsTerminal() {
				return
			}
		}
	}
}
