package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"listing_studio/internal/api/dto"
	"listing_studio/internal/service"
)

// ListingController 卖家 Listing 控制器
type ListingController struct {
	listingService *service.ListingService
}

func NewListingController(listingService *service.ListingService) *ListingController {
	return &ListingController{listingService: listingService}
}

// ListMine 我的 Listing
// @Summary 当前卖家的 Listing 列表
// @Tags Listing
// @Produce json
// @Param status query string false "active / inactive / draft"
// @Success 200 {array} dto.ListingItem
// @Router /api/listings [get]
func (ctrl *ListingController) ListMine(c *gin.Context) {
	var req dto.ListMyListingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	items, err := ctrl.listingService.ListMine(c.Request.Context(), req.Status)
	if err != nil {
		respondError(c, err, nil, nil)
		return
	}
	respondOK(c, http.StatusOK, items, nil)
}

// ChangeStatus 变更状态
// @Summary 变更 Listing 状态并返回更新后的统计
// @Tags Listing
// @Accept json
// @Param id path int true "Listing ID"
// @Param body body dto.ChangeStatusRequest true "目标状态"
// @Success 200 {object} dto.ChangeStatusResult
// @Failure 502 {object} map[string]interface{}
// @Router /api/listings/{id}/status [patch]
func (ctrl *ListingController) ChangeStatus(c *gin.Context) {
	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || listingID <= 0 {
		respondBadRequest(c, "Invalid listing id")
		return
	}

	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := ctrl.listingService.ChangeStatus(c.Request.Context(), listingID, req.Status, req.Stats)
	if err != nil {
		respondError(c, err, nil, nil)
		return
	}
	respondOK(c, http.StatusOK, result, nil)
}

// Dashboard 卖家看板
// @Summary 统计、Listing 列表与父分类
// @Tags Listing
// @Produce json
// @Success 200 {object} dto.DashboardResponse
// @Router /api/dashboard [get]
func (ctrl *ListingController) Dashboard(c *gin.Context) {
	resp, err := ctrl.listingService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, nil, nil)
		return
	}
	respondOK(c, http.StatusOK, resp, nil)
}
