package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"listing_studio/internal/draft"
	"listing_studio/internal/service"
	"listing_studio/pkg/geo"
)

// CatalogController 分类与地区字典
type CatalogController struct {
	categoryService *service.CategoryService
	geo             *geo.Dataset
}

func NewCatalogController(categoryService *service.CategoryService, dataset *geo.Dataset) *CatalogController {
	return &CatalogController{categoryService: categoryService, geo: dataset}
}

// Categories 父分类
// @Summary 父分类列表（带缓存）
// @Tags Catalog
// @Success 200 {array} model.Category
// @Router /api/catalog/categories [get]
func (ctrl *CatalogController) Categories(c *gin.Context) {
	list, err := ctrl.categoryService.Parents(c.Request.Context())
	if err != nil {
		respondError(c, draft.Transport(err), nil, nil)
		return
	}
	respondOK(c, http.StatusOK, list, nil)
}

// Subcategories 子分类
// @Summary 指定分类下的子分类
// @Tags Catalog
// @Param id path int true "分类ID"
// @Success 200 {array} model.Category
// @Router /api/catalog/categories/{id}/subcategories [get]
func (ctrl *CatalogController) Subcategories(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || categoryID <= 0 {
		respondBadRequest(c, "Invalid category id")
		return
	}

	list, err := ctrl.categoryService.Subcategories(c.Request.Context(), categoryID)
	if err != nil {
		respondError(c, draft.Transport(err), nil, nil)
		return
	}
	respondOK(c, http.StatusOK, list, nil)
}

// Countries 国家
// @Summary 国家列表
// @Tags Catalog
// @Success 200 {array} geo.Country
// @Router /api/catalog/countries [get]
func (ctrl *CatalogController) Countries(c *gin.Context) {
	list, err := ctrl.geo.Countries(c.Request.Context())
	if err != nil {
		respondError(c, draft.Transport(err), nil, nil)
		return
	}
	respondOK(c, http.StatusOK, list, nil)
}

// States 州/省
// @Summary 国家下的州/省，无下级时返回空数组
// @Tags Catalog
// @Param country path string true "国家代码"
// @Success 200 {array} geo.State
// @Router /api/catalog/countries/{country}/states [get]
func (ctrl *CatalogController) States(c *gin.Context) {
	list, err := ctrl.geo.States(c.Request.Context(), strings.ToUpper(c.Param("country")))
	if err != nil {
		respondError(c, draft.Transport(err), nil, nil)
		return
	}
	if list == nil {
		list = []geo.State{}
	}
	respondOK(c, http.StatusOK, list, nil)
}

// Cities 城市
// @Summary 州/省下的城市
// @Tags Catalog
// @Param country path string true "国家代码"
// @Param state path string true "州代码"
// @Success 200 {array} geo.City
// @Router /api/catalog/countries/{country}/states/{state}/cities [get]
func (ctrl *CatalogController) Cities(c *gin.Context) {
	list, err := ctrl.geo.Cities(c.Request.Context(), strings.ToUpper(c.Param("country")), strings.ToUpper(c.Param("state")))
	if err != nil {
		respondError(c, draft.Transport(err), nil, nil)
		return
	}
	if list == nil {
		list = []geo.City{}
	}
	respondOK(c, http.StatusOK, list, nil)
}
