package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"listing_studio/internal/controller"
	"listing_studio/internal/middleware"

	_ "listing_studio/docs"
)

// Controllers 路由依赖的全部控制器
type Controllers struct {
	Draft   *controller.DraftController
	Listing *controller.ListingController
	Catalog *controller.CatalogController
	User    *controller.UserController
}

// SetupRouter 创建引擎并注册路由
func SetupRouter(ctl *Controllers, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger())
	InitRoutes(r, ctl, limiter)
	return r
}

// InitRoutes 注册所有路由
// limiter 为空时不限流
func InitRoutes(r *gin.Engine, ctl *Controllers, limiter *middleware.RateLimiter) {
	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 2. API 路由组，全部需要上游签发的 Token
	api := r.Group("/api")
	api.Use(middleware.JWTAuth())
	if limiter != nil {
		api.Use(limiter.Limit())
	}
	{
		// 表单会话
		drafts := api.Group("/drafts")
		{
			drafts.POST("", ctl.Draft.Open)
			drafts.GET("/:id", ctl.Draft.Get)
			drafts.DELETE("/:id", ctl.Draft.Cancel)

			drafts.PUT("/:id/basic", ctl.Draft.SetBasicInfo)
			drafts.PUT("/:id/pricing", ctl.Draft.SetPricing)
			drafts.POST("/:id/tags", ctl.Draft.AddTag)
			drafts.DELETE("/:id/tags/:tag", ctl.Draft.RemoveTag)

			drafts.PUT("/:id/category", ctl.Draft.SelectCategory)
			drafts.PUT("/:id/subcategory", ctl.Draft.SelectSubcategory)

			drafts.PUT("/:id/location/country", ctl.Draft.SelectCountry)
			drafts.PUT("/:id/location/state", ctl.Draft.SelectState)
			drafts.PUT("/:id/location/city", ctl.Draft.SelectCity)
			drafts.POST("/:id/locations", ctl.Draft.AddLocation)
			drafts.DELETE("/:id/locations/:location_id", ctl.Draft.RemoveLocation)
			drafts.DELETE("/:id/locations", ctl.Draft.ClearLocations)

			drafts.POST("/:id/media", ctl.Draft.UploadMedia)
			drafts.DELETE("/:id/media/:index", ctl.Draft.RemoveMedia)

			drafts.POST("/:id/tabs/next", ctl.Draft.NextTab)
			drafts.POST("/:id/tabs/previous", ctl.Draft.PreviousTab)

			drafts.POST("/:id/submit", ctl.Draft.Submit)
			// GET /api/drafts/:id/stream  SSE
			drafts.GET("/:id/stream", ctl.Draft.StreamProgress)
		}

		// 字典
		catalog := api.Group("/catalog")
		{
			catalog.GET("/categories", ctl.Catalog.Categories)
			catalog.GET("/categories/:id/subcategories", ctl.Catalog.Subcategories)
			catalog.GET("/countries", ctl.Catalog.Countries)
			catalog.GET("/countries/:country/states", ctl.Catalog.States)
			catalog.GET("/countries/:country/states/:state/cities", ctl.Catalog.Cities)
		}

		// 卖家 Listing
		listings := api.Group("/listings")
		{
			listings.GET("", ctl.Listing.ListMine)
			listings.PATCH("/:id/status", ctl.Listing.ChangeStatus)
		}
		api.GET("/dashboard", ctl.Listing.Dashboard)

		// 用户
		api.GET("/me", ctl.User.Me)
		api.POST("/logout", ctl.User.Logout)
		api.GET("/submissions", ctl.User.Submissions)
		api.GET("/submissions/:id", ctl.User.Submission)
	}
}
