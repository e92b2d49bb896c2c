package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"listing_studio/internal/config"
	"listing_studio/internal/controller"
	"listing_studio/internal/middleware"
	"listing_studio/internal/model"
	"listing_studio/internal/repository"
	"listing_studio/internal/router"
	"listing_studio/internal/service"
	"listing_studio/internal/task"
	"listing_studio/pkg/cache"
	"listing_studio/pkg/database"
	"listing_studio/pkg/geo"
	"listing_studio/pkg/logger"
	"listing_studio/pkg/market"
)

func main() {
	app := &cli.App{
		Name:  "listing-studio",
		Usage: "service listing form backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (yaml or .env)",
				EnvVars: []string{"LISTING_STUDIO_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:  "categories",
				Usage: "print parent categories from the upstream API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "token",
						Usage:    "bearer token for the upstream API",
						EnvVars:  []string{"MARKET_API_TOKEN"},
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "drop the shared category cache and reload it",
					},
				},
				Action: printCategories,
			},
		},
		// 默认启动服务
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	Cache       cache.Cache
	Market      *market.Client
	Logs        repository.SubmissionLogRepository
	Limiter     *middleware.RateLimiter
	Controllers *router.Controllers
	Services    *Services
}

// Services 服务集合
type Services struct {
	Category   *service.CategoryService
	Submission *service.SubmissionService
	Draft      *service.DraftService
	Listing    *service.ListingService
	Profile    *service.ProfileService
}

// ==================== 初始化函数 ====================

func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.AppEnv); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, nil
}

// initDatabase 初始化数据库，未配置 DSN 时不记录提交流水
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseDSN == "" {
		logger.L().Warn("未配置 DATABASE_DSN，提交流水不会持久化")
		return nil, nil
	}

	opts := database.DefaultOptions()
	opts.Verbose = !cfg.IsProduction()
	db, err := database.InitDB(cfg.DatabaseDSN, opts, &model.SubmissionLog{})
	if err != nil {
		return nil, err
	}
	if err := middleware.RegisterAuditCallbacks(db); err != nil {
		return nil, err
	}
	return db, nil
}

// initCache Redis 不可用时退回进程内缓存
func initCache(cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory()
	}

	rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		logger.L().Warnf("Redis 连接失败，使用内存缓存: %v", err)
		_ = rc.Close()
		return cache.NewMemory()
	}
	return rc
}

// closeCache 关闭 Redis 连接，内存缓存无需处理
func closeCache(c cache.Cache) {
	if rc, ok := c.(*cache.RedisCache); ok {
		_ = rc.Close()
	}
}

func newMarketClient(cfg *config.Config) *market.Client {
	return market.NewClient(market.Options{
		BaseURL: cfg.MarketAPIBaseURL,
		Timeout: cfg.MarketAPITimeout,
		Debug:   cfg.MarketAPIDebug,
	})
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config) (*Dependencies, error) {
	// 生产环境缺少密钥已在 config.Validate 拦截，这里只有开发环境会回退到内置密钥
	if cfg.JWTSecret != "" {
		jwtCfg := middleware.DefaultJWTConfig()
		jwtCfg.SecretKey = cfg.JWTSecret
		middleware.SetJWTConfig(jwtCfg)
	} else {
		logger.L().Warn("未配置 JWT_SECRET，使用开发环境内置密钥")
	}

	db, err := initDatabase(cfg)
	if err != nil {
		return nil, err
	}

	dataset, err := geo.Default()
	if err != nil {
		return nil, fmt.Errorf("加载地区数据失败: %w", err)
	}

	client := newMarketClient(cfg)
	store := initCache(cfg)

	var logs repository.SubmissionLogRepository
	if db != nil {
		logs = repository.NewSubmissionLogRepository(db)
	}

	// -------- 业务服务 --------
	services := &Services{
		Category: service.NewCategoryService(client, store, cfg.CategoryCacheTTL),
		Profile:  service.NewProfileService(client),
	}
	services.Submission = service.NewSubmissionService(client, logs, cfg.MediaPositionalSortOrder)
	services.Draft = service.NewDraftService(dataset, services.Category, client, services.Submission, cfg.DraftSessionTTL)
	services.Listing = service.NewListingService(client, services.Category)

	services.Draft.OnComplete(func(sessionID string, userID, listingID int64) {
		logger.L().Infow("listing submitted", "session_id", sessionID, "user_id", userID, "listing_id", listingID)
	})

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Draft:   controller.NewDraftController(services.Draft),
		Listing: controller.NewListingController(services.Listing),
		Catalog: controller.NewCatalogController(services.Category, dataset),
		User:    controller.NewUserController(services.Profile, services.Submission),
	}

	return &Dependencies{
		Config:      cfg,
		DB:          db,
		Cache:       store,
		Market:      client,
		Logs:        logs,
		Limiter:     middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Controllers: controllers,
		Services:    services,
	}, nil
}

// ==================== 命令 ====================

func serve(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	deps, err := initDependencies(cfg)
	if err != nil {
		return err
	}
	defer closeCache(deps.Cache)

	// 定时任务
	cleanup := task.NewSessionCleanupTask(deps.Services.Draft, deps.Limiter, nil)
	if err := cleanup.Start(); err != nil {
		return fmt.Errorf("启动清理任务失败: %w", err)
	}
	defer cleanup.Stop()

	if deps.Logs != nil {
		retention := task.NewLogRetentionTask(deps.Logs, task.WithRetention(cfg.SubmissionLogRetention))
		retention.Start()
		defer retention.Stop()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.SetupRouter(deps.Controllers, deps.Limiter)

	return startServer(r, cfg.ServerPort)
}

func printCategories(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(c.Context, cfg.MarketAPITimeout)
	defer cancel()
	ctx = market.WithToken(ctx, c.String("token"))

	var categories []model.Category
	if c.Bool("refresh") {
		cc := initCache(cfg)
		defer closeCache(cc)
		categories, err = service.NewCategoryService(newMarketClient(cfg), cc, cfg.CategoryCacheTTL).Refresh(ctx)
	} else {
		categories, err = service.NewCategoryService(newMarketClient(cfg), nil, 0).Parents(ctx)
	}
	if err != nil {
		return err
	}
	for _, cat := range categories {
		fmt.Fprintf(c.App.Writer, "%d\t%s\n", cat.ID, cat.Name)
	}
	return nil
}

// ==================== 服务启动 ====================

// startServer 启动服务并等待退出信号
func startServer(r *gin.Engine, port string) error {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Infof("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("服务启动失败: %w", err)
	case <-quit:
	}

	logger.L().Info("正在关闭服务...")

	// 优雅关闭，SSE 连接最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务强制关闭: %w", err)
	}

	logger.L().Info("服务已退出")
	return nil
}
