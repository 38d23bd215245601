package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/printdesk-next/internal/cache"
	"github.com/printdesk-next/internal/config"
	staffhandlers "github.com/printdesk-next/internal/http/handlers/staff"
	"github.com/printdesk-next/internal/http/response"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()
	r.MaxMultipartMemory = multipartMemory(cfg.Upload)

	staffHandler := staffhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "pd"
	}
	writeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:write", redisPrefix),
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		MaxRequests:   cfg.RateLimit.MaxRequests,
	}
	writeLimit := RateLimitMiddleware(cache.Client(), writeRule, KeyByActor)
	transitionRule := writeRule
	transitionRule.Prefix = fmt.Sprintf("%s:rate:transition", redisPrefix)
	transitionLimit := RateLimitMiddleware(cache.Client(), transitionRule, KeyByActorAndParam("id"))

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(JWTAuthMiddleware(cfg.JWT, c.ProfileRepo))
	{
		// 订单
		orders := apiV1.Group("/orders")
		{
			orders.POST("", writeLimit, staffHandler.CreateOrder)
			orders.GET("", staffHandler.ListOrders)
			orders.GET("/queue", staffHandler.ListWorkQueue)
			orders.GET("/:id", staffHandler.GetOrder)
			orders.DELETE("/:id", writeLimit, staffHandler.DeleteOrder)
			orders.PUT("/:id/items", writeLimit, staffHandler.ReplaceOrderItems)
			orders.PATCH("/:id/pricing", writeLimit, staffHandler.ChangeOrderPricing)
			orders.POST("/:id/payments", writeLimit, staffHandler.RecordPayment)
			orders.GET("/:id/actions", staffHandler.ListAvailableActions)
			orders.POST("/:id/transitions/:action", transitionLimit, staffHandler.TransitionOrder)
			orders.GET("/:id/attachments", staffHandler.ListAttachments)
			orders.POST("/:id/attachments", writeLimit, staffHandler.AddAttachments)
			orders.GET("/:id/history", staffHandler.ListHistory)
			orders.GET("/:id/comments", staffHandler.ListComments)
		}

		// 报价单
		quotations := apiV1.Group("/quotations")
		{
			quotations.POST("", writeLimit, staffHandler.CreateQuotation)
			quotations.GET("", staffHandler.ListQuotations)
			quotations.GET("/:id", staffHandler.GetQuotation)
			quotations.PUT("/:id/items", writeLimit, staffHandler.ReplaceQuotationItems)
			quotations.PATCH("/:id/pricing", writeLimit, staffHandler.ChangeQuotationPricing)
			quotations.POST("/:id/convert", writeLimit, staffHandler.ConvertQuotation)
		}

		apiV1.GET("/statuses", staffHandler.ListStatuses)
		apiV1.GET("/authz/roles", staffHandler.ListAuthzRoles)
		apiV1.GET("/authz/roles/:role/policies", staffHandler.GetAuthzRolePolicies)
		apiV1.POST("/authz/roles/:role/policies", writeLimit, staffHandler.GrantAuthzRolePolicy)
		apiV1.DELETE("/authz/roles/:role/policies", writeLimit, staffHandler.RevokeAuthzRolePolicy)
		apiV1.POST("/authz/reload", writeLimit, staffHandler.ReloadAuthzPolicy)
	}

	// 健康检查
	r.GET("/health", healthHandler)

	return r
}

func healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
	if err := pingDatabase(ctx); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
	}
	if client := cache.Client(); client != nil {
		status["redis"] = "ok"
		if err := client.Ping(ctx).Err(); err != nil {
			status["status"] = "degraded"
			status["redis"] = err.Error()
		}
	}
	response.Success(c, status)
}

func pingDatabase(ctx context.Context) error {
	if models.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := models.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// multipartMemory 单次请求允许驻留内存的上传字节数
func multipartMemory(cfg config.UploadConfig) int64 {
	if cfg.MaxSize <= 0 || cfg.MaxFiles <= 0 {
		return 32 << 20
	}
	return cfg.MaxSize * int64(cfg.MaxFiles)
}
