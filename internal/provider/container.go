package provider

import (
	"context"
	"fmt"

	"github.com/printdesk-next/internal/authz"
	"github.com/printdesk-next/internal/cache"
	"github.com/printdesk-next/internal/config"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/queue"
	"github.com/printdesk-next/internal/repository"
	"github.com/printdesk-next/internal/service"
	"github.com/printdesk-next/internal/storage"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	BlobStore   storage.BlobStore

	// Repositories
	OrderRepo         repository.OrderRepository
	CommentRepo       repository.CommentRepository
	HistoryRepo       repository.StatusHistoryRepository
	AttachmentRepo    repository.AttachmentRepository
	StatusCatalogRepo repository.StatusCatalogRepository
	QuotationRepo     repository.QuotationRepository
	ProductRepo       repository.ProductRepository
	PricingRepo       repository.PricingRepository
	ProfileRepo       repository.ProfileRepository

	// Services
	AuthzService         *authz.Service
	OrderLocker          service.OrderLocker
	PricingService       *service.PricingService
	StatusCatalogService *service.StatusCatalogService
	AttachmentService    *service.AttachmentService
	HistoryService       *service.HistoryService
	NotificationService  *service.NotificationService
	OrderService         *service.OrderService
	WorkflowService      *service.OrderWorkflowService
	QuotationService     *service.QuotationService
	UploadService        *service.UploadService
	ReconcileService     *service.ReconcileService
}

// NewContainer 初始化容器
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Errorw("provider_init_storage_failed", "driver", cfg.Storage.Driver, "error", err)
		return nil, fmt.Errorf("init storage: %w", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		BlobStore:   store,
	}

	// 1. 初始化 Repositories
	c.initRepositories(models.DB)

	// 2. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CommentRepo = repository.NewCommentRepository(db)
	c.HistoryRepo = repository.NewStatusHistoryRepository(db)
	c.AttachmentRepo = repository.NewAttachmentRepository(db)
	c.StatusCatalogRepo = repository.NewStatusCatalogRepository(db)
	c.QuotationRepo = repository.NewQuotationRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.PricingRepo = repository.NewPricingRepository(db)
	c.ProfileRepo = repository.NewProfileRepository(db)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapRoles(service.BuiltinRoleSeeds()); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}

	orderCfg := c.Config.Order
	c.OrderLocker = service.NewOrderLocker(orderCfg.LockTimeout(), orderCfg.LockTTL())
	c.PricingService = service.NewPricingService(c.PricingRepo, c.ProductRepo, c.ProfileRepo)
	c.StatusCatalogService = service.NewStatusCatalogService(c.StatusCatalogRepo)
	c.AttachmentService = service.NewAttachmentService(c.AttachmentRepo, c.OrderRepo, c.OrderLocker)
	c.HistoryService = service.NewHistoryService(c.HistoryRepo, c.OrderRepo)
	c.NotificationService = service.NewNotificationService(c.OrderRepo, c.QueueClient, orderCfg.SummaryCacheTTL())
	c.OrderService = service.NewOrderService(
		c.OrderRepo, c.CommentRepo, c.HistoryRepo,
		c.PricingService, c.StatusCatalogService,
		c.AuthzService, c.OrderLocker, c.NotificationService,
	)
	c.WorkflowService = service.NewOrderWorkflowService(
		c.OrderRepo, c.CommentRepo, c.HistoryRepo,
		c.AttachmentService, c.StatusCatalogService,
		c.AuthzService, c.OrderLocker, c.NotificationService,
	)
	c.QuotationService = service.NewQuotationService(c.QuotationRepo, c.PricingService, c.OrderService, c.AuthzService, orderCfg.QuotationValidDaysDefault)
	c.UploadService = service.NewUploadService(c.Config.Upload, c.BlobStore)
	c.ReconcileService = service.NewReconcileService(c.OrderRepo, c.HistoryRepo, c.AttachmentService, c.OrderLocker)
	return nil
}
