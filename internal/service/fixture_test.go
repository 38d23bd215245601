package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/printdesk-next/internal/config"
	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/repository"
	"github.com/printdesk-next/internal/storage"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type serviceFixture struct {
	db          *gorm.DB
	companyID   uint
	baseID      uint
	foreignID   uint
	tierID      uint
	productID   uint
	orderRepo   *repository.GormOrderRepository
	historyRepo *repository.GormStatusHistoryRepository
	store       *storage.MemoryStore
	locker      *LocalOrderLocker
	pricing     *PricingService
	catalog     *StatusCatalogService
	attachments *AttachmentService
	history     *HistoryService
	orders      *OrderService
	workflow    *OrderWorkflowService
	quotations  *QuotationService
	reconcile   *ReconcileService
	uploads     *UploadService
}

func setupServiceFixture(t *testing.T, authorizer ActionAuthorizer) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	company, err := models.SeedDefaultCompany(models.SeedOptions{CompanyName: "Test Print", BaseCurrencyCode: "AED"})
	if err != nil {
		t.Fatalf("seed company failed: %v", err)
	}

	foreign := models.Currency{CompanyID: company.ID, Code: "USD", Symbol: "$"}
	if err := db.Create(&foreign).Error; err != nil {
		t.Fatalf("create currency failed: %v", err)
	}
	rate := models.ExchangeRate{CompanyID: company.ID, CurrencyID: foreign.ID, Rate: decimal.RequireFromString("3.75"), EffectiveAt: time.Now()}
	if err := db.Create(&rate).Error; err != nil {
		t.Fatalf("create rate failed: %v", err)
	}
	tier := models.PricingTier{CompanyID: company.ID, Name: "Retail", MarkupPercent: decimal.NewFromInt(20)}
	if err := db.Create(&tier).Error; err != nil {
		t.Fatalf("create tier failed: %v", err)
	}
	product := models.Product{CompanyID: company.ID, Name: "Vinyl Banner", SKU: "VB-1", BaseUnitPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(100)), IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	orderRepo := repository.NewOrderRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	locker := NewLocalOrderLocker(time.Second)
	store := storage.NewMemoryStore()

	f := &serviceFixture{
		db:          db,
		companyID:   company.ID,
		baseID:      *company.BaseCurrencyID,
		foreignID:   foreign.ID,
		tierID:      tier.ID,
		productID:   product.ID,
		orderRepo:   orderRepo,
		historyRepo: historyRepo,
		store:       store,
		locker:      locker,
	}
	f.pricing = NewPricingService(repository.NewPricingRepository(db), repository.NewProductRepository(db), repository.NewProfileRepository(db))
	f.catalog = NewStatusCatalogService(repository.NewStatusCatalogRepository(db))
	f.attachments = NewAttachmentService(attachmentRepo, orderRepo, locker)
	f.history = NewHistoryService(historyRepo, orderRepo)
	notifier := NewNotificationService(orderRepo, nil, time.Minute)
	f.orders = NewOrderService(orderRepo, commentRepo, historyRepo, f.pricing, f.catalog, authorizer, locker, notifier)
	f.workflow = NewOrderWorkflowService(orderRepo, commentRepo, historyRepo, f.attachments, f.catalog, authorizer, locker, notifier)
	f.quotations = NewQuotationService(repository.NewQuotationRepository(db), f.pricing, f.orders, authorizer, 30)
	f.reconcile = NewReconcileService(orderRepo, historyRepo, f.attachments, locker)
	f.uploads = NewUploadService(config.UploadConfig{MaxSize: 1 << 20, MaxFiles: 5, AllowedExtensions: []string{".pdf", ".png", ".ai"}}, store)
	return f
}

func (f *serviceFixture) actor(role string) Actor {
	return Actor{UserID: role + "-user", CompanyID: f.companyID, Role: role}
}

func (f *serviceFixture) createOrder(t *testing.T, requiresDesign bool) *models.Order {
	t.Helper()
	tierID := f.tierID
	order, err := f.orders.CreateOrder(context.Background(), f.actor(constants.RoleSales), CreateOrderInput{
		ClientName:     "Acme Signs",
		Email:          "buyer@acme.test",
		RequiresDesign: requiresDesign,
		CurrencyID:     f.foreignID,
		PricingTierID:  &tierID,
		Items:          []ItemInput{{ProductID: f.productID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func (f *serviceFixture) reload(t *testing.T, orderID uint) *models.Order {
	t.Helper()
	order, err := f.orderRepo.GetByID(context.Background(), orderID)
	if err != nil || order == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	return order
}

func (f *serviceFixture) transition(t *testing.T, orderID uint, role, action string, input TransitionInput) *TransitionResult {
	t.Helper()
	result, err := f.workflow.Transition(context.Background(), f.actor(role), orderID, action, input)
	if err != nil {
		t.Fatalf("%s by %s failed: %v", action, role, err)
	}
	return result
}

func fileRefs(names ...string) []FileRef {
	refs := make([]FileRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, FileRef{URL: "https://files.test/" + name, Name: name, Size: 128})
	}
	return refs
}
