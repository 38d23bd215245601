package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.OrderAttachment{},
		&models.OrderComment{},
		&models.OrderStatusHistory{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createRepoTestOrder(t *testing.T, repo *GormOrderRepository, status string) *models.Order {
	t.Helper()
	order := &models.Order{
		CompanyID:    1,
		ClientName:   "Acme Signs",
		Email:        "buyer@acme.test",
		Status:       status,
		CurrencyID:   1,
		ExchangeRate: decimal.NewFromInt(1),
	}
	items := []models.OrderItem{
		{ProductID: 1, ProductName: "Banner", Quantity: 2, UnitPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(10)), ItemTotal: models.NewMoneyFromDecimal(decimal.NewFromInt(20))},
	}
	if err := repo.Create(context.Background(), order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestOrderRepositoryUpdateStatusCAS(t *testing.T) {
	db := setupOrderRepositoryTest(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	order := createRepoTestOrder(t, repo, constants.OrderStatusReadyForDesign)

	affected, err := repo.UpdateStatusCAS(ctx, order.ID, constants.OrderStatusReadyForDesign, constants.OrderStatusInDesign, nil)
	if err != nil {
		t.Fatalf("cas update failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}

	affected, err = repo.UpdateStatusCAS(ctx, order.ID, constants.OrderStatusReadyForDesign, constants.OrderStatusInDesign, nil)
	if err != nil {
		t.Fatalf("stale cas update failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("stale expected status should affect 0 rows, got %d", affected)
	}

	loaded, err := repo.GetByID(ctx, order.ID)
	if err != nil || loaded == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if loaded.Status != constants.OrderStatusInDesign {
		t.Fatalf("expected status %q, got %q", constants.OrderStatusInDesign, loaded.Status)
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(loaded.Items))
	}
}

func TestOrderRepositoryGetByIDMissingReturnsNil(t *testing.T) {
	db := setupOrderRepositoryTest(t)
	repo := NewOrderRepository(db)
	order, err := repo.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get missing order failed: %v", err)
	}
	if order != nil {
		t.Fatalf("expected nil order, got %+v", order)
	}
}

func TestOrderRepositoryDeleteCascades(t *testing.T) {
	db := setupOrderRepositoryTest(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	order := createRepoTestOrder(t, repo, constants.OrderStatusPendingPayment)

	if err := NewAttachmentRepository(db).Create(ctx, &models.OrderAttachment{OrderID: order.ID, FileURL: "u", FileName: "a.pdf", FileType: constants.FileTypePrintFile}); err != nil {
		t.Fatalf("create attachment failed: %v", err)
	}
	if err := NewCommentRepository(db).Create(ctx, &models.OrderComment{OrderID: order.ID, UserID: "u1", Content: "hello"}); err != nil {
		t.Fatalf("create comment failed: %v", err)
	}
	if err := NewStatusHistoryRepository(db).Append(ctx, &models.OrderStatusHistory{OrderID: order.ID, NewStatus: order.Status}); err != nil {
		t.Fatalf("append history failed: %v", err)
	}

	if err := repo.Delete(ctx, order.ID); err != nil {
		t.Fatalf("delete order failed: %v", err)
	}
	for _, model := range []interface{}{&models.OrderItem{}, &models.OrderAttachment{}, &models.OrderComment{}, &models.OrderStatusHistory{}} {
		var count int64
		if err := db.Model(model).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
			t.Fatalf("count owned rows failed: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected owned rows deleted for %T, got %d", model, count)
		}
	}
}

func TestAttachmentRepositoryArchiveMockupsIdempotent(t *testing.T) {
	db := setupOrderRepositoryTest(t)
	ctx := context.Background()
	order := createRepoTestOrder(t, NewOrderRepository(db), constants.OrderStatusDesignApproval)
	repo := NewAttachmentRepository(db)

	rows := []models.OrderAttachment{
		{OrderID: order.ID, FileURL: "u1", FileName: "m1.png", FileType: constants.FileTypeDesignMockup},
		{OrderID: order.ID, FileURL: "u2", FileName: "m2.png", FileType: constants.FileTypeDesignMockup},
		{OrderID: order.ID, FileURL: "u3", FileName: "ref.jpg", FileType: constants.FileTypeClientReference},
	}
	if err := repo.CreateBatch(ctx, rows); err != nil {
		t.Fatalf("create attachments failed: %v", err)
	}

	archived, err := repo.ArchiveMockups(ctx, order.ID)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if archived != 2 {
		t.Fatalf("expected 2 archived, got %d", archived)
	}
	archived, err = repo.ArchiveMockups(ctx, order.ID)
	if err != nil {
		t.Fatalf("second archive failed: %v", err)
	}
	if archived != 0 {
		t.Fatalf("second archive should be no-op, got %d", archived)
	}

	current, err := repo.ListByOrder(ctx, order.ID, AttachmentListFilter{})
	if err != nil {
		t.Fatalf("list current failed: %v", err)
	}
	if len(current) != 1 || current[0].FileType != constants.FileTypeClientReference {
		t.Fatalf("current view should only hold client reference, got %+v", current)
	}
	all, err := repo.ListByOrder(ctx, order.ID, AttachmentListFilter{IncludeArchived: true})
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("history view should hold 3 rows, got %d", len(all))
	}
}

func TestOrderRepositoryListFiltersByStatusesAndKeyword(t *testing.T) {
	db := setupOrderRepositoryTest(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	createRepoTestOrder(t, repo, constants.OrderStatusInDesign)
	createRepoTestOrder(t, repo, constants.OrderStatusDelivered)

	rows, total, err := repo.List(ctx, OrderListFilter{CompanyID: 1, Statuses: []string{constants.OrderStatusInDesign}, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("expected 1 row, got total=%d len=%d", total, len(rows))
	}

	_, total, err = repo.List(ctx, OrderListFilter{CompanyID: 1, Keyword: "acme"})
	if err != nil {
		t.Fatalf("keyword list failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("keyword should match both orders, got %d", total)
	}
}
