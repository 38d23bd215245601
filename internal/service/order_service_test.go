package service

import (
	"context"
	"errors"
	"testing"

	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/models"
)

func TestListOrdersStatusFilterIsCaseInsensitive(t *testing.T) {
	f := setupServiceFixture(t, nil)
	ctx := context.Background()
	f.createOrder(t, true)
	f.createOrder(t, true)
	f.createOrder(t, false)
	sales := f.actor(constants.RoleSales)

	rows, total, err := f.orders.ListOrders(ctx, sales, OrderListQuery{Status: "ready FOR design"})
	if err != nil {
		t.Fatalf("ListOrders error: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("expected 2 orders, got %d", total)
	}
	if _, _, err := f.orders.ListOrders(ctx, sales, OrderListQuery{Status: "shipped"}); !errors.Is(err, ErrStatusFilterInvalid) {
		t.Fatalf("expected ErrStatusFilterInvalid, got %v", err)
	}
	_, total, err = f.orders.ListOrders(ctx, sales, OrderListQuery{Keyword: "acme", Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("ListOrders error: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 keyword matches, got %d", total)
	}
}

func TestListWorkQueueByRole(t *testing.T) {
	f := setupServiceFixture(t, nil)
	ctx := context.Background()
	f.createOrder(t, true)
	f.createOrder(t, false)
	delivered := f.createOrder(t, false)
	if err := f.db.Model(&models.Order{}).Where("id = ?", delivered.ID).Update("status", constants.OrderStatusDelivered).Error; err != nil {
		t.Fatalf("force status failed: %v", err)
	}

	cases := map[string]int64{
		constants.RoleDesigner:   1,
		constants.RoleAccountant: 1,
		constants.RoleSales:      0,
		constants.RoleProduction: 0,
		constants.RoleAdmin:      2,
	}
	for role, want := range cases {
		_, total, err := f.orders.ListWorkQueue(ctx, f.actor(role), 1, 20)
		if err != nil {
			t.Fatalf("%s: ListWorkQueue error: %v", role, err)
		}
		if total != want {
			t.Fatalf("%s: expected %d, got %d", role, want, total)
		}
	}
}

func TestDeleteOrderCascades(t *testing.T) {
	f := setupServiceFixture(t, nil)
	ctx := context.Background()
	order := f.createOrder(t, true)
	if _, err := f.attachments.AddAttachment(ctx, f.actor(constants.RoleSales), order.ID, constants.FileTypeClientReference, fileRefs("brief.pdf")[0]); err != nil {
		t.Fatalf("AddAttachment error: %v", err)
	}

	if err := f.orders.DeleteOrder(ctx, f.actor(constants.RoleSales), order.ID); !errors.Is(err, ErrTransitionForbidden) {
		t.Fatalf("expected ErrTransitionForbidden, got %v", err)
	}
	if err := f.orders.DeleteOrder(ctx, f.actor(constants.RoleAdmin), order.ID); err != nil {
		t.Fatalf("DeleteOrder error: %v", err)
	}
	for _, model := range []interface{}{&models.OrderItem{}, &models.OrderAttachment{}, &models.OrderStatusHistory{}} {
		var count int64
		f.db.Model(model).Where("order_id = ?", order.ID).Count(&count)
		if count != 0 {
			t.Fatalf("expected children of %T to be deleted, got %d", model, count)
		}
	}
	if _, err := f.orders.GetOrder(ctx, f.actor(constants.RoleAdmin), order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestStatusCatalogLazySeed(t *testing.T) {
	f := setupServiceFixture(t, nil)
	ctx := context.Background()
	company := models.Company{Name: "Second Shop"}
	if err := f.db.Create(&company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}
	rows, err := f.catalog.List(ctx, company.ID)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(rows) != len(constants.OrderStatusCatalog()) {
		t.Fatalf("expected %d statuses, got %d", len(constants.OrderStatusCatalog()), len(rows))
	}
	if _, err := f.catalog.Resolve(ctx, company.ID, "in design"); !errors.Is(err, ErrStatusNotFound) {
		t.Fatalf("expected case-sensitive resolve to fail, got %v", err)
	}
	name, err := f.catalog.ResolveFilter(ctx, company.ID, "in design")
	if err != nil || name != constants.OrderStatusInDesign {
		t.Fatalf("unexpected filter resolution: %q %v", name, err)
	}
}

func TestErrorKinds(t *testing.T) {
	cases := map[error]ErrorKind{
		ErrTransitionForbidden:    KindInvalidTransition,
		ErrUnknownAction:          KindInvalidTransition,
		ErrFeedbackRequired:       KindValidationFailed,
		ErrConcurrentModification: KindConcurrentModification,
		ErrOrderNotFound:          KindNotFound,
		ErrAuthzUnavailable:       KindDependencyFailure,
	}
	for err, want := range cases {
		if got := KindOf(err); got != want {
			t.Fatalf("%v: expected %s, got %s", err, want, got)
		}
	}
	wrapped := errors.Join(errors.New("db down"), ErrOrderUpdateFailed)
	if KindOf(wrapped) != KindDependencyFailure {
		t.Fatalf("expected wrapped dependency failure")
	}
	if KindOf(nil) != "" || KindOf(errors.New("x")) != KindUnknown {
		t.Fatalf("unexpected kinds for nil/unknown")
	}
}
