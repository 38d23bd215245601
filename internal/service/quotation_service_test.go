package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/models"
)

func createTestQuotation(t *testing.T, f *serviceFixture) *models.Quotation {
	t.Helper()
	tierID := f.tierID
	quotation, err := f.quotations.CreateQuotation(context.Background(), f.actor(constants.RoleSales), CreateQuotationInput{
		ClientName:    "Harbor Cafe",
		CurrencyID:    f.foreignID,
		PricingTierID: &tierID,
		Items:         []ItemInput{{ProductID: f.productID, Quantity: 3}},
		Notes:         "rush job",
	})
	if err != nil {
		t.Fatalf("create quotation failed: %v", err)
	}
	return quotation
}

func TestCreateQuotationPricing(t *testing.T) {
	f := setupServiceFixture(t, nil)
	quotation := createTestQuotation(t, f)
	if quotation.Status != constants.QuotationStatusDraft {
		t.Fatalf("unexpected status: %s", quotation.Status)
	}
	if quotation.TotalPriceForeign.String() != "96.0000" || quotation.TotalPriceCompany.String() != "360.0000" {
		t.Fatalf("unexpected totals: %s / %s", quotation.TotalPriceForeign.String(), quotation.TotalPriceCompany.String())
	}
	if quotation.ValidUntil == nil || quotation.ValidUntil.Before(time.Now().AddDate(0, 0, 29)) {
		t.Fatalf("expected default validity, got %v", quotation.ValidUntil)
	}
	if !strings.HasPrefix(quotation.QuotationNo, "QT") {
		t.Fatalf("unexpected quotation no: %s", quotation.QuotationNo)
	}
}

func TestConvertQuotationToOrder(t *testing.T) {
	f := setupServiceFixture(t, nil)
	ctx := context.Background()
	quotation := createTestQuotation(t, f)
	sales := f.actor(constants.RoleSales)

	order, err := f.quotations.ConvertToOrder(ctx, sales, quotation.ID, ConvertInput{RequiresDesign: true, DeliveryMethod: "pickup"})
	if err != nil {
		t.Fatalf("ConvertToOrder error: %v", err)
	}
	if order.ID == 0 || order.Status != constants.OrderStatusReadyForDesign {
		t.Fatalf("unexpected order: id=%d status=%s", order.ID, order.Status)
	}
	if order.QuotationID == nil || *order.QuotationID != quotation.ID {
		t.Fatalf("order not linked to quotation")
	}
	if !strings.Contains(order.Notes, "Converted from quotation "+quotation.QuotationNo) {
		t.Fatalf("unexpected notes: %q", order.Notes)
	}
	if order.TotalPriceForeign.String() != "96.0000" || !order.ExchangeRate.Equal(quotation.ExchangeRate) {
		t.Fatalf("pricing snapshot not copied")
	}
	reloaded := f.reload(t, order.ID)
	if len(reloaded.Items) != 1 || reloaded.Items[0].Quantity != 3 || reloaded.Items[0].UnitPrice.String() != "32.0000" {
		t.Fatalf("items not copied: %+v", reloaded.Items)
	}

	converted, err := f.quotations.GetQuotation(ctx, sales, quotation.ID)
	if err != nil {
		t.Fatalf("GetQuotation error: %v", err)
	}
	if converted.Status != constants.QuotationStatusConverted || converted.ConvertedOrderID == nil || *converted.ConvertedOrderID != order.ID {
		t.Fatalf("quotation not marked converted: %+v", converted)
	}

	if _, err := f.quotations.ConvertToOrder(ctx, sales, quotation.ID, ConvertInput{}); !errors.Is(err, ErrQuotationConverted) {
		t.Fatalf("expected ErrQuotationConverted, got %v", err)
	}
	if _, err := f.quotations.ChangePricing(ctx, sales, quotation.ID, ChangePricingInput{ClearTier: true}); !errors.Is(err, ErrQuotationConverted) {
		t.Fatalf("expected converted quotation to be frozen, got %v", err)
	}
	var orders int64
	f.db.Model(&models.Order{}).Count(&orders)
	if orders != 1 {
		t.Fatalf("expected exactly one order, got %d", orders)
	}
}

func TestConvertExpiredQuotation(t *testing.T) {
	f := setupServiceFixture(t, nil)
	quotation := createTestQuotation(t, f)
	f.quotations.now = func() time.Time { return time.Now().AddDate(0, 0, 31) }

	_, err := f.quotations.ConvertToOrder(context.Background(), f.actor(constants.RoleSales), quotation.ID, ConvertInput{})
	if !errors.Is(err, ErrQuotationExpired) {
		t.Fatalf("expected ErrQuotationExpired, got %v", err)
	}
	if _, err := f.quotations.ConvertToOrder(context.Background(), f.actor(constants.RoleProduction), quotation.ID, ConvertInput{}); !errors.Is(err, ErrTransitionForbidden) {
		t.Fatalf("expected ErrTransitionForbidden, got %v", err)
	}
}

func TestQuotationChangePricingAndList(t *testing.T) {
	f := setupServiceFixture(t, nil)
	ctx := context.Background()
	quotation := createTestQuotation(t, f)
	sales := f.actor(constants.RoleSales)

	updated, err := f.quotations.ReplaceItems(ctx, sales, quotation.ID, []ItemInput{{ProductID: f.productID, Quantity: 1}})
	if err != nil {
		t.Fatalf("ReplaceItems error: %v", err)
	}
	if updated.TotalPriceForeign.String() != "32.0000" {
		t.Fatalf("unexpected total: %s", updated.TotalPriceForeign.String())
	}
	baseID := f.baseID
	updated, err = f.quotations.ChangePricing(ctx, sales, quotation.ID, ChangePricingInput{CurrencyID: &baseID, ClearTier: true})
	if err != nil {
		t.Fatalf("ChangePricing error: %v", err)
	}
	if updated.TotalPriceForeign.String() != "100.0000" || updated.TotalPriceCompany.String() != "100.0000" {
		t.Fatalf("unexpected totals: %s / %s", updated.TotalPriceForeign.String(), updated.TotalPriceCompany.String())
	}

	rows, total, err := f.quotations.ListQuotations(ctx, sales, QuotationListQuery{Keyword: "harbor", Status: "DRAFT"})
	if err != nil {
		t.Fatalf("ListQuotations error: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("expected 1 quotation, got %d", total)
	}
	if _, err := f.quotations.GetQuotation(ctx, sales, 9999); !errors.Is(err, ErrQuotationNotFound) {
		t.Fatalf("expected ErrQuotationNotFound, got %v", err)
	}
}
