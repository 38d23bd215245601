package cache

import (
	"context"
	"fmt"
	"time"
)

const defaultOrderSummaryTTL = 10 * time.Minute

// OrderSummary 订单概要快照（供看板快速读取）
type OrderSummary struct {
	OrderID       uint     `json:"order_id"`
	CompanyID     uint     `json:"company_id"`
	DisplayNo     string   `json:"display_no"`
	ClientName    string   `json:"client_name"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status"`
	TotalForeign  string   `json:"total_foreign"`
	NextRoles     []string `json:"next_roles"`
	UpdatedAt     int64    `json:"updated_at"`
}

func orderSummaryKey(orderID uint) string {
	return fmt.Sprintf("order:summary:%d", orderID)
}

// GetOrderSummary 获取订单概要
func GetOrderSummary(ctx context.Context, orderID uint) (*OrderSummary, bool, error) {
	if orderID == 0 {
		return nil, false, nil
	}
	var summary OrderSummary
	hit, err := GetJSON(ctx, orderSummaryKey(orderID), &summary)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &summary, true, nil
}

// SetOrderSummary 写入订单概要
func SetOrderSummary(ctx context.Context, summary *OrderSummary, ttl time.Duration) error {
	if summary == nil || summary.OrderID == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultOrderSummaryTTL
	}
	return SetJSON(ctx, orderSummaryKey(summary.OrderID), summary, ttl)
}

// DelOrderSummary 删除订单概要
func DelOrderSummary(ctx context.Context, orderID uint) error {
	if orderID == 0 {
		return nil
	}
	return Del(ctx, orderSummaryKey(orderID))
}
