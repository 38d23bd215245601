package staff

import (
	"strings"
	"time"

	"github.com/printdesk-next/internal/service"
)

// ItemRequest 订单项请求
type ItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// RolePolicyRequest 角色策略授予/撤销请求
type RolePolicyRequest struct {
	Object string `json:"object"`
	Action string `json:"action" binding:"required"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	ClientID       *uint         `json:"client_id"`
	ClientName     string        `json:"client_name"`
	Email          string        `json:"email"`
	Phone          string        `json:"phone"`
	DeliveryMethod string        `json:"delivery_method"`
	DeliveryDate   string        `json:"delivery_date"`
	RequiresDesign bool          `json:"requires_design"`
	CurrencyID     uint          `json:"currency_id" binding:"required"`
	PricingTierID  *uint         `json:"pricing_tier_id"`
	Items          []ItemRequest `json:"items"`
	Notes          string        `json:"notes"`
}

// ReplaceItemsRequest 替换订单项请求
type ReplaceItemsRequest struct {
	Items []ItemRequest `json:"items"`
}

// ChangePricingRequest 改价请求
type ChangePricingRequest struct {
	CurrencyID    *uint `json:"currency_id"`
	PricingTierID *uint `json:"pricing_tier_id"`
	ClearTier     bool  `json:"clear_tier"`
}

// RecordPaymentRequest 登记付款请求
type RecordPaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// FileRefRequest 已上传文件引用
type FileRefRequest struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// TransitionRequest 流转请求（JSON 形式）
type TransitionRequest struct {
	Files    []FileRefRequest `json:"files"`
	Comment  string           `json:"comment"`
	Feedback string           `json:"feedback"`
}

// AddAttachmentRequest 登记附件请求（JSON 形式）
type AddAttachmentRequest struct {
	FileType string         `json:"file_type" binding:"required"`
	File     FileRefRequest `json:"file"`
}

// CreateQuotationRequest 创建报价单请求
type CreateQuotationRequest struct {
	ClientID      *uint         `json:"client_id"`
	ClientName    string        `json:"client_name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	CurrencyID    uint          `json:"currency_id" binding:"required"`
	PricingTierID *uint         `json:"pricing_tier_id"`
	Items         []ItemRequest `json:"items"`
	Notes         string        `json:"notes"`
	ValidUntil    string        `json:"valid_until"`
}

// ConvertQuotationRequest 报价单转订单请求
type ConvertQuotationRequest struct {
	RequiresDesign bool   `json:"requires_design"`
	DeliveryMethod string `json:"delivery_method"`
	DeliveryDate   string `json:"delivery_date"`
}

func toItemInputs(items []ItemRequest) []service.ItemInput {
	result := make([]service.ItemInput, 0, len(items))
	for _, item := range items {
		result = append(result, service.ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return result
}

func toFileRefs(files []FileRefRequest) []service.FileRef {
	result := make([]service.FileRef, 0, len(files))
	for _, file := range files {
		result = append(result, file.toFileRef())
	}
	return result
}

func (r FileRefRequest) toFileRef() service.FileRef {
	return service.FileRef{
		Key:         strings.TrimSpace(r.Key),
		URL:         strings.TrimSpace(r.URL),
		Name:        strings.TrimSpace(r.Name),
		Size:        r.Size,
		ContentType: strings.TrimSpace(r.ContentType),
	}
}

// parseTimeNullable 支持 RFC3339 与 YYYY-MM-DD
func parseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
