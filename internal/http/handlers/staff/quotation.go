package staff

import (
	"strings"

	handlershared "github.com/printdesk-next/internal/http/handlers/shared"
	"github.com/printdesk-next/internal/http/response"
	"github.com/printdesk-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateQuotation 创建报价单
func (h *Handler) CreateQuotation(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return
	}
	validUntil, err := parseTimeNullable(req.ValidUntil)
	if err != nil {
		respondBadRequest(c, "invalid valid_until", err)
		return
	}
	quotation, err := h.QuotationService.CreateQuotation(c.Request.Context(), actor, service.CreateQuotationInput{
		ClientID:      req.ClientID,
		ClientName:    req.ClientName,
		Email:         req.Email,
		Phone:         req.Phone,
		CurrencyID:    req.CurrencyID,
		PricingTierID: req.PricingTierID,
		Items:         toItemInputs(req.Items),
		Notes:         req.Notes,
		ValidUntil:    validUntil,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, quotation)
}

// ListQuotations 报价单列表
func (h *Handler) ListQuotations(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	quotations, total, err := h.QuotationService.ListQuotations(c.Request.Context(), actor, service.QuotationListQuery{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, quotations, response.NewPagination(page, pageSize, total))
}

// GetQuotation 报价单详情
func (h *Handler) GetQuotation(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	quotationID, ok := paramID(c)
	if !ok {
		return
	}
	quotation, err := h.QuotationService.GetQuotation(c.Request.Context(), actor, quotationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, quotation)
}

// ReplaceQuotationItems 替换报价单明细
func (h *Handler) ReplaceQuotationItems(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	quotationID, ok := paramID(c)
	if !ok {
		return
	}
	var req ReplaceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return
	}
	quotation, err := h.QuotationService.ReplaceItems(c.Request.Context(), actor, quotationID, toItemInputs(req.Items))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, quotation)
}

// ChangeQuotationPricing 修改报价单币种或价格档位
func (h *Handler) ChangeQuotationPricing(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	quotationID, ok := paramID(c)
	if !ok {
		return
	}
	var req ChangePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return
	}
	quotation, err := h.QuotationService.ChangePricing(c.Request.Context(), actor, quotationID, service.ChangePricingInput{
		CurrencyID:    req.CurrencyID,
		PricingTierID: req.PricingTierID,
		ClearTier:     req.ClearTier,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, quotation)
}

// ConvertQuotation 报价单转订单
func (h *Handler) ConvertQuotation(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	quotationID, ok := paramID(c)
	if !ok {
		return
	}
	var req ConvertQuotationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body", err)
			return
		}
	}
	deliveryDate, err := parseTimeNullable(req.DeliveryDate)
	if err != nil {
		respondBadRequest(c, "invalid delivery_date", err)
		return
	}
	order, err := h.QuotationService.ConvertToOrder(c.Request.Context(), actor, quotationID, service.ConvertInput{
		RequiresDesign: req.RequiresDesign,
		DeliveryMethod: req.DeliveryMethod,
		DeliveryDate:   deliveryDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
