package staff

import (
	"strconv"
	"strings"

	"github.com/printdesk-next/internal/http/response"
	handlershared "github.com/printdesk-next/internal/http/handlers/shared"
	"github.com/printdesk-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return
	}
	deliveryDate, err := parseTimeNullable(req.DeliveryDate)
	if err != nil {
		respondBadRequest(c, "invalid delivery_date", err)
		return
	}
	order, err := h.OrderService.CreateOrder(c.Request.Context(), actor, service.CreateOrderInput{
		ClientID:       req.ClientID,
		ClientName:     req.ClientName,
		Email:          req.Email,
		Phone:          req.Phone,
		DeliveryMethod: req.DeliveryMethod,
		DeliveryDate:   deliveryDate,
		RequiresDesign: req.RequiresDesign,
		CurrencyID:     req.CurrencyID,
		PricingTierID:  req.PricingTierID,
		Items:          toItemInputs(req.Items),
		Notes:          req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondBadRequest(c, "invalid created_from", err)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondBadRequest(c, "invalid created_to", err)
		return
	}
	var clientID uint
	if raw := strings.TrimSpace(c.Query("client_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondBadRequest(c, "invalid client_id", err)
			return
		}
		clientID = uint(parsed)
	}

	orders, total, err := h.OrderService.ListOrders(c.Request.Context(), actor, service.OrderListQuery{
		Page:        page,
		PageSize:    pageSize,
		Status:      strings.TrimSpace(c.Query("status")),
		ClientID:    clientID,
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// ListWorkQueue 当前角色待处理订单
func (h *Handler) ListWorkQueue(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	orders, total, err := h.OrderService.ListWorkQueue(c.Request.Context(), actor, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ReplaceOrderItems 替换订单项并重算
func (h *Handler) ReplaceOrderItems(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	var req ReplaceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return
	}
	order, err := h.OrderService.ReplaceItems(c.Request.Context(), actor, orderID, toItemInputs(req.Items))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ChangeOrderPricing 修改订单币种或价格档位
func (h *Handler) ChangeOrderPricing(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	var req ChangePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return
	}
	order, err := h.OrderService.ChangePricing(c.Request.Context(), actor, orderID, service.ChangePricingInput{
		CurrencyID:    req.CurrencyID,
		PricingTierID: req.PricingTierID,
		ClearTier:     req.ClearTier,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// RecordPayment 登记付款
func (h *Handler) RecordPayment(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondBadRequest(c, "invalid amount", err)
		return
	}
	order, err := h.OrderService.RecordPayment(c.Request.Context(), actor, orderID, amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// DeleteOrder 删除订单
func (h *Handler) DeleteOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.OrderService.DeleteOrder(c.Request.Context(), actor, orderID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"id": orderID})
}

// ListComments 订单评论
func (h *Handler) ListComments(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	comments, err := h.OrderService.ListComments(c.Request.Context(), actor, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, comments)
}

// ListHistory 订单状态历史（含各状态停留时长）
func (h *Handler) ListHistory(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	history, err := h.HistoryService.ListHistory(c.Request.Context(), actor, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, history)
}
