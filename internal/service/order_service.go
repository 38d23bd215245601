package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/printdesk-next/internal/authz"
	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单聚合服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	commentRepo repository.CommentRepository
	historyRepo repository.StatusHistoryRepository
	pricingSvc  *PricingService
	catalogSvc  *StatusCatalogService
	authorizer  ActionAuthorizer
	locker      OrderLocker
	notifier    StatusChangeNotifier
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	commentRepo repository.CommentRepository,
	historyRepo repository.StatusHistoryRepository,
	pricingSvc *PricingService,
	catalogSvc *StatusCatalogService,
	authorizer ActionAuthorizer,
	locker OrderLocker,
	notifier StatusChangeNotifier,
) *OrderService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &OrderService{
		orderRepo:   orderRepo,
		commentRepo: commentRepo,
		historyRepo: historyRepo,
		pricingSvc:  pricingSvc,
		catalogSvc:  catalogSvc,
		authorizer:  authorizer,
		locker:      locker,
		notifier:    notifier,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	ClientID       *uint
	ClientName     string
	Email          string
	Phone          string
	DeliveryMethod string
	DeliveryDate   *time.Time
	RequiresDesign bool
	CurrencyID     uint
	PricingTierID  *uint
	Items          []ItemInput
	Notes          string
}

// OrderListQuery 订单列表查询参数
type OrderListQuery struct {
	Page        int
	PageSize    int
	Status      string
	ClientID    uint
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ChangePricingInput 改价输入；CurrencyID 非空时按新币种最新汇率重算
type ChangePricingInput struct {
	CurrencyID    *uint
	PricingTierID *uint
	ClearTier     bool
}

func (in ChangePricingInput) empty() bool {
	return in.CurrencyID == nil && in.PricingTierID == nil && !in.ClearTier
}

// CreateOrder 创建订单：计价、初始状态、首条历史
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, input CreateOrderInput) (*models.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if err := permits(s.authorizer, actor.Role, authz.ObjectOrder, constants.ActionCreate); err != nil {
		return nil, err
	}

	client, err := s.pricingSvc.ResolveClient(ctx, actor.CompanyID, input.ClientID)
	if err != nil {
		return nil, err
	}
	contact := resolveContact(client, input.ClientName, input.Email, input.Phone)
	if contact.Name == "" {
		return nil, ErrClientNameRequired
	}
	tierID := input.PricingTierID
	if tierID == nil && client != nil {
		tierID = client.PricingTierID
	}
	snapshot, err := s.pricingSvc.ResolveSnapshot(ctx, actor.CompanyID, input.CurrencyID, tierID)
	if err != nil {
		return nil, err
	}
	lines, totals, err := s.pricingSvc.BuildLineItems(ctx, actor.CompanyID, input.Items, snapshot)
	if err != nil {
		return nil, err
	}

	orderNo := generateOrderNo()
	order := &models.Order{
		CompanyID:         actor.CompanyID,
		OrderNo:           &orderNo,
		ClientID:          contact.ClientID,
		ClientName:        contact.Name,
		Email:             contact.Email,
		Phone:             contact.Phone,
		DeliveryMethod:    strings.TrimSpace(input.DeliveryMethod),
		DeliveryDate:      input.DeliveryDate,
		RequiresDesign:    input.RequiresDesign,
		CurrencyID:        snapshot.CurrencyID,
		ExchangeRate:      snapshot.ExchangeRate,
		PricingTierID:     snapshot.PricingTierID,
		MarkupPercent:     snapshot.MarkupPercent,
		TotalPriceForeign: totals.Foreign,
		TotalPriceCompany: totals.Company,
		PaidAmount:        models.ZeroMoney(),
		PaymentStatus:     constants.PaymentStatusPending,
		Notes:             strings.TrimSpace(input.Notes),
		CreatedBy:         actor.UserID,
	}
	if err := s.createOrder(ctx, actor, order, orderItemsFromLines(lines), nil); err != nil {
		return nil, err
	}
	return order, nil
}

// createOrder 在事务内写入订单、订单项与首条历史；extra 与之同事务执行
func (s *OrderService) createOrder(ctx context.Context, actor Actor, order *models.Order, items []models.OrderItem, extra func(tx *gorm.DB) error) error {
	order.Status = InitialStatus(order.RequiresDesign)
	if _, err := s.catalogSvc.Resolve(ctx, order.CompanyID, order.Status); err != nil {
		return err
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	err := models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(ctx, order, items); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderCreateFailed, err)
		}
		if _, err := AppendHistory(ctx, s.historyRepo.WithTx(tx), HistoryInput{
			OrderID:       order.ID,
			NewStatus:     order.Status,
			ActorID:       actor.UserID,
			Action:        constants.ActionCreate,
			ActionDetails: fmt.Sprintf("Order created with status %s", order.Status),
		}); err != nil {
			return err
		}
		if extra != nil {
			return extra(tx)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.ForOrder(order.ID,
		"order_no", order.DisplayNo(),
		"status", order.Status,
		"actor_id", actor.UserID,
		"total_foreign", order.TotalPriceForeign.String(),
	).Infow("order_created")
	s.notifier.NotifyStatusChanged(ctx, StatusChangeEvent{
		OrderID:    order.ID,
		CompanyID:  order.CompanyID,
		NewStatus:  order.Status,
		Action:     constants.ActionCreate,
		ActorID:    actor.UserID,
		OccurredAt: now,
	})
	return nil
}

// GetOrder 获取订单详情（含订单项）
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID)
}

// ListOrders 分页查询订单；状态过滤不区分大小写
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, query OrderListQuery) ([]models.Order, int64, error) {
	if err := actor.Validate(); err != nil {
		return nil, 0, err
	}
	filter := repository.OrderListFilter{
		Page:        query.Page,
		PageSize:    query.PageSize,
		CompanyID:   actor.CompanyID,
		ClientID:    query.ClientID,
		Keyword:     query.Keyword,
		CreatedFrom: query.CreatedFrom,
		CreatedTo:   query.CreatedTo,
	}
	if strings.TrimSpace(query.Status) != "" {
		status, err := s.catalogSvc.ResolveFilter(ctx, actor.CompanyID, query.Status)
		if err != nil {
			return nil, 0, err
		}
		filter.Statuses = []string{status}
	}
	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	return orders, total, nil
}

// ListWorkQueue 操作人角色待处理的订单
func (s *OrderService) ListWorkQueue(ctx context.Context, actor Actor, page, pageSize int) ([]models.Order, int64, error) {
	if err := actor.Validate(); err != nil {
		return nil, 0, err
	}
	statuses := WorkQueueStatuses(actor.Role)
	if len(statuses) == 0 {
		return []models.Order{}, 0, nil
	}
	orders, total, err := s.orderRepo.List(ctx, repository.OrderListFilter{
		Page:      page,
		PageSize:  pageSize,
		CompanyID: actor.CompanyID,
		Statuses:  statuses,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	return orders, total, nil
}

// ReplaceItems 按订单的汇率与加价快照整体替换订单项
func (s *OrderService) ReplaceItems(ctx context.Context, actor Actor, orderID uint, inputs []ItemInput) (*models.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if err := permits(s.authorizer, actor.Role, authz.ObjectOrder, constants.ActionEditItems); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.loadEditable(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	lines, totals, err := s.pricingSvc.BuildLineItems(ctx, order.CompanyID, inputs, orderSnapshot(order))
	if err != nil {
		return nil, err
	}
	if err := s.saveRepriced(ctx, order, lines, totals, nil); err != nil {
		return nil, err
	}
	logger.ForOrder(order.ID, "actor_id", actor.UserID, "items", len(lines)).Infow("order_items_replaced")
	return loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID)
}

// ChangePricing 切换币种或价格档位并重算全部订单项
func (s *OrderService) ChangePricing(ctx context.Context, actor Actor, orderID uint, input ChangePricingInput) (*models.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if input.empty() {
		return nil, ErrNoPricingChange
	}
	if err := permits(s.authorizer, actor.Role, authz.ObjectOrder, constants.ActionEditItems); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.loadEditable(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.pricingSvc.changedSnapshot(ctx, order.CompanyID, orderSnapshot(order), input)
	if err != nil {
		return nil, err
	}
	// 已付金额按原币种记账
	if snapshot.CurrencyID != order.CurrencyID && order.PaidAmount.Decimal.IsPositive() {
		return nil, ErrPaidCurrencyLocked
	}
	lines, totals, err := RepriceItems(linesFromOrderItems(order.Items), snapshot.MarkupPercent, snapshot.ExchangeRate)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{
		"currency_id":     snapshot.CurrencyID,
		"exchange_rate":   snapshot.ExchangeRate,
		"pricing_tier_id": snapshot.PricingTierID,
		"markup_percent":  snapshot.MarkupPercent,
	}
	if err := s.saveRepriced(ctx, order, lines, totals, fields); err != nil {
		return nil, err
	}
	logger.ForOrder(order.ID,
		"actor_id", actor.UserID,
		"currency_id", snapshot.CurrencyID,
		"exchange_rate", snapshot.ExchangeRate.String(),
		"markup_percent", snapshot.MarkupPercent.String(),
		"total_foreign", totals.Foreign.String(),
	).Infow("order_pricing_changed")
	return loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID)
}

// RecordPayment 登记收款并重算付款状态，不改变订单状态
func (s *OrderService) RecordPayment(ctx context.Context, actor Actor, orderID uint, amount decimal.Decimal) (*models.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if err := permits(s.authorizer, actor.Role, authz.ObjectOrder, constants.ActionRecordPayment); err != nil {
		return nil, err
	}
	amount = amount.Round(models.MoneyScale)
	if !amount.IsPositive() {
		return nil, ErrInvalidPayment
	}

	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID)
	if err != nil {
		return nil, err
	}
	paid := order.PaidAmount.Decimal.Add(amount)
	if paid.GreaterThan(order.TotalPriceForeign.Decimal) {
		return nil, ErrPaymentExceedsTotal
	}
	status := paymentStatusFor(paid, order.TotalPriceForeign.Decimal)
	if err := s.orderRepo.UpdateFields(ctx, order.ID, map[string]interface{}{
		"paid_amount":    models.NewMoneyFromDecimal(paid),
		"payment_status": status,
		"updated_at":     time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
	}
	order.PaidAmount = models.NewMoneyFromDecimal(paid)
	order.PaymentStatus = status

	logger.ForOrder(order.ID,
		"actor_id", actor.UserID,
		"amount", amount.StringFixed(models.MoneyScale),
		"paid_amount", order.PaidAmount.String(),
		"payment_status", status,
	).Infow("order_payment_recorded")
	return order, nil
}

// ListComments 订单评论（按时间正序）
func (s *OrderService) ListComments(ctx context.Context, actor Actor, orderID uint) ([]models.OrderComment, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if _, err := loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	return comments, nil
}

// DeleteOrder 删除订单及其附属数据（仅管理员）
func (s *OrderService) DeleteOrder(ctx context.Context, actor Actor, orderID uint) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrTransitionForbidden
	}

	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID); err != nil {
		return err
	}
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
	}
	logger.ForOrder(orderID, "actor_id", actor.UserID).Infow("order_deleted")
	return nil
}

func (s *OrderService) loadEditable(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	order, err := loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID)
	if err != nil {
		return nil, err
	}
	if _, locked := itemsLockedStatuses[order.Status]; locked {
		return nil, ErrOrderItemsLocked
	}
	return order, nil
}

// saveRepriced 同一事务内替换订单项并回写合计
func (s *OrderService) saveRepriced(ctx context.Context, order *models.Order, lines []LineItem, totals Totals, fields map[string]interface{}) error {
	if order.PaidAmount.Decimal.GreaterThan(totals.Foreign.Decimal) {
		return ErrTotalBelowPaid
	}
	updates := map[string]interface{}{
		"total_price_foreign": totals.Foreign,
		"total_price_company": totals.Company,
		"payment_status":      paymentStatusFor(order.PaidAmount.Decimal, totals.Foreign.Decimal),
		"updated_at":          time.Now(),
	}
	for key, value := range fields {
		updates[key] = value
	}
	return models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		if err := repo.ReplaceItems(ctx, order.ID, orderItemsFromLines(lines)); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
		}
		if err := repo.UpdateFields(ctx, order.ID, updates); err != nil {
			return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
		}
		return nil
	})
}

func orderSnapshot(order *models.Order) PricingSnapshot {
	return PricingSnapshot{
		CurrencyID:    order.CurrencyID,
		ExchangeRate:  order.ExchangeRate,
		PricingTierID: order.PricingTierID,
		MarkupPercent: order.MarkupPercent,
	}
}

// changedSnapshot 在现有快照上应用改价请求；未换币种时保留原汇率
func (s *PricingService) changedSnapshot(ctx context.Context, companyID uint, current PricingSnapshot, input ChangePricingInput) (PricingSnapshot, error) {
	next := current
	if input.CurrencyID != nil {
		resolved, err := s.ResolveSnapshot(ctx, companyID, *input.CurrencyID, nil)
		if err != nil {
			return PricingSnapshot{}, err
		}
		next.CurrencyID = resolved.CurrencyID
		next.ExchangeRate = resolved.ExchangeRate
	}
	switch {
	case input.ClearTier:
		next.PricingTierID = nil
		next.MarkupPercent = decimal.Zero
	case input.PricingTierID != nil:
		tierID, markup, err := s.ResolveTier(ctx, companyID, input.PricingTierID)
		if err != nil {
			return PricingSnapshot{}, err
		}
		next.PricingTierID = tierID
		next.MarkupPercent = markup
	}
	return next, nil
}

func paymentStatusFor(paid, total decimal.Decimal) string {
	switch {
	case !paid.IsPositive():
		return constants.PaymentStatusPending
	case paid.GreaterThanOrEqual(total):
		return constants.PaymentStatusPaid
	default:
		return constants.PaymentStatusPartial
	}
}

type contactInfo struct {
	ClientID *uint
	Name     string
	Email    string
	Phone    string
}

// resolveContact 显式输入优先，缺省字段回退到客户档案
func resolveContact(client *models.Client, name, email, phone string) contactInfo {
	info := contactInfo{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
		Phone: strings.TrimSpace(phone),
	}
	if client == nil {
		return info
	}
	id := client.ID
	info.ClientID = &id
	if info.Name == "" {
		info.Name = client.Name
	}
	if info.Email == "" {
		info.Email = client.Email
	}
	if info.Phone == "" {
		info.Phone = client.Phone
	}
	return info
}

func generateOrderNo() string {
	return "PD" + time.Now().Format("20060102150405") + randNumeric(6)
}

func generateQuotationNo() string {
	return "QT" + time.Now().Format("20060102150405") + randNumeric(6)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(n.String())
	}
	return b.String()
}
