package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/printdesk-next/internal/authz"
	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/repository"

	"gorm.io/gorm"
)

// QuotationService 报价单服务
type QuotationService struct {
	quotationRepo repository.QuotationRepository
	pricingSvc    *PricingService
	orderSvc      *OrderService
	authorizer    ActionAuthorizer
	validDays     int
	now           func() time.Time
}

// NewQuotationService 创建报价单服务；validDays 为默认有效天数（<=0 表示不过期）
func NewQuotationService(
	quotationRepo repository.QuotationRepository,
	pricingSvc *PricingService,
	orderSvc *OrderService,
	authorizer ActionAuthorizer,
	validDays int,
) *QuotationService {
	return &QuotationService{
		quotationRepo: quotationRepo,
		pricingSvc:    pricingSvc,
		orderSvc:      orderSvc,
		authorizer:    authorizer,
		validDays:     validDays,
		now:           time.Now,
	}
}

// CreateQuotationInput 创建报价单输入
type CreateQuotationInput struct {
	ClientID      *uint
	ClientName    string
	Email         string
	Phone         string
	CurrencyID    uint
	PricingTierID *uint
	Items         []ItemInput
	Notes         string
	ValidUntil    *time.Time
}

// QuotationListQuery 报价单列表查询参数
type QuotationListQuery struct {
	Page     int
	PageSize int
	Status   string
	Keyword  string
}

// ConvertInput 报价单转订单输入
type ConvertInput struct {
	RequiresDesign bool
	DeliveryMethod string
	DeliveryDate   *time.Time
}

// CreateQuotation 创建报价单
func (s *QuotationService) CreateQuotation(ctx context.Context, actor Actor, input CreateQuotationInput) (*models.Quotation, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if err := permits(s.authorizer, actor.Role, authz.ObjectQuotation, constants.ActionCreate); err != nil {
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

	validUntil := input.ValidUntil
	if validUntil == nil && s.validDays > 0 {
		expires := s.now().AddDate(0, 0, s.validDays)
		validUntil = &expires
	}
	quotation := &models.Quotation{
		CompanyID:         actor.CompanyID,
		QuotationNo:       generateQuotationNo(),
		ClientID:          contact.ClientID,
		ClientName:        contact.Name,
		Email:             contact.Email,
		Phone:             contact.Phone,
		CurrencyID:        snapshot.CurrencyID,
		ExchangeRate:      snapshot.ExchangeRate,
		PricingTierID:     snapshot.PricingTierID,
		MarkupPercent:     snapshot.MarkupPercent,
		TotalPriceForeign: totals.Foreign,
		TotalPriceCompany: totals.Company,
		ValidUntil:        validUntil,
		Status:            constants.QuotationStatusDraft,
		Notes:             strings.TrimSpace(input.Notes),
		CreatedBy:         actor.UserID,
	}
	if err := s.quotationRepo.Create(ctx, quotation, quotationItemsFromLines(lines)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuotationSaveFailed, err)
	}
	logger.Infow("quotation_created",
		"quotation_id", quotation.ID,
		"quotation_no", quotation.QuotationNo,
		"actor_id", actor.UserID,
		"total_foreign", quotation.TotalPriceForeign.String(),
	)
	return quotation, nil
}

// GetQuotation 获取报价单详情
func (s *QuotationService) GetQuotation(ctx context.Context, actor Actor, quotationID uint) (*models.Quotation, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	return s.load(ctx, actor.CompanyID, quotationID)
}

// ListQuotations 分页查询报价单
func (s *QuotationService) ListQuotations(ctx context.Context, actor Actor, query QuotationListQuery) ([]models.Quotation, int64, error) {
	if err := actor.Validate(); err != nil {
		return nil, 0, err
	}
	rows, total, err := s.quotationRepo.List(ctx, repository.QuotationListFilter{
		Page:      query.Page,
		PageSize:  query.PageSize,
		CompanyID: actor.CompanyID,
		Status:    strings.ToLower(strings.TrimSpace(query.Status)),
		Keyword:   query.Keyword,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrQuotationFetchFailed, err)
	}
	return rows, total, nil
}

// ReplaceItems 按报价单快照替换报价项
func (s *QuotationService) ReplaceItems(ctx context.Context, actor Actor, quotationID uint, inputs []ItemInput) (*models.Quotation, error) {
	quotation, err := s.loadDraft(ctx, actor, quotationID, constants.ActionEditItems)
	if err != nil {
		return nil, err
	}
	lines, totals, err := s.pricingSvc.BuildLineItems(ctx, quotation.CompanyID, inputs, quotationSnapshot(quotation))
	if err != nil {
		return nil, err
	}
	if err := s.saveRepriced(ctx, quotation.ID, lines, totals, nil); err != nil {
		return nil, err
	}
	return s.load(ctx, actor.CompanyID, quotationID)
}

// ChangePricing 切换报价单币种或档位并重算
func (s *QuotationService) ChangePricing(ctx context.Context, actor Actor, quotationID uint, input ChangePricingInput) (*models.Quotation, error) {
	if input.empty() {
		return nil, ErrNoPricingChange
	}
	quotation, err := s.loadDraft(ctx, actor, quotationID, constants.ActionEditItems)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.pricingSvc.changedSnapshot(ctx, quotation.CompanyID, quotationSnapshot(quotation), input)
	if err != nil {
		return nil, err
	}
	lines, totals, err := RepriceItems(linesFromQuotationItems(quotation.Items), snapshot.MarkupPercent, snapshot.ExchangeRate)
	if err != nil {
		return nil, err
	}
	if err := s.saveRepriced(ctx, quotation.ID, lines, totals, map[string]interface{}{
		"currency_id":     snapshot.CurrencyID,
		"exchange_rate":   snapshot.ExchangeRate,
		"pricing_tier_id": snapshot.PricingTierID,
		"markup_percent":  snapshot.MarkupPercent,
	}); err != nil {
		return nil, err
	}
	logger.Infow("quotation_pricing_changed",
		"quotation_id", quotation.ID,
		"actor_id", actor.UserID,
		"currency_id", snapshot.CurrencyID,
		"total_foreign", totals.Foreign.String(),
	)
	return s.load(ctx, actor.CompanyID, quotationID)
}

// ConvertToOrder 将报价单转为新订单；同一报价单只能转换一次
func (s *QuotationService) ConvertToOrder(ctx context.Context, actor Actor, quotationID uint, input ConvertInput) (*models.Order, error) {
	quotation, err := s.loadDraft(ctx, actor, quotationID, constants.ActionConvert)
	if err != nil {
		return nil, err
	}
	if quotation.ValidUntil != nil && s.now().After(*quotation.ValidUntil) {
		return nil, ErrQuotationExpired
	}
	if len(quotation.Items) == 0 {
		return nil, ErrItemsRequired
	}

	items := make([]models.OrderItem, 0, len(quotation.Items))
	for _, item := range quotation.Items {
		items = append(items, models.OrderItem{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			BaseUnitPrice: item.BaseUnitPrice,
			UnitPrice:     item.UnitPrice,
			ItemTotal:     item.ItemTotal,
		})
	}
	notes := fmt.Sprintf("Converted from quotation %s", quotation.QuotationNo)
	if quotation.Notes != "" {
		notes = notes + "\n" + quotation.Notes
	}
	quotationRef := quotation.ID
	orderNo := generateOrderNo()
	order := &models.Order{
		CompanyID:         quotation.CompanyID,
		OrderNo:           &orderNo,
		ClientID:          quotation.ClientID,
		ClientName:        quotation.ClientName,
		Email:             quotation.Email,
		Phone:             quotation.Phone,
		DeliveryMethod:    strings.TrimSpace(input.DeliveryMethod),
		DeliveryDate:      input.DeliveryDate,
		RequiresDesign:    input.RequiresDesign,
		CurrencyID:        quotation.CurrencyID,
		ExchangeRate:      quotation.ExchangeRate,
		PricingTierID:     quotation.PricingTierID,
		MarkupPercent:     quotation.MarkupPercent,
		TotalPriceForeign: quotation.TotalPriceForeign,
		TotalPriceCompany: quotation.TotalPriceCompany,
		PaidAmount:        models.ZeroMoney(),
		PaymentStatus:     constants.PaymentStatusPending,
		QuotationID:       &quotationRef,
		Notes:             notes,
		CreatedBy:         actor.UserID,
	}

	err = s.orderSvc.createOrder(ctx, actor, order, items, func(tx *gorm.DB) error {
		affected, err := s.quotationRepo.WithTx(tx).MarkConverted(ctx, quotation.ID, order.ID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrQuotationSaveFailed, err)
		}
		if affected == 0 {
			return ErrQuotationConverted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.ForOrder(order.ID,
		"quotation_id", quotation.ID,
		"quotation_no", quotation.QuotationNo,
		"actor_id", actor.UserID,
	).Infow("quotation_converted")
	return order, nil
}

func (s *QuotationService) load(ctx context.Context, companyID, quotationID uint) (*models.Quotation, error) {
	quotation, err := s.quotationRepo.GetByIDForCompany(ctx, companyID, quotationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuotationFetchFailed, err)
	}
	if quotation == nil {
		return nil, ErrQuotationNotFound
	}
	return quotation, nil
}

// loadDraft 校验权限并加载仍为草稿的报价单
func (s *QuotationService) loadDraft(ctx context.Context, actor Actor, quotationID uint, action string) (*models.Quotation, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if err := permits(s.authorizer, actor.Role, authz.ObjectQuotation, action); err != nil {
		return nil, err
	}
	quotation, err := s.load(ctx, actor.CompanyID, quotationID)
	if err != nil {
		return nil, err
	}
	if quotation.Status == constants.QuotationStatusConverted || quotation.ConvertedOrderID != nil {
		return nil, ErrQuotationConverted
	}
	return quotation, nil
}

func (s *QuotationService) saveRepriced(ctx context.Context, quotationID uint, lines []LineItem, totals Totals, fields map[string]interface{}) error {
	updates := map[string]interface{}{
		"total_price_foreign": totals.Foreign,
		"total_price_company": totals.Company,
		"updated_at":          s.now(),
	}
	for key, value := range fields {
		updates[key] = value
	}
	return models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.quotationRepo.WithTx(tx)
		if err := repo.ReplaceItems(ctx, quotationID, quotationItemsFromLines(lines)); err != nil {
			return fmt.Errorf("%w: %w", ErrQuotationSaveFailed, err)
		}
		if err := repo.UpdateFields(ctx, quotationID, updates); err != nil {
			return fmt.Errorf("%w: %w", ErrQuotationSaveFailed, err)
		}
		return nil
	})
}

func quotationSnapshot(quotation *models.Quotation) PricingSnapshot {
	return PricingSnapshot{
		CurrencyID:    quotation.CurrencyID,
		ExchangeRate:  quotation.ExchangeRate,
		PricingTierID: quotation.PricingTierID,
		MarkupPercent: quotation.MarkupPercent,
	}
}
