package service

import (
	"context"
	"fmt"

	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineItem 计价行（订单项与报价项共用）
type LineItem struct {
	ProductID     uint
	ProductName   string
	Quantity      int
	BaseUnitPrice models.Money
	UnitPrice     models.Money
	ItemTotal     models.Money
}

// Totals 合计金额
type Totals struct {
	Foreign models.Money `json:"total_price_foreign"`
	Company models.Money `json:"total_price_company"`
}

// PricingSnapshot 下单时锁定的定价参数
type PricingSnapshot struct {
	CurrencyID    uint
	ExchangeRate  decimal.Decimal
	PricingTierID *uint
	MarkupPercent decimal.Decimal
}

// PriceLineItem 计算交易币种单价：base × (1 + markup/100) / rate，保留 4 位
func PriceLineItem(baseUnitPrice models.Money, markupPercent, exchangeRate decimal.Decimal) (models.Money, error) {
	if !exchangeRate.IsPositive() {
		return models.Money{}, ErrInvalidRate
	}
	if markupPercent.IsNegative() {
		return models.Money{}, ErrInvalidMarkup
	}
	factor := decimal.NewFromInt(1).Add(markupPercent.Div(hundred))
	return models.NewMoneyFromDecimal(baseUnitPrice.Decimal.Mul(factor).Div(exchangeRate)), nil
}

// ComputeTotals 汇总行金额并换算本位币
func ComputeTotals(items []LineItem, exchangeRate decimal.Decimal) (Totals, error) {
	if !exchangeRate.IsPositive() {
		return Totals{}, ErrInvalidRate
	}
	foreign := decimal.Zero
	for _, item := range items {
		foreign = foreign.Add(item.ItemTotal.Decimal)
	}
	foreignMoney := models.NewMoneyFromDecimal(foreign)
	return Totals{
		Foreign: foreignMoney,
		Company: models.NewMoneyFromDecimal(foreignMoney.Decimal.Mul(exchangeRate)),
	}, nil
}

// RepriceItems 在副本上重算全部行，任一行失败时原切片保持不变
func RepriceItems(items []LineItem, markupPercent, exchangeRate decimal.Decimal) ([]LineItem, Totals, error) {
	repriced := make([]LineItem, len(items))
	copy(repriced, items)
	for i := range repriced {
		if repriced[i].Quantity < 1 {
			return nil, Totals{}, ErrInvalidQuantity
		}
		unitPrice, err := PriceLineItem(repriced[i].BaseUnitPrice, markupPercent, exchangeRate)
		if err != nil {
			return nil, Totals{}, err
		}
		repriced[i].UnitPrice = unitPrice
		repriced[i].ItemTotal = models.NewMoneyFromDecimal(unitPrice.Decimal.Mul(decimal.NewFromInt(int64(repriced[i].Quantity))))
	}
	totals, err := ComputeTotals(repriced, exchangeRate)
	if err != nil {
		return nil, Totals{}, err
	}
	return repriced, totals, nil
}

// ItemInput 行项目输入
type ItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// PricingService 定价参数解析
type PricingService struct {
	pricingRepo repository.PricingRepository
	productRepo repository.ProductRepository
	profileRepo repository.ProfileRepository
}

// NewPricingService 创建定价服务
func NewPricingService(pricingRepo repository.PricingRepository, productRepo repository.ProductRepository, profileRepo repository.ProfileRepository) *PricingService {
	return &PricingService{
		pricingRepo: pricingRepo,
		productRepo: productRepo,
		profileRepo: profileRepo,
	}
}

// ResolveSnapshot 解析币种汇率与价格档位；currencyID 为 0 时使用本位币
func (s *PricingService) ResolveSnapshot(ctx context.Context, companyID, currencyID uint, tierID *uint) (PricingSnapshot, error) {
	var currency *models.Currency
	var err error
	if currencyID == 0 {
		currency, err = s.pricingRepo.GetBaseCurrency(ctx, companyID)
	} else {
		currency, err = s.pricingRepo.GetCurrency(ctx, companyID, currencyID)
	}
	if err != nil {
		return PricingSnapshot{}, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if currency == nil {
		return PricingSnapshot{}, ErrCurrencyNotFound
	}

	rate := decimal.NewFromInt(1)
	row, err := s.pricingRepo.LatestRate(ctx, companyID, currency.ID)
	if err != nil {
		return PricingSnapshot{}, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	switch {
	case row != nil:
		rate = row.Rate
	case !currency.IsBase:
		return PricingSnapshot{}, ErrExchangeRateMissing
	}
	if !rate.IsPositive() {
		return PricingSnapshot{}, ErrInvalidRate
	}

	snapshot := PricingSnapshot{
		CurrencyID:    currency.ID,
		ExchangeRate:  rate.Round(models.RateScale),
		MarkupPercent: decimal.Zero,
	}
	snapshot.PricingTierID, snapshot.MarkupPercent, err = s.ResolveTier(ctx, companyID, tierID)
	if err != nil {
		return PricingSnapshot{}, err
	}
	return snapshot, nil
}

// ResolveTier 解析价格档位加价比例；未指定档位时加价为 0
func (s *PricingService) ResolveTier(ctx context.Context, companyID uint, tierID *uint) (*uint, decimal.Decimal, error) {
	if tierID == nil || *tierID == 0 {
		return nil, decimal.Zero, nil
	}
	tier, err := s.pricingRepo.GetTier(ctx, companyID, *tierID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if tier == nil {
		return nil, decimal.Zero, ErrPricingTierNotFound
	}
	if tier.MarkupPercent.IsNegative() {
		return nil, decimal.Zero, ErrInvalidMarkup
	}
	id := tier.ID
	return &id, tier.MarkupPercent, nil
}

// ResolveClient 读取租户下的客户；clientID 为空时返回 nil
func (s *PricingService) ResolveClient(ctx context.Context, companyID uint, clientID *uint) (*models.Client, error) {
	if clientID == nil || *clientID == 0 || s.profileRepo == nil {
		return nil, nil
	}
	client, err := s.profileRepo.GetClient(ctx, companyID, *clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if client == nil {
		return nil, ErrClientNotFound
	}
	return client, nil
}

// ResolveClientTier 未指定档位时回退到客户默认档位
func (s *PricingService) ResolveClientTier(ctx context.Context, companyID uint, clientID *uint, tierID *uint) (*uint, error) {
	if tierID != nil || clientID == nil || *clientID == 0 || s.profileRepo == nil {
		return tierID, nil
	}
	client, err := s.profileRepo.GetClient(ctx, companyID, *clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if client == nil {
		return nil, ErrClientNotFound
	}
	return client.PricingTierID, nil
}

// BuildLineItems 按商品基础价与定价快照生成计价行
func (s *PricingService) BuildLineItems(ctx context.Context, companyID uint, inputs []ItemInput, snapshot PricingSnapshot) ([]LineItem, Totals, error) {
	if len(inputs) == 0 {
		return nil, Totals{}, ErrItemsRequired
	}
	ids := make([]uint, 0, len(inputs))
	for _, input := range inputs {
		if input.Quantity < 1 {
			return nil, Totals{}, ErrInvalidQuantity
		}
		ids = append(ids, input.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ctx, companyID, ids)
	if err != nil {
		return nil, Totals{}, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	byID := make(map[uint]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	lines := make([]LineItem, 0, len(inputs))
	for _, input := range inputs {
		product, ok := byID[input.ProductID]
		if !ok || !product.IsActive {
			return nil, Totals{}, ErrProductNotFound
		}
		lines = append(lines, LineItem{
			ProductID:     product.ID,
			ProductName:   product.Name,
			Quantity:      input.Quantity,
			BaseUnitPrice: product.BaseUnitPrice,
		})
	}
	return RepriceItems(lines, snapshot.MarkupPercent, snapshot.ExchangeRate)
}

func orderItemsFromLines(lines []LineItem) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			Quantity:      line.Quantity,
			BaseUnitPrice: line.BaseUnitPrice,
			UnitPrice:     line.UnitPrice,
			ItemTotal:     line.ItemTotal,
		})
	}
	return items
}

func linesFromOrderItems(items []models.OrderItem) []LineItem {
	lines := make([]LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, LineItem{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			BaseUnitPrice: item.BaseUnitPrice,
			UnitPrice:     item.UnitPrice,
			ItemTotal:     item.ItemTotal,
		})
	}
	return lines
}

func quotationItemsFromLines(lines []LineItem) []models.QuotationItem {
	items := make([]models.QuotationItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.QuotationItem{
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			Quantity:      line.Quantity,
			BaseUnitPrice: line.BaseUnitPrice,
			UnitPrice:     line.UnitPrice,
			ItemTotal:     line.ItemTotal,
		})
	}
	return items
}

func linesFromQuotationItems(items []models.QuotationItem) []LineItem {
	lines := make([]LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, LineItem{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			BaseUnitPrice: item.BaseUnitPrice,
			UnitPrice:     item.UnitPrice,
			ItemTotal:     item.ItemTotal,
		})
	}
	return lines
}
