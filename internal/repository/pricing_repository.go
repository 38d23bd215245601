package repository

import (
	"context"
	"errors"

	"github.com/printdesk-next/internal/models"

	"gorm.io/gorm"
)

// PricingRepository 币种、汇率与价格档位数据访问接口
type PricingRepository interface {
	GetCurrency(ctx context.Context, companyID, currencyID uint) (*models.Currency, error)
	GetBaseCurrency(ctx context.Context, companyID uint) (*models.Currency, error)
	LatestRate(ctx context.Context, companyID, currencyID uint) (*models.ExchangeRate, error)
	GetTier(ctx context.Context, companyID, tierID uint) (*models.PricingTier, error)
	WithTx(tx *gorm.DB) *GormPricingRepository
}

// GormPricingRepository GORM 实现
type GormPricingRepository struct {
	db *gorm.DB
}

// NewPricingRepository 创建定价仓库
func NewPricingRepository(db *gorm.DB) *GormPricingRepository {
	return &GormPricingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPricingRepository) WithTx(tx *gorm.DB) *GormPricingRepository {
	if tx == nil {
		return r
	}
	return &GormPricingRepository{db: tx}
}

// GetCurrency 获取租户币种
func (r *GormPricingRepository) GetCurrency(ctx context.Context, companyID, currencyID uint) (*models.Currency, error) {
	var row models.Currency
	if err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", currencyID, companyID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetBaseCurrency 获取租户本位币
func (r *GormPricingRepository) GetBaseCurrency(ctx context.Context, companyID uint) (*models.Currency, error) {
	var row models.Currency
	if err := r.db.WithContext(ctx).Where("company_id = ? AND is_base = ?", companyID, true).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// LatestRate 获取当前生效汇率
func (r *GormPricingRepository) LatestRate(ctx context.Context, companyID, currencyID uint) (*models.ExchangeRate, error) {
	var row models.ExchangeRate
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND currency_id = ?", companyID, currencyID).
		Order("effective_at desc, id desc").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetTier 获取租户价格档位
func (r *GormPricingRepository) GetTier(ctx context.Context, companyID, tierID uint) (*models.PricingTier, error) {
	var row models.PricingTier
	if err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", tierID, companyID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
