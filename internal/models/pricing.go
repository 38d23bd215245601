package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingTier 价格档位（按百分比加价）
type PricingTier struct {
	ID            uint            `gorm:"primarykey" json:"id"`                                        // 主键
	CompanyID     uint            `gorm:"index;not null" json:"company_id"`                            // 租户ID
	Name          string          `gorm:"type:varchar(100);not null" json:"name"`                      // 名称
	MarkupPercent decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"markup_percent"` // 加价百分比
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName 指定表名
func (PricingTier) TableName() string {
	return "pricing_tiers"
}

// Currency 币种表
type Currency struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CompanyID uint      `gorm:"index;not null" json:"company_id"`
	Code      string    `gorm:"type:varchar(10);not null" json:"code"` // ISO 代码
	Symbol    string    `gorm:"type:varchar(10)" json:"symbol"`
	IsBase    bool      `gorm:"not null;default:false" json:"is_base"` // 是否本位币
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Currency) TableName() string {
	return "currencies"
}

// ExchangeRate 汇率表：1 单位本位币可兑换的交易币种数量
type ExchangeRate struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	CompanyID   uint            `gorm:"index;not null" json:"company_id"`
	CurrencyID  uint            `gorm:"index;not null" json:"currency_id"`
	Rate        decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"rate"`
	EffectiveAt time.Time       `gorm:"index;not null" json:"effective_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName 指定表名
func (ExchangeRate) TableName() string {
	return "exchange_rates"
}
