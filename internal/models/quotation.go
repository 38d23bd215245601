package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quotation 报价单表
type Quotation struct {
	ID                uint            `gorm:"primarykey" json:"id"`                                             // 主键
	CompanyID         uint            `gorm:"index;not null" json:"company_id"`                                 // 租户ID
	QuotationNo       string          `gorm:"uniqueIndex;not null" json:"quotation_no"`                         // 报价单编号
	ClientID          *uint           `gorm:"index" json:"client_id,omitempty"`                                 // 客户ID
	ClientName        string          `gorm:"type:varchar(200);not null" json:"client_name"`                    // 客户名称
	Email             string          `gorm:"type:varchar(200)" json:"email"`                                   // 联系邮箱
	Phone             string          `gorm:"type:varchar(50)" json:"phone"`                                    // 联系电话
	CurrencyID        uint            `gorm:"index;not null" json:"currency_id"`                                // 交易币种
	ExchangeRate      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"exchange_rate"`                 // 汇率快照
	PricingTierID     *uint           `gorm:"index" json:"pricing_tier_id,omitempty"`                           // 价格档位
	MarkupPercent     decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"markup_percent"`      // 加价比例快照
	TotalPriceForeign Money           `gorm:"type:decimal(20,4);not null;default:0" json:"total_price_foreign"` // 交易币种合计
	TotalPriceCompany Money           `gorm:"type:decimal(20,4);not null;default:0" json:"total_price_company"` // 本位币合计
	ValidUntil        *time.Time      `json:"valid_until"`                                                      // 有效期
	Status            string          `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`          // 报价单状态
	ConvertedOrderID  *uint           `gorm:"index" json:"converted_order_id,omitempty"`                        // 转换后的订单
	Notes             string          `gorm:"type:text" json:"notes"`                                           // 备注
	CreatedBy         string          `gorm:"type:varchar(100)" json:"created_by"`                              // 创建人
	CreatedAt         time.Time       `gorm:"index;<-:create" json:"created_at"`                                // 创建时间
	UpdatedAt         time.Time       `gorm:"index" json:"updated_at"`                                          // 更新时间

	Items []QuotationItem `gorm:"foreignKey:QuotationID" json:"items,omitempty"` // 报价项
}

// TableName 指定表名
func (Quotation) TableName() string {
	return "quotations"
}

// QuotationItem 报价项表
type QuotationItem struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	QuotationID   uint      `gorm:"index;not null" json:"quotation_id"`
	ProductID     uint      `gorm:"index;not null" json:"product_id"`
	ProductName   string    `gorm:"type:varchar(200)" json:"product_name"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	BaseUnitPrice Money     `gorm:"type:decimal(20,4);not null;default:0" json:"base_unit_price"`
	UnitPrice     Money     `gorm:"type:decimal(20,4);not null;default:0" json:"unit_price"`
	ItemTotal     Money     `gorm:"type:decimal(20,4);not null;default:0" json:"item_total"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (QuotationItem) TableName() string {
	return "quotation_items"
}
