package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Order 订单表
type Order struct {
	ID                uint            `gorm:"primarykey" json:"id"`                                              // 主键
	CompanyID         uint            `gorm:"index;not null" json:"company_id"`                                  // 租户ID
	OrderNo           *string         `gorm:"uniqueIndex" json:"order_no"`                                       // 展示用订单编号
	ClientID          *uint           `gorm:"index" json:"client_id,omitempty"`                                  // 客户ID
	ClientName        string          `gorm:"type:varchar(200);not null" json:"client_name"`                     // 客户名称
	Email             string          `gorm:"type:varchar(200)" json:"email"`                                    // 联系邮箱
	Phone             string          `gorm:"type:varchar(50)" json:"phone"`                                     // 联系电话
	DeliveryMethod    string          `gorm:"type:varchar(50)" json:"delivery_method"`                           // 交付方式
	DeliveryDate      *time.Time      `json:"delivery_date"`                                                     // 交付日期
	Status            string          `gorm:"index;not null" json:"status"`                                      // 订单状态
	RequiresDesign    bool            `gorm:"not null;default:false" json:"requires_design"`                     // 是否需要设计
	CurrencyID        uint            `gorm:"index;not null" json:"currency_id"`                                 // 交易币种
	ExchangeRate      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"exchange_rate"`                  // 下单时汇率快照
	PricingTierID     *uint           `gorm:"index" json:"pricing_tier_id,omitempty"`                            // 价格档位
	MarkupPercent     decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"markup_percent"`       // 加价比例快照
	TotalPriceForeign Money           `gorm:"type:decimal(20,4);not null;default:0" json:"total_price_foreign"`  // 交易币种合计
	TotalPriceCompany Money           `gorm:"type:decimal(20,4);not null;default:0" json:"total_price_company"`  // 本位币合计
	PaidAmount        Money           `gorm:"type:decimal(20,4);not null;default:0" json:"paid_amount"`          // 已付金额
	PaymentStatus     string          `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"` // 付款状态
	QuotationID       *uint           `gorm:"index" json:"quotation_id,omitempty"`                               // 来源报价单
	Notes             string          `gorm:"type:text" json:"notes"`                                            // 备注
	CreatedBy         string          `gorm:"type:varchar(100)" json:"created_by"`                               // 创建人
	CreatedAt         time.Time       `gorm:"index;<-:create" json:"created_at"`                                 // 创建时间
	UpdatedAt         time.Time       `gorm:"index" json:"updated_at"`                                           // 更新时间

	Items       []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`       // 订单项
	Attachments []OrderAttachment    `gorm:"foreignKey:OrderID" json:"attachments,omitempty"` // 附件
	Comments    []OrderComment       `gorm:"foreignKey:OrderID" json:"comments,omitempty"`    // 评论
	History     []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"history,omitempty"`     // 状态历史
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// DisplayNo 返回展示编号（未分配时回退到 ID）
func (o *Order) DisplayNo() string {
	if o == nil {
		return ""
	}
	if o.OrderNo != nil && *o.OrderNo != "" {
		return *o.OrderNo
	}
	return "#" + strconv.FormatUint(uint64(o.ID), 10)
}
