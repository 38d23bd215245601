package models

import "time"

// Product 商品表（基础价格为本位币）
type Product struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                         // 主键
	CompanyID     uint      `gorm:"index;not null" json:"company_id"`                             // 租户ID
	Name          string    `gorm:"type:varchar(200);not null" json:"name"`                       // 名称
	SKU           string    `gorm:"type:varchar(100);index" json:"sku"`                           // 编码
	BaseUnitPrice Money     `gorm:"type:decimal(20,4);not null;default:0" json:"base_unit_price"` // 本位币单价
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`                       // 是否上架
	CreatedAt     time.Time `json:"created_at"`                                                   // 创建时间
	UpdatedAt     time.Time `json:"updated_at"`                                                   // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
