package models

import "time"

// OrderStatus 租户可配置的订单状态目录
type OrderStatus struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                            // 主键
	CompanyID uint      `gorm:"uniqueIndex:idx_order_status_company_name;not null" json:"company_id"`            // 租户ID
	Name      string    `gorm:"type:varchar(60);uniqueIndex:idx_order_status_company_name;not null" json:"name"` // 状态名称（大小写敏感）
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`                                            // 排序
	Color     string    `gorm:"type:varchar(20)" json:"color"`                                                   // 展示颜色
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`                                          // 是否启用
	CreatedAt time.Time `json:"created_at"`                                                                      // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                                                      // 更新时间
}

// TableName 指定表名
func (OrderStatus) TableName() string {
	return "order_statuses"
}
