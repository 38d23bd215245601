package models

import "time"

// OrderStatusHistory 订单状态历史表（只追加）
type OrderStatusHistory struct {
	ID             uint      `gorm:"primarykey" json:"id"`                        // 主键
	OrderID        uint      `gorm:"index;not null" json:"order_id"`              // 订单ID
	PreviousStatus *string   `gorm:"type:varchar(60)" json:"previous_status"`     // 变更前状态（首条为空）
	NewStatus      string    `gorm:"type:varchar(60);not null" json:"new_status"` // 变更后状态
	ChangedBy      string    `gorm:"type:varchar(100)" json:"changed_by"`         // 操作人
	Action         string    `gorm:"type:varchar(40)" json:"action"`              // 触发动作
	ActionDetails  string    `gorm:"type:text" json:"action_details"`             // 动作说明
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
