package models

import "time"

// OrderComment 订单评论表（只追加）
type OrderComment struct {
	ID        uint      `gorm:"primarykey" json:"id"`              // 主键
	OrderID   uint      `gorm:"index;not null" json:"order_id"`    // 订单ID
	UserID    string    `gorm:"type:varchar(100)" json:"user_id"`  // 评论人
	Content   string    `gorm:"type:text;not null" json:"content"` // 内容
	CreatedAt time.Time `gorm:"index" json:"created_at"`           // 创建时间
}

// TableName 指定表名
func (OrderComment) TableName() string {
	return "order_comments"
}
