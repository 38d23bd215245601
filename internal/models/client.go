package models

import "time"

// Client 客户表
type Client struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	CompanyID     uint      `gorm:"index;not null" json:"company_id"`
	Name          string    `gorm:"type:varchar(200);not null" json:"name"`
	Email         string    `gorm:"type:varchar(200)" json:"email"`
	Phone         string    `gorm:"type:varchar(50)" json:"phone"`
	PricingTierID *uint     `gorm:"index" json:"pricing_tier_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Client) TableName() string {
	return "clients"
}
