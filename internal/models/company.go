package models

import "time"

// Company 租户（公司）表
type Company struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Name           string    `gorm:"type:varchar(200);not null" json:"name"`
	BaseCurrencyID *uint     `json:"base_currency_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Company) TableName() string {
	return "companies"
}

// Profile 用户档案：身份提供方的用户与租户、角色的绑定
type Profile struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"user_id"`
	CompanyID uint      `gorm:"index;not null" json:"company_id"`
	Role      string    `gorm:"type:varchar(30);not null" json:"role"`
	FullName  string    `gorm:"type:varchar(200)" json:"full_name"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}
