package models

import "time"

// OrderAttachment 订单附件表（只登记外部存储返回的引用，不保存文件内容）
type OrderAttachment struct {
	ID         uint      `gorm:"primarykey" json:"id"`                             // 主键
	OrderID    uint      `gorm:"index;not null" json:"order_id"`                   // 订单ID
	FileURL    string    `gorm:"type:varchar(1024);not null" json:"file_url"`      // 文件地址
	FileName   string    `gorm:"type:varchar(255);not null" json:"file_name"`      // 文件名
	FileSize   int64     `gorm:"not null;default:0" json:"file_size"`              // 文件大小（字节）
	FileType   string    `gorm:"type:varchar(30);index;not null" json:"file_type"` // 附件类型
	UploaderID string    `gorm:"type:varchar(100)" json:"uploader_id"`             // 上传人
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                          // 创建时间
}

// TableName 指定表名
func (OrderAttachment) TableName() string {
	return "order_attachments"
}
