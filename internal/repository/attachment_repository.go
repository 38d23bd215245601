package repository

import (
	"context"
	"time"

	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/models"

	"gorm.io/gorm"
)

// AttachmentRepository 订单附件数据访问接口
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.OrderAttachment) error
	CreateBatch(ctx context.Context, attachments []models.OrderAttachment) error
	ArchiveMockups(ctx context.Context, orderID uint) (int64, error)
	ArchiveMockupsCreatedBefore(ctx context.Context, orderID uint, cutoff time.Time) (int64, error)
	CountByType(ctx context.Context, orderID uint, fileType string) (int64, error)
	ListByOrder(ctx context.Context, orderID uint, filter AttachmentListFilter) ([]models.OrderAttachment, error)
	WithTx(tx *gorm.DB) *GormAttachmentRepository
}

// GormAttachmentRepository GORM 实现
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository 创建附件仓库
func NewAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAttachmentRepository) WithTx(tx *gorm.DB) *GormAttachmentRepository {
	if tx == nil {
		return r
	}
	return &GormAttachmentRepository{db: tx}
}

// Create 登记附件
func (r *GormAttachmentRepository) Create(ctx context.Context, attachment *models.OrderAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

// CreateBatch 批量登记附件
func (r *GormAttachmentRepository) CreateBatch(ctx context.Context, attachments []models.OrderAttachment) error {
	if len(attachments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&attachments).Error
}

// ArchiveMockups 将订单下所有设计稿标记为已归档，返回归档数量
func (r *GormAttachmentRepository) ArchiveMockups(ctx context.Context, orderID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.OrderAttachment{}).
		Where("order_id = ? AND file_type = ?", orderID, constants.FileTypeDesignMockup).
		Update("file_type", constants.FileTypeArchivedMockup)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ArchiveMockupsCreatedBefore 仅归档 cutoff 及之前上传的设计稿
func (r *GormAttachmentRepository) ArchiveMockupsCreatedBefore(ctx context.Context, orderID uint, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.OrderAttachment{}).
		Where("order_id = ? AND file_type = ? AND created_at <= ?", orderID, constants.FileTypeDesignMockup, cutoff).
		Update("file_type", constants.FileTypeArchivedMockup)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountByType 统计订单下指定类型附件数量
func (r *GormAttachmentRepository) CountByType(ctx context.Context, orderID uint, fileType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderAttachment{}).
		Where("order_id = ? AND file_type = ?", orderID, fileType).
		Count(&count).Error
	return count, err
}

// ListByOrder 附件列表（默认不含已归档设计稿）
func (r *GormAttachmentRepository) ListByOrder(ctx context.Context, orderID uint, filter AttachmentListFilter) ([]models.OrderAttachment, error) {
	var rows []models.OrderAttachment
	query := r.db.WithContext(ctx).Where("order_id = ?", orderID)
	if len(filter.FileTypes) > 0 {
		query = query.Where("file_type IN ?", filter.FileTypes)
	}
	if !filter.IncludeArchived {
		query = query.Where("file_type <> ?", constants.FileTypeArchivedMockup)
	}
	if err := query.Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
