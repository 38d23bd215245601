package repository

import (
	"context"
	"errors"

	"github.com/printdesk-next/internal/models"

	"gorm.io/gorm"
)

// StatusCatalogRepository 租户状态目录数据访问接口
type StatusCatalogRepository interface {
	ListByCompany(ctx context.Context, companyID uint, activeOnly bool) ([]models.OrderStatus, error)
	GetByName(ctx context.Context, companyID uint, name string) (*models.OrderStatus, error)
	Create(ctx context.Context, status *models.OrderStatus) error
	WithTx(tx *gorm.DB) *GormStatusCatalogRepository
}

// GormStatusCatalogRepository GORM 实现
type GormStatusCatalogRepository struct {
	db *gorm.DB
}

// NewStatusCatalogRepository 创建状态目录仓库
func NewStatusCatalogRepository(db *gorm.DB) *GormStatusCatalogRepository {
	return &GormStatusCatalogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStatusCatalogRepository) WithTx(tx *gorm.DB) *GormStatusCatalogRepository {
	if tx == nil {
		return r
	}
	return &GormStatusCatalogRepository{db: tx}
}

// ListByCompany 租户状态列表
func (r *GormStatusCatalogRepository) ListByCompany(ctx context.Context, companyID uint, activeOnly bool) ([]models.OrderStatus, error) {
	var rows []models.OrderStatus
	query := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("sort_order asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByName 按规范名称精确查找
func (r *GormStatusCatalogRepository) GetByName(ctx context.Context, companyID uint, name string) (*models.OrderStatus, error) {
	var row models.OrderStatus
	if err := r.db.WithContext(ctx).Where("company_id = ? AND name = ?", companyID, name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Create 新增状态
func (r *GormStatusCatalogRepository) Create(ctx context.Context, status *models.OrderStatus) error {
	return r.db.WithContext(ctx).Create(status).Error
}
