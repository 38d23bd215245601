package repository

import (
	"context"
	"errors"

	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/models"

	"gorm.io/gorm"
)

// QuotationRepository 报价单数据访问接口
type QuotationRepository interface {
	Create(ctx context.Context, quotation *models.Quotation, items []models.QuotationItem) error
	GetByID(ctx context.Context, id uint) (*models.Quotation, error)
	GetByIDForCompany(ctx context.Context, companyID, id uint) (*models.Quotation, error)
	List(ctx context.Context, filter QuotationListFilter) ([]models.Quotation, int64, error)
	UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error
	MarkConverted(ctx context.Context, id, orderID uint) (int64, error)
	ReplaceItems(ctx context.Context, quotationID uint, items []models.QuotationItem) error
	WithTx(tx *gorm.DB) *GormQuotationRepository
}

// GormQuotationRepository GORM 实现
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewQuotationRepository 创建报价单仓库
func NewQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormQuotationRepository) WithTx(tx *gorm.DB) *GormQuotationRepository {
	if tx == nil {
		return r
	}
	return &GormQuotationRepository{db: tx}
}

// Create 创建报价单与报价项
func (r *GormQuotationRepository) Create(ctx context.Context, quotation *models.Quotation, items []models.QuotationItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Items").Create(quotation).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].QuotationID = quotation.ID
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return err
		}
	}
	quotation.Items = items
	return nil
}

// GetByID 根据 ID 获取报价单
func (r *GormQuotationRepository) GetByID(ctx context.Context, id uint) (*models.Quotation, error) {
	var row models.Quotation
	query := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	})
	if err := query.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetByIDForCompany 获取指定租户下的报价单
func (r *GormQuotationRepository) GetByIDForCompany(ctx context.Context, companyID, id uint) (*models.Quotation, error) {
	var row models.Quotation
	query := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	})
	if err := query.Where("id = ? AND company_id = ?", id, companyID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// List 报价单列表
func (r *GormQuotationRepository) List(ctx context.Context, filter QuotationListFilter) ([]models.Quotation, int64, error) {
	var rows []models.Quotation
	query := r.db.WithContext(ctx).Model(&models.Quotation{})
	if filter.CompanyID != 0 {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	query = applyKeyword(query, filter.Keyword, "quotation_no", "client_name", "email")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Items").Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateFields 更新报价单字段
func (r *GormQuotationRepository) UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Quotation{}).Where("id = ?", id).Updates(updates).Error
}

// MarkConverted 仅草稿状态可标记为已转换，返回受影响行数
func (r *GormQuotationRepository) MarkConverted(ctx context.Context, id, orderID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Quotation{}).
		Where("id = ? AND converted_order_id IS NULL", id).
		Updates(map[string]interface{}{
			"status":             constants.QuotationStatusConverted,
			"converted_order_id": orderID,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReplaceItems 整体替换报价项
func (r *GormQuotationRepository) ReplaceItems(ctx context.Context, quotationID uint, items []models.QuotationItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("quotation_id = ?", quotationID).Delete(&models.QuotationItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].QuotationID = quotationID
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}
