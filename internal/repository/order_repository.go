package repository

import (
	"context"
	"errors"

	"github.com/printdesk-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByIDForCompany(ctx context.Context, companyID, id uint) (*models.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]models.Order, int64, error)
	ListIDsByStatus(ctx context.Context, status string, limit int) ([]uint, error)
	UpdateStatusCAS(ctx context.Context, id uint, expected, next string, updates map[string]interface{}) (int64, error)
	UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error
	ReplaceItems(ctx context.Context, orderID uint, items []models.OrderItem) error
	Delete(ctx context.Context, id uint) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Items", "Attachments", "Comments", "History").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

// GetByID 根据 ID 获取订单（含订单项）
func (r *GormOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	query := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	})
	if err := query.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForCompany 获取指定租户下的订单
func (r *GormOrderRepository) GetByIDForCompany(ctx context.Context, companyID, id uint) (*models.Order, error) {
	var order models.Order
	query := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id asc")
	})
	if err := query.Where("id = ? AND company_id = ?", id, companyID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 订单列表
func (r *GormOrderRepository) List(ctx context.Context, filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filter.CompanyID != 0 {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	query = applyKeyword(query, filter.Keyword, "order_no", "client_name", "email")
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListIDsByStatus 按状态列出订单 ID（供后台巡检）
func (r *GormOrderRepository) ListIDsByStatus(ctx context.Context, status string, limit int) ([]uint, error) {
	var ids []uint
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("status = ?", status).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateStatusCAS 仅当当前状态等于 expected 时更新状态，返回受影响行数
func (r *GormOrderRepository) UpdateStatusCAS(ctx context.Context, id uint, expected, next string, updates map[string]interface{}) (int64, error) {
	values := make(map[string]interface{}, len(updates)+1)
	for key, value := range updates {
		values[key] = value
	}
	values["status"] = next
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateFields 更新订单字段
func (r *GormOrderRepository) UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// ReplaceItems 整体替换订单项
func (r *GormOrderRepository) ReplaceItems(ctx context.Context, orderID uint, items []models.OrderItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ID = 0
		items[i].OrderID = orderID
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}

// Delete 删除订单及其全部从属记录
func (r *GormOrderRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	owned := []interface{}{
		&models.OrderItem{},
		&models.OrderAttachment{},
		&models.OrderComment{},
		&models.OrderStatusHistory{},
	}
	for _, model := range owned {
		if err := db.Where("order_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	return db.Delete(&models.Order{}, id).Error
}
