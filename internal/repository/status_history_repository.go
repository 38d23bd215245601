package repository

import (
	"context"
	"errors"

	"github.com/printdesk-next/internal/models"

	"gorm.io/gorm"
)

// StatusHistoryRepository 订单状态历史数据访问接口
type StatusHistoryRepository interface {
	Append(ctx context.Context, entry *models.OrderStatusHistory) error
	ListByOrder(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error)
	Latest(ctx context.Context, orderID uint) (*models.OrderStatusHistory, error)
	LatestByAction(ctx context.Context, orderID uint, action string) (*models.OrderStatusHistory, error)
	WithTx(tx *gorm.DB) *GormStatusHistoryRepository
}

// GormStatusHistoryRepository GORM 实现
type GormStatusHistoryRepository struct {
	db *gorm.DB
}

// NewStatusHistoryRepository 创建状态历史仓库
func NewStatusHistoryRepository(db *gorm.DB) *GormStatusHistoryRepository {
	return &GormStatusHistoryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStatusHistoryRepository) WithTx(tx *gorm.DB) *GormStatusHistoryRepository {
	if tx == nil {
		return r
	}
	return &GormStatusHistoryRepository{db: tx}
}

// Append 追加历史（只插入，不更新）
func (r *GormStatusHistoryRepository) Append(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByOrder 历史列表（按创建时间与 ID 正序）
func (r *GormStatusHistoryRepository) ListByOrder(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).
		Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Latest 最新一条历史
func (r *GormStatusHistoryRepository) Latest(ctx context.Context, orderID uint) (*models.OrderStatusHistory, error) {
	var row models.OrderStatusHistory
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).
		Order("created_at desc, id desc").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// LatestByAction 指定动作的最新一条历史
func (r *GormStatusHistoryRepository) LatestByAction(ctx context.Context, orderID uint, action string) (*models.OrderStatusHistory, error) {
	var row models.OrderStatusHistory
	if err := r.db.WithContext(ctx).Where("order_id = ? AND action = ?", orderID, action).
		Order("created_at desc, id desc").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
