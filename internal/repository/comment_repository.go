package repository

import (
	"context"

	"github.com/printdesk-next/internal/models"

	"gorm.io/gorm"
)

// CommentRepository 订单评论数据访问接口
type CommentRepository interface {
	Create(ctx context.Context, comment *models.OrderComment) error
	ListByOrder(ctx context.Context, orderID uint) ([]models.OrderComment, error)
	WithTx(tx *gorm.DB) *GormCommentRepository
}

// GormCommentRepository GORM 实现
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository 创建评论仓库
func NewCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommentRepository) WithTx(tx *gorm.DB) *GormCommentRepository {
	if tx == nil {
		return r
	}
	return &GormCommentRepository{db: tx}
}

// Create 新增评论
func (r *GormCommentRepository) Create(ctx context.Context, comment *models.OrderComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListByOrder 评论列表（按时间正序）
func (r *GormCommentRepository) ListByOrder(ctx context.Context, orderID uint) ([]models.OrderComment, error) {
	var rows []models.OrderComment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).
		Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
