package repository

import (
	"context"
	"errors"

	"github.com/printdesk-next/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository 用户档案与客户数据访问接口
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetClient(ctx context.Context, companyID, clientID uint) (*models.Client, error)
}

// GormProfileRepository GORM 实现
type GormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建档案仓库
func NewProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// GetByUserID 根据身份标识获取档案
func (r *GormProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var row models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetClient 获取租户客户
func (r *GormProfileRepository) GetClient(ctx context.Context, companyID, clientID uint) (*models.Client, error) {
	var row models.Client
	if err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", clientID, companyID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
