package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/repository"

	"gorm.io/gorm"
)

// StatusCatalogService 租户订单状态目录
type StatusCatalogService struct {
	catalogRepo repository.StatusCatalogRepository
}

// NewStatusCatalogService 创建状态目录服务
func NewStatusCatalogService(catalogRepo repository.StatusCatalogRepository) *StatusCatalogService {
	return &StatusCatalogService{catalogRepo: catalogRepo}
}

// EnsureDefaults 补齐租户缺失的内置状态
func (s *StatusCatalogService) EnsureDefaults(ctx context.Context, companyID uint) error {
	if companyID == 0 {
		return ErrInvalidActor
	}
	err := models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return models.SeedStatusCatalog(tx, companyID)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
	}
	return nil
}

// List 租户状态列表（按排序）
func (s *StatusCatalogService) List(ctx context.Context, companyID uint) ([]models.OrderStatus, error) {
	rows, err := s.catalogRepo.ListByCompany(ctx, companyID, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if len(rows) > 0 {
		return rows, nil
	}
	if err := s.EnsureDefaults(ctx, companyID); err != nil {
		return nil, err
	}
	rows, err = s.catalogRepo.ListByCompany(ctx, companyID, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	return rows, nil
}

// Resolve 按规范名称精确匹配启用状态
func (s *StatusCatalogService) Resolve(ctx context.Context, companyID uint, name string) (*models.OrderStatus, error) {
	if name == "" {
		return nil, ErrStatusNameRequired
	}
	rows, err := s.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Name == name && rows[i].IsActive {
			return &rows[i], nil
		}
	}
	return nil, ErrStatusNotFound
}

// ResolveFilter 列表筛选时大小写不敏感地解析为规范名称
func (s *StatusCatalogService) ResolveFilter(ctx context.Context, companyID uint, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrStatusNameRequired
	}
	rows, err := s.List(ctx, companyID)
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		if strings.EqualFold(row.Name, trimmed) {
			return row.Name, nil
		}
	}
	return "", ErrStatusFilterInvalid
}
