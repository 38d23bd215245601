package models

import (
	"errors"
	"time"

	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedOptions 初始化数据参数
type SeedOptions struct {
	CompanyName      string
	BaseCurrencyCode string
	AdminUserID      string
}

// SeedDefaultCompany 初始化默认租户、本位币、状态目录与管理员档案（幂等）
func SeedDefaultCompany(opts SeedOptions) (*Company, error) {
	if opts.CompanyName == "" {
		opts.CompanyName = "Default Print Shop"
	}
	if opts.BaseCurrencyCode == "" {
		opts.BaseCurrencyCode = "USD"
	}

	var company Company
	err := DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("id asc").First(&company).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			company = Company{Name: opts.CompanyName}
			if err := tx.Create(&company).Error; err != nil {
				return err
			}
			logger.Infow("default_company_created", "company_id", company.ID, "name", company.Name)
		}

		if company.BaseCurrencyID == nil {
			currency := Currency{CompanyID: company.ID, Code: opts.BaseCurrencyCode, IsBase: true}
			if err := tx.Create(&currency).Error; err != nil {
				return err
			}
			rate := ExchangeRate{
				CompanyID:   company.ID,
				CurrencyID:  currency.ID,
				Rate:        decimal.NewFromInt(1),
				EffectiveAt: time.Now(),
			}
			if err := tx.Create(&rate).Error; err != nil {
				return err
			}
			if err := tx.Model(&company).Update("base_currency_id", currency.ID).Error; err != nil {
				return err
			}
			company.BaseCurrencyID = &currency.ID
		}

		if err := SeedStatusCatalog(tx, company.ID); err != nil {
			return err
		}

		if opts.AdminUserID != "" {
			var count int64
			if err := tx.Model(&Profile{}).Where("user_id = ?", opts.AdminUserID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				profile := Profile{
					UserID:    opts.AdminUserID,
					CompanyID: company.ID,
					Role:      constants.RoleAdmin,
					FullName:  "Administrator",
					IsActive:  true,
				}
				if err := tx.Create(&profile).Error; err != nil {
					return err
				}
				logger.Warnw("default_admin_profile_created", "user_id", opts.AdminUserID, "company_id", company.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// SeedStatusCatalog 补齐租户缺失的内置状态
func SeedStatusCatalog(tx *gorm.DB, companyID uint) error {
	var existing []OrderStatus
	if err := tx.Where("company_id = ?", companyID).Find(&existing).Error; err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		seen[row.Name] = struct{}{}
	}
	for idx, name := range constants.OrderStatusCatalog() {
		if _, ok := seen[name]; ok {
			continue
		}
		row := OrderStatus{
			CompanyID: companyID,
			Name:      name,
			SortOrder: (idx + 1) * 10,
			IsActive:  true,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
