package main

import (
	"time"

	"github.com/printdesk-next/internal/config"
	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, gormlogger.Warn); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	company, err := models.SeedDefaultCompany(models.SeedOptions{
		CompanyName:      cfg.Seed.CompanyName,
		BaseCurrencyCode: cfg.Seed.BaseCurrencyCode,
		AdminUserID:      cfg.Seed.AdminUserID,
	})
	if err != nil {
		stdLog.Fatalf("Failed to seed company: %v", err)
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		// 外币与汇率
		rates := map[string]string{"USD": "0.27229408", "EUR": "0.24937656"}
		symbols := map[string]string{"USD": "$", "EUR": "€"}
		for code, rate := range rates {
			currency := models.Currency{CompanyID: company.ID, Code: code}
			if err := tx.Where(currency).Attrs(models.Currency{Symbol: symbols[code]}).FirstOrCreate(&currency).Error; err != nil {
				return err
			}
			row := models.ExchangeRate{
				CompanyID:   company.ID,
				CurrencyID:  currency.ID,
				Rate:        decimal.RequireFromString(rate),
				EffectiveAt: time.Now(),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		// 价格档位
		tiers := []models.PricingTier{
			{CompanyID: company.ID, Name: "Retail", MarkupPercent: decimal.NewFromInt(30)},
			{CompanyID: company.ID, Name: "Agency", MarkupPercent: decimal.NewFromInt(15)},
			{CompanyID: company.ID, Name: "Wholesale", MarkupPercent: decimal.Zero},
		}
		for i := range tiers {
			if err := tx.Where(models.PricingTier{CompanyID: company.ID, Name: tiers[i].Name}).
				Attrs(tiers[i]).FirstOrCreate(&tiers[i]).Error; err != nil {
				return err
			}
		}

		// 商品
		products := []models.Product{
			{Name: "Business Cards (100 pcs)", SKU: "BC-100", BaseUnitPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(45))},
			{Name: "A5 Flyers (500 pcs)", SKU: "FL-A5-500", BaseUnitPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(180))},
			{Name: "Roll-up Banner 85x200", SKU: "RB-85", BaseUnitPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(250))},
			{Name: "Vinyl Sticker Sheet", SKU: "ST-V1", BaseUnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("12.5"))},
		}
		for i := range products {
			products[i].CompanyID = company.ID
			products[i].IsActive = true
			if err := tx.Where(models.Product{CompanyID: company.ID, SKU: products[i].SKU}).
				Attrs(products[i]).FirstOrCreate(&products[i]).Error; err != nil {
				return err
			}
		}

		// 客户
		client := models.Client{CompanyID: company.ID, Name: "Desert Events LLC"}
		if err := tx.Where(client).Attrs(models.Client{
			Email:         "orders@desert-events.example",
			Phone:         "+971500000000",
			PricingTierID: &tiers[1].ID,
		}).FirstOrCreate(&client).Error; err != nil {
			return err
		}

		// 员工档案
		staff := map[string]string{
			"demo-sales":      constants.RoleSales,
			"demo-designer":   constants.RoleDesigner,
			"demo-accountant": constants.RoleAccountant,
			"demo-production": constants.RoleProduction,
		}
		for userID, role := range staff {
			profile := models.Profile{UserID: userID}
			if err := tx.Where(profile).Attrs(models.Profile{
				CompanyID: company.ID,
				Role:      role,
				FullName:  userID,
				IsActive:  true,
			}).FirstOrCreate(&profile).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		stdLog.Fatalf("Failed to seed demo data: %v", err)
	}

	logger.Infow("seed_demo_data_done", "company_id", company.ID)
}
