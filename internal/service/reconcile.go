package service

import (
	"context"
	"fmt"

	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/repository"

	"gorm.io/gorm"
)

// ReconcileReport 单个订单巡检结果
type ReconcileReport struct {
	OrderID         uint   `json:"order_id"`
	Status          string `json:"status"`
	ArchivedMockups int64  `json:"archived_mockups"`
	HistoryInSync   bool   `json:"history_in_sync"`
}

// ReconcileService 订单一致性巡检（补偿修订流程中遗留的设计稿）
type ReconcileService struct {
	orderRepo     repository.OrderRepository
	historyRepo   repository.StatusHistoryRepository
	attachmentSvc *AttachmentService
	locker        OrderLocker
}

// NewReconcileService 创建巡检服务
func NewReconcileService(orderRepo repository.OrderRepository, historyRepo repository.StatusHistoryRepository, attachmentSvc *AttachmentService, locker OrderLocker) *ReconcileService {
	return &ReconcileService{
		orderRepo:     orderRepo,
		historyRepo:   historyRepo,
		attachmentSvc: attachmentSvc,
		locker:        locker,
	}
}

// ReconcileOrder 校验单个订单：修订中的订单不应保留当前设计稿，最新历史须与订单状态一致
func (s *ReconcileService) ReconcileOrder(ctx context.Context, orderID uint) (*ReconcileReport, error) {
	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := loadCompanyOrder(ctx, s.orderRepo, 0, orderID)
	if err != nil {
		return nil, err
	}
	report := &ReconcileReport{OrderID: order.ID, Status: order.Status, HistoryInSync: true}

	if order.Status == constants.OrderStatusDesignRevision {
		revision, err := s.historyRepo.LatestByAction(ctx, order.ID, constants.ActionRequestRevision)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
		}
		if revision != nil {
			err := models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				archived, err := s.attachmentSvc.ArchiveMockupsCreatedBefore(ctx, tx, order.ID, revision.CreatedAt)
				if err != nil {
					return err
				}
				report.ArchivedMockups = archived
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
		if report.ArchivedMockups > 0 {
			logger.ForOrder(order.ID, "archived", report.ArchivedMockups).Warnw("order_reconcile_archived_mockups")
		}
	}

	latest, err := s.historyRepo.Latest(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if latest == nil || latest.NewStatus != order.Status {
		report.HistoryInSync = false
		recorded := ""
		if latest != nil {
			recorded = latest.NewStatus
		}
		logger.ForOrder(order.ID, "status", order.Status, "history_status", recorded).Errorw("order_history_out_of_sync")
		return report, ErrHistoryOutOfSync
	}
	return report, nil
}

// ReconcileDesignRevisions 巡检处于设计修订状态的订单，返回归档的设计稿总数
func (s *ReconcileService) ReconcileDesignRevisions(ctx context.Context, batchSize int) (int64, error) {
	ids, err := s.orderRepo.ListIDsByStatus(ctx, constants.OrderStatusDesignRevision, batchSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	var archived int64
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return archived, err
		}
		report, err := s.ReconcileOrder(ctx, id)
		if report != nil {
			archived += report.ArchivedMockups
		}
		if err != nil {
			logger.ForOrder(id, "error", err).Warnw("order_reconcile_failed")
		}
	}
	return archived, nil
}
