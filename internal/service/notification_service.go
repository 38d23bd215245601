package service

import (
	"context"
	"fmt"
	"time"

	"github.com/printdesk-next/internal/cache"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/queue"
	"github.com/printdesk-next/internal/repository"
)

// StatusChangeEvent 订单状态变更事件
type StatusChangeEvent struct {
	OrderID        uint
	CompanyID      uint
	PreviousStatus string
	NewStatus      string
	Action         string
	ActorID        string
	OccurredAt     time.Time
}

// StatusChangeNotifier 状态变更通知出口
type StatusChangeNotifier interface {
	NotifyStatusChanged(ctx context.Context, event StatusChangeEvent)
}

// NotificationService 状态变更通知：入队异步任务，队列未启用时同步处理
type NotificationService struct {
	orderRepo   repository.OrderRepository
	queueClient *queue.Client
	summaryTTL  time.Duration
}

// NewNotificationService 创建通知服务
func NewNotificationService(orderRepo repository.OrderRepository, queueClient *queue.Client, summaryTTL time.Duration) *NotificationService {
	return &NotificationService{
		orderRepo:   orderRepo,
		queueClient: queueClient,
		summaryTTL:  summaryTTL,
	}
}

// NotifyStatusChanged 事务提交后调用，失败只记录日志
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, event StatusChangeEvent) {
	if s == nil || event.OrderID == 0 {
		return
	}
	payload := queue.OrderStatusChangedPayload{
		OrderID:        event.OrderID,
		CompanyID:      event.CompanyID,
		PreviousStatus: event.PreviousStatus,
		NewStatus:      event.NewStatus,
		Action:         event.Action,
		ActorID:        event.ActorID,
		OccurredAt:     event.OccurredAt.Unix(),
	}
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderStatusChanged(payload); err != nil {
			logger.Warnw("order_enqueue_status_changed_failed",
				"order_id", event.OrderID,
				"status", event.NewStatus,
				"error", err,
			)
		}
		return
	}
	if err := s.HandleStatusChanged(ctx, payload); err != nil {
		logger.Warnw("order_status_notification_failed",
			"order_id", event.OrderID,
			"status", event.NewStatus,
			"error", err,
		)
	}
}

// HandleStatusChanged 刷新订单概要缓存并通知下一步负责角色
func (s *NotificationService) HandleStatusChanged(ctx context.Context, payload queue.OrderStatusChangedPayload) error {
	order, err := s.orderRepo.GetByID(ctx, payload.OrderID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if order == nil {
		logger.Warnw("order_status_notification_order_missing", "order_id", payload.OrderID)
		return nil
	}

	nextRoles := NextRoles(order.Status)
	summary := &cache.OrderSummary{
		OrderID:       order.ID,
		CompanyID:     order.CompanyID,
		DisplayNo:     order.DisplayNo(),
		ClientName:    order.ClientName,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalForeign:  order.TotalPriceForeign.String(),
		NextRoles:     nextRoles,
		UpdatedAt:     order.UpdatedAt.Unix(),
	}
	if err := cache.SetOrderSummary(ctx, summary, s.summaryTTL); err != nil {
		logger.Warnw("order_summary_cache_set_failed", "order_id", order.ID, "error", err)
	}

	logger.ForOrder(order.ID,
		"order_no", order.DisplayNo(),
		"company_id", order.CompanyID,
		"previous_status", payload.PreviousStatus,
		"status", order.Status,
		"action", payload.Action,
		"actor_id", payload.ActorID,
		"notify_roles", nextRoles,
	).Infow("order_status_notification")
	return nil
}

// noopNotifier 不发送通知
type noopNotifier struct{}

func (noopNotifier) NotifyStatusChanged(context.Context, StatusChangeEvent) {}
