package worker

import (
	"context"
	"errors"

	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/provider"
	"github.com/printdesk-next/internal/queue"
	"github.com/printdesk-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusChanged, c.handleOrderStatusChanged)
}

func (c *Consumer) handleOrderStatusChanged(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_order_status_changed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseOrderStatusChangedPayload(task)
	if err != nil {
		logger.Warnw("worker_order_status_changed_unmarshal_failed", "error", err)
		// 载荷损坏时重试无意义
		return errors.Join(err, asynq.SkipRetry)
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_changed_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_order_status_changed_no_notifier", "order_id", payload.OrderID)
		return nil
	}
	if err := c.NotificationService.HandleStatusChanged(ctx, payload); err != nil {
		logger.Warnw("worker_order_status_changed_failed",
			"order_id", payload.OrderID,
			"new_status", payload.NewStatus,
			"error", err,
		)
		return err
	}
	return nil
}

// reconcileOnce 执行一次设计返工巡检
func (c *Consumer) reconcileOnce(ctx context.Context, batchSize int) {
	if c == nil || c.Container == nil || c.ReconcileService == nil {
		return
	}
	archived, err := c.ReconcileService.ReconcileDesignRevisions(ctx, batchSize)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Warnw("worker_reconcile_failed", "error", err, "kind", service.KindOf(err))
		return
	}
	if archived > 0 {
		logger.Infow("worker_reconcile_done", "archived_mockups", archived)
	}
}
