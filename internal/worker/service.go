package worker

import (
	"context"
	"errors"
	"time"

	"github.com/printdesk-next/internal/config"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列与后台巡检服务
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	consumer  *Consumer
	interval  time.Duration
	batchSize int
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewService 创建后台服务，队列未启用时仅运行巡检循环
func NewService(queueCfg *config.QueueConfig, orderCfg config.OrderConfig, consumer *Consumer) (*Service, error) {
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	svc := &Service{
		name:      "worker",
		consumer:  consumer,
		interval:  orderCfg.ReconcileInterval(),
		batchSize: orderCfg.ReconcileBatchSize,
	}
	if queueCfg != nil && queueCfg.Enabled {
		opt, serverCfg := queue.BuildServerConfig(queueCfg)
		svc.server = asynq.NewServer(opt, serverCfg)
		svc.mux = asynq.NewServeMux()
		consumer.Register(svc.mux)
	}
	return svc, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("worker not initialized")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.runReconcileLoop(loopCtx)
	}()

	if s.server == nil {
		logger.Infow("worker_queue_disabled_reconcile_only", "interval", s.interval.String())
		<-loopCtx.Done()
		return nil
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.server != nil {
		s.server.Shutdown()
	}
	if s.done != nil {
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Service) runReconcileLoop(ctx context.Context) {
	if s == nil || s.consumer == nil {
		return
	}
	interval := s.interval
	if interval <= 0 {
		interval = time.Minute
	}
	s.consumer.reconcileOnce(ctx, s.batchSize)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.consumer.reconcileOnce(ctx, s.batchSize)
		}
	}
}
