package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/repository"
)

// HistoryInput 追加历史参数
type HistoryInput struct {
	OrderID        uint
	PreviousStatus *string
	NewStatus      string
	ActorID        string
	Action         string
	ActionDetails  string
}

// HistoryWithDuration 带停留时长的历史条目
type HistoryWithDuration struct {
	models.OrderStatusHistory
	Duration        time.Duration `json:"-"`
	DurationSeconds int64         `json:"duration_seconds"`
	IsCurrent       bool          `json:"is_current"`
}

// HistoryService 状态历史服务
type HistoryService struct {
	historyRepo repository.StatusHistoryRepository
	orderRepo   repository.OrderRepository
	now         func() time.Time
}

// NewHistoryService 创建历史服务
func NewHistoryService(historyRepo repository.StatusHistoryRepository, orderRepo repository.OrderRepository) *HistoryService {
	return &HistoryService{
		historyRepo: historyRepo,
		orderRepo:   orderRepo,
		now:         time.Now,
	}
}

// AppendHistory 追加一条历史，动作说明在写入时一次确定
func AppendHistory(ctx context.Context, repo repository.StatusHistoryRepository, input HistoryInput) (*models.OrderStatusHistory, error) {
	if input.OrderID == 0 || input.NewStatus == "" {
		return nil, ErrValidationFailed
	}
	entry := &models.OrderStatusHistory{
		OrderID:        input.OrderID,
		PreviousStatus: input.PreviousStatus,
		NewStatus:      input.NewStatus,
		ChangedBy:      input.ActorID,
		Action:         input.Action,
		ActionDetails:  input.ActionDetails,
	}
	if err := repo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistoryFailed, err)
	}
	return entry, nil
}

// ComputeDurations 计算每个状态的停留时长，最后一条计算到 now
func ComputeDurations(entries []models.OrderStatusHistory, now time.Time) []HistoryWithDuration {
	sorted := make([]models.OrderStatusHistory, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	result := make([]HistoryWithDuration, len(sorted))
	for i, entry := range sorted {
		end := now
		if i+1 < len(sorted) {
			end = sorted[i+1].CreatedAt
		}
		duration := end.Sub(entry.CreatedAt)
		if duration < 0 {
			duration = 0
		}
		result[i] = HistoryWithDuration{
			OrderStatusHistory: entry,
			Duration:           duration,
			DurationSeconds:    int64(duration / time.Second),
			IsCurrent:          i == len(sorted)-1,
		}
	}
	return result
}

// ListHistory 订单历史（含停留时长）
func (s *HistoryService) ListHistory(ctx context.Context, actor Actor, orderID uint) ([]HistoryWithDuration, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if _, err := loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID); err != nil {
		return nil, err
	}
	entries, err := s.historyRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	return ComputeDurations(entries, s.now()), nil
}

// loadCompanyOrder 加载租户订单；companyID 为 0 时不限制租户
func loadCompanyOrder(ctx context.Context, repo repository.OrderRepository, companyID, orderID uint) (*models.Order, error) {
	var order *models.Order
	var err error
	if companyID == 0 {
		order, err = repo.GetByID(ctx, orderID)
	} else {
		order, err = repo.GetByIDForCompany(ctx, companyID, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
