package queue

import (
	"encoding/json"
	"fmt"

	"github.com/printdesk-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusChanged 订单状态变更通知任务
	TaskOrderStatusChanged = constants.TaskOrderStatusChanged
)

// OrderStatusChangedPayload 订单状态变更任务载荷
type OrderStatusChangedPayload struct {
	OrderID        uint   `json:"order_id"`
	CompanyID      uint   `json:"company_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Action         string `json:"action"`
	ActorID        string `json:"actor_id"`
	OccurredAt     int64  `json:"occurred_at"`
}

// NewOrderStatusChangedTask 创建订单状态变更任务
func NewOrderStatusChangedTask(payload OrderStatusChangedPayload) (*asynq.Task, error) {
	if payload.OrderID == 0 {
		return nil, fmt.Errorf("order id is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusChanged, body), nil
}

// ParseOrderStatusChangedPayload 解析订单状态变更任务载荷
func ParseOrderStatusChangedPayload(task *asynq.Task) (OrderStatusChangedPayload, error) {
	var payload OrderStatusChangedPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
