package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/queue"
)

type recordingNotifier struct {
	events []StatusChangeEvent
}

func (r *recordingNotifier) NotifyStatusChanged(_ context.Context, event StatusChangeEvent) {
	r.events = append(r.events, event)
}

func TestTransitionNotifiesAfterCommit(t *testing.T) {
	f := setupServiceFixture(t, nil)
	recorder := &recordingNotifier{}
	f.workflow.notifier = recorder
	order := f.createOrder(t, true)

	f.transition(t, order.ID, constants.RoleDesigner, constants.ActionStartDesign, TransitionInput{})
	if _, err := f.workflow.Transition(context.Background(), f.actor(constants.RoleDesigner), order.ID, constants.ActionStartDesign, TransitionInput{}); err == nil {
		t.Fatalf("expected repeated transition to fail")
	}
	if len(recorder.events) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(recorder.events))
	}
	event := recorder.events[0]
	if event.PreviousStatus != constants.OrderStatusReadyForDesign || event.NewStatus != constants.OrderStatusInDesign || event.Action != constants.ActionStartDesign {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestHandleStatusChangedWithoutCache(t *testing.T) {
	f := setupServiceFixture(t, nil)
	order := f.createOrder(t, true)
	svc := NewNotificationService(f.orderRepo, nil, time.Minute)

	payload := queue.OrderStatusChangedPayload{OrderID: order.ID, NewStatus: order.Status, Action: constants.ActionCreate}
	if err := svc.HandleStatusChanged(context.Background(), payload); err != nil {
		t.Fatalf("HandleStatusChanged error: %v", err)
	}
	payload.OrderID = 9999
	if err := svc.HandleStatusChanged(context.Background(), payload); err != nil {
		t.Fatalf("missing order should be skipped, got %v", err)
	}
}

func TestNextRolesAndWorkQueues(t *testing.T) {
	if got := NextRoles(constants.OrderStatusDesignApproval); !reflect.DeepEqual(got, []string{constants.RoleSales, constants.RoleAdmin}) {
		t.Fatalf("unexpected next roles: %v", got)
	}
	if got := NextRoles(constants.OrderStatusDelivered); len(got) != 0 {
		t.Fatalf("delivered should have no next roles: %v", got)
	}
	if got := WorkQueueStatuses(constants.RoleAdmin); len(got) != len(constants.OrderStatusCatalog())-1 {
		t.Fatalf("unexpected admin queue: %v", got)
	}
	if got := AvailableActions(constants.OrderStatusReadyForPickup, constants.RoleDesigner); !reflect.DeepEqual(got, []string{constants.ActionMarkDelivered}) {
		t.Fatalf("unexpected actions: %v", got)
	}
	if InitialStatus(false) != constants.OrderStatusPendingPayment {
		t.Fatalf("unexpected initial status")
	}
}
