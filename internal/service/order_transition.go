package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/printdesk-next/internal/authz"
	"github.com/printdesk-next/internal/constants"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/models"
	"github.com/printdesk-next/internal/repository"

	"gorm.io/gorm"
)

// TransitionInput 流转动作载荷
type TransitionInput struct {
	Files    []FileRef
	Comment  string
	Feedback string
}

// TransitionResult 流转结果
type TransitionResult struct {
	Order          *models.Order              `json:"order"`
	History        *models.OrderStatusHistory `json:"history"`
	Attachments    []models.OrderAttachment   `json:"attachments,omitempty"`
	Comment        *models.OrderComment       `json:"comment,omitempty"`
	ArchivedCount  int64                      `json:"archived_count"`
	PreviousStatus string                     `json:"previous_status"`
}

// OrderWorkflowService 订单状态流转引擎
type OrderWorkflowService struct {
	orderRepo     repository.OrderRepository
	commentRepo   repository.CommentRepository
	historyRepo   repository.StatusHistoryRepository
	attachmentSvc *AttachmentService
	catalogSvc    *StatusCatalogService
	authorizer    ActionAuthorizer
	locker        OrderLocker
	notifier      StatusChangeNotifier
}

// NewOrderWorkflowService 创建流转引擎
func NewOrderWorkflowService(
	orderRepo repository.OrderRepository,
	commentRepo repository.CommentRepository,
	historyRepo repository.StatusHistoryRepository,
	attachmentSvc *AttachmentService,
	catalogSvc *StatusCatalogService,
	authorizer ActionAuthorizer,
	locker OrderLocker,
	notifier StatusChangeNotifier,
) *OrderWorkflowService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &OrderWorkflowService{
		orderRepo:     orderRepo,
		commentRepo:   commentRepo,
		historyRepo:   historyRepo,
		attachmentSvc: attachmentSvc,
		catalogSvc:    catalogSvc,
		authorizer:    authorizer,
		locker:        locker,
		notifier:      notifier,
	}
}

// Precheck 不加锁地校验一次流转请求（用于上传文件前快速失败）
func (s *OrderWorkflowService) Precheck(ctx context.Context, actor Actor, orderID uint, action string, input TransitionInput) error {
	_, _, err := s.precheck(ctx, actor, orderID, action, input, 0)
	return err
}

func (s *OrderWorkflowService) precheck(ctx context.Context, actor Actor, orderID uint, action string, input TransitionInput, pendingFiles int) (workflowRule, *models.Order, error) {
	rule, err := s.validateRequest(actor, action, input, pendingFiles)
	if err != nil {
		return workflowRule{}, nil, err
	}
	order, err := loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID)
	if err != nil {
		return workflowRule{}, nil, err
	}
	if err := checkFromStatus(rule, order.Status); err != nil {
		return workflowRule{}, nil, err
	}
	return rule, order, nil
}

// TransitionWithUploads 先预检，再上传文件，最后执行流转；流转失败时删除已上传对象
func (s *OrderWorkflowService) TransitionWithUploads(ctx context.Context, uploads *UploadService, actor Actor, orderID uint, action string, files []*multipart.FileHeader, input TransitionInput) (*TransitionResult, error) {
	if len(files) == 0 {
		return s.Transition(ctx, actor, orderID, action, input)
	}
	rule, order, err := s.precheck(ctx, actor, orderID, action, input, len(files))
	if err != nil {
		return nil, err
	}
	if rule.FileType == "" {
		return nil, ErrAttachmentNotAllowed
	}
	refs, err := uploads.StoreAll(ctx, order.CompanyID, order.ID, rule.FileType, files)
	if err != nil {
		return nil, err
	}
	input.Files = append(append([]FileRef(nil), input.Files...), refs...)
	result, err := s.Transition(ctx, actor, orderID, action, input)
	if err != nil {
		uploads.Delete(ctx, refs)
		return nil, err
	}
	return result, nil
}

// Transition 执行一次状态流转：校验、加锁、单事务写入、提交后通知
func (s *OrderWorkflowService) Transition(ctx context.Context, actor Actor, orderID uint, action string, input TransitionInput) (*TransitionResult, error) {
	rule, err := s.validateRequest(actor, action, input, 0)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkFromStatus(rule, order.Status); err != nil {
		return nil, err
	}
	if _, err := s.catalogSvc.Resolve(ctx, order.CompanyID, rule.To); err != nil {
		return nil, err
	}

	previous := order.Status
	result := &TransitionResult{PreviousStatus: previous}
	details := transitionDetails(rule, input)
	now := time.Now()

	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if rule.FileType != "" {
			rows, err := s.attachmentSvc.addFilesTx(ctx, tx, order.ID, rule.FileType, actor.UserID, input.Files)
			if err != nil {
				return err
			}
			result.Attachments = rows
		}
		if rule.ArchiveMockups {
			archived, err := s.attachmentSvc.ArchiveMockups(ctx, tx, order.ID)
			if err != nil {
				return err
			}
			result.ArchivedCount = archived
		}

		if content := transitionComment(rule, input); content != "" {
			comment := &models.OrderComment{OrderID: order.ID, UserID: actor.UserID, Content: content}
			if err := s.commentRepo.WithTx(tx).Create(ctx, comment); err != nil {
				return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
			}
			result.Comment = comment
		}

		prev := previous
		entry, err := AppendHistory(ctx, s.historyRepo.WithTx(tx), HistoryInput{
			OrderID:        order.ID,
			PreviousStatus: &prev,
			NewStatus:      rule.To,
			ActorID:        actor.UserID,
			Action:         rule.Action,
			ActionDetails:  details,
		})
		if err != nil {
			return err
		}
		result.History = entry

		updates := map[string]interface{}{"updated_at": now}
		if rule.ConfirmPayment {
			updates["payment_status"] = constants.PaymentStatusPaid
			updates["paid_amount"] = order.TotalPriceForeign
		}
		affected, err := s.orderRepo.WithTx(tx).UpdateStatusCAS(ctx, order.ID, previous, rule.To, updates)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOrderUpdateFailed, err)
		}
		if affected == 0 {
			return ErrConcurrentModification
		}
		return nil
	})
	if err != nil {
		logger.ForOrder(order.ID,
			"action", rule.Action,
			"from", previous,
			"to", rule.To,
			"actor_id", actor.UserID,
			"error", err,
		).Warnw("order_transition_failed")
		return nil, err
	}

	order.Status = rule.To
	order.UpdatedAt = now
	if rule.ConfirmPayment {
		order.PaymentStatus = constants.PaymentStatusPaid
		order.PaidAmount = order.TotalPriceForeign
	}
	result.Order = order

	logger.ForOrder(order.ID,
		"action", rule.Action,
		"from", previous,
		"to", rule.To,
		"actor_id", actor.UserID,
		"files", len(result.Attachments),
		"archived", result.ArchivedCount,
	).Infow("order_transition_committed")

	s.notifier.NotifyStatusChanged(ctx, StatusChangeEvent{
		OrderID:        order.ID,
		CompanyID:      order.CompanyID,
		PreviousStatus: previous,
		NewStatus:      rule.To,
		Action:         rule.Action,
		ActorID:        actor.UserID,
		OccurredAt:     now,
	})
	return result, nil
}

// AvailableActionsFor 操作人对订单当前可执行的动作
func (s *OrderWorkflowService) AvailableActionsFor(ctx context.Context, actor Actor, orderID uint) ([]string, error) {
	order, err := loadCompanyOrder(ctx, s.orderRepo, actor.CompanyID, orderID)
	if err != nil {
		return nil, err
	}
	actions := make([]string, 0, 2)
	for _, rule := range workflowRules {
		if !rule.allowsFrom(order.Status) {
			continue
		}
		if err := permits(s.authorizer, actor.Role, authz.ObjectOrder, rule.Action); err != nil {
			if errors.Is(err, ErrAuthzUnavailable) {
				return nil, err
			}
			continue
		}
		actions = append(actions, rule.Action)
	}
	return actions, nil
}

// validateRequest 校验动作、角色与载荷，不触碰存储
func (s *OrderWorkflowService) validateRequest(actor Actor, action string, input TransitionInput, pendingFiles int) (workflowRule, error) {
	if err := actor.Validate(); err != nil {
		return workflowRule{}, err
	}
	rule, ok := lookupRule(action)
	if !ok {
		return workflowRule{}, ErrUnknownAction
	}
	if err := permits(s.authorizer, actor.Role, authz.ObjectOrder, rule.Action); err != nil {
		return workflowRule{}, err
	}
	if rule.RequiresFiles && len(input.Files)+pendingFiles == 0 {
		return workflowRule{}, ErrFilesRequired
	}
	for _, ref := range input.Files {
		if strings.TrimSpace(ref.URL) == "" || strings.TrimSpace(ref.Name) == "" {
			return workflowRule{}, ErrFilesRequired
		}
	}
	if rule.RequiresComment && revisionFeedback(input) == "" {
		return workflowRule{}, ErrFeedbackRequired
	}
	return rule, nil
}

func checkFromStatus(rule workflowRule, status string) error {
	if !rule.allowsFrom(status) {
		return fmt.Errorf("%w: %s is not allowed from %q", ErrInvalidTransition, rule.Action, status)
	}
	return nil
}

func revisionFeedback(input TransitionInput) string {
	if feedback := strings.TrimSpace(input.Feedback); feedback != "" {
		return feedback
	}
	return strings.TrimSpace(input.Comment)
}

func transitionComment(rule workflowRule, input TransitionInput) string {
	if rule.RequiresComment {
		return revisionFeedback(input)
	}
	return strings.TrimSpace(input.Comment)
}

func transitionDetails(rule workflowRule, input TransitionInput) string {
	switch {
	case rule.RequiresFiles:
		return fmt.Sprintf("%s: %s", rule.Details, fileNames(input.Files))
	case rule.RequiresComment:
		return fmt.Sprintf("%s: %s", rule.Details, revisionFeedback(input))
	default:
		return rule.Details
	}
}
