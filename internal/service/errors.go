package service

import "errors"

// ErrorKind 错误分类
type ErrorKind string

const (
	KindUnknown                ErrorKind = "unknown"
	KindInvalidTransition      ErrorKind = "invalid_transition"
	KindValidationFailed       ErrorKind = "validation_failed"
	KindConcurrentModification ErrorKind = "concurrent_modification"
	KindDependencyFailure      ErrorKind = "dependency_failure"
	KindNotFound               ErrorKind = "not_found"
)

// 工作流错误
var (
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrTransitionForbidden    = &wrappedError{msg: "role is not allowed to perform this action", base: ErrInvalidTransition}
	ErrUnknownAction          = &wrappedError{msg: "unknown workflow action", base: ErrInvalidTransition}
	ErrConcurrentModification = errors.New("order was modified concurrently")
)

// 校验错误
var (
	ErrValidationFailed     = errors.New("validation failed")
	ErrInvalidActor         = &wrappedError{msg: "actor is invalid", base: ErrValidationFailed}
	ErrInvalidRate          = &wrappedError{msg: "exchange rate must be positive", base: ErrValidationFailed}
	ErrInvalidMarkup        = &wrappedError{msg: "markup percent must not be negative", base: ErrValidationFailed}
	ErrInvalidQuantity      = &wrappedError{msg: "quantity must be at least 1", base: ErrValidationFailed}
	ErrItemsRequired        = &wrappedError{msg: "at least one line item is required", base: ErrValidationFailed}
	ErrClientNameRequired   = &wrappedError{msg: "client name is required", base: ErrValidationFailed}
	ErrFilesRequired        = &wrappedError{msg: "at least one file is required", base: ErrValidationFailed}
	ErrFeedbackRequired     = &wrappedError{msg: "revision feedback is required", base: ErrValidationFailed}
	ErrInvalidFileType      = &wrappedError{msg: "file type is invalid", base: ErrValidationFailed}
	ErrFileTooLarge         = &wrappedError{msg: "file exceeds size limit", base: ErrValidationFailed}
	ErrFileExtension        = &wrappedError{msg: "file extension is not allowed", base: ErrValidationFailed}
	ErrTooManyFiles         = &wrappedError{msg: "too many files", base: ErrValidationFailed}
	ErrOrderItemsLocked     = &wrappedError{msg: "order items can no longer be edited", base: ErrValidationFailed}
	ErrInvalidPayment       = &wrappedError{msg: "payment amount must be positive", base: ErrValidationFailed}
	ErrProductNotFound      = &wrappedError{msg: "product not found", base: ErrValidationFailed}
	ErrCurrencyNotFound     = &wrappedError{msg: "currency not found", base: ErrValidationFailed}
	ErrExchangeRateMissing  = &wrappedError{msg: "exchange rate is not configured", base: ErrValidationFailed}
	ErrPricingTierNotFound  = &wrappedError{msg: "pricing tier not found", base: ErrValidationFailed}
	ErrClientNotFound       = &wrappedError{msg: "client not found", base: ErrValidationFailed}
	ErrQuotationConverted   = &wrappedError{msg: "quotation already converted", base: ErrValidationFailed}
	ErrQuotationExpired     = &wrappedError{msg: "quotation has expired", base: ErrValidationFailed}
	ErrStatusFilterInvalid  = &wrappedError{msg: "status filter is invalid", base: ErrValidationFailed}
	ErrNoPricingChange      = &wrappedError{msg: "no pricing change requested", base: ErrValidationFailed}
	ErrPaymentExceedsTotal  = &wrappedError{msg: "payment exceeds order total", base: ErrValidationFailed}
	ErrStatusNameRequired   = &wrappedError{msg: "status name is required", base: ErrValidationFailed}
	ErrAttachmentNotAllowed = &wrappedError{msg: "archived mockups cannot be added directly", base: ErrValidationFailed}
	ErrPolicyInvalid        = &wrappedError{msg: "role policy is invalid", base: ErrValidationFailed}
	ErrTotalBelowPaid       = &wrappedError{msg: "order total cannot drop below the paid amount", base: ErrValidationFailed}
	ErrPaidCurrencyLocked   = &wrappedError{msg: "currency cannot change after a payment was recorded", base: ErrValidationFailed}
)

// 资源不存在
var (
	ErrNotFound          = errors.New("resource not found")
	ErrOrderNotFound     = &wrappedError{msg: "order not found", base: ErrNotFound}
	ErrQuotationNotFound = &wrappedError{msg: "quotation not found", base: ErrNotFound}
	ErrStatusNotFound    = &wrappedError{msg: "order status not found in catalog", base: ErrNotFound}
)

// 依赖失败
var (
	ErrDependencyFailure    = errors.New("dependency failure")
	ErrOrderFetchFailed     = &wrappedError{msg: "order fetch failed", base: ErrDependencyFailure}
	ErrOrderCreateFailed    = &wrappedError{msg: "order create failed", base: ErrDependencyFailure}
	ErrOrderUpdateFailed    = &wrappedError{msg: "order update failed", base: ErrDependencyFailure}
	ErrQuotationFetchFailed = &wrappedError{msg: "quotation fetch failed", base: ErrDependencyFailure}
	ErrQuotationSaveFailed  = &wrappedError{msg: "quotation save failed", base: ErrDependencyFailure}
	ErrAttachmentFailed     = &wrappedError{msg: "attachment store failed", base: ErrDependencyFailure}
	ErrHistoryFailed        = &wrappedError{msg: "history store failed", base: ErrDependencyFailure}
	ErrStorageFailed        = &wrappedError{msg: "blob storage failed", base: ErrDependencyFailure}
	ErrAuthzUnavailable     = &wrappedError{msg: "authorization unavailable", base: ErrDependencyFailure}
	ErrLockFailed           = &wrappedError{msg: "order lock failed", base: ErrDependencyFailure}
	ErrHistoryOutOfSync     = &wrappedError{msg: "latest history does not match order status", base: ErrDependencyFailure}
)

// wrappedError 具体错误，同时归属一个基础分类
type wrappedError struct {
	msg  string
	base error
}

func (e *wrappedError) Error() string { return e.msg }

func (e *wrappedError) Unwrap() error { return e.base }

var kindOrder = []struct {
	kind ErrorKind
	base error
}{
	{KindConcurrentModification, ErrConcurrentModification},
	{KindNotFound, ErrNotFound},
	{KindInvalidTransition, ErrInvalidTransition},
	{KindValidationFailed, ErrValidationFailed},
	{KindDependencyFailure, ErrDependencyFailure},
}

// KindOf 返回错误所属分类
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, item := range kindOrder {
		if errors.Is(err, item.base) {
			return item.kind
		}
	}
	return KindUnknown
}
