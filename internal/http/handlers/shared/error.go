package shared

import (
	"errors"

	"github.com/printdesk-next/internal/http/response"
	"github.com/printdesk-next/internal/logger"
	"github.com/printdesk-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.SW()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.SW()
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondServiceError 按错误分类映射业务错误到接口响应。
func RespondServiceError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	code := CodeForError(err)
	msg := err.Error()
	if code == response.CodeInternal {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"kind", kind,
			"error", err,
		)
		// 依赖故障不向调用方暴露底层细节
		msg = publicMessage(err)
	} else {
		RequestLog(c).Debugw("handler_rejected", "code", code, "kind", kind, "error", err)
	}
	response.ErrorWithData(c, code, msg, gin.H{"kind": string(kind)})
}

// CodeForError 返回错误对应的业务状态码。
func CodeForError(err error) int {
	if errors.Is(err, service.ErrInvalidActor) {
		return response.CodeUnauthorized
	}
	if errors.Is(err, service.ErrTransitionForbidden) {
		return response.CodeForbidden
	}
	switch service.KindOf(err) {
	case service.KindValidationFailed:
		return response.CodeBadRequest
	case service.KindNotFound:
		return response.CodeNotFound
	case service.KindInvalidTransition, service.KindConcurrentModification:
		return response.CodeConflict
	default:
		return response.CodeInternal
	}
}

func publicMessage(err error) string {
	var wrapped interface{ Unwrap() []error }
	if errors.As(err, &wrapped) {
		if parts := wrapped.Unwrap(); len(parts) > 0 && parts[0] != nil {
			return parts[0].Error()
		}
	}
	return "internal error"
}
