package staff

import (
	handlershared "github.com/printdesk-next/internal/http/handlers/shared"
	"github.com/printdesk-next/internal/http/response"
	"github.com/printdesk-next/internal/provider"
	"github.com/printdesk-next/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler 员工端接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建员工端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}

func respondBadRequest(c *gin.Context, msg string, err error) {
	handlershared.RespondErrorWithMsg(c, response.CodeBadRequest, msg, nil)
	if err != nil {
		handlershared.RequestLog(c).Debugw("handler_bad_request", "message", msg, "error", err)
	}
}

func getActor(c *gin.Context) (service.Actor, bool) {
	return handlershared.GetActor(c)
}

func paramID(c *gin.Context) (uint, bool) {
	return handlershared.ParamUint(c, "id")
}
