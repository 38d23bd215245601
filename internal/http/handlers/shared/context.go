package shared

import (
	"strconv"

	"github.com/printdesk-next/internal/http/response"
	"github.com/printdesk-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ActorContextKey 上下文中的操作人键
const ActorContextKey = "actor"

// GetActor 从上下文读取操作人并统一处理错误响应。
func GetActor(c *gin.Context) (service.Actor, bool) {
	value, exists := c.Get(ActorContextKey)
	if !exists {
		RespondErrorWithMsg(c, response.CodeUnauthorized, "unauthorized", nil)
		return service.Actor{}, false
	}
	actor, ok := value.(service.Actor)
	if !ok {
		RespondErrorWithMsg(c, response.CodeInternal, "actor type invalid", nil)
		return service.Actor{}, false
	}
	return actor, true
}

// ParamUint 解析路径中的正整数 ID。
func ParamUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		RespondErrorWithMsg(c, response.CodeBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return uint(parsed), true
}
