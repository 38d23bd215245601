package staff

import (
	"github.com/printdesk-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListStatuses 租户状态目录
func (h *Handler) ListStatuses(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	if err := actor.Validate(); err != nil {
		respondServiceError(c, err)
		return
	}
	statuses, err := h.StatusCatalogService.List(c.Request.Context(), actor.CompanyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, statuses)
}
