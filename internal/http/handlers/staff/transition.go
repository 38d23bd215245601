package staff

import (
	"mime/multipart"
	"strings"

	"github.com/printdesk-next/internal/http/response"
	"github.com/printdesk-next/internal/service"

	"github.com/gin-gonic/gin"
)

// TransitionOrder 执行订单流转动作；multipart 请求中的 files 会先上传
func (h *Handler) TransitionOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	action := strings.TrimSpace(c.Param("action"))

	var (
		input service.TransitionInput
		files []*multipart.FileHeader
	)
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			respondBadRequest(c, "invalid multipart form", err)
			return
		}
		files = form.File["files"]
		if err := h.UploadService.CheckBatch(files); err != nil {
			respondServiceError(c, err)
			return
		}
		input.Comment = c.PostForm("comment")
		input.Feedback = c.PostForm("feedback")
	} else if c.Request.ContentLength != 0 {
		var req TransitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body", err)
			return
		}
		input = service.TransitionInput{
			Files:    toFileRefs(req.Files),
			Comment:  req.Comment,
			Feedback: req.Feedback,
		}
	}

	result, err := h.WorkflowService.TransitionWithUploads(c.Request.Context(), h.UploadService, actor, orderID, action, files, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ListAvailableActions 当前操作人可执行的动作
func (h *Handler) ListAvailableActions(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	actions, err := h.WorkflowService.AvailableActionsFor(c.Request.Context(), actor, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"actions": actions})
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}
