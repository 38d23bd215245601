package staff

import (
	"strconv"
	"strings"

	"github.com/printdesk-next/internal/http/response"
	"github.com/printdesk-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAttachments 订单附件列表
func (h *Handler) ListAttachments(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	filter := service.AttachmentFilter{}
	if raw := strings.TrimSpace(c.Query("file_type")); raw != "" {
		for _, fileType := range strings.Split(raw, ",") {
			if fileType = strings.TrimSpace(fileType); fileType != "" {
				filter.FileTypes = append(filter.FileTypes, fileType)
			}
		}
	}
	if raw := strings.TrimSpace(c.Query("include_archived")); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			respondBadRequest(c, "invalid include_archived", err)
			return
		}
		filter.IncludeArchived = include
	}

	attachments, err := h.AttachmentService.ListAttachments(c.Request.Context(), actor, orderID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, attachments)
}

// AddAttachments 登记附件：multipart 上传文件或 JSON 登记已有引用
func (h *Handler) AddAttachments(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c)
	if !ok {
		return
	}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			respondBadRequest(c, "invalid multipart form", err)
			return
		}
		files := form.File["files"]
		if err := h.UploadService.CheckBatch(files); err != nil {
			respondServiceError(c, err)
			return
		}
		rows, err := h.AttachmentService.UploadAttachments(c.Request.Context(), h.UploadService, actor, orderID, c.PostForm("file_type"), files)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		response.Success(c, rows)
		return
	}

	var req AddAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return
	}
	attachment, err := h.AttachmentService.AddAttachment(c.Request.Context(), actor, orderID, req.FileType, req.File.toFileRef())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, attachment)
}
