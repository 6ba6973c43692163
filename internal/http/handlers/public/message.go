package public

import (
	"errors"

	"github.com/mailpulse/mailpulse/internal/http/response"
	"github.com/mailpulse/mailpulse/internal/repository"
	"github.com/mailpulse/mailpulse/internal/service"

	"github.com/gin-gonic/gin"
)

// MessageRequest 信件模板写入请求
type MessageRequest struct {
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

// ListMessages 信件模板列表
func (h *Handler) ListMessages(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)
	filter := repository.MessageListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  c.Query("keyword"),
	}
	messages, total, err := h.MessageService.List(userID, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "list messages failed", err)
		return
	}
	response.SuccessWithPage(c, messages, buildPagination(page, pageSize, total))
}

// GetMessage 信件模板详情
func (h *Handler) GetMessage(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	message, err := h.MessageService.Get(userID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "message not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "get message failed", err)
		return
	}
	response.Success(c, message)
}

// CreateMessage 新建信件模板
func (h *Handler) CreateMessage(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	message, err := h.MessageService.Create(userID, service.MessageInput{Subject: req.Subject, Body: req.Body})
	if err != nil {
		h.respondMessageError(c, err, "create message failed")
		return
	}
	response.Success(c, message)
}

// UpdateMessage 更新信件模板
func (h *Handler) UpdateMessage(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	message, err := h.MessageService.Update(userID, id, service.MessageInput{Subject: req.Subject, Body: req.Body})
	if err != nil {
		h.respondMessageError(c, err, "update message failed")
		return
	}
	response.Success(c, message)
}

// DeleteMessage 删除信件模板
func (h *Handler) DeleteMessage(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.MessageService.Delete(userID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "message not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "delete message failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func (h *Handler) respondMessageError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "message not found", nil)
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, response.CodeBadRequest, "subject and body are required", nil)
	default:
		respondError(c, response.CodeInternal, fallback, err)
	}
}
