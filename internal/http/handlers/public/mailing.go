package public

import (
	"errors"
	"time"

	"github.com/mailpulse/mailpulse/internal/http/response"
	"github.com/mailpulse/mailpulse/internal/repository"
	"github.com/mailpulse/mailpulse/internal/service"

	"github.com/gin-gonic/gin"
)

// MailingRequest 邮件活动写入请求
type MailingRequest struct {
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
	MessageID    uint      `json:"message_id" binding:"required"`
	RecipientIDs []uint    `json:"recipient_ids" binding:"required"`
}

func (r *MailingRequest) toInput() service.MailingInput {
	return service.MailingInput{
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		MessageID:    r.MessageID,
		RecipientIDs: r.RecipientIDs,
	}
}

// ListMailings 邮件活动列表
func (h *Handler) ListMailings(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)
	filter := repository.MailingListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	}
	mailings, total, err := h.MailingService.List(userID, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "list mailings failed", err)
		return
	}
	response.SuccessWithPage(c, mailings, buildPagination(page, pageSize, total))
}

// GetMailing 邮件活动详情
func (h *Handler) GetMailing(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	mailing, err := h.MailingService.Get(userID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "mailing not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "get mailing failed", err)
		return
	}
	response.Success(c, mailing)
}

// CreateMailing 新建邮件活动
func (h *Handler) CreateMailing(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req MailingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	mailing, err := h.MailingService.Create(userID, req.toInput())
	if err != nil {
		h.respondMailingError(c, err, "create mailing failed")
		return
	}
	response.Success(c, mailing)
}

// UpdateMailing 更新邮件活动，仅限尚未投递的活动
func (h *Handler) UpdateMailing(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req MailingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	mailing, err := h.MailingService.Update(userID, id, req.toInput())
	if err != nil {
		h.respondMailingError(c, err, "update mailing failed")
		return
	}
	response.Success(c, mailing)
}

// DeleteMailing 删除邮件活动
func (h *Handler) DeleteMailing(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.MailingService.Delete(userID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "mailing not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "delete mailing failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// DispatchMailing 同步执行一次投递
func (h *Handler) DispatchMailing(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := h.DispatchService.Dispatch(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "mailing not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "dispatch failed", err)
		return
	}
	response.Success(c, result)
}

// ListMailingAttempts 投递记录列表
func (h *Handler) ListMailingAttempts(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)
	filter := repository.MailingAttemptListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	}
	attempts, total, err := h.MailingService.ListAttempts(userID, id, filter)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "mailing not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "list attempts failed", err)
		return
	}
	response.SuccessWithPage(c, attempts, buildPagination(page, pageSize, total))
}

// ListMyAttempts 名下全部任务的发送尝试汇总
func (h *Handler) ListMyAttempts(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)
	filter := repository.MailingAttemptListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	}
	attempts, total, err := h.MailingService.ListOwnerAttempts(userID, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "list attempts failed", err)
		return
	}
	response.SuccessWithPage(c, attempts, buildPagination(page, pageSize, total))
}

func (h *Handler) respondMailingError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "mailing or reference not found", nil)
	case errors.Is(err, service.ErrStartTimeInPast):
		respondError(c, response.CodeBadRequest, "start time must be in the future", nil)
	case errors.Is(err, service.ErrEndBeforeStart):
		respondError(c, response.CodeBadRequest, "end time must be after start time", nil)
	case errors.Is(err, service.ErrNoRecipients):
		respondError(c, response.CodeBadRequest, "at least one recipient is required", nil)
	case errors.Is(err, service.ErrMailingImmutable):
		respondError(c, response.CodeBadRequest, "mailing can no longer be modified", nil)
	default:
		respondError(c, response.CodeInternal, fallback, err)
	}
}
