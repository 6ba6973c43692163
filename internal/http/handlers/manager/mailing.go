package manager

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mailpulse/mailpulse/internal/http/response"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/repository"
	"github.com/mailpulse/mailpulse/internal/service"

	"github.com/gin-gonic/gin"
)

// ListMailings 全量邮件活动列表
func (h *Handler) ListMailings(c *gin.Context) {
	actorID, ok := getManagerID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	var ownerID uint
	if raw := strings.TrimSpace(c.Query("owner_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		ownerID = uint(parsed)
	}
	startFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("start_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	startTo, err := parseTimeNullable(strings.TrimSpace(c.Query("start_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	filter := repository.MailingListFilter{
		Page:      page,
		PageSize:  pageSize,
		Status:    strings.TrimSpace(c.Query("status")),
		OwnerID:   ownerID,
		StartFrom: startFrom,
		StartTo:   startTo,
	}
	mailings, total, err := h.MailingService.List(actorID, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "list mailings failed", err)
		return
	}
	response.SuccessWithPage(c, mailings, buildPagination(page, pageSize, total))
}

// DisableMailing 停用邮件活动
func (h *Handler) DisableMailing(c *gin.Context) {
	h.setMailingDisabled(c, true)
}

// EnableMailing 恢复邮件活动
func (h *Handler) EnableMailing(c *gin.Context) {
	h.setMailingDisabled(c, false)
}

func (h *Handler) setMailingDisabled(c *gin.Context, disabled bool) {
	actorID, ok := getManagerID(c)
	if !ok {
		return
	}
	mailingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	// 备注可选，空请求体按无备注处理
	var req ModerationNoteRequest
	_ = c.ShouldBindJSON(&req)

	var mailing *models.Mailing
	var err error
	if disabled {
		mailing, err = h.ModerationService.DisableMailing(actorID, mailingID, req.Note)
	} else {
		mailing, err = h.ModerationService.EnableMailing(actorID, mailingID, req.Note)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			respondError(c, response.CodeForbidden, "permission denied", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "mailing not found", nil)
		case errors.Is(err, service.ErrMailingImmutable):
			respondError(c, response.CodeBadRequest, "mailing status does not allow this action", nil)
		default:
			respondError(c, response.CodeInternal, "update mailing failed", err)
		}
		return
	}
	response.Success(c, mailing)
}

// ListModerationLog 运营操作日志列表
func (h *Handler) ListModerationLog(c *gin.Context) {
	actorID, ok := getManagerID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	var targetID uint
	if raw := strings.TrimSpace(c.Query("target_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		targetID = uint(parsed)
	}
	var actorFilter uint
	if raw := strings.TrimSpace(c.Query("actor_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		actorFilter = uint(parsed)
	}
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	filter := repository.ModerationLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		ActorID:     actorFilter,
		Action:      strings.TrimSpace(c.Query("action")),
		TargetID:    targetID,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}
	logs, total, err := h.ModerationService.ListLog(actorID, filter)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			respondError(c, response.CodeForbidden, "permission denied", nil)
			return
		}
		respondError(c, response.CodeInternal, "list moderation log failed", err)
		return
	}
	response.SuccessWithPage(c, logs, buildPagination(page, pageSize, total))
}
