package manager

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mailpulse/mailpulse/internal/http/response"
	"github.com/mailpulse/mailpulse/internal/repository"
	"github.com/mailpulse/mailpulse/internal/service"

	"github.com/gin-gonic/gin"
)

// ModerationNoteRequest 运营操作备注
type ModerationNoteRequest struct {
	Note string `json:"note"`
}

// ListUsers 全量账号列表
func (h *Handler) ListUsers(c *gin.Context) {
	actorID, ok := getManagerID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	active, err := parseBoolNullable(strings.TrimSpace(c.Query("active")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	blocked, err := parseBoolNullable(strings.TrimSpace(c.Query("blocked")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
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

	filter := repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		Active:      active,
		Blocked:     blocked,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}
	users, total, err := h.ModerationService.ListUsers(actorID, filter)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			respondError(c, response.CodeForbidden, "permission denied", nil)
			return
		}
		respondError(c, response.CodeInternal, "list users failed", err)
		return
	}
	response.SuccessWithPage(c, users, buildPagination(page, pageSize, total))
}

// BlockUser 封禁账号
func (h *Handler) BlockUser(c *gin.Context) {
	h.setUserBlocked(c, true)
}

// UnblockUser 解封账号
func (h *Handler) UnblockUser(c *gin.Context) {
	h.setUserBlocked(c, false)
}

func (h *Handler) setUserBlocked(c *gin.Context, blocked bool) {
	actorID, ok := getManagerID(c)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	// 备注可选，空请求体按无备注处理
	var req ModerationNoteRequest
	_ = c.ShouldBindJSON(&req)

	var err error
	if blocked {
		err = h.ModerationService.BlockUser(actorID, targetID, req.Note)
	} else {
		err = h.ModerationService.UnblockUser(actorID, targetID, req.Note)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			respondError(c, response.CodeForbidden, "permission denied", nil)
		case errors.Is(err, service.ErrSelfModeration):
			respondError(c, response.CodeForbidden, "cannot moderate own account", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "update user failed", err)
		}
		return
	}
	response.Success(c, gin.H{"user_id": targetID, "blocked": blocked})
}

// ListLoginLogs 全量登录日志
func (h *Handler) ListLoginLogs(c *gin.Context) {
	actorID, ok := getManagerID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		userID = uint(parsed)
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

	filter := repository.UserLoginLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Email:       strings.TrimSpace(c.Query("email")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}
	logs, total, err := h.LoginLogService.ListForManager(actorID, filter)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			respondError(c, response.CodeForbidden, "permission denied", nil)
			return
		}
		respondError(c, response.CodeInternal, "list login logs failed", err)
		return
	}
	response.SuccessWithPage(c, logs, buildPagination(page, pageSize, total))
}
