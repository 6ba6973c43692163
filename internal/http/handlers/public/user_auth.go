package public

import (
	"errors"

	"github.com/mailpulse/mailpulse/internal/http/response"
	"github.com/mailpulse/mailpulse/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// Register 注册账号，成功后账号待邮箱验证
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, err := h.RegistrationService.Register(req.Email, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "invalid email address", nil)
		case errors.Is(err, service.ErrEmailExists):
			respondError(c, response.CodeConflict, "email already registered", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "register failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"user_id":           user.ID,
		"email":             user.Email,
		"verification_sent": true,
	})
}

// Verify 校验注册令牌并激活账号
func (h *Handler) Verify(c *gin.Context) {
	token := c.Param("token")

	user, jwtToken, expiresAt, err := h.RegistrationService.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenInvalid):
			respondError(c, response.CodeBadRequest, "verification token invalid", nil)
		case errors.Is(err, service.ErrTokenExpired):
			respondError(c, response.CodeBadRequest, "verification token expired", nil)
		default:
			respondError(c, response.CodeInternal, "verification failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"user": gin.H{
			"id":       user.ID,
			"email":    user.Email,
			"username": user.Username,
			"active":   user.Active,
		},
		"token":      jwtToken,
		"expires_at": expiresAt,
	})
}

// ResendVerificationRequest 重发验证邮件请求
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResendVerification 重发验证邮件
func (h *Handler) ResendVerification(c *gin.Context) {
	var req ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.RegistrationService.ResendVerification(req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "invalid email address", nil)
		case errors.Is(err, service.ErrEmailServiceDisabled),
			errors.Is(err, service.ErrEmailServiceNotConfigured):
			respondError(c, response.CodeInternal, "email service not configured", err)
		default:
			respondError(c, response.CodeInternal, "resend failed", err)
		}
		return
	}
	response.Success(c, gin.H{"sent": true})
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 账号登录
func (h *Handler) Login(c *gin.Context) {
	meta := service.LoginMeta{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok {
			meta.RequestID = id
		}
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.AuthService.RecordBadRequest(req.Email, meta)
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, token, expiresAt, err := h.AuthService.Login(req.Email, req.Password, meta)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "invalid email or password", nil)
		case errors.Is(err, service.ErrNotVerified):
			respondError(c, response.CodeForbidden, "email not verified", nil)
		default:
			respondError(c, response.CodeInternal, "login failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"user": gin.H{
			"id":       user.ID,
			"email":    user.Email,
			"username": user.Username,
			"blocked":  user.Blocked,
		},
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Me 当前账号信息
func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.AuthService.GetUserByID(userID)
	if err != nil || user == nil {
		respondError(c, response.CodeNotFound, "user not found", err)
		return
	}

	isManager, err := h.AuthzService.IsManager(user.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "load roles failed", err)
		return
	}

	response.Success(c, gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"username":      user.Username,
		"active":        user.Active,
		"blocked":       user.Blocked,
		"is_manager":    isManager,
		"last_login_at": user.LastLoginAt,
		"created_at":    user.CreatedAt,
	})
}

// UpdateProfileRequest 资料更新请求
type UpdateProfileRequest struct {
	Username string `json:"username" binding:"required"`
}

// UpdateMe 更新当前账号资料
func (h *Handler) UpdateMe(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, err := h.AuthService.UpdateProfile(userID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "username is required", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "update profile failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"active":   user.Active,
	})
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword 登录态修改密码
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.AuthService.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPassword):
			respondError(c, response.CodeBadRequest, "old password incorrect", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "change password failed", err)
		}
		return
	}
	response.Success(c, gin.H{"changed": true})
}

// LoginLogs 当前账号的登录日志
func (h *Handler) LoginLogs(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)
	logs, total, err := h.LoginLogService.ListByUser(userID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "list login logs failed", err)
		return
	}
	response.SuccessWithPage(c, logs, buildPagination(page, pageSize, total))
}
