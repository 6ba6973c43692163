package public

import (
	"errors"

	"github.com/mailpulse/mailpulse/internal/http/response"
	"github.com/mailpulse/mailpulse/internal/repository"
	"github.com/mailpulse/mailpulse/internal/service"

	"github.com/gin-gonic/gin"
)

// RecipientRequest 收件人写入请求
type RecipientRequest struct {
	Email      string `json:"email" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	FirstName  string `json:"first_name" binding:"required"`
	Patronymic string `json:"patronymic"`
	Comment    string `json:"comment"`
}

func (r *RecipientRequest) toInput() service.RecipientInput {
	return service.RecipientInput{
		Email:      r.Email,
		LastName:   r.LastName,
		FirstName:  r.FirstName,
		Patronymic: r.Patronymic,
		Comment:    r.Comment,
	}
}

// ListRecipients 收件人列表
func (h *Handler) ListRecipients(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)
	filter := repository.RecipientListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  c.Query("keyword"),
	}
	recipients, total, err := h.RecipientService.List(userID, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "list recipients failed", err)
		return
	}
	response.SuccessWithPage(c, recipients, buildPagination(page, pageSize, total))
}

// GetRecipient 收件人详情
func (h *Handler) GetRecipient(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	recipient, err := h.RecipientService.Get(userID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "recipient not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "get recipient failed", err)
		return
	}
	response.Success(c, recipient)
}

// CreateRecipient 新建收件人
func (h *Handler) CreateRecipient(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req RecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	recipient, err := h.RecipientService.Create(userID, req.toInput())
	if err != nil {
		h.respondRecipientError(c, err, "create recipient failed")
		return
	}
	response.Success(c, recipient)
}

// UpdateRecipient 更新收件人
func (h *Handler) UpdateRecipient(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	recipient, err := h.RecipientService.Update(userID, id, req.toInput())
	if err != nil {
		h.respondRecipientError(c, err, "update recipient failed")
		return
	}
	response.Success(c, recipient)
}

// DeleteRecipient 删除收件人
func (h *Handler) DeleteRecipient(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.RecipientService.Delete(userID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "recipient not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "delete recipient failed", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func (h *Handler) respondRecipientError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "recipient not found", nil)
	case errors.Is(err, service.ErrInvalidEmail):
		respondError(c, response.CodeBadRequest, "invalid email address", nil)
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, response.CodeBadRequest, "last name and first name are required", nil)
	case errors.Is(err, service.ErrRecipientEmailExists):
		respondError(c, response.CodeConflict, "recipient email already exists", nil)
	default:
		respondError(c, response.CodeInternal, fallback, err)
	}
}
