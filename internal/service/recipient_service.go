package service

import (
	"strings"

	"github.com/mailpulse/mailpulse/internal/authz"
	"github.com/mailpulse/mailpulse/internal/constants"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/repository"
)

// RecipientService 收件人服务
type RecipientService struct {
	recipientRepo repository.RecipientRepository
	authzService  *authz.Service
}

// NewRecipientService 创建收件人服务
func NewRecipientService(recipientRepo repository.RecipientRepository, authzService *authz.Service) *RecipientService {
	return &RecipientService{
		recipientRepo: recipientRepo,
		authzService:  authzService,
	}
}

// RecipientInput 收件人写入参数
type RecipientInput struct {
	Email      string
	LastName   string
	FirstName  string
	Patronymic string
	Comment    string
}

// scopeFor 按能力解析查询范围，持有 view_all 的账号可越过归属过滤
func (s *RecipientService) scopeFor(actorID uint) (repository.OwnerScope, error) {
	allowed, err := s.authzService.HasCapability(actorID, constants.AuthzObjectRecipients, constants.AuthzActionViewAll)
	if err != nil {
		return repository.OwnerScope{}, err
	}
	if allowed {
		return repository.ScopeForAll(), nil
	}
	return repository.ScopeForOwner(actorID), nil
}

// List 收件人列表
func (s *RecipientService) List(actorID uint, filter repository.RecipientListFilter) ([]models.Recipient, int64, error) {
	scope, err := s.scopeFor(actorID)
	if err != nil {
		return nil, 0, err
	}
	return s.recipientRepo.List(scope, filter)
}

// Get 获取单个收件人
func (s *RecipientService) Get(actorID, id uint) (*models.Recipient, error) {
	scope, err := s.scopeFor(actorID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.recipientRepo.GetByID(scope, id)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrNotFound
	}
	return recipient, nil
}

// Create 创建收件人，邮箱全表唯一
func (s *RecipientService) Create(actorID uint, input RecipientInput) (*models.Recipient, error) {
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.LastName) == "" || strings.TrimSpace(input.FirstName) == "" {
		return nil, ErrInvalidInput
	}

	exist, err := s.recipientRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrRecipientEmailExists
	}

	recipient := &models.Recipient{
		Email:      normalized,
		LastName:   strings.TrimSpace(input.LastName),
		FirstName:  strings.TrimSpace(input.FirstName),
		Patronymic: strings.TrimSpace(input.Patronymic),
		Comment:    strings.TrimSpace(input.Comment),
		OwnerID:    actorID,
	}
	if err := s.recipientRepo.Create(recipient); err != nil {
		return nil, err
	}
	return recipient, nil
}

// Update 更新收件人，仅归属者可写
func (s *RecipientService) Update(actorID, id uint, input RecipientInput) (*models.Recipient, error) {
	recipient, err := s.recipientRepo.GetByID(repository.ScopeForOwner(actorID), id)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrNotFound
	}

	if input.Email != "" {
		normalized, err := normalizeEmail(input.Email)
		if err != nil {
			return nil, err
		}
		if normalized != recipient.Email {
			exist, err := s.recipientRepo.GetByEmail(normalized)
			if err != nil {
				return nil, err
			}
			if exist != nil {
				return nil, ErrRecipientEmailExists
			}
			recipient.Email = normalized
		}
	}
	if strings.TrimSpace(input.LastName) != "" {
		recipient.LastName = strings.TrimSpace(input.LastName)
	}
	if strings.TrimSpace(input.FirstName) != "" {
		recipient.FirstName = strings.TrimSpace(input.FirstName)
	}
	recipient.Patronymic = strings.TrimSpace(input.Patronymic)
	recipient.Comment = strings.TrimSpace(input.Comment)

	if err := s.recipientRepo.Update(recipient); err != nil {
		return nil, err
	}
	return recipient, nil
}

// Delete 删除收件人，仅归属者可删
func (s *RecipientService) Delete(actorID, id uint) error {
	recipient, err := s.recipientRepo.GetByID(repository.ScopeForOwner(actorID), id)
	if err != nil {
		return err
	}
	if recipient == nil {
		return ErrNotFound
	}
	return s.recipientRepo.Delete(recipient.ID)
}
