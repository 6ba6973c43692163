package service

import (
	"strings"

	"github.com/mailpulse/mailpulse/internal/authz"
	"github.com/mailpulse/mailpulse/internal/constants"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/repository"
)

// MessageService 信件模板服务
type MessageService struct {
	messageRepo  repository.MessageRepository
	authzService *authz.Service
}

// NewMessageService 创建信件模板服务
func NewMessageService(messageRepo repository.MessageRepository, authzService *authz.Service) *MessageService {
	return &MessageService{
		messageRepo:  messageRepo,
		authzService: authzService,
	}
}

// MessageInput 信件模板写入参数
type MessageInput struct {
	Subject string
	Body    string
}

func (s *MessageService) scopeFor(actorID uint) (repository.OwnerScope, error) {
	allowed, err := s.authzService.HasCapability(actorID, constants.AuthzObjectMessages, constants.AuthzActionViewAll)
	if err != nil {
		return repository.OwnerScope{}, err
	}
	if allowed {
		return repository.ScopeForAll(), nil
	}
	return repository.ScopeForOwner(actorID), nil
}

// List 信件模板列表
func (s *MessageService) List(actorID uint, filter repository.MessageListFilter) ([]models.Message, int64, error) {
	scope, err := s.scopeFor(actorID)
	if err != nil {
		return nil, 0, err
	}
	return s.messageRepo.List(scope, filter)
}

// Get 获取单个信件模板
func (s *MessageService) Get(actorID, id uint) (*models.Message, error) {
	scope, err := s.scopeFor(actorID)
	if err != nil {
		return nil, err
	}
	message, err := s.messageRepo.GetByID(scope, id)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, ErrNotFound
	}
	return message, nil
}

// Create 创建信件模板
func (s *MessageService) Create(actorID uint, input MessageInput) (*models.Message, error) {
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if subject == "" || body == "" {
		return nil, ErrInvalidInput
	}

	message := &models.Message{
		Subject: subject,
		Body:    body,
		OwnerID: actorID,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}
	return message, nil
}

// Update 更新信件模板，仅归属者可写
func (s *MessageService) Update(actorID, id uint, input MessageInput) (*models.Message, error) {
	message, err := s.messageRepo.GetByID(repository.ScopeForOwner(actorID), id)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, ErrNotFound
	}

	if strings.TrimSpace(input.Subject) != "" {
		message.Subject = strings.TrimSpace(input.Subject)
	}
	if strings.TrimSpace(input.Body) != "" {
		message.Body = strings.TrimSpace(input.Body)
	}
	if err := s.messageRepo.Update(message); err != nil {
		return nil, err
	}
	return message, nil
}

// Delete 删除信件模板，仅归属者可删
func (s *MessageService) Delete(actorID, id uint) error {
	message, err := s.messageRepo.GetByID(repository.ScopeForOwner(actorID), id)
	if err != nil {
		return err
	}
	if message == nil {
		return ErrNotFound
	}
	return s.messageRepo.Delete(message.ID)
}
