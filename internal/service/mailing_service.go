package service

import (
	"time"

	"github.com/mailpulse/mailpulse/internal/authz"
	"github.com/mailpulse/mailpulse/internal/constants"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/repository"
)

// MailingService 邮件活动服务
type MailingService struct {
	mailingRepo   repository.MailingRepository
	messageRepo   repository.MessageRepository
	recipientRepo repository.RecipientRepository
	attemptRepo   repository.MailingAttemptRepository
	authzService  *authz.Service
}

// NewMailingService 创建邮件活动服务
func NewMailingService(
	mailingRepo repository.MailingRepository,
	messageRepo repository.MessageRepository,
	recipientRepo repository.RecipientRepository,
	attemptRepo repository.MailingAttemptRepository,
	authzService *authz.Service,
) *MailingService {
	return &MailingService{
		mailingRepo:   mailingRepo,
		messageRepo:   messageRepo,
		recipientRepo: recipientRepo,
		attemptRepo:   attemptRepo,
		authzService:  authzService,
	}
}

// MailingInput 邮件活动写入参数
type MailingInput struct {
	StartTime    time.Time
	EndTime      time.Time
	MessageID    uint
	RecipientIDs []uint
}

func (s *MailingService) scopeFor(actorID uint) (repository.OwnerScope, error) {
	allowed, err := s.authzService.HasCapability(actorID, constants.AuthzObjectMailings, constants.AuthzActionViewAll)
	if err != nil {
		return repository.OwnerScope{}, err
	}
	if allowed {
		return repository.ScopeForAll(), nil
	}
	return repository.ScopeForOwner(actorID), nil
}

// List 邮件活动列表
func (s *MailingService) List(actorID uint, filter repository.MailingListFilter) ([]models.Mailing, int64, error) {
	scope, err := s.scopeFor(actorID)
	if err != nil {
		return nil, 0, err
	}
	return s.mailingRepo.List(scope, filter)
}

// Get 获取单个邮件活动
func (s *MailingService) Get(actorID, id uint) (*models.Mailing, error) {
	scope, err := s.scopeFor(actorID)
	if err != nil {
		return nil, err
	}
	mailing, err := s.mailingRepo.GetByID(scope, id)
	if err != nil {
		return nil, err
	}
	if mailing == nil {
		return nil, ErrNotFound
	}
	return mailing, nil
}

// Create 创建邮件活动
// 开始时间必须在未来，结束时间必须晚于开始时间，
// 信件与收件人都只能引用归属于当前账号的数据。
func (s *MailingService) Create(actorID uint, input MailingInput) (*models.Mailing, error) {
	if err := validateMailingWindow(input.StartTime, input.EndTime, time.Now()); err != nil {
		return nil, err
	}
	message, recipients, err := s.resolveOwnedReferences(actorID, input)
	if err != nil {
		return nil, err
	}

	mailing := &models.Mailing{
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Status:     models.MailingStatusCreated,
		MessageID:  message.ID,
		Recipients: recipients,
		OwnerID:    actorID,
	}
	if err := s.mailingRepo.Create(mailing); err != nil {
		return nil, err
	}
	return s.mailingRepo.GetByID(repository.ScopeForOwner(actorID), mailing.ID)
}

// Update 更新邮件活动，仅 created 状态且归属者可写
func (s *MailingService) Update(actorID, id uint, input MailingInput) (*models.Mailing, error) {
	mailing, err := s.mailingRepo.GetByID(repository.ScopeForOwner(actorID), id)
	if err != nil {
		return nil, err
	}
	if mailing == nil {
		return nil, ErrNotFound
	}
	if mailing.Status != models.MailingStatusCreated {
		return nil, ErrMailingImmutable
	}
	if err := validateMailingWindow(input.StartTime, input.EndTime, time.Now()); err != nil {
		return nil, err
	}
	message, recipients, err := s.resolveOwnedReferences(actorID, input)
	if err != nil {
		return nil, err
	}

	mailing.StartTime = input.StartTime
	mailing.EndTime = input.EndTime
	mailing.MessageID = message.ID
	if err := s.mailingRepo.Update(mailing); err != nil {
		return nil, err
	}
	if err := s.mailingRepo.ReplaceRecipients(mailing, recipients); err != nil {
		return nil, err
	}
	return s.mailingRepo.GetByID(repository.ScopeForOwner(actorID), mailing.ID)
}

// Delete 删除邮件活动，仅归属者可删
func (s *MailingService) Delete(actorID, id uint) error {
	mailing, err := s.mailingRepo.GetByID(repository.ScopeForOwner(actorID), id)
	if err != nil {
		return err
	}
	if mailing == nil {
		return ErrNotFound
	}
	return s.mailingRepo.Delete(mailing.ID)
}

// ListAttempts 查询发送尝试，归属或 view_all 能力决定可见范围
func (s *MailingService) ListAttempts(actorID, mailingID uint, filter repository.MailingAttemptListFilter) ([]models.MailingAttempt, int64, error) {
	scope, err := s.scopeFor(actorID)
	if err != nil {
		return nil, 0, err
	}
	mailing, err := s.mailingRepo.GetByID(scope, mailingID)
	if err != nil {
		return nil, 0, err
	}
	if mailing == nil {
		return nil, 0, ErrNotFound
	}
	filter.MailingID = mailing.ID
	return s.attemptRepo.List(filter)
}

// ListOwnerAttempts 汇总查询名下全部任务的发送尝试
func (s *MailingService) ListOwnerAttempts(actorID uint, filter repository.MailingAttemptListFilter) ([]models.MailingAttempt, int64, error) {
	scope, err := s.scopeFor(actorID)
	if err != nil {
		return nil, 0, err
	}
	if !scope.ViewAll {
		ids, err := s.mailingRepo.ListIDs(scope)
		if err != nil {
			return nil, 0, err
		}
		if len(ids) == 0 {
			return []models.MailingAttempt{}, 0, nil
		}
		filter.MailingIDs = ids
	}
	return s.attemptRepo.List(filter)
}

func (s *MailingService) resolveOwnedReferences(actorID uint, input MailingInput) (*models.Message, []models.Recipient, error) {
	message, err := s.messageRepo.GetByID(repository.ScopeForOwner(actorID), input.MessageID)
	if err != nil {
		return nil, nil, err
	}
	if message == nil {
		return nil, nil, ErrNotFound
	}

	if len(input.RecipientIDs) == 0 {
		return nil, nil, ErrNoRecipients
	}
	recipients, err := s.recipientRepo.ListByIDs(repository.ScopeForOwner(actorID), input.RecipientIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(recipients) != len(uniqueIDs(input.RecipientIDs)) {
		return nil, nil, ErrNotFound
	}
	return message, recipients, nil
}

func validateMailingWindow(start, end, now time.Time) error {
	if !start.After(now) {
		return ErrStartTimeInPast
	}
	if !end.After(start) {
		return ErrEndBeforeStart
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
