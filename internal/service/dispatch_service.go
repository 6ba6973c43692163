package service

import (
	"context"
	"time"

	"github.com/mailpulse/mailpulse/internal/authz"
	"github.com/mailpulse/mailpulse/internal/constants"
	"github.com/mailpulse/mailpulse/internal/logger"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/repository"
)

// Transport 单封邮件投递接口，生产实现为 EmailService
type Transport interface {
	Send(toEmail, subject, body string) error
}

// DispatchService 邮件活动投递引擎
// 资格检查与逐收件人投递都落审计记录，投递错误不向调用方传播。
type DispatchService struct {
	mailingRepo  repository.MailingRepository
	attemptRepo  repository.MailingAttemptRepository
	userRepo     repository.UserRepository
	authzService *authz.Service
	transport    Transport
	now          func() time.Time
}

// NewDispatchService 创建投递引擎
func NewDispatchService(
	mailingRepo repository.MailingRepository,
	attemptRepo repository.MailingAttemptRepository,
	userRepo repository.UserRepository,
	authzService *authz.Service,
	transport Transport,
) *DispatchService {
	return &DispatchService{
		mailingRepo:  mailingRepo,
		attemptRepo:  attemptRepo,
		userRepo:     userRepo,
		authzService: authzService,
		transport:    transport,
		now:          time.Now,
	}
}

// DispatchResult 单次投递的执行汇总
type DispatchResult struct {
	MailingID    uint                 `json:"mailing_id"`
	Status       models.MailingStatus `json:"status"`
	Attempted    int                  `json:"attempted"`
	Succeeded    int                  `json:"succeeded"`
	Failed       int                  `json:"failed"`
	Ineligible   bool                 `json:"ineligible"`
	Detail       string               `json:"detail,omitempty"`
	DispatchedAt time.Time            `json:"dispatched_at"`
}

// Dispatch 立即执行一次投递
// 资格检查按固定顺序进行：归属者被封禁、活动被停用、已完成、
// 未到开始时间、时间窗已过。不合格时只落一条失败审计，不返回错误。
func (s *DispatchService) Dispatch(ctx context.Context, actorID, mailingID uint) (*DispatchResult, error) {
	scope, err := s.scopeFor(actorID)
	if err != nil {
		return nil, err
	}
	mailing, err := s.mailingRepo.GetByID(scope, mailingID)
	if err != nil {
		return nil, err
	}
	if mailing == nil {
		return nil, ErrNotFound
	}

	now := s.now()
	result := &DispatchResult{
		MailingID:    mailing.ID,
		Status:       mailing.Status,
		DispatchedAt: now,
	}

	if detail, ok := s.checkEligibility(mailing, now); !ok {
		if err := s.recordAttempt(mailing.ID, constants.AttemptStatusFailed, detail, now); err != nil {
			return nil, err
		}
		result.Ineligible = true
		result.Detail = detail
		logger.Infow("mailing_dispatch_skipped",
			"mailing_id", mailing.ID,
			"detail", detail,
		)
		return result, nil
	}

	// 投递前先落 running，崩溃后状态可观测
	if mailing.Status != models.MailingStatusRunning {
		if err := s.mailingRepo.UpdateStatus(mailing.ID, models.MailingStatusRunning); err != nil {
			return nil, err
		}
		mailing.Status = models.MailingStatusRunning
	}
	result.Status = models.MailingStatusRunning

	subject, body := "", ""
	if mailing.Message != nil {
		subject = mailing.Message.Subject
		body = mailing.Message.Body
	}

	// 投递一旦开始不可取消，整批收件人必须各落一条审计
	for _, recipient := range mailing.Recipients {
		result.Attempted++
		sendErr := s.transport.Send(recipient.Email, subject, body)
		attemptAt := s.now()
		if sendErr != nil {
			result.Failed++
			if err := s.recordAttempt(mailing.ID, constants.AttemptStatusFailed, constants.AttemptDetailSendError, attemptAt); err != nil {
				return nil, err
			}
			logger.Warnw("mailing_send_failed",
				"mailing_id", mailing.ID,
				"recipient", recipient.Email,
				"error", sendErr,
			)
			continue
		}
		result.Succeeded++
		if err := s.recordAttempt(mailing.ID, constants.AttemptStatusSuccess, constants.AttemptDetailSent, attemptAt); err != nil {
			return nil, err
		}
	}

	// 收件人列表为空时视为全部成功，活动同样完结
	if result.Failed == 0 {
		if err := s.mailingRepo.UpdateStatus(mailing.ID, models.MailingStatusCompleted); err != nil {
			return nil, err
		}
		result.Status = models.MailingStatusCompleted
	}

	logger.Infow("mailing_dispatch_finished",
		"mailing_id", mailing.ID,
		"status", result.Status,
		"attempted", result.Attempted,
		"failed", result.Failed,
	)
	return result, nil
}

// checkEligibility 返回不合格原因，合格时 ok 为 true
func (s *DispatchService) checkEligibility(mailing *models.Mailing, now time.Time) (string, bool) {
	blocked, err := s.ownerBlocked(mailing.OwnerID)
	if err != nil {
		logger.Warnw("mailing_owner_lookup_failed", "mailing_id", mailing.ID, "error", err)
	}
	if blocked {
		return constants.AttemptDetailOwnerBlocked, false
	}
	switch mailing.Status {
	case models.MailingStatusDisabled:
		return constants.AttemptDetailDisabled, false
	case models.MailingStatusCompleted:
		return constants.AttemptDetailAlreadyCompleted, false
	}
	if now.Before(mailing.StartTime) {
		return constants.AttemptDetailNotStarted, false
	}
	if now.After(mailing.EndTime) {
		return constants.AttemptDetailWindowExpired, false
	}
	return "", true
}

func (s *DispatchService) ownerBlocked(ownerID uint) (bool, error) {
	owner, err := s.userRepo.GetByID(ownerID)
	if err != nil {
		return false, err
	}
	if owner == nil {
		return false, nil
	}
	return owner.Blocked, nil
}

func (s *DispatchService) recordAttempt(mailingID uint, status, detail string, at time.Time) error {
	return s.attemptRepo.Create(&models.MailingAttempt{
		AttemptTime:    at,
		Status:         status,
		ServerResponse: detail,
		MailingID:      mailingID,
	})
}

func (s *DispatchService) scopeFor(actorID uint) (repository.OwnerScope, error) {
	allowed, err := s.authzService.HasCapability(actorID, constants.AuthzObjectMailings, constants.AuthzActionViewAll)
	if err != nil {
		return repository.OwnerScope{}, err
	}
	if allowed {
		return repository.ScopeForAll(), nil
	}
	return repository.ScopeForOwner(actorID), nil
}
