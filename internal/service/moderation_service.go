package service

import (
	"context"
	"strings"
	"time"

	"github.com/mailpulse/mailpulse/internal/authz"
	"github.com/mailpulse/mailpulse/internal/cache"
	"github.com/mailpulse/mailpulse/internal/constants"
	"github.com/mailpulse/mailpulse/internal/logger"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/repository"
)

// ModerationService 运营管控服务
// 封禁账号与停用邮件活动都要求对应能力，并写入操作日志。
type ModerationService struct {
	userRepo     repository.UserRepository
	mailingRepo  repository.MailingRepository
	logRepo      repository.ModerationLogRepository
	authzService *authz.Service
}

// NewModerationService 创建运营管控服务
func NewModerationService(
	userRepo repository.UserRepository,
	mailingRepo repository.MailingRepository,
	logRepo repository.ModerationLogRepository,
	authzService *authz.Service,
) *ModerationService {
	return &ModerationService{
		userRepo:     userRepo,
		mailingRepo:  mailingRepo,
		logRepo:      logRepo,
		authzService: authzService,
	}
}

// BlockUser 封禁账号
// 封禁后账号仍可登录，但其邮件活动不再被投递。不允许封禁自己。
func (s *ModerationService) BlockUser(actorID, targetID uint, note string) error {
	return s.setUserBlocked(actorID, targetID, true, note)
}

// UnblockUser 解除封禁
func (s *ModerationService) UnblockUser(actorID, targetID uint, note string) error {
	return s.setUserBlocked(actorID, targetID, false, note)
}

func (s *ModerationService) setUserBlocked(actorID, targetID uint, blocked bool, note string) error {
	allowed, err := s.authzService.HasCapability(actorID, constants.AuthzObjectAccounts, constants.AuthzActionBlock)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	if actorID == targetID {
		return ErrSelfModeration
	}

	target, err := s.userRepo.GetByID(targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}
	if target.Blocked == blocked {
		return nil
	}

	if err := s.userRepo.SetBlocked(targetID, blocked); err != nil {
		return err
	}
	_ = cache.DelUserAuthState(context.Background(), targetID)

	action := constants.ModerationActionBlockUser
	if !blocked {
		action = constants.ModerationActionUnblockUser
	}
	s.recordAction(actorID, action, targetID, note)
	logger.Infow("user_block_changed",
		"actor_id", actorID,
		"target_id", targetID,
		"blocked", blocked,
	)
	return nil
}

// DisableMailing 停用邮件活动
// created/running 状态可停用，投递引擎对停用活动只落失败审计。
func (s *ModerationService) DisableMailing(actorID, mailingID uint, note string) (*models.Mailing, error) {
	mailing, err := s.loadMailingForModeration(actorID, mailingID)
	if err != nil {
		return nil, err
	}
	switch mailing.Status {
	case models.MailingStatusCreated, models.MailingStatusRunning:
	default:
		return nil, ErrMailingImmutable
	}

	if err := s.mailingRepo.UpdateStatus(mailing.ID, models.MailingStatusDisabled); err != nil {
		return nil, err
	}
	mailing.Status = models.MailingStatusDisabled
	s.recordAction(actorID, constants.ModerationActionDisableMailing, mailing.ID, note)
	return mailing, nil
}

// EnableMailing 恢复被停用的邮件活动，状态回到 created
func (s *ModerationService) EnableMailing(actorID, mailingID uint, note string) (*models.Mailing, error) {
	mailing, err := s.loadMailingForModeration(actorID, mailingID)
	if err != nil {
		return nil, err
	}
	if mailing.Status != models.MailingStatusDisabled {
		return nil, ErrMailingImmutable
	}

	if err := s.mailingRepo.UpdateStatus(mailing.ID, models.MailingStatusCreated); err != nil {
		return nil, err
	}
	mailing.Status = models.MailingStatusCreated
	s.recordAction(actorID, constants.ModerationActionEnableMailing, mailing.ID, note)
	return mailing, nil
}

// ListUsers 账号列表，要求 accounts:block 能力
func (s *ModerationService) ListUsers(actorID uint, filter repository.UserListFilter) ([]models.User, int64, error) {
	allowed, err := s.authzService.HasCapability(actorID, constants.AuthzObjectAccounts, constants.AuthzActionBlock)
	if err != nil {
		return nil, 0, err
	}
	if !allowed {
		return nil, 0, ErrForbidden
	}
	return s.userRepo.List(filter)
}

// ListLog 操作日志，要求 accounts:block 能力
func (s *ModerationService) ListLog(actorID uint, filter repository.ModerationLogListFilter) ([]models.ModerationLog, int64, error) {
	allowed, err := s.authzService.HasCapability(actorID, constants.AuthzObjectAccounts, constants.AuthzActionBlock)
	if err != nil {
		return nil, 0, err
	}
	if !allowed {
		return nil, 0, ErrForbidden
	}
	return s.logRepo.List(filter)
}

func (s *ModerationService) loadMailingForModeration(actorID, mailingID uint) (*models.Mailing, error) {
	allowed, err := s.authzService.HasCapability(actorID, constants.AuthzObjectMailings, constants.AuthzActionDisable)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}
	mailing, err := s.mailingRepo.GetByID(repository.ScopeForAll(), mailingID)
	if err != nil {
		return nil, err
	}
	if mailing == nil {
		return nil, ErrNotFound
	}
	return mailing, nil
}

func (s *ModerationService) recordAction(actorID uint, action string, targetID uint, note string) {
	if s.logRepo == nil {
		return
	}
	if err := s.logRepo.Create(&models.ModerationLog{
		ActorID:   actorID,
		Action:    action,
		TargetID:  targetID,
		Note:      strings.TrimSpace(note),
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Warnw("moderation_log_write_failed", "action", action, "error", err)
	}
}
