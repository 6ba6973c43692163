package service

import (
	"github.com/mailpulse/mailpulse/internal/authz"
	"github.com/mailpulse/mailpulse/internal/constants"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/repository"
)

// LoginLogService 登录日志查询服务
type LoginLogService struct {
	repo         repository.UserLoginLogRepository
	authzService *authz.Service
}

// NewLoginLogService 创建登录日志服务
func NewLoginLogService(repo repository.UserLoginLogRepository, authzService *authz.Service) *LoginLogService {
	return &LoginLogService{repo: repo, authzService: authzService}
}

// ListForManager 运营端查询登录日志，要求 accounts:block 能力
func (s *LoginLogService) ListForManager(actorID uint, filter repository.UserLoginLogListFilter) ([]models.UserLoginLog, int64, error) {
	allowed, err := s.authzService.HasCapability(actorID, constants.AuthzObjectAccounts, constants.AuthzActionBlock)
	if err != nil {
		return nil, 0, err
	}
	if !allowed {
		return nil, 0, ErrForbidden
	}
	return s.repo.List(filter)
}

// ListByUser 账号侧查询自己的登录日志
func (s *LoginLogService) ListByUser(userID uint, page, pageSize int) ([]models.UserLoginLog, int64, error) {
	if s == nil || s.repo == nil || userID == 0 {
		return []models.UserLoginLog{}, 0, nil
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return s.repo.ListByUser(userID, page, pageSize)
}
