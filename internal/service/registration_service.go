package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailpulse/mailpulse/internal/cache"
	"github.com/mailpulse/mailpulse/internal/config"
	"github.com/mailpulse/mailpulse/internal/constants"
	"github.com/mailpulse/mailpulse/internal/logger"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/queue"
	"github.com/mailpulse/mailpulse/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegistrationService 注册与邮箱验证服务
// 注册产生未激活账号与一次性 uuid 令牌，点击验证链接后激活。
type RegistrationService struct {
	cfg          *config.Config
	userRepo     repository.UserRepository
	tokenRepo    repository.VerificationTokenRepository
	emailService *EmailService
	queueClient  *queue.Client
	authService  *AuthService
}

// NewRegistrationService 创建注册服务
func NewRegistrationService(
	cfg *config.Config,
	userRepo repository.UserRepository,
	tokenRepo repository.VerificationTokenRepository,
	emailService *EmailService,
	queueClient *queue.Client,
	authService *AuthService,
) *RegistrationService {
	return &RegistrationService{
		cfg:          cfg,
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		emailService: emailService,
		queueClient:  queueClient,
		authService:  authService,
	}
}

// Register 注册新账号
// 成功后账号处于未激活状态，验证邮件优先走异步队列，队列不可用时同步发送。
func (s *RegistrationService) Register(email, username, password string) (*models.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, password); err != nil {
		return nil, err
	}

	exist, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = resolveUsernameFromEmail(normalized)
	}

	now := time.Now()
	user := &models.User{
		Email:        normalized,
		Username:     username,
		PasswordHash: string(hashedPassword),
		Active:       false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	if err := s.issueVerificationToken(user); err != nil {
		logger.Warnw("verification_email_issue_failed",
			"user_id", user.ID,
			"error", err,
		)
	}
	return user, nil
}

// Verify 校验注册令牌
// 过期令牌保留在表中不删除，成功验证后删除令牌并签发 JWT。
func (s *RegistrationService) Verify(token string) (*models.User, string, time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, "", time.Time{}, ErrTokenInvalid
	}
	record, err := s.tokenRepo.GetByToken(token)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if record == nil || record.User == nil {
		return nil, "", time.Time{}, ErrTokenInvalid
	}
	if record.Expired(time.Now()) {
		return nil, "", time.Time{}, ErrTokenExpired
	}

	user := record.User
	if !user.Active {
		user.Active = true
		user.UpdatedAt = time.Now()
		if err := s.userRepo.Update(user); err != nil {
			return nil, "", time.Time{}, err
		}
		_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	}
	if err := s.tokenRepo.Delete(record.ID); err != nil {
		return nil, "", time.Time{}, err
	}

	jwtToken, expiresAt, err := s.authService.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, jwtToken, expiresAt, nil
}

// ResendVerification 重发验证邮件
// 为避免探测注册邮箱，目标账号不存在或已激活时静默返回成功。
func (s *RegistrationService) ResendVerification(email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return err
	}
	if user == nil || user.Active {
		return nil
	}
	return s.issueVerificationToken(user)
}

// DeliverVerificationEmail 发送验证邮件，worker 消费队列任务时调用
func (s *RegistrationService) DeliverVerificationEmail(email, token string) error {
	if s.emailService == nil {
		return ErrEmailServiceNotConfigured
	}
	return s.emailService.SendVerificationEmail(email, s.buildVerifyURL(token))
}

func (s *RegistrationService) issueVerificationToken(user *models.User) error {
	now := time.Now()
	record := &models.VerificationToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(s.verificationExpireMinutes()) * time.Minute),
	}
	if err := s.tokenRepo.Create(record); err != nil {
		return err
	}

	if s.queueClient.Enabled() {
		return s.queueClient.EnqueueVerificationEmail(queue.VerificationEmailPayload{
			UserID: user.ID,
			Email:  user.Email,
			Token:  record.Token,
		})
	}
	return s.DeliverVerificationEmail(user.Email, record.Token)
}

func (s *RegistrationService) buildVerifyURL(token string) string {
	base := strings.TrimRight(s.cfg.Server.BaseURL, "/")
	return fmt.Sprintf("%s/verify/%s", base, token)
}

func (s *RegistrationService) verificationExpireMinutes() int {
	if s.cfg.Email.Verification.ExpireMinutes > 0 {
		return s.cfg.Email.Verification.ExpireMinutes
	}
	return constants.DefaultVerificationExpireMinutes
}

func resolveUsernameFromEmail(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) == 2 && strings.TrimSpace(parts[0]) != "" {
		return strings.TrimSpace(parts[0])
	}
	return email
}
