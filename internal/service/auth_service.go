package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/mailpulse/mailpulse/internal/cache"
	"github.com/mailpulse/mailpulse/internal/config"
	"github.com/mailpulse/mailpulse/internal/constants"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 账号认证服务
type AuthService struct {
	cfg          *config.Config
	userRepo     repository.UserRepository
	loginLogRepo repository.UserLoginLogRepository
}

// NewAuthService 创建认证服务
func NewAuthService(cfg *config.Config, userRepo repository.UserRepository, loginLogRepo repository.UserLoginLogRepository) *AuthService {
	return &AuthService{
		cfg:          cfg,
		userRepo:     userRepo,
		loginLogRepo: loginLogRepo,
	}
}

// UserJWTClaims 账号 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// LoginMeta 登录请求的客户端信息，写入登录日志
type LoginMeta struct {
	ClientIP  string
	UserAgent string
	RequestID string
}

// GenerateUserJWT 生成账号 JWT Token
func (s *AuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	expireHours := s.cfg.JWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)
	claims := UserJWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析账号 JWT Token
func (s *AuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// Login 账号登录
// 被封禁的账号仍可登录查看自己的数据，封禁只拦截邮件投递。
func (s *AuthService) Login(email, password string, meta LoginMeta) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		s.recordLoginLog(nil, email, constants.LoginLogFailReasonInvalidEmail, meta)
		return nil, "", time.Time{}, err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		s.recordLoginLog(nil, normalized, constants.LoginLogFailReasonInvalidCredentials, meta)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordLoginLog(user, normalized, constants.LoginLogFailReasonInvalidCredentials, meta)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !user.Active {
		s.recordLoginLog(user, normalized, constants.LoginLogFailReasonNotVerified, meta)
		return nil, "", time.Time{}, ErrNotVerified
	}

	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	s.recordLoginLog(user, normalized, "", meta)

	return user, token, expiresAt, nil
}

// ChangePassword 登录态修改密码
// 修改成功后提升 token_version，旧令牌全部失效。
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	if userID == 0 {
		return ErrNotFound
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidPassword
	}

	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashedPassword)
	now := time.Now()
	user.UpdatedAt = now
	user.TokenVersion++
	user.TokenInvalidBefore = &now
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return nil
}

// UpdateProfile 更新账号资料，目前只开放用户名
func (s *AuthService) UpdateProfile(userID uint, username string) (*models.User, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	user.Username = username
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID 获取账号信息
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	return s.userRepo.GetByID(id)
}

// RecordBadRequest 记录格式非法的登录请求
func (s *AuthService) RecordBadRequest(email string, meta LoginMeta) {
	s.recordLoginLog(nil, email, constants.LoginLogFailReasonBadRequest, meta)
}

// RecordRateLimited 记录被限流的登录尝试
func (s *AuthService) RecordRateLimited(email string, meta LoginMeta) {
	s.recordLoginLog(nil, email, constants.LoginLogFailReasonRateLimited, meta)
}

func (s *AuthService) recordLoginLog(user *models.User, email, failReason string, meta LoginMeta) {
	if s.loginLogRepo == nil {
		return
	}
	log := &models.UserLoginLog{
		Email:     strings.TrimSpace(email),
		Status:    constants.LoginLogStatusSuccess,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		RequestID: meta.RequestID,
		CreatedAt: time.Now(),
	}
	if user != nil {
		log.UserID = user.ID
	}
	if failReason != "" {
		log.Status = constants.LoginLogStatusFailed
		log.FailReason = failReason
	}
	_ = s.loginLogRepo.Create(log)
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// NormalizeEmail 统一邮箱格式
func NormalizeEmail(email string) (string, error) {
	return normalizeEmail(email)
}
