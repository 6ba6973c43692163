package service

import (
	"errors"
	"testing"
	"time"

	"github.com/mailpulse/mailpulse/internal/config"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/queue"
	"github.com/mailpulse/mailpulse/internal/repository"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:8080"},
		JWT:    config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1},
		Email: config.EmailConfig{
			Verification: config.VerificationConfig{ExpireMinutes: 60},
		},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8, RequireUpper: true, RequireLower: true, RequireNumber: true},
		},
	}
}

func setupRegistrationTest(t *testing.T, name string) (*RegistrationService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.VerificationToken{}, &models.UserLoginLog{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	cfg := testConfig()
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewVerificationTokenRepository(db)
	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("init queue failed: %v", err)
	}
	authService := NewAuthService(cfg, userRepo, repository.NewUserLoginLogRepository(db))
	emailService := NewEmailService(&cfg.Email)
	svc := NewRegistrationService(cfg, userRepo, tokenRepo, emailService, queueClient, authService)
	return svc, db
}

func TestRegisterCreatesInactiveUserWithToken(t *testing.T) {
	svc, db := setupRegistrationTest(t, "reg_create")

	user, err := svc.Register("New.User@Example.com", "newbie", "Sup3rSecret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "new.user@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if user.Active {
		t.Fatalf("new user must be inactive")
	}

	var tokens []models.VerificationToken
	if err := db.Where("user_id = ?", user.ID).Find(&tokens).Error; err != nil {
		t.Fatalf("load tokens failed: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("tokens want 1 got %d", len(tokens))
	}
	if tokens[0].Token == "" {
		t.Fatalf("token value empty")
	}
	remaining := time.Until(tokens[0].ExpiresAt)
	if remaining < 59*time.Minute || remaining > 61*time.Minute {
		t.Fatalf("token expiry want ~60m got %v", remaining)
	}

	if _, err := svc.Register("new.user@example.com", "dupe", "Sup3rSecret"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate register want ErrEmailExists got %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _ := setupRegistrationTest(t, "reg_weak")
	if _, err := svc.Register("weak@example.com", "w", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak password want ErrWeakPassword got %v", err)
	}
	if _, err := svc.Register("bad-email", "w", "Sup3rSecret"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("bad email want ErrInvalidEmail got %v", err)
	}
}

func TestVerifyActivatesUserAndConsumesToken(t *testing.T) {
	svc, db := setupRegistrationTest(t, "reg_verify")

	user, err := svc.Register("verify@example.com", "v", "Sup3rSecret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	var record models.VerificationToken
	if err := db.Where("user_id = ?", user.ID).First(&record).Error; err != nil {
		t.Fatalf("load token failed: %v", err)
	}

	verified, jwtToken, expiresAt, err := svc.Verify(record.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !verified.Active {
		t.Fatalf("verify must activate user")
	}
	if jwtToken == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("verify must issue a session token")
	}

	var count int64
	if err := db.Model(&models.VerificationToken{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count tokens failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("token must be deleted after use, %d left", count)
	}

	// 二次使用同一令牌
	if _, _, _, err := svc.Verify(record.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("reused token want ErrTokenInvalid got %v", err)
	}
}

func TestVerifyExpiredTokenKeptInTable(t *testing.T) {
	svc, db := setupRegistrationTest(t, "reg_expired")

	user, err := svc.Register("expired@example.com", "e", "Sup3rSecret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	var record models.VerificationToken
	if err := db.Where("user_id = ?", user.ID).First(&record).Error; err != nil {
		t.Fatalf("load token failed: %v", err)
	}
	if err := db.Model(&record).Update("expires_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("expire token failed: %v", err)
	}

	if _, _, _, err := svc.Verify(record.Token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired token want ErrTokenExpired got %v", err)
	}

	// 过期令牌保留在表中
	var count int64
	if err := db.Model(&models.VerificationToken{}).Where("id = ?", record.ID).Count(&count).Error; err != nil {
		t.Fatalf("count tokens failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expired token must stay in table")
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if reloaded.Active {
		t.Fatalf("expired verify must not activate user")
	}
}

func TestVerifyUnknownToken(t *testing.T) {
	svc, _ := setupRegistrationTest(t, "reg_unknown")
	if _, _, _, err := svc.Verify("no-such-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("unknown token want ErrTokenInvalid got %v", err)
	}
	if _, _, _, err := svc.Verify("  "); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("blank token want ErrTokenInvalid got %v", err)
	}
}

func TestResendVerificationIssuesNewToken(t *testing.T) {
	svc, db := setupRegistrationTest(t, "reg_resend")

	user, err := svc.Register("resend@example.com", "r", "Sup3rSecret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.ResendVerification("resend@example.com"); err != nil {
		t.Fatalf("resend failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.VerificationToken{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count tokens failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("tokens after resend want 2 got %d", count)
	}

	// 未注册邮箱静默成功，不暴露账号是否存在
	if err := svc.ResendVerification("ghost@example.com"); err != nil {
		t.Fatalf("resend for unknown email want nil got %v", err)
	}
}

func TestLoginRequiresVerifiedAccount(t *testing.T) {
	svc, db := setupRegistrationTest(t, "reg_login")

	if _, err := svc.Register("login@example.com", "l", "Sup3rSecret"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, _, _, err := svc.authService.Login("login@example.com", "Sup3rSecret", LoginMeta{}); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("unverified login want ErrNotVerified got %v", err)
	}

	var user models.User
	if err := db.Where("email = ?", "login@example.com").First(&user).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	var record models.VerificationToken
	if err := db.Where("user_id = ?", user.ID).First(&record).Error; err != nil {
		t.Fatalf("load token failed: %v", err)
	}
	if _, _, _, err := svc.Verify(record.Token); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	logged, token, _, err := svc.authService.Login("login@example.com", "Sup3rSecret", LoginMeta{ClientIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || logged.LastLoginAt == nil {
		t.Fatalf("login must return token and stamp last_login_at")
	}

	if _, _, _, err := svc.authService.Login("login@example.com", "wrong-pass", LoginMeta{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}

	var logs []models.UserLoginLog
	if err := db.Order("id asc").Find(&logs).Error; err != nil {
		t.Fatalf("load login logs failed: %v", err)
	}
	if len(logs) < 3 {
		t.Fatalf("login logs want >=3 got %d", len(logs))
	}
}

func TestUpdateProfileChangesUsername(t *testing.T) {
	svc, db := setupRegistrationTest(t, "reg_profile")

	user := &models.User{Email: "pf@example.com", Username: "old-name", PasswordHash: "x", Active: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	if _, err := svc.authService.UpdateProfile(user.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank username want ErrInvalidInput got %v", err)
	}
	if _, err := svc.authService.UpdateProfile(9999, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user want ErrNotFound got %v", err)
	}

	updated, err := svc.authService.UpdateProfile(user.ID, "  new-name  ")
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.Username != "new-name" {
		t.Fatalf("username want new-name got %q", updated.Username)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if reloaded.Username != "new-name" {
		t.Fatalf("persisted username want new-name got %q", reloaded.Username)
	}
	if reloaded.Email != "pf@example.com" {
		t.Fatalf("email must not change, got %q", reloaded.Email)
	}
	if reloaded.TokenVersion != user.TokenVersion {
		t.Fatalf("profile update must not bump token_version")
	}
}

func TestChangePasswordBumpsTokenVersion(t *testing.T) {
	svc, db := setupRegistrationTest(t, "reg_chpass")

	hash, err := bcrypt.GenerateFromPassword([]byte("Sup3rSecret"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	user := &models.User{Email: "cp@example.com", Username: "cp", PasswordHash: string(hash), Active: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	if err := svc.authService.ChangePassword(user.ID, "wrong", "N3wSecret!"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong old password want ErrInvalidPassword got %v", err)
	}
	if err := svc.authService.ChangePassword(user.ID, "Sup3rSecret", "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak new password want ErrWeakPassword got %v", err)
	}
	if err := svc.authService.ChangePassword(user.ID, "Sup3rSecret", "N3wSecret"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if reloaded.TokenVersion != user.TokenVersion+1 {
		t.Fatalf("token_version want %d got %d", user.TokenVersion+1, reloaded.TokenVersion)
	}
	if reloaded.TokenInvalidBefore == nil {
		t.Fatalf("token_invalid_before must be set")
	}
}
