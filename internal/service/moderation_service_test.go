package service

import (
	"errors"
	"testing"
	"time"

	"github.com/mailpulse/mailpulse/internal/authz"
	"github.com/mailpulse/mailpulse/internal/constants"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type moderationFixture struct {
	db      *gorm.DB
	svc     *ModerationService
	manager *models.User
	tenant  *models.User
}

func setupModerationTest(t *testing.T, name string) *moderationFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Recipient{},
		&models.Message{},
		&models.Mailing{},
		&models.ModerationLog{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("init authz failed: %v", err)
	}
	if err := authzService.BootstrapManagerRole(); err != nil {
		t.Fatalf("bootstrap manager role failed: %v", err)
	}

	manager := &models.User{Email: "mgr@example.com", Username: "mgr", PasswordHash: "x", Active: true}
	tenant := &models.User{Email: "tenant@example.com", Username: "tenant", PasswordHash: "x", Active: true}
	for _, u := range []*models.User{manager, tenant} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}
	if err := authzService.GrantManager(manager.ID); err != nil {
		t.Fatalf("grant manager failed: %v", err)
	}

	svc := NewModerationService(
		repository.NewUserRepository(db),
		repository.NewMailingRepository(db),
		repository.NewModerationLogRepository(db),
		authzService,
	)
	return &moderationFixture{db: db, svc: svc, manager: manager, tenant: tenant}
}

func (f *moderationFixture) seedMailing(t *testing.T, status models.MailingStatus) *models.Mailing {
	t.Helper()
	message := &models.Message{Subject: "s", Body: "b", OwnerID: f.tenant.ID}
	if err := f.db.Create(message).Error; err != nil {
		t.Fatalf("create message failed: %v", err)
	}
	now := time.Now()
	mailing := &models.Mailing{
		StartTime: now.Add(time.Hour),
		EndTime:   now.Add(2 * time.Hour),
		Status:    status,
		MessageID: message.ID,
		OwnerID:   f.tenant.ID,
	}
	if err := f.db.Create(mailing).Error; err != nil {
		t.Fatalf("create mailing failed: %v", err)
	}
	return mailing
}

func TestBlockUserRequiresCapability(t *testing.T) {
	f := setupModerationTest(t, "mod_block_cap")

	if err := f.svc.BlockUser(f.tenant.ID, f.manager.ID, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("plain user block want ErrForbidden got %v", err)
	}

	if err := f.svc.BlockUser(f.manager.ID, f.tenant.ID, "spam"); err != nil {
		t.Fatalf("manager block failed: %v", err)
	}

	var reloaded models.User
	if err := f.db.First(&reloaded, f.tenant.ID).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if !reloaded.Blocked {
		t.Fatalf("user must be blocked")
	}
	if reloaded.TokenVersion == 0 || reloaded.TokenInvalidBefore == nil {
		t.Fatalf("block must invalidate issued tokens")
	}

	var logs []models.ModerationLog
	if err := f.db.Find(&logs).Error; err != nil {
		t.Fatalf("load logs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != constants.ModerationActionBlockUser || logs[0].TargetID != f.tenant.ID {
		t.Fatalf("moderation log want one block_user entry got %+v", logs)
	}

	if err := f.svc.UnblockUser(f.manager.ID, f.tenant.ID, ""); err != nil {
		t.Fatalf("unblock failed: %v", err)
	}
	if err := f.db.First(&reloaded, f.tenant.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.Blocked {
		t.Fatalf("user must be unblocked")
	}
}

func TestBlockSelfRejected(t *testing.T) {
	f := setupModerationTest(t, "mod_self")
	if err := f.svc.BlockUser(f.manager.ID, f.manager.ID, ""); !errors.Is(err, ErrSelfModeration) {
		t.Fatalf("self block want ErrSelfModeration got %v", err)
	}
}

func TestBlockUnknownUser(t *testing.T) {
	f := setupModerationTest(t, "mod_unknown")
	if err := f.svc.BlockUser(f.manager.ID, 9999, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown target want ErrNotFound got %v", err)
	}
}

func TestDisableEnableMailingLifecycle(t *testing.T) {
	f := setupModerationTest(t, "mod_mailing")
	mailing := f.seedMailing(t, models.MailingStatusCreated)

	if _, err := f.svc.DisableMailing(f.tenant.ID, mailing.ID, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("plain user disable want ErrForbidden got %v", err)
	}

	disabled, err := f.svc.DisableMailing(f.manager.ID, mailing.ID, "policy")
	if err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	if disabled.Status != models.MailingStatusDisabled {
		t.Fatalf("status want disabled got %s", disabled.Status)
	}

	// 已停用的活动不能重复停用
	if _, err := f.svc.DisableMailing(f.manager.ID, mailing.ID, ""); !errors.Is(err, ErrMailingImmutable) {
		t.Fatalf("double disable want ErrMailingImmutable got %v", err)
	}

	enabled, err := f.svc.EnableMailing(f.manager.ID, mailing.ID, "")
	if err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if enabled.Status != models.MailingStatusCreated {
		t.Fatalf("enable must return to created, got %s", enabled.Status)
	}

	completed := f.seedMailing(t, models.MailingStatusCompleted)
	if _, err := f.svc.DisableMailing(f.manager.ID, completed.ID, ""); !errors.Is(err, ErrMailingImmutable) {
		t.Fatalf("completed disable want ErrMailingImmutable got %v", err)
	}

	var logs []models.ModerationLog
	if err := f.db.Order("id asc").Find(&logs).Error; err != nil {
		t.Fatalf("load logs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("moderation logs want 2 got %d", len(logs))
	}
	if logs[0].Action != constants.ModerationActionDisableMailing || logs[1].Action != constants.ModerationActionEnableMailing {
		t.Fatalf("log actions unexpected: %+v", logs)
	}
}

func TestModerationListingsRequireCapability(t *testing.T) {
	f := setupModerationTest(t, "mod_listings")

	if _, _, err := f.svc.ListUsers(f.tenant.ID, repository.UserListFilter{Page: 1, PageSize: 10}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("plain user list want ErrForbidden got %v", err)
	}
	users, total, err := f.svc.ListUsers(f.manager.ID, repository.UserListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("manager list users failed: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Fatalf("manager user list want 2 got %d", total)
	}

	if _, _, err := f.svc.ListLog(f.tenant.ID, repository.ModerationLogListFilter{Page: 1, PageSize: 10}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("plain user log list want ErrForbidden got %v", err)
	}
}
