package service

import (
	"errors"
	"testing"
	"time"

	"github.com/mailpulse/mailpulse/internal/authz"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type mailingFixture struct {
	db    *gorm.DB
	svc   *MailingService
	authz *authz.Service
	alice *models.User
	bob   *models.User
}

func setupMailingTest(t *testing.T, name string) *mailingFixture {
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
		&models.MailingAttempt{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("init authz failed: %v", err)
	}

	alice := &models.User{Email: "alice@example.com", Username: "alice", PasswordHash: "x", Active: true}
	bob := &models.User{Email: "bob@example.com", Username: "bob", PasswordHash: "x", Active: true}
	for _, u := range []*models.User{alice, bob} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}

	svc := NewMailingService(
		repository.NewMailingRepository(db),
		repository.NewMessageRepository(db),
		repository.NewRecipientRepository(db),
		repository.NewMailingAttemptRepository(db),
		authzService,
	)
	return &mailingFixture{db: db, svc: svc, authz: authzService, alice: alice, bob: bob}
}

func (f *mailingFixture) seedMessage(t *testing.T, ownerID uint) *models.Message {
	t.Helper()
	message := &models.Message{Subject: "s", Body: "b", OwnerID: ownerID}
	if err := f.db.Create(message).Error; err != nil {
		t.Fatalf("create message failed: %v", err)
	}
	return message
}

func (f *mailingFixture) seedRecipient(t *testing.T, email string, ownerID uint) *models.Recipient {
	t.Helper()
	recipient := &models.Recipient{Email: email, LastName: "R", OwnerID: ownerID}
	if err := f.db.Create(recipient).Error; err != nil {
		t.Fatalf("create recipient failed: %v", err)
	}
	return recipient
}

func TestMailingCreateValidatesWindow(t *testing.T) {
	f := setupMailingTest(t, "mailing_window")
	message := f.seedMessage(t, f.alice.ID)
	recipient := f.seedRecipient(t, "r@example.com", f.alice.ID)
	now := time.Now()

	cases := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr error
	}{
		{"start_in_past", now.Add(-time.Minute), now.Add(time.Hour), ErrStartTimeInPast},
		{"start_now", now, now.Add(time.Hour), ErrStartTimeInPast},
		{"end_before_start", now.Add(2 * time.Hour), now.Add(time.Hour), ErrEndBeforeStart},
		{"end_equals_start", now.Add(time.Hour), now.Add(time.Hour), ErrEndBeforeStart},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(f.alice.ID, MailingInput{
				StartTime:    tc.start,
				EndTime:      tc.end,
				MessageID:    message.ID,
				RecipientIDs: []uint{recipient.ID},
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v got %v", tc.wantErr, err)
			}
		})
	}

	var count int64
	if err := f.db.Model(&models.Mailing{}).Count(&count).Error; err != nil {
		t.Fatalf("count mailings failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("invalid input must not persist, %d rows", count)
	}
}

func TestMailingCreateChecksOwnership(t *testing.T) {
	f := setupMailingTest(t, "mailing_ownership")
	aliceMessage := f.seedMessage(t, f.alice.ID)
	aliceRecipient := f.seedRecipient(t, "ra@example.com", f.alice.ID)
	bobMessage := f.seedMessage(t, f.bob.ID)
	bobRecipient := f.seedRecipient(t, "rb@example.com", f.bob.ID)
	now := time.Now()

	// 信件归属他人
	if _, err := f.svc.Create(f.alice.ID, MailingInput{
		StartTime:    now.Add(time.Hour),
		EndTime:      now.Add(2 * time.Hour),
		MessageID:    bobMessage.ID,
		RecipientIDs: []uint{aliceRecipient.ID},
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign message want ErrNotFound got %v", err)
	}

	// 收件人归属他人
	if _, err := f.svc.Create(f.alice.ID, MailingInput{
		StartTime:    now.Add(time.Hour),
		EndTime:      now.Add(2 * time.Hour),
		MessageID:    aliceMessage.ID,
		RecipientIDs: []uint{bobRecipient.ID},
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign recipient want ErrNotFound got %v", err)
	}

	// 收件人为空
	if _, err := f.svc.Create(f.alice.ID, MailingInput{
		StartTime: now.Add(time.Hour),
		EndTime:   now.Add(2 * time.Hour),
		MessageID: aliceMessage.ID,
	}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("no recipients want ErrNoRecipients got %v", err)
	}

	mailing, err := f.svc.Create(f.alice.ID, MailingInput{
		StartTime:    now.Add(time.Hour),
		EndTime:      now.Add(2 * time.Hour),
		MessageID:    aliceMessage.ID,
		RecipientIDs: []uint{aliceRecipient.ID},
	})
	if err != nil {
		t.Fatalf("create mailing failed: %v", err)
	}
	if mailing.Status != models.MailingStatusCreated {
		t.Fatalf("new mailing status want created got %s", mailing.Status)
	}
	if len(mailing.Recipients) != 1 {
		t.Fatalf("mailing recipients want 1 got %d", len(mailing.Recipients))
	}
}

func TestMailingUpdateOnlyWhileCreated(t *testing.T) {
	f := setupMailingTest(t, "mailing_update")
	message := f.seedMessage(t, f.alice.ID)
	recipient := f.seedRecipient(t, "r@example.com", f.alice.ID)
	now := time.Now()

	mailing, err := f.svc.Create(f.alice.ID, MailingInput{
		StartTime:    now.Add(time.Hour),
		EndTime:      now.Add(2 * time.Hour),
		MessageID:    message.ID,
		RecipientIDs: []uint{recipient.ID},
	})
	if err != nil {
		t.Fatalf("create mailing failed: %v", err)
	}

	second := f.seedRecipient(t, "r2@example.com", f.alice.ID)
	updated, err := f.svc.Update(f.alice.ID, mailing.ID, MailingInput{
		StartTime:    now.Add(3 * time.Hour),
		EndTime:      now.Add(4 * time.Hour),
		MessageID:    message.ID,
		RecipientIDs: []uint{recipient.ID, second.ID},
	})
	if err != nil {
		t.Fatalf("update mailing failed: %v", err)
	}
	if len(updated.Recipients) != 2 {
		t.Fatalf("updated recipients want 2 got %d", len(updated.Recipients))
	}

	if err := f.db.Model(&models.Mailing{}).Where("id = ?", mailing.ID).
		Update("status", models.MailingStatusRunning).Error; err != nil {
		t.Fatalf("set running failed: %v", err)
	}
	if _, err := f.svc.Update(f.alice.ID, mailing.ID, MailingInput{
		StartTime:    now.Add(5 * time.Hour),
		EndTime:      now.Add(6 * time.Hour),
		MessageID:    message.ID,
		RecipientIDs: []uint{recipient.ID},
	}); !errors.Is(err, ErrMailingImmutable) {
		t.Fatalf("running update want ErrMailingImmutable got %v", err)
	}
}

func TestMailingListScopedByOwner(t *testing.T) {
	f := setupMailingTest(t, "mailing_scope")
	aliceMessage := f.seedMessage(t, f.alice.ID)
	aliceRecipient := f.seedRecipient(t, "ra@example.com", f.alice.ID)
	bobMessage := f.seedMessage(t, f.bob.ID)
	bobRecipient := f.seedRecipient(t, "rb@example.com", f.bob.ID)
	now := time.Now()

	if _, err := f.svc.Create(f.alice.ID, MailingInput{
		StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour),
		MessageID: aliceMessage.ID, RecipientIDs: []uint{aliceRecipient.ID},
	}); err != nil {
		t.Fatalf("create alice mailing failed: %v", err)
	}
	bobMailing, err := f.svc.Create(f.bob.ID, MailingInput{
		StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour),
		MessageID: bobMessage.ID, RecipientIDs: []uint{bobRecipient.ID},
	})
	if err != nil {
		t.Fatalf("create bob mailing failed: %v", err)
	}

	own, total, err := f.svc.List(f.alice.ID, repository.MailingListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(own) != 1 || own[0].OwnerID != f.alice.ID {
		t.Fatalf("alice must only see her mailing, total=%d", total)
	}

	if _, err := f.svc.Get(f.alice.ID, bobMailing.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign get want ErrNotFound got %v", err)
	}

	// 经理能力可跨租户查看
	if err := f.authz.BootstrapManagerRole(); err != nil {
		t.Fatalf("bootstrap manager failed: %v", err)
	}
	manager := &models.User{Email: "mgr@example.com", Username: "mgr", PasswordHash: "x", Active: true}
	if err := f.db.Create(manager).Error; err != nil {
		t.Fatalf("create manager failed: %v", err)
	}
	if err := f.authz.GrantManager(manager.ID); err != nil {
		t.Fatalf("grant manager failed: %v", err)
	}
	all, total, err := f.svc.List(manager.ID, repository.MailingListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("manager list failed: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("manager must see all mailings, total=%d", total)
	}
}
