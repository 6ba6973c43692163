package repository

import (
	"testing"
	"time"

	"github.com/mailpulse/mailpulse/internal/constants"
	"github.com/mailpulse/mailpulse/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTest(t *testing.T, name string) *gorm.DB {
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
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		Username:     email,
		PasswordHash: "x",
		Active:       true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func TestOwnerScopeLimitsListToOwner(t *testing.T) {
	db := setupRepositoryTest(t, "repo_scope_list")
	repo := NewRecipientRepository(db)

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	for i, tc := range []struct {
		email   string
		ownerID uint
	}{
		{"r1@example.com", alice.ID},
		{"r2@example.com", alice.ID},
		{"r3@example.com", bob.ID},
	} {
		if err := repo.Create(&models.Recipient{
			Email:    tc.email,
			LastName: "Test",
			OwnerID:  tc.ownerID,
		}); err != nil {
			t.Fatalf("create recipient %d failed: %v", i, err)
		}
	}

	own, total, err := repo.List(ScopeForOwner(alice.ID), RecipientListFilter{Page: 1, PageSize: constants.DefaultPageSize})
	if err != nil {
		t.Fatalf("list own failed: %v", err)
	}
	if total != 2 || len(own) != 2 {
		t.Fatalf("own list want 2 got total=%d len=%d", total, len(own))
	}
	for _, rec := range own {
		if rec.OwnerID != alice.ID {
			t.Fatalf("own list leaked recipient of owner %d", rec.OwnerID)
		}
	}

	all, total, err := repo.List(ScopeForAll(), RecipientListFilter{Page: 1, PageSize: constants.DefaultPageSize})
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("all list want 3 got total=%d len=%d", total, len(all))
	}
}

func TestOwnerScopeHidesForeignRecordByID(t *testing.T) {
	db := setupRepositoryTest(t, "repo_scope_get")
	repo := NewMessageRepository(db)

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	message := &models.Message{Subject: "hello", Body: "world", OwnerID: alice.ID}
	if err := repo.Create(message); err != nil {
		t.Fatalf("create message failed: %v", err)
	}

	got, err := repo.GetByID(ScopeForOwner(bob.ID), message.ID)
	if err != nil {
		t.Fatalf("get foreign failed: %v", err)
	}
	if got != nil {
		t.Fatalf("foreign scope should not see message, got %+v", got)
	}

	got, err = repo.GetByID(ScopeForAll(), message.ID)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if got == nil || got.ID != message.ID {
		t.Fatalf("view_all scope should see message")
	}
}

func TestMailingRecipientsAssociation(t *testing.T) {
	db := setupRepositoryTest(t, "repo_mailing_assoc")
	mailingRepo := NewMailingRepository(db)
	recipientRepo := NewRecipientRepository(db)

	owner := createTestUser(t, db, "owner@example.com")

	r1 := &models.Recipient{Email: "a@example.com", LastName: "A", OwnerID: owner.ID}
	r2 := &models.Recipient{Email: "b@example.com", LastName: "B", OwnerID: owner.ID}
	for _, rec := range []*models.Recipient{r1, r2} {
		if err := recipientRepo.Create(rec); err != nil {
			t.Fatalf("create recipient failed: %v", err)
		}
	}

	message := &models.Message{Subject: "s", Body: "b", OwnerID: owner.ID}
	if err := db.Create(message).Error; err != nil {
		t.Fatalf("create message failed: %v", err)
	}

	now := time.Now()
	mailing := &models.Mailing{
		StartTime:  now.Add(time.Hour),
		EndTime:    now.Add(2 * time.Hour),
		Status:     models.MailingStatusCreated,
		MessageID:  message.ID,
		Recipients: []models.Recipient{*r1},
		OwnerID:    owner.ID,
	}
	if err := mailingRepo.Create(mailing); err != nil {
		t.Fatalf("create mailing failed: %v", err)
	}

	loaded, err := mailingRepo.GetByID(ScopeForOwner(owner.ID), mailing.ID)
	if err != nil {
		t.Fatalf("get mailing failed: %v", err)
	}
	if loaded == nil || len(loaded.Recipients) != 1 {
		t.Fatalf("mailing recipients want 1 got %+v", loaded)
	}

	if err := mailingRepo.ReplaceRecipients(loaded, []models.Recipient{*r1, *r2}); err != nil {
		t.Fatalf("replace recipients failed: %v", err)
	}
	loaded, err = mailingRepo.GetByID(ScopeForOwner(owner.ID), mailing.ID)
	if err != nil {
		t.Fatalf("reload mailing failed: %v", err)
	}
	if len(loaded.Recipients) != 2 {
		t.Fatalf("after replace want 2 recipients got %d", len(loaded.Recipients))
	}
	if loaded.Message == nil || loaded.Message.Subject != "s" {
		t.Fatalf("mailing message not preloaded: %+v", loaded.Message)
	}
}

func TestMailingAttemptListOrdering(t *testing.T) {
	db := setupRepositoryTest(t, "repo_attempt_order")
	repo := NewMailingAttemptRepository(db)

	base := time.Now().Add(-time.Hour)
	for i, tc := range []struct {
		offset time.Duration
		status string
	}{
		{0, constants.AttemptStatusFailed},
		{10 * time.Minute, constants.AttemptStatusSuccess},
		{20 * time.Minute, constants.AttemptStatusSuccess},
	} {
		if err := repo.Create(&models.MailingAttempt{
			AttemptTime:    base.Add(tc.offset),
			Status:         tc.status,
			ServerResponse: "r",
			MailingID:      1,
		}); err != nil {
			t.Fatalf("create attempt %d failed: %v", i, err)
		}
	}

	attempts, total, err := repo.List(MailingAttemptListFilter{MailingID: 1, Page: 1, PageSize: constants.DefaultPageSize})
	if err != nil {
		t.Fatalf("list attempts failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("attempts total want 3 got %d", total)
	}
	for i := 1; i < len(attempts); i++ {
		if attempts[i].AttemptTime.After(attempts[i-1].AttemptTime) {
			t.Fatalf("attempts not ordered by attempt_time desc")
		}
	}

	failed, _, err := repo.List(MailingAttemptListFilter{MailingID: 1, Status: constants.AttemptStatusFailed, Page: 1, PageSize: constants.DefaultPageSize})
	if err != nil {
		t.Fatalf("list failed attempts failed: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("failed attempts want 1 got %d", len(failed))
	}
}
