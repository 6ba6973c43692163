package main

import (
	"log"
	"time"

	"github.com/mailpulse/mailpulse/internal/authz"
	"github.com/mailpulse/mailpulse/internal/config"
	"github.com/mailpulse/mailpulse/internal/logger"
	"github.com/mailpulse/mailpulse/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 经理账号
	manager, err := models.InitDefaultManager("manager@mailpulse.local", "manager", "manager123")
	if err != nil {
		stdLog.Fatalf("Failed to create manager: %v", err)
	}
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz: %v", err)
	}
	if err := authzService.BootstrapManagerRole(); err != nil {
		stdLog.Fatalf("Failed to bootstrap manager role: %v", err)
	}
	if err := authzService.GrantManager(manager.ID); err != nil {
		stdLog.Fatalf("Failed to grant manager role: %v", err)
	}
	stdLog.Printf("Manager ready: %s", manager.Email)

	// 演示租户账号
	tenants := []struct {
		Email    string
		Username string
	}{
		{Email: "alice@example.com", Username: "alice"},
		{Email: "bob@example.com", Username: "bob"},
	}
	tenantIDs := map[string]uint{}
	for _, tenant := range tenants {
		user := ensureUser(stdLog, tenant.Email, tenant.Username, "Password123")
		if user != nil {
			tenantIDs[tenant.Username] = user.ID
		}
	}
	aliceID := tenantIDs["alice"]
	bobID := tenantIDs["bob"]

	// 收件人
	recipients := []models.Recipient{
		{Email: "ivanov@example.com", LastName: "Ivanov", FirstName: "Ivan", Patronymic: "Ivanovich", Comment: "newsletter subscriber", OwnerID: aliceID},
		{Email: "petrova@example.com", LastName: "Petrova", FirstName: "Maria", Comment: "trial signup", OwnerID: aliceID},
		{Email: "sidorov@example.com", LastName: "Sidorov", FirstName: "Pavel", OwnerID: aliceID},
		{Email: "smith@example.com", LastName: "Smith", FirstName: "John", Comment: "imported contact", OwnerID: bobID},
		{Email: "mueller@example.com", LastName: "Mueller", FirstName: "Anna", OwnerID: bobID},
	}
	recipientIDs := map[string]uint{}
	for _, recipient := range recipients {
		r := recipient
		var existing models.Recipient
		if err := models.DB.Where("email = ?", r.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&r).Error; err != nil {
				stdLog.Printf("Failed to create recipient %s: %v", r.Email, err)
				continue
			}
			stdLog.Printf("Created recipient: %s", r.Email)
			recipientIDs[r.Email] = r.ID
		} else {
			stdLog.Printf("Recipient already exists: %s", existing.Email)
			recipientIDs[existing.Email] = existing.ID
		}
	}

	// 信件模板
	messages := []models.Message{
		{Subject: "Welcome to our newsletter", Body: "Hello! Thanks for subscribing. We send product updates twice a month.", OwnerID: aliceID},
		{Subject: "October promo", Body: "This month only: 20% off all annual plans. Use code OCT20 at checkout.", OwnerID: aliceID},
		{Subject: "Service maintenance notice", Body: "We will perform scheduled maintenance on Saturday from 02:00 to 04:00 UTC.", OwnerID: bobID},
	}
	messageIDs := map[string]uint{}
	for _, message := range messages {
		m := message
		var existing models.Message
		if err := models.DB.Where("subject = ? AND owner_id = ?", m.Subject, m.OwnerID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&m).Error; err != nil {
				stdLog.Printf("Failed to create message %q: %v", m.Subject, err)
				continue
			}
			stdLog.Printf("Created message: %s", m.Subject)
			messageIDs[m.Subject] = m.ID
		} else {
			stdLog.Printf("Message already exists: %s", existing.Subject)
			messageIDs[existing.Subject] = existing.ID
		}
	}

	// 邮件活动
	now := time.Now()
	seedMailing(stdLog, "Welcome to our newsletter", aliceID,
		messageIDs["Welcome to our newsletter"],
		[]uint{recipientIDs["ivanov@example.com"], recipientIDs["petrova@example.com"], recipientIDs["sidorov@example.com"]},
		now.Add(time.Hour), now.Add(72*time.Hour))
	seedMailing(stdLog, "October promo", aliceID,
		messageIDs["October promo"],
		[]uint{recipientIDs["ivanov@example.com"]},
		now.Add(24*time.Hour), now.Add(7*24*time.Hour))
	seedMailing(stdLog, "Service maintenance notice", bobID,
		messageIDs["Service maintenance notice"],
		[]uint{recipientIDs["smith@example.com"], recipientIDs["mueller@example.com"]},
		now.Add(2*time.Hour), now.Add(48*time.Hour))

	stdLog.Printf("Seed finished")
}

func ensureUser(stdLog *log.Logger, email, username, password string) *models.User {
	var existing models.User
	if err := models.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		stdLog.Printf("User already exists: %s", existing.Email)
		return &existing
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Printf("Failed to hash password for %s: %v", email, err)
		return nil
	}
	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Active:       true, // 演示账号直接跳过邮箱验证
	}
	if err := models.DB.Create(&user).Error; err != nil {
		stdLog.Printf("Failed to create user %s: %v", email, err)
		return nil
	}
	stdLog.Printf("Created user: %s", email)
	return &user
}

func seedMailing(stdLog *log.Logger, name string, ownerID, messageID uint, recipientIDs []uint, start, end time.Time) {
	if ownerID == 0 || messageID == 0 {
		stdLog.Printf("Skip mailing %q: missing owner or message", name)
		return
	}
	ids := make([]uint, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		stdLog.Printf("Skip mailing %q: no recipients", name)
		return
	}

	var existing models.Mailing
	if err := models.DB.Where("message_id = ? AND owner_id = ?", messageID, ownerID).First(&existing).Error; err == nil {
		stdLog.Printf("Mailing already exists for message: %s", name)
		return
	}

	var recipients []models.Recipient
	if err := models.DB.Where("id IN ?", ids).Find(&recipients).Error; err != nil {
		stdLog.Printf("Failed to load recipients for mailing %q: %v", name, err)
		return
	}
	mailing := models.Mailing{
		StartTime:  start,
		EndTime:    end,
		Status:     models.MailingStatusCreated,
		MessageID:  messageID,
		Recipients: recipients,
		OwnerID:    ownerID,
	}
	if err := models.DB.Create(&mailing).Error; err != nil {
		stdLog.Printf("Failed to create mailing %q: %v", name, err)
		return
	}
	stdLog.Printf("Created mailing: %s", name)
}
