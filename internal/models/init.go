package models

import (
	"strings"

	"github.com/mailpulse/mailpulse/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultManager 初始化默认经理账号。
// 已存在同邮箱账号时直接返回该账号；角色授予由 authz 层完成。
func InitDefaultManager(email, username, password string) (*User, error) {
	if strings.TrimSpace(email) == "" {
		email = "manager@mailpulse.local"
	}
	if strings.TrimSpace(username) == "" {
		username = "manager"
	}
	if password == "" {
		password = "manager123"
	}

	var existing User
	if err := DB.Where("email = ?", strings.ToLower(email)).First(&existing).Error; err == nil {
		return &existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	manager := User{
		Email:        strings.ToLower(email),
		Username:     username,
		PasswordHash: string(hash),
		Active:       true, // 经理账号无需邮箱验证
	}
	if err := DB.Create(&manager).Error; err != nil {
		return nil, err
	}

	if password == "manager123" {
		logger.Warnw("default_manager_created_with_default_password", "email", manager.Email)
		logger.Warnw("default_manager_password_change_required", "email", manager.Email)
	} else {
		logger.Warnw("default_manager_created", "email", manager.Email, "password_hidden", true)
	}

	return &manager, nil
}
