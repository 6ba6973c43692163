package models

import (
	"time"

	"gorm.io/gorm"
)

// User 账号表。注册后处于未激活状态，邮箱验证通过后才能登录；
// Blocked 只能由经理设置，被封禁账号名下的邮件活动不允许派发。
type User struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	Email              string         `gorm:"uniqueIndex;not null" json:"email"` // 登录标识
	Username           string         `gorm:"not null" json:"username"`
	PasswordHash       string         `gorm:"not null" json:"-"`
	Active             bool           `gorm:"not null;default:false" json:"active"`  // 邮箱验证后置为 true
	Blocked            bool           `gorm:"not null;default:false" json:"blocked"` // 仅经理可设置
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`
	LastLoginAt        *time.Time     `json:"last_login_at"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
