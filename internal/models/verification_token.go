package models

import "time"

// VerificationToken 邮箱验证令牌。一次性使用：验证成功后删除；
// 过期令牌保留原记录，仅在校验时按 ExpiresAt 拒绝。
type VerificationToken struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"` // 不透明随机值（UUID）
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"` // 创建时写死，校验为纯比较
}

// TableName 指定表名
func (VerificationToken) TableName() string {
	return "verification_tokens"
}

// Expired 判断令牌在给定时刻是否已过期
func (t *VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
