package models

import "time"

// UserLoginLog 登录日志
// 说明：记录登录成功或失败行为，供经理审计与账号安全排查。
type UserLoginLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uint      `gorm:"index" json:"user_id"` // 失败时可为 0
	Email      string    `gorm:"index;not null" json:"email"`
	Status     string    `gorm:"index;not null" json:"status"` // success / failed
	FailReason string    `gorm:"index" json:"fail_reason"`
	ClientIP   string    `gorm:"type:varchar(64);index" json:"client_ip"`
	UserAgent  string    `gorm:"type:text" json:"user_agent"`
	RequestID  string    `gorm:"type:varchar(64);index" json:"request_id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (UserLoginLog) TableName() string {
	return "user_login_logs"
}
