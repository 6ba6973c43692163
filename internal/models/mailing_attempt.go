package models

import "time"

// MailingAttempt 发送尝试审计记录，只增不改。
// 每次派发为每个收件人写一条；派发在整体校验阶段被拒绝时写一条系统性记录。
type MailingAttempt struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	AttemptTime    time.Time `gorm:"index;not null" json:"attempt_time"`
	Status         string    `gorm:"type:varchar(20);not null" json:"status"` // success / failed
	ServerResponse string    `gorm:"default:''" json:"server_response"`
	MailingID      uint      `gorm:"index;not null" json:"mailing_id"`
	Mailing        *Mailing  `gorm:"foreignKey:MailingID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (MailingAttempt) TableName() string {
	return "mailing_attempts"
}
