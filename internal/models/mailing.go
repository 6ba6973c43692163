package models

import (
	"time"

	"github.com/mailpulse/mailpulse/internal/constants"
)

// MailingStatus 邮件活动状态，取值见 constants 包。
// 正常流转 created -> running -> completed，disabled 仅由经理操作进入。
type MailingStatus string

// Mailing 状态枚举
const (
	MailingStatusCreated   = MailingStatus(constants.MailingStatusCreated)
	MailingStatusRunning   = MailingStatus(constants.MailingStatusRunning)
	MailingStatusCompleted = MailingStatus(constants.MailingStatusCompleted)
	MailingStatusDisabled  = MailingStatus(constants.MailingStatusDisabled)
)

// Mailing 邮件活动：一个信件内容 + 一组收件人 + 发送时间窗口
type Mailing struct {
	ID         uint          `gorm:"primarykey" json:"id"`
	StartTime  time.Time     `gorm:"index;not null" json:"start_time"`
	EndTime    time.Time     `gorm:"not null" json:"end_time"`
	Status     MailingStatus `gorm:"type:varchar(20);not null;default:'created'" json:"status"`
	MessageID  uint          `gorm:"index;not null" json:"message_id"`
	Message    *Message      `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"message,omitempty"`
	Recipients []Recipient   `gorm:"many2many:mailing_recipients" json:"recipients,omitempty"`
	OwnerID    uint          `gorm:"index;not null" json:"owner_id"`
	Owner      *User         `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TableName 指定表名
func (Mailing) TableName() string {
	return "mailings"
}
