package models

import "time"

// ModerationLog 经理操作审计：封禁/解封账号、停用/恢复邮件活动
type ModerationLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ActorID   uint      `gorm:"index;not null" json:"actor_id"`   // 执行操作的经理
	Action    string    `gorm:"index;not null" json:"action"`     // 见 constants.ModerationAction*
	TargetID  uint      `gorm:"index;not null" json:"target_id"`  // 目标账号或邮件活动 ID
	Note      string    `gorm:"default:''" json:"note"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (ModerationLog) TableName() string {
	return "moderation_logs"
}
