package models

import (
	"strings"
	"time"
)

// Recipient 收件人，归属于唯一的账号
type Recipient struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	LastName   string    `gorm:"not null" json:"last_name"`
	FirstName  string    `gorm:"not null" json:"first_name"`
	Patronymic string    `gorm:"default:''" json:"patronymic"`
	Comment    string    `gorm:"default:''" json:"comment"`
	OwnerID    uint      `gorm:"index;not null" json:"owner_id"`
	Owner      *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Recipient) TableName() string {
	return "recipients"
}

// FullName 返回姓名全称（父称可为空）
func (r *Recipient) FullName() string {
	parts := []string{r.LastName, r.FirstName}
	if strings.TrimSpace(r.Patronymic) != "" {
		parts = append(parts, r.Patronymic)
	}
	return strings.Join(parts, " ")
}
