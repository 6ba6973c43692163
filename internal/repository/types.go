package repository

import "time"

// UserListFilter 查询账号列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Active      *bool
	Blocked     *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// RecipientListFilter 查询收件人列表的过滤条件
type RecipientListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	OwnerID  uint
}

// MessageListFilter 查询信件模板列表的过滤条件
type MessageListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	OwnerID  uint
}

// MailingListFilter 查询邮件任务列表的过滤条件
type MailingListFilter struct {
	Page      int
	PageSize  int
	Status    string
	OwnerID   uint
	StartFrom *time.Time
	StartTo   *time.Time
}

// MailingAttemptListFilter 查询发送尝试列表的过滤条件
type MailingAttemptListFilter struct {
	Page       int
	PageSize   int
	MailingID  uint
	MailingIDs []uint
	Status     string
}

// UserLoginLogListFilter 查询登录日志列表的过滤条件
type UserLoginLogListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Email       string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ModerationLogListFilter 查询运营操作日志列表的过滤条件
type ModerationLogListFilter struct {
	Page        int
	PageSize    int
	ActorID     uint
	Action      string
	TargetID    uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
