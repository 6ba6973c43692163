package constants

// 邮件活动（Mailing）状态常量
const (
	MailingStatusCreated   = "created"
	MailingStatusRunning   = "running"
	MailingStatusCompleted = "completed"
	MailingStatusDisabled  = "disabled"
)

// 发送尝试状态常量
const (
	AttemptStatusSuccess = "success"
	AttemptStatusFailed  = "failed"
)

// 发送尝试结果描述（写入审计记录的固定文案）
const (
	AttemptDetailOwnerBlocked     = "owner blocked"
	AttemptDetailDisabled         = "disabled by manager"
	AttemptDetailAlreadyCompleted = "already completed"
	AttemptDetailNotStarted       = "not yet started"
	AttemptDetailWindowExpired    = "window expired"
	AttemptDetailSent             = "message sent successfully"
	AttemptDetailSendError        = "send error"
)

// 授权对象常量
const (
	AuthzObjectRecipients = "recipients"
	AuthzObjectMessages   = "messages"
	AuthzObjectMailings   = "mailings"
	AuthzObjectAccounts   = "accounts"
)

// 授权动作常量
const (
	AuthzActionViewAll = "view_all"
	AuthzActionDisable = "disable"
	AuthzActionBlock   = "block"
)

// RoleManager 经理角色名（跨租户审计与封禁能力的唯一来源）
const RoleManager = "manager"

// 登录日志状态常量
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"
)

// 登录日志失败原因常量
const (
	LoginLogFailReasonBadRequest         = "bad_request"
	LoginLogFailReasonInvalidEmail       = "invalid_email"
	LoginLogFailReasonInvalidCredentials = "invalid_credentials"
	LoginLogFailReasonNotVerified        = "email_not_verified"
	LoginLogFailReasonRateLimited        = "rate_limited"
)

// 管理操作审计动作常量
const (
	ModerationActionBlockUser      = "block_user"
	ModerationActionUnblockUser    = "unblock_user"
	ModerationActionDisableMailing = "disable_mailing"
	ModerationActionEnableMailing  = "enable_mailing"
)

// 异步任务类型常量
const (
	TaskVerificationEmail = "email:verification"
)

// QueueDefault 默认队列名称
const QueueDefault = "default"

// DefaultVerificationExpireMinutes 验证令牌默认有效期（分钟）
const DefaultVerificationExpireMinutes = 60

// DefaultPageSize 列表默认分页大小
const DefaultPageSize = 20
