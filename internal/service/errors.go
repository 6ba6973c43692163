package service

import "errors"

// 业务错误定义，handler 层通过 errors.Is 映射成响应码。
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("operation not allowed")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrNotVerified        = errors.New("email not verified")
	ErrUserBlocked        = errors.New("account blocked")
	ErrSelfModeration     = errors.New("cannot moderate own account")

	ErrTokenInvalid = errors.New("verification token invalid")
	ErrTokenExpired = errors.New("verification token expired")

	ErrRecipientEmailExists = errors.New("recipient email already exists")

	ErrStartTimeInPast  = errors.New("start time must be in the future")
	ErrEndBeforeStart   = errors.New("end time must be after start time")
	ErrNoRecipients     = errors.New("mailing requires at least one recipient")
	ErrMailingImmutable = errors.New("mailing can no longer be edited")

	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("recipient rejected by mail server")

	ErrLoginRateLimited = errors.New("too many login attempts")
)
