package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mailpulse/mailpulse/internal/logger"
	"github.com/mailpulse/mailpulse/internal/provider"
	"github.com/mailpulse/mailpulse/internal/queue"
	"github.com/mailpulse/mailpulse/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskVerificationEmail, c.handleVerificationEmail)
}

func (c *Consumer) handleVerificationEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_verification_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.VerificationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_verification_email_unmarshal_failed", "error", err)
		return err
	}
	email := strings.TrimSpace(payload.Email)
	token := strings.TrimSpace(payload.Token)
	if email == "" || token == "" {
		logger.Debugw("worker_verification_email_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}

	// 令牌已被消费或已删除时直接跳过，避免给已激活账号重复发信
	record, err := c.VerificationTokenRepo.GetByToken(token)
	if err != nil {
		logger.Warnw("worker_verification_email_fetch_token_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	if record == nil {
		logger.Debugw("worker_verification_email_skip_token_gone", "user_id", payload.UserID)
		return nil
	}

	if err := c.RegistrationService.DeliverVerificationEmail(email, token); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
			logger.Warnw("worker_verification_email_skip_service_unavailable", "user_id", payload.UserID, "error", err)
			return nil
		default:
			logger.Warnw("worker_verification_email_send_failed",
				"user_id", payload.UserID,
				"email", email,
				"error", err,
			)
			return err
		}
	}
	return nil
}
