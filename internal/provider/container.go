package provider

import (
	"github.com/mailpulse/mailpulse/internal/authz"
	"github.com/mailpulse/mailpulse/internal/cache"
	"github.com/mailpulse/mailpulse/internal/config"
	"github.com/mailpulse/mailpulse/internal/logger"
	"github.com/mailpulse/mailpulse/internal/models"
	"github.com/mailpulse/mailpulse/internal/queue"
	"github.com/mailpulse/mailpulse/internal/repository"
	"github.com/mailpulse/mailpulse/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo              repository.UserRepository
	VerificationTokenRepo repository.VerificationTokenRepository
	RecipientRepo         repository.RecipientRepository
	MessageRepo           repository.MessageRepository
	MailingRepo           repository.MailingRepository
	MailingAttemptRepo    repository.MailingAttemptRepository
	UserLoginLogRepo      repository.UserLoginLogRepository
	ModerationLogRepo     repository.ModerationLogRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	RegistrationService *service.RegistrationService
	EmailService        *service.EmailService
	RecipientService    *service.RecipientService
	MessageService      *service.MessageService
	MailingService      *service.MailingService
	DispatchService     *service.DispatchService
	ModerationService   *service.ModerationService
	LoginLogService     *service.LoginLogService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.VerificationTokenRepo = repository.NewVerificationTokenRepository(db)
	c.RecipientRepo = repository.NewRecipientRepository(db)
	c.MessageRepo = repository.NewMessageRepository(db)
	c.MailingRepo = repository.NewMailingRepository(db)
	c.MailingAttemptRepo = repository.NewMailingAttemptRepository(db)
	c.UserLoginLogRepo = repository.NewUserLoginLogRepository(db)
	c.ModerationLogRepo = repository.NewModerationLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapManagerRole(); err != nil {
		logger.Errorw("provider_bootstrap_manager_role_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.AuthService = service.NewAuthService(c.Config, c.UserRepo, c.UserLoginLogRepo)
	c.RegistrationService = service.NewRegistrationService(
		c.Config, c.UserRepo, c.VerificationTokenRepo, c.EmailService, c.QueueClient, c.AuthService)
	c.RecipientService = service.NewRecipientService(c.RecipientRepo, c.AuthzService)
	c.MessageService = service.NewMessageService(c.MessageRepo, c.AuthzService)
	c.MailingService = service.NewMailingService(
		c.MailingRepo, c.MessageRepo, c.RecipientRepo, c.MailingAttemptRepo, c.AuthzService)
	c.DispatchService = service.NewDispatchService(
		c.MailingRepo, c.MailingAttemptRepo, c.UserRepo, c.AuthzService, c.EmailService)
	c.ModerationService = service.NewModerationService(
		c.UserRepo, c.MailingRepo, c.ModerationLogRepo, c.AuthzService)
	c.LoginLogService = service.NewLoginLogService(c.UserLoginLogRepo, c.AuthzService)
}
