package router

import (
	"fmt"
	"strings"

	"github.com/mailpulse/mailpulse/internal/cache"
	"github.com/mailpulse/mailpulse/internal/config"
	managerhandlers "github.com/mailpulse/mailpulse/internal/http/handlers/manager"
	publichandlers "github.com/mailpulse/mailpulse/internal/http/handlers/public"
	"github.com/mailpulse/mailpulse/internal/logger"
	"github.com/mailpulse/mailpulse/internal/provider"
	"github.com/mailpulse/mailpulse/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	managerHandler := managerhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "mp"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "too many login attempts",
		OnLimited: func(ctx *gin.Context) {
			email := ReadJSONField(ctx, "email")
			c.AuthService.RecordRateLimited(email, service.LoginMeta{
				ClientIP:  ctx.ClientIP(),
				UserAgent: ctx.Request.UserAgent(),
				RequestID: getRequestID(ctx),
			})
		},
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 邮箱验证链接直接落在根路径，与注册邮件中的 URL 对应
	r.GET("/verify/:token", publicHandler.Verify)

	apiV1 := r.Group("/api/v1")
	{
		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			auth.POST("/resend-verification", publicHandler.ResendVerification)
		}

		// 账号接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.Me)
			user.PUT("/me", publicHandler.UpdateMe)
			user.PUT("/me/password", publicHandler.ChangePassword)
			user.GET("/me/login-logs", publicHandler.LoginLogs)

			user.GET("/recipients", publicHandler.ListRecipients)
			user.GET("/recipients/:id", publicHandler.GetRecipient)
			user.POST("/recipients", publicHandler.CreateRecipient)
			user.PUT("/recipients/:id", publicHandler.UpdateRecipient)
			user.DELETE("/recipients/:id", publicHandler.DeleteRecipient)

			user.GET("/messages", publicHandler.ListMessages)
			user.GET("/messages/:id", publicHandler.GetMessage)
			user.POST("/messages", publicHandler.CreateMessage)
			user.PUT("/messages/:id", publicHandler.UpdateMessage)
			user.DELETE("/messages/:id", publicHandler.DeleteMessage)

			user.GET("/mailings", publicHandler.ListMailings)
			user.GET("/mailings/:id", publicHandler.GetMailing)
			user.POST("/mailings", publicHandler.CreateMailing)
			user.PUT("/mailings/:id", publicHandler.UpdateMailing)
			user.DELETE("/mailings/:id", publicHandler.DeleteMailing)
			user.POST("/mailings/:id/dispatch", publicHandler.DispatchMailing)
			user.GET("/mailings/:id/attempts", publicHandler.ListMailingAttempts)
			user.GET("/attempts", publicHandler.ListMyAttempts)
		}

		// 运营端接口（需经理角色）
		mgr := apiV1.Group("/manager")
		mgr.Use(UserJWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), ManagerMiddleware(c.AuthzService))
		{
			mgr.GET("/users", managerHandler.ListUsers)
			mgr.POST("/users/:id/block", managerHandler.BlockUser)
			mgr.POST("/users/:id/unblock", managerHandler.UnblockUser)
			mgr.GET("/user-login-logs", managerHandler.ListLoginLogs)

			mgr.GET("/mailings", managerHandler.ListMailings)
			mgr.POST("/mailings/:id/disable", managerHandler.DisableMailing)
			mgr.POST("/mailings/:id/enable", managerHandler.EnableMailing)

			mgr.GET("/moderation-logs", managerHandler.ListModerationLog)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
