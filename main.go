package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostelgrievance-be/config"
	"hostelgrievance-be/controllers"
	"hostelgrievance-be/jobs"
	"hostelgrievance-be/middlewares"
	"hostelgrievance-be/repositories"
	"hostelgrievance-be/routes"
	"hostelgrievance-be/services"
	"hostelgrievance-be/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := config.ConnectDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := config.DisconnectDB(context.Background(), db); err != nil {
			logger.Warn("MongoDB disconnect failed", "error", err)
		}
	}()
	if err := repositories.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	// Redis only backs the rate limit and the escalation guard, so the API
	// still starts without it.
	var redisClient *redis.Client
	var guard jobs.Guard
	if client, err := config.ConnectRedis(ctx, cfg); err != nil {
		logger.Warn("Redis unavailable, rate limiting and sweep locking disabled", "error", err)
	} else {
		redisClient = client
		guard = repositories.NewRedisGuard(client, "hostel")
		defer client.Close()
	}

	images, err := utils.NewImageStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	var mailer services.Mailer = utils.LogMailer{Logger: logger}
	if cfg.SMTPHost != "" {
		mailer = utils.NewSMTPMailer(utils.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		logger.Warn("SMTP_HOST not set, OTP codes will be written to the log")
	}
	tokens := utils.NewTokenManager(cfg.JWTSecret, utils.TokenLifetime)

	identities := repositories.NewIdentityRepository(db)
	accounts := repositories.NewAccountRepository(db)

	notifications := services.NewNotificationService(repositories.NewNotificationRepository(db), logger)
	authService := services.NewAuthService(identities, accounts, repositories.NewOTPRepository(db), mailer, tokens, logger)
	complaintService := services.NewComplaintService(repositories.NewComplaintRepository(db), identities, notifications, logger)
	adminService := services.NewAdminService(identities, accounts, logger)
	noticeService := services.NewNoticeService(repositories.NewNoticeRepository(db), notifications)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origin,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middlewares.RequestLogger(logger))
	r.MaxMultipartMemory = 8 << 20
	r.Static("/uploads", images.Dir())

	routes.Register(r, routes.Handlers{
		Auth:                controllers.NewAuthController(authService, logger),
		Complaints:          controllers.NewComplaintController(complaintService, images, logger),
		Admin:               controllers.NewAdminController(adminService, logger),
		Notices:             controllers.NewNoticeController(noticeService, logger),
		Notifications:       controllers.NewNotificationController(notifications, logger),
		Tokens:              tokens,
		Redis:               redisClient,
		RateLimitPrefix:     cfg.RateLimitPrefix,
		ComplaintDailyLimit: cfg.ComplaintDailyLimit,
	})

	escalator := jobs.NewEscalator(complaintService, notifications, guard, cfg.EscalationInterval, logger)
	go escalator.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server running", "port", cfg.Port, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
