package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sandoghapp/sandogh-backend/internal/config"
	"github.com/sandoghapp/sandogh-backend/internal/domain"
	"github.com/sandoghapp/sandogh-backend/internal/handler"
	"github.com/sandoghapp/sandogh-backend/internal/middleware"
	"github.com/sandoghapp/sandogh-backend/internal/observability/metrics"
	"github.com/sandoghapp/sandogh-backend/internal/repository/postgres"
	"github.com/sandoghapp/sandogh-backend/internal/repository/storage"
	"github.com/sandoghapp/sandogh-backend/internal/service"
	"github.com/sandoghapp/sandogh-backend/internal/telegram"
	"github.com/sandoghapp/sandogh-backend/internal/websocket"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Register Prometheus collectors
	metrics.Register()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	memberRepo := postgres.NewMemberRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	requestRepo := postgres.NewLoanRequestRepository(pool)
	receiptRepo := postgres.NewReceiptRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)

	// Initialize the Telegram client. With no bot token configured all
	// outbound notifications are logged and dropped.
	var notifier domain.Notifier
	var tgClient *telegram.Client
	if cfg.Telegram.Disabled {
		log.Warn().Msg("Telegram bot token not set, notifications disabled")
		notifier = &noopNotifier{}
	} else {
		tgClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.EffectiveProxyURL(), log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Telegram client")
		}
		notifier = tgClient
	}

	// Initialize receipt storage. The receipt workflow degrades gracefully
	// when no object store is reachable.
	var receiptStore storage.ReceiptStore
	if cfg.S3.AccessKeyID != "" || cfg.S3.Endpoint != "" {
		s3Store, err := storage.NewS3ReceiptStore(context.Background(), cfg.S3)
		if err != nil {
			log.Warn().Err(err).Msg("Receipt storage unavailable")
		} else {
			receiptStore = s3Store
		}
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), cfg.TokenExpiry)
	memberService := service.NewMemberService(memberRepo, loanRepo)
	loanService := service.NewLoanService(loanRepo, memberRepo)
	paymentService := service.NewPaymentService(paymentRepo, memberRepo, loanRepo, settingsRepo, notifier, log.Logger)
	requestService := service.NewLoanRequestService(requestRepo, memberRepo, settingsRepo, notifier, log.Logger)
	receiptService := service.NewReceiptService(receiptRepo, memberRepo, loanRepo, paymentService, receiptStore, notifier, log.Logger)
	settingsService := service.NewSettingsService(settingsRepo)
	reminderService := service.NewReminderService(loanRepo, memberRepo, settingsRepo, notifier, log.Logger)
	reminderService.SetAdminGroupTarget(cfg.Telegram.GroupChatID)

	// WebSocket hub for live admin-panel updates
	hub := websocket.NewHub()
	memberService.SetEventPublisher(hub)
	loanService.SetEventPublisher(hub)
	paymentService.SetEventPublisher(hub)
	requestService.SetEventPublisher(hub)
	receiptService.SetEventPublisher(hub)
	reminderService.SetEventPublisher(hub)

	// Reminder worker
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	reminderWorker := service.NewReminderWorker(reminderService, log.Logger, service.ReminderWorkerConfig{
		Interval: cfg.ReminderInterval,
	})
	reminderWorker.Start(workerCtx)
	defer reminderWorker.Stop()

	// Telegram long-poll bot
	var bot *telegram.Bot
	if tgClient != nil {
		bot = telegram.NewBot(tgClient, memberService, paymentService, requestService, receiptService, settingsService, cfg.Telegram.PollTimeout, log.Logger)
		bot.Start(workerCtx)
		defer bot.Stop()
	}

	// Initialize auth middleware and rate limiter
	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	memberHandler := handler.NewMemberHandler(memberService, paymentService)
	loanHandler := handler.NewLoanHandler(loanService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	loanRequestHandler := handler.NewLoanRequestHandler(requestService)
	receiptHandler := handler.NewReceiptHandler(receiptService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	reminderHandler := handler.NewReminderHandler(reminderService)
	telegramHandler := handler.NewTelegramHandler(tgClient, cfg.Telegram.NotifyChatID)
	wsHandler := handler.NewWebSocketHandler(hub, authService, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Rate limiting middleware
	e.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, authHandler, memberHandler, loanHandler, paymentHandler, loanRequestHandler, receiptHandler, settingsHandler, reminderHandler, telegramHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// noopNotifier drops outbound messages when no bot token is configured
type noopNotifier struct{}

// SendMessage implements domain.Notifier
func (n *noopNotifier) SendMessage(ctx context.Context, target, text string) error {
	log.Debug().Str("target", target).Msg("Notification dropped, Telegram disabled")
	return nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
