package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sandoghapp/sandogh-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, authHandler *AuthHandler, memberHandler *MemberHandler, loanHandler *LoanHandler, paymentHandler *PaymentHandler, loanRequestHandler *LoanRequestHandler, receiptHandler *ReceiptHandler, settingsHandler *SettingsHandler, reminderHandler *ReminderHandler, telegramHandler *TelegramHandler, wsHandler *WebSocketHandler) {
	// Health and metrics (unprotected)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// WebSocket endpoint authenticates via query token
	e.GET("/ws", wsHandler.HandleWS)

	// API version 1
	api := e.Group("/api/v1")

	// Auth routes
	api.POST("/auth/login", authHandler.Login)
	auth := api.Group("/auth")
	auth.Use(authMiddleware.Authenticate())
	auth.GET("/me", authHandler.Me)

	// Member routes (protected)
	members := api.Group("/members")
	members.Use(authMiddleware.Authenticate())
	members.POST("", memberHandler.CreateMember)
	members.GET("", memberHandler.GetMembers)
	members.GET("/:id", memberHandler.GetMember)
	members.PUT("/:id", memberHandler.UpdateMember)
	members.DELETE("/:id", memberHandler.DeleteMember)
	members.GET("/:id/payments", memberHandler.GetMemberPayments)

	// Loan routes (protected)
	loans := api.Group("/loans")
	loans.Use(authMiddleware.Authenticate())
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("", loanHandler.GetLoans)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.GET("/:id/schedule", loanHandler.GetLoanSchedule)
	loans.PUT("/:id", loanHandler.UpdateLoan)
	loans.POST("/:id/settle", loanHandler.SettleLoan)

	// Payment routes (protected)
	payments := api.Group("/payments")
	payments.Use(authMiddleware.Authenticate())
	payments.POST("", paymentHandler.CreatePayment)
	payments.GET("", paymentHandler.GetPayments)
	payments.GET("/:id", paymentHandler.GetPayment)

	// Loan request moderation routes (protected)
	loanRequests := api.Group("/loan-requests")
	loanRequests.Use(authMiddleware.Authenticate())
	loanRequests.GET("", loanRequestHandler.GetLoanRequests)
	loanRequests.GET("/:id", loanRequestHandler.GetLoanRequest)
	loanRequests.POST("/:id/approve", loanRequestHandler.ApproveLoanRequest)
	loanRequests.POST("/:id/reject", loanRequestHandler.RejectLoanRequest)

	// Receipt moderation routes (protected)
	receipts := api.Group("/receipts")
	receipts.Use(authMiddleware.Authenticate())
	receipts.GET("", receiptHandler.GetReceipts)
	receipts.GET("/:id", receiptHandler.GetReceipt)
	receipts.GET("/:id/image-url", receiptHandler.GetReceiptImageURL)
	receipts.POST("/:id/approve", receiptHandler.ApproveReceipt)
	receipts.POST("/:id/reject", receiptHandler.RejectReceipt)

	// Settings routes (protected)
	settings := api.Group("/settings")
	settings.Use(authMiddleware.Authenticate())
	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("", settingsHandler.UpdateSettings)

	// Reminder routes (protected)
	reminders := api.Group("/reminders")
	reminders.Use(authMiddleware.Authenticate())
	reminders.POST("/sweep", reminderHandler.RunSweep)

	// Telegram connectivity probe (protected)
	tg := api.Group("/telegram")
	tg.Use(authMiddleware.Authenticate())
	tg.GET("/check", telegramHandler.CheckTelegram)
}
