// File: autoshop/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"autoshop/config"
	"autoshop/cron"
	"autoshop/database"
	feedbackRepo "autoshop/database/repository/feedback"
	ledgerRepo "autoshop/database/repository/ledger"
	scheduleRepo "autoshop/database/repository/schedule"
	"autoshop/handlers"
	"autoshop/middleware"
	"autoshop/routes"
	"autoshop/services/booking"
	"autoshop/services/events"
	"autoshop/services/faultcode"
	"autoshop/services/intelligence"
	"autoshop/services/notification"
	"autoshop/services/session"
	"autoshop/services/tasks"
	"autoshop/utils"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	checks := map[string]utils.HealthCheck{}

	// repositories.
	var ledger ledgerRepo.LedgerRepository
	switch cfg.LedgerBackend {
	case "mongo":
		client, err := database.Connect(rootCtx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		defer client.Disconnect(context.Background())
		db := client.Database(cfg.DatabaseName)
		if err := ledgerRepo.EnsureIndexes(db); err != nil {
			logger.Sugar().Fatalf("main: failed to create ledger indexes: %v", err)
		}
		ledger = ledgerRepo.NewMongoLedgerRepo(db)
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	case "csv", "":
		ledger = ledgerRepo.NewCSVLedgerRepo(cfg.BookingFile)
	default:
		logger.Sugar().Fatalf("main: unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}
	schedule := scheduleRepo.NewFileScheduleRepo(cfg.ScheduleFile)
	checks["schedule"] = func(ctx context.Context) error {
		_, err := schedule.List(ctx)
		return err
	}
	feedback := feedbackRepo.NewCSVFeedbackRepo(cfg.FeedbackFile)

	// notifications.
	var mailer notification.Mailer = notification.NewConsoleMailer(logger)
	if cfg.SMTPHost != "" {
		smtp, err := notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			logger.Sugar().Fatalf("main: invalid SMTP settings: %v", err)
		}
		mailer = smtp
	} else {
		logger.Warn("SMTP_HOST not set; customer emails are only logged")
	}
	notificationService, err := notification.NewDefaultNotificationService(mailer, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("booking events disabled", zap.Error(err))
		} else {
			publisher = amqpPub
		}
	}
	defer publisher.Close()

	// reminders.
	var reminders tasks.ReminderScheduler = tasks.NopReminderScheduler{}
	var reminderWorker *asynq.Server
	if cfg.RemindersEnabled {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisReminderQueueDB}
		scheduler := tasks.NewAsynqReminderScheduler(redisOpt, tasks.DefaultReminderLead)
		defer scheduler.Close()
		reminders = scheduler
		reminderWorker, err = cron.InitReminderWorker(redisOpt, notificationService, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
	}

	// services.
	deps := booking.Deps{
		Ledger:    ledger,
		Schedule:  schedule,
		Feedback:  feedback,
		Estimator: booking.NewNaiveEstimator(nil),
		Notifier:  notificationService,
		Events:    publisher,
		Reminders: reminders,
		LaborRate: cfg.LaborRate,
		Logger:    logger,
	}
	bookingService, err := booking.NewBookingService(deps)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	reviewService, err := booking.NewReviewService(deps)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	faultCodes, err := faultcode.Load(cfg.FaultCodeFile, logger)
	if err != nil {
		logger.Warn("fault code lookups disabled", zap.Error(err))
		faultCodes = faultcode.NewReference(nil)
	}

	var completer intelligence.ChatCompleter = intelligence.UnavailableCompleter{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := intelligence.NewGeminiClient(rootCtx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		defer gemini.Close()
		completer = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set; diagnosis replies are unavailable")
	}
	diagnostician, err := intelligence.NewDiagnostician(completer, cfg.DiagnosisTimeout, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	var store session.Store
	switch cfg.SessionStore {
	case "redis":
		client, err := utils.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisSessionDB)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		defer client.Close()
		store = session.NewRedisStore(client, cfg.SessionTTL)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	default:
		store = session.NewMemoryStore(cfg.SessionTTL)
	}
	sessionService, err := session.NewService(store, bookingService, diagnostician, faultCodes, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	if cfg.ShopPasswordHash != "" {
		if err := utils.SetJWTSecret(cfg.JWTSecret); err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
	} else {
		logger.Warn("SHOP_PASSWORD_HASH not set; shop login is disabled")
	}
	codec, err := middleware.NewSessionCodec(cfg.CookieHashKey, cfg.CookieBlockKey, config.IsProduction())
	if err != nil {
		logger.Sugar().Fatalf("main: invalid cookie keys: %v", err)
	}

	monitor := utils.NewHealthMonitor(checks)
	monitor.Start(rootCtx, time.Minute)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(handlers.RequestLogger(logger))
	router.Use(middleware.NewRateLimiter(cfg.MaxRequestsPerMin).Middleware())

	sessionHandler := handlers.NewSessionHandler(sessionService, codec)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	faultCodeHandler := handlers.NewFaultCodeHandler(faultCodes)
	shopHandler := handlers.NewShopHandler(reviewService, cfg.ShopUsername, cfg.ShopPasswordHash)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		SessionCodec: codec,

		// Customer session endpoints.
		StartSession:    sessionHandler.StartSession,
		GetSession:      sessionHandler.GetSession,
		EndSession:      sessionHandler.EndSession,
		SubmitIdentity:  sessionHandler.SubmitIdentity,
		SubmitVehicle:   sessionHandler.SubmitVehicle,
		SendMessage:     sessionHandler.SendMessage,
		RequestSlots:    sessionHandler.RequestSlots,
		SelectSlot:      sessionHandler.SelectSlot,
		CancelSelection: sessionHandler.CancelSelection,
		ConfirmSlot:     sessionHandler.ConfirmSlot,
		NewBooking:      sessionHandler.NewBooking,

		// Public booking endpoints.
		AvailableSlots:  bookingHandler.AvailableSlots,
		SubmitFeedback:  bookingHandler.SubmitFeedback,
		LookupFaultCode: faultCodeHandler.Lookup,

		// Shop endpoints.
		ShopLogin:       shopHandler.Login,
		ListBookings:    shopHandler.ListBookings,
		PendingBookings: shopHandler.PendingBookings,
		AcceptBooking:   shopHandler.AcceptBooking,
		DenyBooking:     shopHandler.DenyBooking,
		Calendar:        shopHandler.Calendar,
		ListFeedback:    bookingHandler.ListFeedback,

		Health: handlers.HealthHandler(monitor),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle, cfg.CORSOrigins)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if reminderWorker != nil {
		reminderWorker.Shutdown()
	}
	cancelRoot()
	monitor.Wait()

	logger.Sugar().Info("main: server stopped gracefully")
}
