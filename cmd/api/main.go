package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/scheduler"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/sla"
	"github.com/spec-kit/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	policy, err := sla.NewPolicy(cfg.SLA.Hours())
	if err != nil {
		logger.Fatal("invalid sla configuration", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	notificationService := service.NewNotificationService(notificationRepo, redis, logger)
	worker.StartNotificationWorker(notificationService, dispatcher)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		StaffRepo:         staffRepo,
		PasswordResetRepo: resetRepo,
	})
	staffService := service.NewStaffService(staffRepo, cfg.Auth.BcryptCost)
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: complaintRepo,
		Policy:        policy,
		Notifier:      notificationService,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		ComplaintRepo: complaintRepo,
		StaffRepo:     staffRepo,
		Routing:       cfg.Routing,
		Notifier:      notificationService,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		ComplaintRepo: complaintRepo,
		StaffRepo:     staffRepo,
		Notifier:      notificationService,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	reminderService := service.NewReminderService(service.ReminderDependencies{
		ComplaintRepo: complaintRepo,
		Notifier:      notificationService,
		Metrics:       metrics,
		Logger:        logger,
		Window:        cfg.Scheduler.ReminderWindow(),
	})

	sched := scheduler.New(logger, metrics)
	sched.Register("escalation_sweep", cfg.Scheduler.EscalationInterval(), escalationService.Sweep)
	sched.Register("reminder_sweep", cfg.Scheduler.ReminderInterval(), reminderService.Sweep)
	sched.Register("reset_token_prune", cfg.Scheduler.CleanupInterval(), func(ctx context.Context) error {
		_, err := resetRepo.DeleteExpired(ctx, time.Now())
		return err
	})
	sched.Register("notification_prune", cfg.Scheduler.CleanupInterval(), func(ctx context.Context) error {
		retention := time.Duration(cfg.Scheduler.NotificationRetentionDays) * 24 * time.Hour
		_, err := notificationService.PruneRead(ctx, retention, time.Now())
		return err
	})
	sched.Start(ctx)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, staffRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:           handlers.NewUsersHandler(authService),
		Staff:           handlers.NewStaffHandler(authService, staffService),
		Complaints:      handlers.NewComplaintsHandler(complaintService),
		StaffComplaints: handlers.NewStaffComplaintsHandler(complaintService, assignmentService),
		Notifications:   handlers.NewNotificationsHandler(notificationService),
		Ops:             handlers.NewOpsHandler(sched, metrics),
		AuthMiddleware:  authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	sched.Stop()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
