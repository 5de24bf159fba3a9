package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/marriage-appointment-client/api/swagger"
	"github.com/noah-isme/marriage-appointment-client/internal/dto"
	"github.com/noah-isme/marriage-appointment-client/internal/handler"
	"github.com/noah-isme/marriage-appointment-client/internal/middleware"
	"github.com/noah-isme/marriage-appointment-client/internal/push"
	"github.com/noah-isme/marriage-appointment-client/internal/repository"
	"github.com/noah-isme/marriage-appointment-client/internal/service"
	"github.com/noah-isme/marriage-appointment-client/internal/store"
	"github.com/noah-isme/marriage-appointment-client/pkg/cache"
	"github.com/noah-isme/marriage-appointment-client/pkg/config"
	"github.com/noah-isme/marriage-appointment-client/pkg/database"
	"github.com/noah-isme/marriage-appointment-client/pkg/jobs"
	"github.com/noah-isme/marriage-appointment-client/pkg/logger"
	corsmiddleware "github.com/noah-isme/marriage-appointment-client/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/marriage-appointment-client/pkg/middleware/requestid"
	"github.com/noah-isme/marriage-appointment-client/pkg/storage"
)

// @title Marriage Appointment Console
// @version 1.0.0
// @description Local console over the appointment client stores and commands
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persist, closeStore, err := openTokenStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open token store", zap.String("store", cfg.Token.Store), zap.Error(err))
	}
	defer closeStore()

	metrics := service.NewMetricsService()

	sessionStore := store.NewSessionStore(persist, logr)
	if sessionStore.Restore(ctx) {
		logr.Info("session restored", zap.String("subject", sessionStore.Session().Subject.PhoneNumber))
	}

	client := repository.NewAPIClient(cfg.API, sessionStore, logr)
	client.SetObserver(metrics)

	authRepo := repository.NewAuthRepository(client)
	userRepo := repository.NewUserRepository(client)
	appointmentRepo := repository.NewAppointmentRepository(client)
	adminRepo := repository.NewAdminRepository(client)
	notificationRepo := repository.NewNotificationRepository(client)

	profileStore := store.NewProfileStore()
	appointmentStore := store.NewAppointmentStore()
	queueStore := store.NewAdminQueueStore()
	notificationStore := store.NewNotificationStore()
	alertStore := store.NewAlertStore(0)

	downloads, err := storage.NewLocalStorage(cfg.Downloads.Dir)
	if err != nil {
		logr.Fatal("failed to prepare downloads directory", zap.String("dir", cfg.Downloads.Dir), zap.Error(err))
	}

	dispatcher := jobs.NewDispatcher(jobs.QueueConfig{
		Workers:    cfg.Dispatch.Workers,
		BufferSize: cfg.Dispatch.BufferSize,
		Logger:     logr,
	})
	dispatcher.Start(ctx)

	validate := dto.NewValidator()
	commands := service.NewCommands(dispatcher, alertStore, metrics, logr)
	commands.FollowSession(sessionStore)

	sessionService := service.NewSessionService(authRepo, sessionStore, commands, validate, logr,
		appointmentStore, profileStore, queueStore, notificationStore)
	profileService := service.NewProfileService(userRepo, profileStore, commands, validate, logr)
	appointmentService := service.NewAppointmentService(appointmentRepo, appointmentStore, profileStore, downloads, commands, validate, logr)
	adminService := service.NewAdminService(adminRepo, appointmentRepo, queueStore, downloads, commands, validate, logr)
	notificationService := service.NewNotificationService(notificationRepo, notificationStore, commands, logr)
	exportService := service.NewExportService(queueStore, logr)

	pushCtx, cancelPush := context.WithCancel(ctx)
	var pushWG sync.WaitGroup
	if cfg.Push.Enabled {
		dialer, err := push.NewDialer(cfg.Push.URL)
		if err != nil {
			logr.Fatal("invalid push url", zap.String("url", cfg.Push.URL), zap.Error(err))
		}
		listener := push.NewListener(cfg.Push, dialer, sessionStore, notificationStore, adminService, alertStore, metrics, logr)
		pushWG.Add(1)
		go func() {
			defer pushWG.Done()
			if err := listener.Run(pushCtx); err != nil {
				logr.Error("push listener stopped", zap.Error(err))
			}
		}()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metrics))
	}

	handler.Register(r, handler.Handlers{
		Session:      handler.NewSessionHandler(sessionService),
		Profile:      handler.NewProfileHandler(profileService),
		Appointment:  handler.NewAppointmentHandler(appointmentService),
		Admin:        handler.NewAdminHandler(adminService, exportService),
		Notification: handler.NewNotificationHandler(notificationService, alertStore),
		Metrics:      handler.NewMetricsHandler(metrics, sessionStore),
	}, sessionStore)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              cfg.ConsoleAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("console starting", "addr", cfg.ConsoleAddr, "env", cfg.Env, "push", cfg.Push.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("console failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("console shutdown", zap.Error(err))
	}

	cancelPush()
	pushWG.Wait()
	dispatcher.Stop()
}

// openTokenStore picks the token backend named in the configuration.
func openTokenStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (repository.TokenStore, func(), error) {
	switch cfg.Token.Store {
	case config.TokenStoreRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisTokenStore(client, cfg.Token.Key), func() { _ = client.Close() }, nil
	case config.TokenStorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		sqlStore := repository.NewSQLTokenStore(db, cfg.Token.Key)
		if err := sqlStore.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqlStore, func() { _ = db.Close() }, nil
	default:
		return repository.NewFileTokenStore(cfg.Token.File, cfg.Token.FileSecret, logr), func() {}, nil
	}
}
