package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"servicebooking/internal/api"
	"servicebooking/internal/booking"
	"servicebooking/internal/config"
	"servicebooking/internal/contacts"
	"servicebooking/internal/db"
	"servicebooking/internal/repository"
	"servicebooking/internal/service"
	"servicebooking/internal/validation"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled jobs",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply database migrations on start")
}

func sessionRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.SessionRepository, func(), error) {
	if cfg.SessionBackend == config.SessionBackendMemory {
		log.Warn("booking sessions are kept in memory and will not survive a restart")
		return repository.NewMemorySessionRepository(cfg.SessionTTL), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return repository.NewRedisSessionRepository(client, cfg.SessionTTL), func() { client.Close() }, nil
}

func newNotifier(cfg *config.Config, log *zap.Logger) *service.SenderService {
	return service.NewSenderService(
		service.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, log),
		service.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, log),
		log,
	)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if !skipMigrations {
		if err := db.RunMigrations(conn, cfg.MigrationsPath); err != nil {
			return err
		}
		log.Info("database migrations applied", zap.String("path", cfg.MigrationsPath))
	}

	sessions, closeSessions, err := sessionRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSessions()

	notifier := newNotifier(cfg, log)
	contactSvc := service.NewContactService(repository.NewContactRepository(conn))
	apptSvc := service.NewAppointmentService(repository.NewAppointmentRepository(conn), notifier, log)
	authSvc := service.NewAdminAuthService(repository.NewAdminAuthRepository(conn), cfg.JWTSecret)

	var directoryAPI contacts.API = service.LocalDirectory{Contacts: contactSvc}
	if cfg.RemoteContacts() {
		directoryAPI = contacts.NewClient(cfg.ContactsBaseURL, cfg.ContactsTimeout, cfg.ContactsMaxRetries, log)
		log.Info("using remote contact directory", zap.String("url", cfg.ContactsBaseURL))
	}
	directory := contacts.NewDirectory(directoryAPI, log)
	bookingSvc := service.NewBookingService(
		booking.NewPersister(sessions, log),
		validation.NewValidator(time.Now),
		directory,
		apptSvc,
		log,
	)

	jobs := service.NewJobService(repository.NewJobRepository(conn), notifier, log)
	scheduler := cron.New()
	if err := jobs.Schedule(scheduler, cfg.CronCompleteSpec, cfg.CronReminderSpec); err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	limiter := api.NewRateLimiter(cfg.RateLimitPerMin, log)
	if err := limiter.TrustProxies(cfg.Proxies()); err != nil {
		return err
	}

	handler := api.NewRouter(api.RouterConfig{
		Booking:            api.NewBookingHandler(bookingSvc, log),
		Contacts:           api.NewContactHandler(contactSvc, log),
		Admin:              api.NewAdminHandler(apptSvc, log),
		AdminAuth:          api.NewAdminAuthHandler(authSvc, log),
		JWTSecret:          cfg.JWTSecret,
		AllowedOrigins:     cfg.Origins(),
		RateLimiter:        limiter,
		PrintRecoveryStack: !cfg.IsProduction(),
		Log:                log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
