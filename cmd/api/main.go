package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/tickhawk/helpdesk/internal/api/http"
	"github.com/tickhawk/helpdesk/internal/api/http/handlers"
	"github.com/tickhawk/helpdesk/internal/auth"
	"github.com/tickhawk/helpdesk/internal/config"
	"github.com/tickhawk/helpdesk/internal/events"
	"github.com/tickhawk/helpdesk/internal/mail"
	"github.com/tickhawk/helpdesk/internal/observability"
	"github.com/tickhawk/helpdesk/internal/persistence"
	"github.com/tickhawk/helpdesk/internal/repository"
	"github.com/tickhawk/helpdesk/internal/repository/memory"
	"github.com/tickhawk/helpdesk/internal/service"
	"github.com/tickhawk/helpdesk/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	flagSet := pflag.NewFlagSet("helpdesk-api", pflag.ExitOnError)
	envFile := flagSet.String("env-file", "", "dotenv file to load before reading the environment (default: .env if present)")
	configPath := flagSet.String("config", "", "optional YAML config file; environment variables override it")
	_ = flagSet.Parse(os.Args[1:])

	cfg, err := config.Load(*envFile, *configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("helpdesk stopped", zap.Error(err))
	}
}

// stores groups the repositories behind one backend.
type stores struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	companies repository.CompanyRepository
	tickets   repository.TicketRepository
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	readiness := map[string]handlers.Pinger{}
	var st stores
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		st = stores{
			users:     repository.NewUserRepository(pool),
			sessions:  repository.NewSessionRepository(pool),
			companies: repository.NewCompanyRepository(pool),
			tickets:   repository.NewTicketRepository(pool),
		}
		readiness["postgres"] = pg
	} else {
		st = stores{
			users:     memory.NewUsers(),
			sessions:  memory.NewSessions(),
			companies: memory.NewCompanies(),
			tickets:   memory.NewTickets(),
		}
	}

	var bus events.Bus
	switch cfg.Events.Driver {
	case "redis":
		rdb := persistence.NewRedis(cfg.Redis, logger)
		defer rdb.Close()
		readiness["redis"] = rdb
		bus = events.NewRedisBus(rdb.Client, events.RedisBusConfig{
			Stream:      cfg.Events.Stream,
			Group:       cfg.Events.Group,
			Consumer:    cfg.Events.Consumer,
			Block:       cfg.Events.Block,
			ReclaimIdle: cfg.Events.ReclaimIdle,
			DedupeTTL:   cfg.Events.DedupeTTL,
		}, logger)
	default:
		bus = events.NewMemoryBus(cfg.Events.QueueSize, logger)
	}

	if err := service.EnsureDefaultAdmin(ctx, st.users, cfg.Bootstrap, cfg.Auth.BcryptCost, logger); err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.SessionTTL, cfg.Auth.PasswordResetTTL)

	var sender mail.Sender = mail.NewLogSender(logger)
	if cfg.Mail.SMTPAddr != "" {
		sender = mail.NewSMTPSender(cfg.Mail.SMTPAddr, cfg.Mail.From, cfg.Mail.SMTPUser, cfg.Mail.SMTPPassword)
	}
	notifications := service.NewNotificationService(mail.NewRenderer(cfg.Mail.ResetURL), sender, logger)

	sessionService := service.NewSessionService(cfg.Auth, service.SessionDependencies{
		Users:    st.users,
		Sessions: st.sessions,
		Notifier: notifications,
		Tokens:   tokens,
		Logger:   logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Tickets:   st.tickets,
		Companies: st.companies,
		Logger:    logger,
	})
	companyService := service.NewCompanyService(st.companies, bus, logger, nil)
	service.NewPropagator(st.tickets, logger, metrics).Register(bus)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ErrorHandler:          httptransport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness, metrics),
		Auth:           handlers.NewAuthHandler(sessionService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AgentTickets:   handlers.NewAgentTicketsHandler(ticketService),
		Companies:      handlers.NewCompaniesHandler(companyService),
		AuthMiddleware: auth.NewAuthMiddleware(sessionService),
	})

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	waitWorkers := worker.Start(workerCtx, logger,
		worker.Task{Name: "company-propagator", Run: bus.Run},
		worker.Task{Name: "session-sweeper", Run: worker.NewSessionSweeper(st.sessions, cfg.Retention, metrics, logger).Run},
	)

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-listenErr:
		logger.Error("fiber listen", zap.Error(err))
	}

	if shutdownErr := app.ShutdownWithTimeout(shutdownTimeout); shutdownErr != nil {
		logger.Warn("http shutdown", zap.Error(shutdownErr))
	}
	cancelWorkers()
	waitWorkers()
	return err
}
