package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"household-app-go/internal/config"
	"household-app-go/internal/db"
	balancesdomain "household-app-go/internal/domain/balances"
	choresdomain "household-app-go/internal/domain/chores"
	expensesdomain "household-app-go/internal/domain/expenses"
	householddomain "household-app-go/internal/domain/household"
	userdomain "household-app-go/internal/domain/user"
	"household-app-go/internal/lock"
	"household-app-go/internal/metrics"
	"household-app-go/internal/repository/inmemory"
	balancesrepo "household-app-go/internal/repository/postgres/balances"
	choresrepo "household-app-go/internal/repository/postgres/chores"
	expensesrepo "household-app-go/internal/repository/postgres/expenses"
	householdrepo "household-app-go/internal/repository/postgres/household"
	userrepo "household-app-go/internal/repository/postgres/user"
	"household-app-go/internal/transport/httpserver"
	"household-app-go/internal/transport/httpserver/handler"
	"household-app-go/pkg/logger"
)

type App struct {
	cfg        config.Config
	log        logger.Logger
	db         *gorm.DB
	redis      *redis.Client
	httpServer *http.Server
	chores     *choresdomain.Service
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		log.Info("app: applying migrations")
		if err := db.Migrate(dbConn); err != nil {
			closeDB(dbConn)
			return nil, err
		}
	}

	a := &App{cfg: cfg, log: log, db: dbConn}

	var locker choresdomain.BatchLocker
	if cfg.Redis.Enabled() {
		log.Info("app: connecting to redis", "addr", cfg.Redis.Addr)
		client, err := lock.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.redis = client
		locker = lock.NewLocker(client)
	} else {
		log.Warn("app: redis not configured, recurring batch runs without a distributed lock")
	}

	var (
		appMetrics     *metrics.Metrics
		balanceMetrics balancesdomain.Metrics
		choreMetrics   choresdomain.Metrics
	)
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New()
		balanceMetrics = appMetrics
		choreMetrics = appMetrics
	}

	households := householddomain.NewService(householdrepo.NewPostgres(dbConn), householddomain.Config{
		Cache:           inmemory.NewHouseholdCache(),
		CacheTTL:        cfg.Household.CacheTTL,
		DefaultTimezone: cfg.Household.DefaultTimezone,
	})
	users := userdomain.NewService(userrepo.NewPostgres(dbConn))
	expenses := expensesdomain.NewService(expensesrepo.NewPostgres(dbConn), households)
	balances := balancesdomain.NewService(balancesrepo.NewPostgres(dbConn), balanceMetrics, log)
	a.chores = choresdomain.NewService(choresrepo.NewPostgres(dbConn), households, choresdomain.Options{
		Locker:       locker,
		BatchLockTTL: cfg.Recurring.BatchLockTTL,
		Metrics:      choreMetrics,
		Logger:       log,
	})

	log.Info("app: initializing router")
	handlers := handler.New(households, expenses, balances, a.chores, log)
	router := httpserver.NewRouter(cfg, handlers, users, appMetrics, log)

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, router)

	return a, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// RunRecurring processes every due recurring chore template once.
func (a *App) RunRecurring(ctx context.Context) (*choresdomain.BatchReport, error) {
	return a.chores.ProcessDueTemplates(ctx, time.Now().UTC())
}

// StartRecurringLoop runs the recurring batch on the configured interval
// until ctx is done. It does nothing when the interval is not positive.
func (a *App) StartRecurringLoop(ctx context.Context) {
	interval := a.cfg.Recurring.RunInterval
	if interval <= 0 {
		return
	}

	a.log.Info("recurring: loop started", "interval", interval.String())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				a.log.Info("recurring: loop stopped")
				return
			case <-ticker.C:
				report, err := a.RunRecurring(ctx)
				switch {
				case errors.Is(err, choresdomain.ErrBatchInProgress):
					a.log.Info("recurring: batch already running elsewhere")
				case err != nil:
					a.log.Error("recurring: batch failed", "err", err)
				default:
					a.log.Info("recurring: batch finished",
						"run_id", report.RunID,
						"status", string(report.Status),
						"created", report.Summary.Created,
						"skipped", report.Summary.Skipped,
						"failed", report.Summary.Failed,
					)
				}
			}
		}
	}()
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

func closeDB(conn *gorm.DB) {
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
