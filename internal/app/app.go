package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fundops/fundledger/internal/allocation"
	"github.com/fundops/fundledger/internal/config"
	"github.com/fundops/fundledger/internal/db"
	"github.com/fundops/fundledger/internal/gateway"
	internalhttp "github.com/fundops/fundledger/internal/http/api/admin"
	"github.com/fundops/fundledger/internal/http/api/admin/handlers"
	"github.com/fundops/fundledger/internal/ledger"
	"github.com/fundops/fundledger/internal/lock"
	"github.com/fundops/fundledger/internal/logging"
	"github.com/fundops/fundledger/internal/merge"
	"github.com/fundops/fundledger/internal/metrics"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/notify"
	"github.com/fundops/fundledger/internal/onboarding"
	"github.com/fundops/fundledger/internal/payout"
	"github.com/fundops/fundledger/internal/profit"
	"github.com/fundops/fundledger/internal/security"
	"github.com/fundops/fundledger/internal/settings"
	"github.com/fundops/fundledger/internal/store"
	"github.com/fundops/fundledger/internal/withdrawal"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	shutdownTimeout = 15 * time.Second
	walletLockTTL   = 30 * time.Second
)

// runtime holds the opened resources shared by every command.
type runtime struct {
	cfg       *config.Config
	conn      *gorm.DB
	store     *store.Store
	ledger    *ledger.Ledger
	logCloser io.Closer
	redis     *redis.Client
}

func (rt *runtime) Close() {
	if rt.redis != nil {
		if errClose := rt.redis.Close(); errClose != nil {
			log.WithError(errClose).Warn("app: close redis")
		}
	}
	if sqlDB, errDB := rt.conn.DB(); errDB == nil {
		_ = sqlDB.Close()
	}
	if rt.logCloser != nil {
		_ = rt.logCloser.Close()
	}
}

// open loads configuration, sets up logging and connects the database and wallet locker.
func open(ctx context.Context, appCfg config.AppConfig, requireJWT bool) (*runtime, error) {
	configPath := config.ResolveConfigPath(appCfg.ConfigPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if requireJWT {
		if errValidate := cfg.Validate(); errValidate != nil {
			return nil, errValidate
		}
	} else if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn is required")
	}
	logCloser, errLog := logging.Setup(cfg.Logging)
	if errLog != nil {
		return nil, errLog
	}

	pool := db.DefaultPoolOptions()
	if cfg.Database.MaxOpenConns > 0 {
		pool.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 {
		pool.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	if lifetime, errParse := time.ParseDuration(cfg.Database.ConnMaxLifetime); errParse == nil && lifetime > 0 {
		pool.ConnMaxLifetime = lifetime
	}
	conn, err := db.Open(cfg.Database.DSN, pool)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	rt := &runtime{cfg: cfg, conn: conn, store: store.New(conn), logCloser: logCloser}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		rt.Close()
		return nil, errMigrate
	}

	var locker lock.Locker
	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		errPing := client.Ping(pingCtx).Err()
		cancel()
		if errPing != nil {
			_ = client.Close()
			rt.Close()
			return nil, fmt.Errorf("app: redis %s: %w", addr, errPing)
		}
		rt.redis = client
		locker = lock.NewRedisLocker(client, walletLockTTL)
		log.Infof("wallet locks: redis %s", addr)
	} else {
		locker = lock.NewLocalLocker()
		log.Info("wallet locks: in-process")
	}
	rt.ledger = ledger.New(locker)
	return rt, nil
}

func (rt *runtime) profitEngine() *profit.Engine {
	return profit.NewEngine(rt.store, rt.ledger, rt.cfg.Profit.MaxConcurrency)
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	rt, err := open(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer rt.Close()
	log.Info("migrations applied")
	return nil
}

// RunAutoPayout runs one monthly auto payout pass and logs the outcome.
func RunAutoPayout(ctx context.Context, cfg config.AppConfig) error {
	rt, err := open(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer rt.Close()
	result, errRun := profit.NewRunner(rt.profitEngine(), rt.cfg.AutoPayout.Interval()).RunOnce(ctx)
	if errRun != nil {
		return errRun
	}
	for _, plan := range result.Plans {
		log.WithFields(log.Fields{"plan": plan.PlanCode, "credited": plan.Credited, "skipped": plan.Skipped, "paid": plan.Paid}).
			Infof("auto payout %s: %s", result.Month, plan.Status)
	}
	return nil
}

// RunServer boots the admin API together with the notification dispatcher and,
// when enabled, the monthly auto payout runner.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	rt, err := open(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if errBootstrap := bootstrapAdmin(ctx, rt.conn, rt.cfg.Bootstrap); errBootstrap != nil {
		return errBootstrap
	}

	engine := rt.profitEngine()
	payouts := payout.NewService(rt.store, rt.ledger, func(snap settings.Snapshot) (gateway.Gateway, error) {
		return gateway.FromSettings(snap, gateway.Options{})
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinLogger(), metrics.GinMiddleware())
	router.GET("/healthz", handlers.NewHealthHandler(rt.conn).Healthz)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	internalhttp.RegisterAdminRoutes(router, internalhttp.Deps{
		DB:          rt.conn,
		Store:       rt.store,
		JWT:         rt.cfg.JWT,
		Withdrawals: withdrawal.NewService(rt.store, rt.ledger),
		Payouts:     payouts,
		Profit:      engine,
		Merge:       merge.NewService(rt.store, rt.ledger),
		Onboarding:  onboarding.NewService(rt.store),
		Allocations: allocation.NewService(rt.store),
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	notify.NewDispatcher(rt.store, notify.NewDBSink(rt.store), notify.DispatcherOptions{
		Interval:    time.Duration(rt.cfg.Outbox.IntervalSeconds) * time.Second,
		BatchSize:   rt.cfg.Outbox.BatchSize,
		MaxAttempts: rt.cfg.Outbox.MaxAttempts,
	}).Start(runCtx)
	notify.NewRetentionCleaner(rt.store).Start(runCtx)
	if rt.cfg.AutoPayout.Enabled {
		profit.NewRunner(engine, rt.cfg.AutoPayout.Interval()).Start(runCtx)
	}

	server := &http.Server{
		Addr:              rt.cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Infof("fundledger admin API listening on %s", server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			serveErr <- errServe
		}
		close(serveErr)
	}()

	select {
	case errServe := <-serveErr:
		return errServe
	case <-ctx.Done():
	}
	log.Info("shutting down")
	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}

// bootstrapAdmin creates the configured super admin when no admin exists yet.
func bootstrapAdmin(ctx context.Context, conn *gorm.DB, cfg config.BootstrapConfig) error {
	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" || cfg.AdminPassword == "" {
		return nil
	}
	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("app: count admins: %w", errCount)
	}
	if count > 0 {
		return nil
	}
	hash, errHash := security.HashPassword(cfg.AdminPassword)
	if errHash != nil {
		return fmt.Errorf("app: hash bootstrap password: %w", errHash)
	}
	admin := &models.Admin{
		Username:     username,
		Password:     hash,
		Active:       true,
		IsSuperAdmin: true,
		Permissions:  []byte("[]"),
	}
	if errCreate := conn.WithContext(ctx).Create(admin).Error; errCreate != nil {
		return fmt.Errorf("app: create bootstrap admin: %w", errCreate)
	}
	log.WithField("username", username).Warn("created bootstrap super admin; change its password")
	return nil
}
