// Package main is the entry point for the Artha personal finance tracker.
// The application tracks portfolios, bank/demat/crypto accounts, assets,
// expenses and alerts in a single SQLite database, computes daily portfolio
// snapshots, and exports everything to a portable JSON backup document
// which can be restored/merged into any other Artha instance.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artha-io/artha/internal/config"
	"github.com/artha-io/artha/internal/database"
	"github.com/artha-io/artha/internal/modules/accounts"
	accounthandlers "github.com/artha-io/artha/internal/modules/accounts/handlers"
	"github.com/artha-io/artha/internal/modules/alerts"
	alerthandlers "github.com/artha-io/artha/internal/modules/alerts/handlers"
	"github.com/artha-io/artha/internal/modules/assets"
	assethandlers "github.com/artha-io/artha/internal/modules/assets/handlers"
	"github.com/artha-io/artha/internal/modules/backup"
	backuphandlers "github.com/artha-io/artha/internal/modules/backup/handlers"
	"github.com/artha-io/artha/internal/modules/expenses"
	expensehandlers "github.com/artha-io/artha/internal/modules/expenses/handlers"
	"github.com/artha-io/artha/internal/modules/portfolio"
	portfoliohandlers "github.com/artha-io/artha/internal/modules/portfolio/handlers"
	"github.com/artha-io/artha/internal/modules/snapshots"
	snapshothandlers "github.com/artha-io/artha/internal/modules/snapshots/handlers"
	"github.com/artha-io/artha/internal/modules/users"
	userhandlers "github.com/artha-io/artha/internal/modules/users/handlers"
	"github.com/artha-io/artha/internal/scheduler"
	"github.com/artha-io/artha/internal/server"
	"github.com/artha-io/artha/pkg/logger"
)

func main() {
	// Load configuration first so the log level is configurable
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting Artha")

	// Initialize database
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger,
		Name:    "artha",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Apply schema and seed the shared category taxonomy
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	if err := db.SeedSystemCategories(); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed system categories")
	}

	conn := db.Conn()

	// Repositories
	userRepo := users.NewRepository(conn, log)
	portfolioRepo := portfolio.NewRepository(conn, log)
	bankRepo := accounts.NewBankRepository(conn, log)
	dematRepo := accounts.NewDematRepository(conn, log)
	cryptoRepo := accounts.NewCryptoRepository(conn, log)
	exchangeRepo := accounts.NewExchangeRepository(conn, log)
	categoryRepo := expenses.NewCategoryRepository(conn, log)
	expenseRepo := expenses.NewExpenseRepository(conn, log)
	assetRepo := assets.NewAssetRepository(conn, log)
	transactionRepo := assets.NewTransactionRepository(conn, log)
	holdingRepo := assets.NewHoldingRepository(conn, log)
	alertRepo := alerts.NewRepository(conn, log)
	snapshotRepo := snapshots.NewRepository(conn, log)

	// Services
	snapshotService := snapshots.NewService(conn, snapshotRepo, bankRepo, dematRepo, assetRepo, log)
	backupService := backup.NewService(conn, backup.Repositories{
		Users:        userRepo,
		Portfolios:   portfolioRepo,
		Banks:        bankRepo,
		Demats:       dematRepo,
		Cryptos:      cryptoRepo,
		Exchanges:    exchangeRepo,
		Categories:   categoryRepo,
		Expenses:     expenseRepo,
		Assets:       assetRepo,
		Transactions: transactionRepo,
		Holdings:     holdingRepo,
		Alerts:       alertRepo,
		Snapshots:    snapshotRepo,
	}, log)

	// Cloud backup storage is optional; without credentials the cloud
	// endpoints return 503 and the backup job is not scheduled.
	var cloudStore *backup.CloudStore
	if cfg.CloudBackupConfigured() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		cloudStore, err = backup.NewCloudStore(ctx, cfg, log)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cloud backup storage")
		}
	} else {
		log.Info().Msg("Cloud backup storage not configured, offsite backups disabled")
	}

	// Scheduler and background jobs
	sched := scheduler.New(log)

	snapshotJob := scheduler.NewSnapshotJob(userRepo, snapshotService, log)
	if err := sched.AddJob(cfg.SnapshotSchedule, snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}

	var cloudBackupJob scheduler.Job
	if cloudStore != nil {
		job := scheduler.NewCloudBackupJob(userRepo, backupService, cloudStore, cfg.BackupRetentionDays, log)
		if err := sched.AddJob(cfg.CloudBackupSchedule, job); err != nil {
			log.Fatal().Err(err).Msg("Failed to register cloud backup job")
		}
		cloudBackupJob = job
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		Config:  cfg,
		DevMode: cfg.DevMode,
		Handlers: server.Handlers{
			Users:      userhandlers.NewHandler(userRepo, portfolioRepo, log),
			Portfolios: portfoliohandlers.NewHandler(portfolioRepo, log),
			Accounts:   accounthandlers.NewHandler(bankRepo, dematRepo, cryptoRepo, exchangeRepo, portfolioRepo, log),
			Assets:     assethandlers.NewHandler(assetRepo, transactionRepo, holdingRepo, portfolioRepo, log),
			Expenses:   expensehandlers.NewHandler(expenseRepo, categoryRepo, log),
			Alerts:     alerthandlers.NewHandler(alertRepo, log),
			Snapshots:  snapshothandlers.NewHandler(snapshotRepo, snapshotService, log),
			Backup:     backuphandlers.NewHandler(backupService, cloudStore, cfg.BackupRetentionDays, log),
		},
		Scheduler: sched,
	})
	srv.SetJobs(snapshotJob, cloudBackupJob)

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
