package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/crmforge/approval-engine/internal/application/dispatcher"
	"github.com/crmforge/approval-engine/internal/application/service"
	"github.com/crmforge/approval-engine/internal/config"
	"github.com/crmforge/approval-engine/internal/infrastructure/directory"
	"github.com/crmforge/approval-engine/internal/infrastructure/notify"
	"github.com/crmforge/approval-engine/internal/infrastructure/persistence/repository"
	"github.com/crmforge/approval-engine/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/crmforge/approval-engine/internal/interfaces/http"
	"github.com/crmforge/approval-engine/migrations"
	"github.com/crmforge/approval-engine/pkg/database"
	"github.com/crmforge/approval-engine/pkg/utils"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	// Local overrides from .env; absent in production deployments
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting approval engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(migrations.FS); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	kvLogger := utils.NewKVLogger(logger)

	// Persistence
	txManager := sqlite.NewDB(db.DB, logger)
	instanceRepo := repository.NewInstanceRepository(db.DB, logger)
	workItemRepo := repository.NewWorkItemRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	definitionRepo := repository.NewDefinitionRepository(db.DB, logger)

	// Events and notifications
	events := dispatcher.NewDispatcher(dispatcher.WithLogger(kvLogger))
	defer events.Close()
	notify.RegisterHandlers(events, notify.NewLogNotifier(logger))

	userDirectory := directory.NewStaticDirectory(cfg.Directory.Users)

	engine := service.NewApprovalEngine(
		instanceRepo,
		workItemRepo,
		historyRepo,
		definitionRepo,
		txManager,
		userDirectory,
		events,
		kvLogger,
	)

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, engine, kvLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
