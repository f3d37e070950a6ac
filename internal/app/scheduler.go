package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leaveflow/internal/approval"
	"leaveflow/internal/escalation"
	"leaveflow/internal/ledger"
	"leaveflow/internal/notify"
	"leaveflow/internal/oracle"
	"leaveflow/internal/orgdir"
	"leaveflow/internal/request"
	"leaveflow/internal/sysconfig"

	"go.uber.org/zap"
)

// RunScheduler starts the background sweeps: priority eligibility,
// red-badge escalation, and approval-chain SLA enforcement.
func RunScheduler() error {
	logger := zap.L().Named("app.scheduler")

	gormDB, sqlDB, err := connectDatabase()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	logger.Info("database connection established")

	requestRepo := request.NewRepository(gormDB, sqlDB)
	escalationRepo := escalation.NewRepository(gormDB, sqlDB)
	configProvider := sysconfig.NewProvider(sysconfig.NewRepository(gormDB))
	oracleClient := oracle.NewHTTPClient(os.Getenv("ORACLE_BASE_URL"), oracleTimeout())
	balances := ledger.New(sqlDB)
	directory := orgdir.New(gormDB)
	dispatcher := notify.NewOutboxDispatcher(notify.NewRepository(sqlDB))

	sweeper := escalation.NewSweeper(escalation.SweeperDeps{
		DB:        sqlDB,
		Requests:  requestRepo,
		History:   escalationRepo,
		Oracle:    oracleClient,
		Balances:  balances,
		Config:    configProvider,
		Directory: directory,
		Notifier:  dispatcher,
	})
	slaSweeper := approval.NewSLASweeper(requestRepo, configProvider, directory, dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sweeper.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("escalation sweeper exited", zap.Error(err))
		}
	}()
	go func() {
		if err := slaSweeper.Run(ctx, 15*time.Minute); err != nil && ctx.Err() == nil {
			logger.Error("sla sweeper exited", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("scheduler shutting down")
	cancel()

	return nil
}
