package app

import (
	"database/sql"
	"os"

	"leaveflow/internal/bootstrap"
	"leaveflow/internal/escalation"
	"leaveflow/internal/ledger"
	"leaveflow/internal/middleware"
	"leaveflow/internal/notify"
	"leaveflow/internal/oracle"
	"leaveflow/internal/orgdir"
	"leaveflow/internal/request"
	"leaveflow/internal/sysconfig"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	requestRepo := request.NewRepository(gormDB, db)
	escalationRepo := escalation.NewRepository(gormDB, db)
	configRepo := sysconfig.NewRepository(gormDB)
	outboxRepo := notify.NewRepository(db)

	// --- Services ---
	configProvider := sysconfig.NewProvider(configRepo)
	oracleClient := oracle.NewHTTPClient(os.Getenv("ORACLE_BASE_URL"), oracleTimeout())
	balances := ledger.New(db)
	directory := orgdir.New(gormDB)
	dispatcher := notify.NewOutboxDispatcher(outboxRepo)
	auditLogger := bootstrap.NewStdoutAuditLogger()

	requestService := request.NewService(request.ServiceDeps{
		DB:          db,
		Repo:        requestRepo,
		Balances:    balances,
		Oracle:      oracleClient,
		Config:      configProvider,
		Directory:   directory,
		Notifier:    dispatcher,
		Escalations: escalationRepo,
		Audit:       auditLogger,
	})

	// --- Handlers ---
	requestHandler := request.NewHandler(requestService)
	escalationHandler := escalation.NewHandler(escalationRepo)
	configHandler := sysconfig.NewHandler(configRepo)

	// --- Middleware & Routes ---
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))

	api := router.Group("/api/v1")
	if rdb != nil {
		api.Use(middleware.Idempotency(rdb))
	}
	{
		request.RegisterRoutes(api, requestHandler)
		escalation.RegisterRoutes(api, escalationHandler)
		sysconfig.RegisterRoutes(api, configHandler)
	}

	return nil
}
