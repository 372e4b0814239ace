package server

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"ledger-service/internal/config"
	hrest "ledger-service/internal/handler/rest"
	"ledger-service/internal/pub"
	"ledger-service/internal/repository"
	"ledger-service/internal/router"
	"ledger-service/internal/service"
	"ledger-service/internal/usecase"
	"ledger-service/pkg/utils"
)

// Build wires the whole service together and returns the HTTP server plus a
// shutdown function for its resources. Wiring is explicit constructor
// injection throughout; there is no global gateway instance anywhere.
func Build(cfg config.AppConfig, logger *zap.Logger) (*http.Server, func(), error) {
	dbpool, err := config.ConnectDB(logger)
	if err != nil {
		return nil, nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	kafkaWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Balancer: &kafka.LeastBytes{},
	}

	refGen := utils.NewReferenceGenerator()

	// --- Repositories ---
	userRepo := repository.NewUserRepo(dbpool)
	accountRepo := repository.NewAccountRepo(dbpool)
	transactionRepo := repository.NewTransactionRepo(dbpool)
	auditRepo := repository.NewAuditRepo(dbpool)

	// --- Infrastructure ---
	publisher := pub.NewLedgerEventPublisher(rdb, kafkaWriter, logger)
	cache := usecase.NewBalanceCache(rdb, logger)
	recorder := usecase.NewTransactionRecorder(transactionRepo, userRepo, refGen)

	// --- Usecases ---
	accountUC := usecase.NewAccountUsecase(accountRepo, userRepo, recorder, publisher, cache, logger)
	userUC := usecase.NewUserUsecase(userRepo, accountRepo, transactionRepo, auditRepo, logger)
	txStatusUC := usecase.NewTransactionStatusUsecase(transactionRepo, logger)
	acctStatusUC := usecase.NewAccountStatusUsecase(accountRepo, transactionRepo, txStatusUC, publisher, logger)
	userStatusUC := usecase.NewUserStatusUsecase(userRepo, accountRepo, auditRepo, acctStatusUC, publisher, logger)

	if cfg.SeedDemo {
		seeder := service.NewDemoSeeder(userUC, accountUC, logger)
		if err := seeder.Seed(context.Background()); err != nil {
			logger.Warn("demo seeding failed", zap.Error(err))
		}
	}

	// --- HTTP ---
	handler := hrest.NewLedgerRestHandler(accountUC, userUC, userStatusUC, acctStatusUC, logger)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.SetupRoutes(handler, logger),
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
		_ = kafkaWriter.Close()
		_ = rdb.Close()
		dbpool.Close()
	}

	return httpServer, cleanup, nil
}
