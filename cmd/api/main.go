package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"creditmart/internal/config"
	"creditmart/internal/handler"
	"creditmart/internal/infra/auth"
	"creditmart/internal/infra/cache"
	"creditmart/internal/infra/db"
	"creditmart/internal/infra/logging"
	"creditmart/internal/infra/metrics"
	infraRepo "creditmart/internal/infra/repository"
	"creditmart/internal/server"
	"creditmart/internal/usecase"
	"creditmart/internal/validator"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "creditmart-api"

func main() {
	// .env は任意（本番は環境変数）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.MustNewLogger(serviceName, cfg.GoEnv, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	//DB接続
	gormDB, err := db.Connect(ctx, cfg.DSN(), !cfg.IsProd(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := db.Migrate(ctx, gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	if n, err := db.SeedProducts(ctx, productRepo); err != nil {
		return err
	} else if n > 0 {
		logger.Info("catalog seeded", zap.Int("products", n))
	}

	// カートキャッシュ（REDIS_ADDR 未設定なら nil = 無効）
	var cartCache usecase.CartCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warn("redis unavailable, cart cache disabled", zap.Error(err))
		} else {
			defer func() { _ = client.Close() }()
			cartCache = cache.NewRedisCache(client, cfg.CartCacheTTL)
		}
	}

	m := metrics.New()

	//usecaseに渡す部品
	rv := validator.New()
	authUC := usecase.NewAuthUsecase(
		userRepo,
		rtRepo,
		validator.NewAuthValidator(rv, userRepo),
		auth.NewBcryptPasswordHasher(12),
		auth.NewJWTIssuer(cfg.JWTSecret, auth.AccessTokenTTL),
		auth.UUIDGenerator{},
		auth.RealClock{},
		cfg.DefaultCreditLimit,
	)
	if created, err := authUC.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	} else if created {
		logger.Info("bootstrap admin created", zap.String("email", cfg.AdminEmail))
	}

	productUC := usecase.NewProductUsecase(productRepo, txm)
	cartUC := usecase.NewCartUsecase(cartItemRepo, productRepo, cartCache, m)
	orderUC := usecase.NewOrderUsecase(txm, cartCache, m)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm)
	adminUserUC := usecase.NewAdminUserUsecase(txm, auditRepo)

	//Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC, cfg, server.LoginRateLimiter()),
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminUser:    handler.NewAdminUserHandler(authUC, adminUserUC),
	}

	e := server.New(cfg, logger, m, userRepo, h)
	return server.Run(ctx, e, cfg.Addr(), logger)
}
