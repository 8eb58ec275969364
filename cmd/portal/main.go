package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"sudooom.portal/internal/blob"
	"sudooom.portal/internal/config"
	"sudooom.portal/internal/feed"
	"sudooom.portal/internal/handler"
	"sudooom.portal/internal/health"
	"sudooom.portal/internal/jwt"
	"sudooom.portal/internal/notify"
	"sudooom.portal/internal/repository"
	"sudooom.portal/internal/router"
	"sudooom.portal/internal/service"
	"sudooom.portal/pkg/snowflake"

	portalNats "sudooom.portal/internal/nats"
)

func main() {
	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// 加载配置
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 按配置调整日志级别
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.App.LogLevel),
	}))
	slog.SetDefault(logger)

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ID 生成器
	idGen, err := snowflake.NewNode(cfg.App.NodeID)
	if err != nil {
		logger.Error("Failed to create snowflake node", "error", err)
		os.Exit(1)
	}

	// 连接 NATS
	natsClient, err := portalNats.NewClient(cfg.NATS)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// 附件存储
	blobStore, err := blob.NewDiskStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
	if err != nil {
		logger.Error("Failed to init blob store", "dir", cfg.Blob.Dir, "error", err)
		os.Exit(1)
	}

	// 存储层
	accountRepo := repository.NewAccountRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// 事件总线与实时消息源
	bus := portalNats.NewBus(natsClient.Conn())
	hub := feed.NewHub(bus, messageRepo, portalNats.BuildConversationSubject)

	// 通知：Redis 收件箱 + 尽力而为的派发器
	notificationService := service.NewNotificationService(redisClient, idGen)
	dispatcher := notify.NewDispatcher(notificationService, notify.Config{
		Workers:    cfg.Notify.Workers,
		BufferSize: cfg.Notify.BufferSize,
	})
	dispatcher.Start(ctx)

	// 业务服务
	conversationService := service.NewConversationService(conversationRepo, accountRepo, idGen)
	messageService := service.NewMessageService(
		conversationService,
		messageRepo,
		accountRepo,
		blobStore,
		bus,
		dispatcher,
	)

	// HTTP 层
	jwtService := jwt.NewService(cfg.JWT.Secret)
	healthChecker := health.NewChecker(natsClient.Conn(), redisClient, db, cfg.Blob.Dir)

	engine := router.SetupRouter(
		cfg,
		jwtService,
		healthChecker,
		handler.NewConversationHandler(conversationService, messageService),
		handler.NewMessageHandler(messageService),
		handler.NewFeedHandler(conversationService, hub),
		handler.NewNotificationHandler(notificationService),
		handler.NewBlobHandler(blobStore),
	)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: engine,
	}

	go func() {
		logger.Info("Portal service started", "name", cfg.App.Name, "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			cancel()
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	// 先停派发器排空队列，再取消根上下文
	dispatcher.Stop()
	cancel()

	logger.Info("Portal service stopped")
}

// parseLogLevel 解析日志级别，默认 info
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
