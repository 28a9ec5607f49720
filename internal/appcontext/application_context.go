package appcontext

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/marketplace/internal/api"
	"github.com/RoyceAzure/lab/marketplace/internal/api/handler"
	"github.com/RoyceAzure/lab/marketplace/internal/config"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/gateway"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/producer"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/redisclient"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/logger"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const rateLimitPrefix = "marketplace:ratelimit:"

type ApplicationContext struct {
	Cf     *config.Config
	Logger *zerolog.Logger

	DbDao       *db.DbDao
	Store       db.Store
	RedisClient *redis.Client
	Limiter     ratelimit.Limiter
	Notifier    producer.Notifier
	Gateway     gateway.IPaymentGateway

	NotificationService *service.NotificationService
	CartService         service.ICartService
	CouponService       service.ICouponService
	ShippingService     service.IShippingService
	CheckoutService     service.ICheckoutService
	PaymentService      service.IPaymentService
	FulfillmentService  service.IFulfillmentService
	CartSweeper         *service.CartSweeper
}

func NewApplicationContext(ctx context.Context, cf *config.Config) (*ApplicationContext, error) {
	l := logger.New(cf.LogLevel, cf.LogPretty)
	app := ApplicationContext{
		Cf:     cf,
		Logger: &l,
	}
	app.Logger.Info().
		Str("env", cf.Env).
		Str("db_driver", cf.DbDriver).
		Bool("redis", cf.RedisAddr != "").
		Strs("kafka_brokers", cf.KafkaBrokers).
		Msg("loading application context")

	if err := app.Init(ctx); err != nil {
		// 初始化到一半失敗，已建立的連線要收掉
		_ = app.closeResources()
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"database", app.setUpDb},
		{"redis", app.setUpRedis},
		{"rate limiter", app.setUpLimiter},
		{"notifier", app.setUpNotifier},
		{"payment gateway", app.setUpGateway},
		{"services", app.setUpServices},
	}
	for _, step := range steps {
		app.Logger.Info().Str("step", step.name).Msg("start setup")
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("setup %s: %w", step.name, err)
		}
		app.Logger.Info().Str("step", step.name).Msg("finish setup")
	}
	return nil
}

func (app *ApplicationContext) setUpDb(context.Context) error {
	conn, err := db.Open(app.Cf)
	if err != nil {
		return err
	}
	app.DbDao = db.NewDbDao(conn)
	app.Store = db.NewStore(app.DbDao)
	return nil
}

// Migrate 建立或更新資料表，有設定 kafka 時一併建立通知 topic
func (app *ApplicationContext) Migrate(ctx context.Context) error {
	if err := app.DbDao.InitMigrate(); err != nil {
		return err
	}
	if len(app.Cf.KafkaBrokers) == 0 {
		return nil
	}
	created, err := producer.EnsureTopic(ctx, app.Cf.KafkaBrokers, producer.TopicConfig{
		Name:              app.Cf.KafkaNotifyTopic,
		Partitions:        app.Cf.KafkaNotifyPartitions,
		ReplicationFactor: app.Cf.KafkaReplicationFactor,
	})
	if err != nil {
		return err
	}
	if created {
		app.Logger.Info().Str("topic", app.Cf.KafkaNotifyTopic).Msg("notification topic created")
	}
	return nil
}

func (app *ApplicationContext) setUpRedis(ctx context.Context) error {
	if app.Cf.RedisAddr == "" {
		return nil
	}
	client, err := redisclient.NewClient(ctx, app.Cf.RedisAddr, redisclient.WithPassword(app.Cf.RedisPassword))
	if err != nil {
		return err
	}
	app.RedisClient = client
	return nil
}

// 有 redis 時多個 instance 共用限流狀態，否則退回單機版
func (app *ApplicationContext) setUpLimiter(context.Context) error {
	cfg := &ratelimit.LimiterConfig{
		Capacity: app.Cf.RateLimitCapacity,
		RatePS:   float64(app.Cf.RateLimitPerSecond),
	}
	if app.RedisClient != nil {
		app.Limiter = ratelimit.NewRedisTokenBucket(app.RedisClient, cfg, rateLimitPrefix, app.Logger)
		return nil
	}
	app.Limiter = ratelimit.NewTokenBucket(cfg)
	return nil
}

func (app *ApplicationContext) setUpNotifier(context.Context) error {
	if len(app.Cf.KafkaBrokers) == 0 {
		app.Logger.Warn().Msg("KAFKA_BROKERS not set, notifications are only logged")
		app.Notifier = producer.NewLogNotifier(app.Logger)
		return nil
	}
	app.Notifier = producer.NewKafkaNotifier(app.Cf.KafkaBrokers, app.Cf.KafkaNotifyTopic, app.Logger)
	return nil
}

func (app *ApplicationContext) setUpGateway(context.Context) error {
	if app.Cf.PaymentSecretKey == "" {
		if app.Cf.IsProduction() {
			return errors.New("PAYMENT_SECRET_KEY is required in production")
		}
		app.Logger.Warn().Msg("PAYMENT_SECRET_KEY not set, webhook signatures will never verify")
	}
	app.Gateway = gateway.NewClient(app.Cf.PaymentBaseURL, app.Cf.PaymentSecretKey, app.Cf.PaymentCallbackURL, app.Cf.PaymentTimeout)
	return nil
}

func (app *ApplicationContext) setUpServices(context.Context) error {
	standard, express, pickup := app.Cf.DefaultFees()
	fees := service.DefaultFees{Standard: standard, Express: express, Pickup: pickup}

	app.NotificationService = service.NewNotificationService(app.Notifier, app.Store, app.Cf.AdminEmail, app.Cf.NotifyConcurrency, app.Logger)
	app.CartService = service.NewCartService(app.Store, app.Cf.GuestCartTTL, app.Cf.TaxRateDecimal(), app.Logger)
	app.CouponService = service.NewCouponService(app.Store, app.Logger)
	app.ShippingService = service.NewShippingService(app.Store, fees, app.Logger)
	app.CheckoutService = service.NewCheckoutService(app.Store, app.Gateway, app.NotificationService, service.CheckoutConfig{
		TaxRate:     app.Cf.TaxRateDecimal(),
		DefaultFees: fees,
	}, app.Logger)
	app.PaymentService = service.NewPaymentService(app.Store, app.Gateway, app.NotificationService, app.Logger)
	app.FulfillmentService = service.NewFulfillmentService(app.Store, app.Logger)
	app.CartSweeper = service.NewCartSweeper(app.Store, app.Cf.CartSweepInterval, app.Logger)
	return nil
}

// NewServer 組裝 http handler
func (app *ApplicationContext) NewServer() *api.Server {
	return api.NewServer(
		handler.NewCartHandler(app.CartService),
		handler.NewCouponHandler(app.CouponService),
		handler.NewOrderHandler(app.CheckoutService, app.PaymentService),
		handler.NewFulfillmentHandler(app.FulfillmentService),
		handler.NewShippingHandler(app.ShippingService),
		handler.NewHealthHandler(app.healthChecks()),
	)
}

func (app *ApplicationContext) healthChecks() map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"db": func(ctx context.Context) error {
			sqlDB, err := app.DbDao.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if app.RedisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return app.RedisClient.Ping(ctx).Err()
		}
	}
	return checks
}

// Shutdown 先等背景通知送完，再關閉外部連線
func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("start application shutdown")

	done := make(chan error, 1)
	go func() {
		defer close(done)

		if app.NotificationService != nil {
			app.Logger.Info().Msg("waiting for pending notifications...")
			app.NotificationService.Wait()
		}
		done <- app.closeResources()
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		app.Logger.Info().Msg("application shutdown complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// closeResources 有錯誤不中斷，全部關完再一起回傳
func (app *ApplicationContext) closeResources() error {
	var errs []error
	if app.Notifier != nil {
		if err := app.Notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close notifier: %w", err))
		}
	}
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if app.DbDao != nil {
		if err := app.DbDao.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
