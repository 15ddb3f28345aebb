package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"bookstore-ecommerce/internal/config"
	"bookstore-ecommerce/internal/infrastructure/cache"
	"bookstore-ecommerce/internal/infrastructure/database"
	"bookstore-ecommerce/internal/infrastructure/email"
	"bookstore-ecommerce/internal/infrastructure/events"
	"bookstore-ecommerce/internal/infrastructure/memory"
	"bookstore-ecommerce/internal/infrastructure/queue"
	pkgCache "bookstore-ecommerce/pkg/cache"
	"bookstore-ecommerce/pkg/jwt"
	"bookstore-ecommerce/pkg/tracing"

	cartHandler "bookstore-ecommerce/internal/domains/cart/handler"
	cartRepo "bookstore-ecommerce/internal/domains/cart/repository"
	cartService "bookstore-ecommerce/internal/domains/cart/service"
	catalogHandler "bookstore-ecommerce/internal/domains/catalog/handler"
	catalogRepo "bookstore-ecommerce/internal/domains/catalog/repository"
	catalogService "bookstore-ecommerce/internal/domains/catalog/service"
	orderHandler "bookstore-ecommerce/internal/domains/order/handler"
	orderRepo "bookstore-ecommerce/internal/domains/order/repository"
	orderService "bookstore-ecommerce/internal/domains/order/service"
	otpRepo "bookstore-ecommerce/internal/domains/otp/repository"
	otpService "bookstore-ecommerce/internal/domains/otp/service"
	"bookstore-ecommerce/internal/domains/payment/gateway/vnpay"
	paymentHandler "bookstore-ecommerce/internal/domains/payment/handler"
	paymentRepo "bookstore-ecommerce/internal/domains/payment/repository"
	paymentService "bookstore-ecommerce/internal/domains/payment/service"
	promoHandler "bookstore-ecommerce/internal/domains/promotion/handler"
	promoRepo "bookstore-ecommerce/internal/domains/promotion/repository"
	promoService "bookstore-ecommerce/internal/domains/promotion/service"
	sessionRepo "bookstore-ecommerce/internal/domains/session/repository"
	sessionService "bookstore-ecommerce/internal/domains/session/service"
	"bookstore-ecommerce/internal/domains/user"
	userHandler "bookstore-ecommerce/internal/domains/user/handler"
	userRepo "bookstore-ecommerce/internal/domains/user/repository"
	userService "bookstore-ecommerce/internal/domains/user/service"
	wishlistHandler "bookstore-ecommerce/internal/domains/wishlist/handler"
	wishlistRepo "bookstore-ecommerce/internal/domains/wishlist/repository"
	wishlistService "bookstore-ecommerce/internal/domains/wishlist/service"
)

// Credentials giả cho môi trường dev; callback ký bằng secret này chỉ hợp lệ với local instance
const (
	devTmnCode    = "DEVTMN01"
	devHashSecret = "DEVSECRETDEVSECRETDEVSECRET00000"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application.
// Cùng một container phục vụ cả cmd/api lẫn cmd/worker.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB // nil khi APP_STORAGE_DRIVER=memory
	Redis       *cache.RedisClient   // nil khi APP_STORAGE_DRIVER=memory
	Memory      *memory.Store        // nil khi APP_STORAGE_DRIVER=postgres
	Cache       pkgCache.Cache
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client
	Kafka       *events.KafkaPublisher
	Tracer      *sdktrace.TracerProvider
	Email       email.EmailService
	OTPSender   otpService.Sender
	VNPay       *vnpay.Client

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	CatalogRepo  catalogRepo.Repository
	PromoRepo    promoRepo.Repository
	CartRepo     cartRepo.Repository
	OrderStore   orderRepo.Store
	OTPRepo      otpRepo.Repository
	SessionRepo  sessionRepo.Repository
	UserRepo     user.Repository
	WishlistRepo wishlistRepo.Repository
	CallbackLogs paymentRepo.CallbackLogRepository

	// ========================================
	// SERVICE LAYER
	// ========================================
	CatalogService  catalogService.Service
	PromoService    promoService.Service
	CartService     cartService.Service
	Reconciler      cartService.Reconciler
	OrderService    orderService.OrderService
	PaymentService  paymentService.Service
	OTPService      otpService.Service
	SessionService  sessionService.Service
	UserService     user.Service
	WishlistService wishlistService.Service

	// ========================================
	// HANDLER LAYER
	// ========================================
	CatalogHandler  *catalogHandler.CatalogHandler
	PromoHandler    *promoHandler.PromotionHandler
	CartHandler     *cartHandler.CartHandler
	OrderHandler    *orderHandler.OrderHandler
	PaymentHandler  *paymentHandler.PaymentHandler
	UserHandler     *userHandler.UserHandler
	WishlistHandler *wishlistHandler.WishlistHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// Build tạo container theo thứ tự:
// 1. Infrastructure (DB/Redis hoặc memory store)
// 2. Repositories
// 3. Services
// 4. Handlers
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	log.Info().Msg("Initializing DI Container...")
	c := &Container{Config: cfg}

	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}

	if cfg.UseMemoryStorage() {
		c.initMemoryRepositories()
	} else {
		c.initPostgresRepositories()
	}
	log.Info().Msg("Repositories initialized")

	if err := c.initServices(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}
	log.Info().Msg("Services initialized")

	c.initHandlers()
	log.Info().Msg("DI Container initialized successfully")
	return c, nil
}

// NewMemoryContainer dựng container trên store có sẵn (đã seed), không cần Postgres/Redis.
// sender nil thì OTP gửi thẳng qua SMTP.
func NewMemoryContainer(cfg *config.Config, store *memory.Store, sender otpService.Sender) (*Container, error) {
	cfg.App.StorageDriver = "memory"
	c := &Container{Config: cfg, Memory: store, OTPSender: sender}
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	c.Cache = memory.NewCache()
	c.Email = email.NewSMTPEmailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)

	c.initMemoryRepositories()
	if err := c.initServices(); err != nil {
		return nil, err
	}
	c.initHandlers()
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.Config

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	c.Email = email.NewSMTPEmailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.App.Name, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			// tracing không critical
			log.Warn().Err(err).Msg("Tracing disabled")
		} else {
			c.Tracer = tp
		}
	}

	if cfg.Kafka.Enabled {
		c.Kafka = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info().Str("topic", cfg.Kafka.Topic).Msg("Kafka publisher ready")
	}

	if cfg.UseMemoryStorage() {
		log.Info().Msg("Using in-memory storage")
		c.Memory = memory.NewStore()
		c.Cache = memory.NewCache()
		return nil
	}

	// ----------------------------------------
	// POSTGRES
	// ----------------------------------------
	log.Info().Msg("Connecting to PostgreSQL...")
	db := database.NewPostgresDB(cfg.Database.DBConfig())

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.Connect(connectCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db
	log.Info().Msg("Database connected")

	// ----------------------------------------
	// REDIS (cache, OTP, rate limit, asynq)
	// ----------------------------------------
	log.Info().Msg("Connecting to Redis...")
	rc := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := rc.Connect(ctx); err != nil {
		// OTP và rate limit sống trên Redis nên không thể chạy thiếu
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Redis = rc
	c.Cache = cache.NewRedisCache(rc.Client)
	log.Info().Msg("Redis connected")

	c.AsynqClient = asynq.NewClient(c.RedisOpt())
	return nil
}

// RedisOpt dùng chung cho asynq client, server và scheduler
func (c *Container) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

func (c *Container) initPostgresRepositories() {
	pool := c.pool()

	c.CatalogRepo = catalogRepo.NewPostgresRepository(pool)
	c.PromoRepo = promoRepo.NewPostgresRepository(pool)
	c.CartRepo = cartRepo.NewPostgresRepository(pool)
	c.OrderStore = orderRepo.NewPostgresStore(pool)
	c.SessionRepo = sessionRepo.NewPostgresRepository(pool)
	c.UserRepo = userRepo.NewPostgresRepository(pool)
	c.WishlistRepo = wishlistRepo.NewPostgresRepository(pool)
	c.CallbackLogs = paymentRepo.NewPostgresCallbackLog(pool)
	c.OTPRepo = otpRepo.NewRedisRepository(c.Redis.Client)
}

func (c *Container) initMemoryRepositories() {
	s := c.Memory

	c.CatalogRepo = s.Catalog()
	c.PromoRepo = s.Promotions()
	c.CartRepo = s.Carts()
	c.OrderStore = s.Orders()
	c.SessionRepo = s.Sessions()
	c.UserRepo = s.Users()
	c.WishlistRepo = s.Wishlist()
	c.CallbackLogs = s.PaymentLogs()
	c.OTPRepo = memory.NewOTPRepository()
}

func (c *Container) initServices() error {
	cfg := c.Config

	// ----------------------------------------
	// CATALOG / PROMOTION / CART
	// ----------------------------------------
	c.CatalogService = catalogService.NewCatalogService(c.CatalogRepo, c.Cache)
	c.PromoService = promoService.NewPromotionService(c.PromoRepo)
	c.Reconciler = cartService.NewReconciler(c.CatalogService)
	c.CartService = cartService.NewCartService(c.CartRepo, c.CatalogService)
	c.WishlistService = wishlistService.NewWishlistService(c.WishlistRepo, c.CatalogService)

	// ----------------------------------------
	// ORDER ENGINE
	// ----------------------------------------
	c.OrderService = orderService.NewOrderService(
		c.OrderStore,
		c.Reconciler,
		c.PromoService,
		c.orderPublisher(),
	)

	// ----------------------------------------
	// PAYMENT (VNPay)
	// ----------------------------------------
	tmnCode, hashSecret := cfg.VNPay.TmnCode, cfg.VNPay.HashSecret
	if (tmnCode == "" || hashSecret == "") && !cfg.IsProduction() {
		// production đã bị chặn trong config.Validate
		log.Info().Msg("VNPAY_TMN_CODE/VNPAY_HASH_SECRET not set, using local sandbox credentials")
		tmnCode, hashSecret = devTmnCode, devHashSecret
	}
	vnpayClient, err := vnpay.NewClient(vnpay.Config{
		TmnCode:    tmnCode,
		HashSecret: hashSecret,
		APIUrl:     cfg.VNPay.APIURL,
		ReturnURL:  cfg.VNPay.ReturnURL,
		CurrCode:   cfg.VNPay.CurrCode,
		Locale:     cfg.VNPay.Locale,
		ExpireIn:   cfg.VNPay.ExpireIn,
	})
	if err != nil {
		return err
	}
	c.VNPay = vnpayClient
	c.PaymentService = paymentService.NewPaymentService(vnpayClient, c.OrderService, c.CallbackLogs)

	// ----------------------------------------
	// AUTH: OTP, SESSION, USER
	// ----------------------------------------
	if c.OTPSender == nil {
		if c.AsynqClient != nil {
			c.OTPSender = queue.NewDispatcher(c.AsynqClient)
		} else {
			c.OTPSender = email.NewOTPMailer(c.Email)
		}
	}
	c.OTPService = otpService.NewOTPService(c.OTPRepo, c.Cache, c.OTPSender, otpService.Config{
		Length:      cfg.OTP.Length,
		TTL:         cfg.OTP.TTL,
		MarkerTTL:   cfg.OTP.MarkerTTL,
		MaxAttempts: cfg.OTP.MaxAttempts,
		RateLimit:   cfg.OTP.RateLimit,
		RateWindow:  cfg.OTP.RateWindow,
	})
	c.SessionService = sessionService.NewSessionService(c.SessionRepo, cfg.Session.RefreshTTL)

	userCfg := userService.DefaultConfig
	userCfg.MaxFailedLogins = cfg.Session.MaxFailedLogins
	userCfg.FailedLoginWindow = cfg.Session.FailedLoginWindow
	userCfg.OTPTTL = cfg.OTP.TTL
	c.UserService = userService.NewUserService(c.UserRepo, c.OTPService, c.SessionService, c.JWTManager, c.Cache, userCfg)

	return nil
}

// orderPublisher: Kafka cho mọi event, asynq cho thông báo refund
func (c *Container) orderPublisher() orderService.EventPublisher {
	var publishers orderService.MultiPublisher
	if c.Kafka != nil {
		publishers = append(publishers, c.Kafka)
	}
	if c.AsynqClient != nil {
		publishers = append(publishers, queue.NewDispatcher(c.AsynqClient))
	}
	if len(publishers) == 0 {
		return orderService.NoopPublisher{}
	}
	return publishers
}

func (c *Container) initHandlers() {
	c.CatalogHandler = catalogHandler.NewCatalogHandler(c.CatalogService)
	c.PromoHandler = promoHandler.NewPromotionHandler(c.PromoService)
	c.CartHandler = cartHandler.NewCartHandler(c.CartService)
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService, c.PaymentService)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(c.PaymentService)
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.WishlistHandler = wishlistHandler.NewWishlistHandler(c.WishlistService)
}

// ========================================
// HELPER METHODS
// ========================================

func (c *Container) pool() *pgxpool.Pool {
	if c.DB == nil {
		return nil
	}
	return c.DB.Pool
}

// HealthCheck ping các backend đang dùng
func (c *Container) HealthCheck(ctx context.Context) map[string]string {
	status := map[string]string{"storage": c.Config.App.StorageDriver}
	if c.DB != nil {
		status["database"] = healthString(c.DB.HealthCheck(ctx))
	}
	if c.Redis != nil {
		status["redis"] = healthString(c.Redis.HealthCheck(ctx))
	}
	return status
}

func healthString(err error) string {
	if err != nil {
		return "down: " + err.Error()
	}
	return "up"
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close asynq client")
		}
	}
	if c.Kafka != nil {
		if err := c.Kafka.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close kafka writer")
		}
	}
	if c.Tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Tracer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}
	if c.DB != nil {
		c.DB.Close()
		log.Info().Msg("Database connections closed")
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		} else {
			log.Info().Msg("Redis connections closed")
		}
	}

	log.Info().Msg("Container cleanup completed")
}
