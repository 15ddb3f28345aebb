package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config chứa toàn bộ application configuration,
// populate từ environment variables (và file .env khi chạy local)
type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	JWT      JWTConfig      `envPrefix:"JWT_"`
	Session  SessionConfig  `envPrefix:"SESSION_"`
	OTP      OTPConfig      `envPrefix:"OTP_"`
	Order    OrderConfig    `envPrefix:"ORDER_"`
	VNPay    VNPayConfig    `envPrefix:"VNPAY_"`
	SMTP     SMTPConfig     `envPrefix:"SMTP_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
	Tracing  TracingConfig  `envPrefix:"TRACING_"`
	Worker   WorkerConfig   `envPrefix:"WORKER_"`
}

type AppConfig struct {
	Name          string `env:"NAME" envDefault:"Bookstore API"`
	Environment   string `env:"ENV" envDefault:"development"` // development, staging, production
	Port          string `env:"PORT" envDefault:"8080"`
	Version       string `env:"VERSION" envDefault:"1.0.0"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"` // postgres | memory

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type RedisConfig struct {
	Host     string `env:"HOST" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type JWTConfig struct {
	Secret    string        `env:"SECRET" envDefault:"your-secret-key-change-in-production"`
	AccessTTL time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
}

type SessionConfig struct {
	RefreshTTL        time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
	MaxFailedLogins   int           `env:"MAX_FAILED_LOGINS" envDefault:"5"`
	FailedLoginWindow time.Duration `env:"FAILED_LOGIN_WINDOW" envDefault:"15m"`
}

type OTPConfig struct {
	Length      int           `env:"LENGTH" envDefault:"6"`
	TTL         time.Duration `env:"TTL" envDefault:"5m"`
	MarkerTTL   time.Duration `env:"MARKER_TTL" envDefault:"10m"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	RateLimit   int           `env:"RATE_LIMIT" envDefault:"5"`
	RateWindow  time.Duration `env:"RATE_WINDOW" envDefault:"15m"`
}

type OrderConfig struct {
	// Đơn VNPay chưa thanh toán sau khoảng này sẽ bị huỷ bởi worker
	UnpaidTimeout time.Duration `env:"UNPAID_TIMEOUT" envDefault:"30m"`
	MaxLines      int           `env:"MAX_LINES" envDefault:"100"`
}

type VNPayConfig struct {
	TmnCode    string        `env:"TMN_CODE"`    // Merchant code
	HashSecret string        `env:"HASH_SECRET"` // Secret key for HMAC-SHA512
	APIURL     string        `env:"API_URL" envDefault:"https://sandbox.vnpayment.vn/paymentv2"`
	ReturnURL  string        `env:"RETURN_URL" envDefault:"http://localhost:8080/api/v1/payments/vnpay/return"`
	Locale     string        `env:"LOCALE" envDefault:"vn"`
	CurrCode   string        `env:"CURR_CODE" envDefault:"VND"`
	ExpireIn   time.Duration `env:"EXPIRE_IN" envDefault:"15m"`
}

type SMTPConfig struct {
	Host string `env:"HOST" envDefault:"localhost"`
	Port int    `env:"PORT" envDefault:"1025"`
	From string `env:"FROM" envDefault:"noreply@bookstore.local"`
	// Địa chỉ nhận thông báo refund
	OpsEmail string `env:"OPS_EMAIL" envDefault:"ops@bookstore.local"`
}

type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"bookstore.orders"`
}

type TracingConfig struct {
	Enabled     bool    `env:"ENABLED" envDefault:"false"`
	Endpoint    string  `env:"ENDPOINT" envDefault:"http://localhost:14268/api/traces"`
	SampleRatio float64 `env:"SAMPLE_RATIO" envDefault:"1"`
}

type WorkerConfig struct {
	Concurrency int `env:"CONCURRENCY" envDefault:"10"`
	// Thời gian chờ task đang chạy khi tắt worker
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	// Cổng health/metrics của worker
	MetricsPort string `env:"METRICS_PORT" envDefault:"9091"`
}

// Load đọc .env (nếu có) rồi parse environment variables vào Config
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// UseMemoryStorage reports whether repositories run on the in-process backend
func (c *Config) UseMemoryStorage() bool {
	return c.App.StorageDriver == "memory"
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	switch c.App.StorageDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown APP_STORAGE_DRIVER %q", c.App.StorageDriver)
	}

	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 10")
	}
	if c.OTP.MaxAttempts <= 0 || c.OTP.RateLimit <= 0 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS and OTP_RATE_LIMIT must be positive")
	}
	if c.Session.RefreshTTL <= 0 {
		return fmt.Errorf("SESSION_REFRESH_TTL must be positive")
	}

	if c.IsProduction() {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if c.VNPay.TmnCode == "" || c.VNPay.HashSecret == "" {
			return fmt.Errorf("VNPAY_TMN_CODE and VNPAY_HASH_SECRET must be set in production")
		}
		if c.UseMemoryStorage() {
			return fmt.Errorf("memory storage is not allowed in production")
		}
	}

	return nil
}
