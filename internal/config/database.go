package config

import (
	"fmt"
	"net/url"
	"time"

	"bookstore-ecommerce/internal/infrastructure/database"
)

type DatabaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"bookstore"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"bookstore_dev"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`

	MaxConns          int32         `env:"MAX_CONNECTIONS" envDefault:"25"`
	MinConns          int32         `env:"MIN_CONNECTIONS" envDefault:"5"`
	MaxConnLifetime   time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"5m"`
	MaxConnIdleTime   time.Duration `env:"MAX_CONN_IDLE_TIME" envDefault:"1m"`
	HealthCheckPeriod time.Duration `env:"HEALTH_CHECK_PERIOD" envDefault:"1m"`
	MaxRetries        int           `env:"MAX_RETRIES" envDefault:"5"`
	RetryDelay        time.Duration `env:"RETRY_DELAY" envDefault:"1s"`
	ConnectTimeout    time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// DBConfig chuyển DatabaseConfig sang config của PostgresDB wrapper
func (d DatabaseConfig) DBConfig() *database.DBConfig {
	return &database.DBConfig{
		Host:              d.Host,
		Port:              d.Port,
		Username:          d.User,
		Password:          d.Password,
		DBName:            d.Name,
		SSLMode:           d.SSLMode,
		MaxConns:          d.MaxConns,
		MinConns:          d.MinConns,
		MaxConnLifetime:   d.MaxConnLifetime,
		MaxConnIdleTime:   d.MaxConnIdleTime,
		HealthCheckPeriod: d.HealthCheckPeriod,
		MaxRetries:        d.MaxRetries,
		RetryDelay:        d.RetryDelay,
		ConnectTimeout:    d.ConnectTimeout,
	}
}

// DSN trả về connection string dạng URL, dùng cho cmd/migrate (database/sql + lib/pq)
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
