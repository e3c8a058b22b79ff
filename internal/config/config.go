package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // alpine/scratch imajlarında zoneinfo yok

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"

	defaultDSN         = "host=localhost user=postgres password=postgres dbname=restoran port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	// Vardiya ve sipariş kayıtlarının tutulduğu depo: postgres | mongo
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=restoran port=5432 sslmode=disable"`
	MongoURI    string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDBName string `env:"MONGODB_NAME" envDefault:"restoran"`

	JWTSecret   string `env:"JWT_SECRET"`
	CORSOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`

	// Gün sonu ve sipariş tarihleri bu saat dilimine göre hesaplanır
	BusinessTimezone string `env:"BUSINESS_TIMEZONE" envDefault:"Europe/Istanbul"`

	// Boşsa idempotency kapalı
	RedisAddr string `env:"REDIS_ADDR"`
	// Boşsa event yayını kapalı
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	ServiceName  string   `env:"SERVICE_NAME" envDefault:"restoran-pos"`

	// /metrics uç noktası ve istek sayaçları
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	// Dakikada IP başına izin verilen giriş denemesi
	LoginRateLimit int `env:"LOGIN_RATE_LIMIT" envDefault:"10"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile   string `env:"LOG_FILE"`
}

// Load .env dosyasını (varsa) okur ve ortam değişkenlerini Config'e çözer.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s okunamadı: %w", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config parse edilemedi: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment değişkeni tanımlanmamış")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET en az 32 karakter olmalıdır")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMongo:
	default:
		return fmt.Errorf("geçersiz STORE_DRIVER: %q (postgres|mongo)", c.StoreDriver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.LoginRateLimit < 1 {
		return fmt.Errorf("LOGIN_RATE_LIMIT en az 1 olmalı, gelen: %d", c.LoginRateLimit)
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("geçersiz BUSINESS_TIMEZONE %q: %w", c.BusinessTimezone, err)
	}
	return loc, nil
}

// Warnings production için varsayılan bırakılmaması gereken değerleri döner.
func (c *Config) Warnings() []string {
	var out []string
	if c.DatabaseDSN == defaultDSN {
		out = append(out, "DATABASE_DSN varsayılan değer kullanılıyor, production için kendi Postgres bağlantı bilgisini tanımla")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		out = append(out, "CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için kendi domain'ini tanımla")
	}
	return out
}
