package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	RabbitMQ  RabbitMQConfig
	Payment   PaymentConfig
	Booking   BookingConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	MaxConns     int32
	QueryTimeout time.Duration
	AutoMigrate  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig drives the token bucket in front of the hold endpoint.
type RateLimitConfig struct {
	Enabled        bool
	Prefix         string
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
}

type RabbitMQConfig struct {
	URL   string
	Queue string
}

type PaymentConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
}

type BookingConfig struct {
	HoldTTL           time.Duration
	MaxSeatsPerHold   int
	BookingFee        float64
	ValidateAmount    bool
	PendingBookingTTL time.Duration
}

type SchedulerConfig struct {
	Enabled           bool
	SweepInterval     time.Duration
	ReconcileInterval time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "movie-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_QUERY_TIMEOUT", "5s")
	viper.SetDefault("DB_AUTO_MIGRATE", true)

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_PREFIX", "rl:hold")
	viper.SetDefault("RATE_LIMIT_CAPACITY", 10)
	viper.SetDefault("RATE_LIMIT_REFILL_TOKENS", 1)
	viper.SetDefault("RATE_LIMIT_REFILL_INTERVAL", "3s")
	viper.SetDefault("RATE_LIMIT_TTL", "10m")

	viper.SetDefault("RABBITMQ_QUEUE", "booking.confirmed")

	viper.SetDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1")
	viper.SetDefault("PAYMENT_CURRENCY", "INR")
	viper.SetDefault("PAYMENT_TIMEOUT", "10s")

	viper.SetDefault("HOLD_TTL", "10m")
	viper.SetDefault("MAX_SEATS_PER_HOLD", 8)
	viper.SetDefault("BOOKING_FEE", 2.50)
	viper.SetDefault("BOOKING_VALIDATE_AMOUNT", true)
	viper.SetDefault("PENDING_BOOKING_TTL", "30m")

	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("SWEEP_INTERVAL", "60s")
	viper.SetDefault("RECONCILE_INTERVAL", "5m")

	// .env is optional, container deployments pass everything through the environment
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			Name:         viper.GetString("DB_NAME"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASS"),
			MaxConns:     viper.GetInt32("DB_MAX_CONNS"),
			QueryTimeout: viper.GetDuration("DB_QUERY_TIMEOUT"),
			AutoMigrate:  viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:        viper.GetBool("RATE_LIMIT_ENABLED"),
			Prefix:         viper.GetString("RATE_LIMIT_PREFIX"),
			Capacity:       viper.GetInt("RATE_LIMIT_CAPACITY"),
			RefillTokens:   viper.GetInt("RATE_LIMIT_REFILL_TOKENS"),
			RefillInterval: viper.GetDuration("RATE_LIMIT_REFILL_INTERVAL"),
			TTL:            viper.GetDuration("RATE_LIMIT_TTL"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   viper.GetString("RABBITMQ_URL"),
			Queue: viper.GetString("RABBITMQ_QUEUE"),
		},
		Payment: PaymentConfig{
			KeyID:     viper.GetString("RAZORPAY_KEY_ID"),
			KeySecret: viper.GetString("RAZORPAY_KEY_SECRET"),
			BaseURL:   viper.GetString("RAZORPAY_BASE_URL"),
			Currency:  viper.GetString("PAYMENT_CURRENCY"),
			Timeout:   viper.GetDuration("PAYMENT_TIMEOUT"),
		},
		Booking: BookingConfig{
			HoldTTL:           viper.GetDuration("HOLD_TTL"),
			MaxSeatsPerHold:   viper.GetInt("MAX_SEATS_PER_HOLD"),
			BookingFee:        viper.GetFloat64("BOOKING_FEE"),
			ValidateAmount:    viper.GetBool("BOOKING_VALIDATE_AMOUNT"),
			PendingBookingTTL: viper.GetDuration("PENDING_BOOKING_TTL"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           viper.GetBool("SCHEDULER_ENABLED"),
			SweepInterval:     viper.GetDuration("SWEEP_INTERVAL"),
			ReconcileInterval: viper.GetDuration("RECONCILE_INTERVAL"),
		},
	}

	return config, nil
}
