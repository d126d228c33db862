package config

import (
	"log"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Port      string
	JWTSecret string
	JWTExpire time.Duration

	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	DatabaseURL      string

	RedisURL string

	KafkaBrokers string
	KafkaTopic   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Heartbeat monitor tuning for the realtime hub.
	HubSweepInterval time.Duration
	HubStaleTimeout  time.Duration
}

var (
	instance *Config
	once     sync.Once
)

// Load reads configuration from a .env file plus environment
// variables, falling back to defaults. Subsequent calls return the
// same instance.
func Load() *Config {
	once.Do(func() {
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
		viper.AddConfigPath(".")

		viper.SetDefault("PET_PORT", "8080")
		viper.SetDefault("PET_JWT_SECRET", "secret")
		viper.SetDefault("PET_JWT_EXPIRE", "24h")
		viper.SetDefault("POSTGRES_USER", "postgres")
		viper.SetDefault("POSTGRES_PASSWORD", "password")
		viper.SetDefault("POSTGRES_HOST", "localhost")
		viper.SetDefault("POSTGRES_PORT", "5432")
		viper.SetDefault("POSTGRES_DB", "pets")
		viper.SetDefault("REDIS_URL", "redis://127.0.0.1:6379/0")
		viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
		viper.SetDefault("KAFKA_TOPIC", "pet-activity")
		viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
		viper.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
		viper.SetDefault("MINIO_SECRET_KEY", "minioadmin")
		viper.SetDefault("MINIO_BUCKET", "avatars")
		viper.SetDefault("MINIO_USE_SSL", false)
		viper.SetDefault("HUB_SWEEP_INTERVAL", "30s")
		viper.SetDefault("HUB_STALE_TIMEOUT", "60s")
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err != nil {
			log.Printf("Warning: Error reading .env file: %v", err)
			log.Printf("Using environment variables and defaults")
		}

		jwtExpire, err := time.ParseDuration(viper.GetString("PET_JWT_EXPIRE"))
		if err != nil {
			log.Fatal("Invalid PET_JWT_EXPIRE format")
		}
		sweep, err := time.ParseDuration(viper.GetString("HUB_SWEEP_INTERVAL"))
		if err != nil {
			log.Fatal("Invalid HUB_SWEEP_INTERVAL format")
		}
		stale, err := time.ParseDuration(viper.GetString("HUB_STALE_TIMEOUT"))
		if err != nil {
			log.Fatal("Invalid HUB_STALE_TIMEOUT format")
		}

		instance = &Config{
			Port:             viper.GetString("PET_PORT"),
			JWTSecret:        viper.GetString("PET_JWT_SECRET"),
			JWTExpire:        jwtExpire,
			PostgresUser:     viper.GetString("POSTGRES_USER"),
			PostgresPassword: viper.GetString("POSTGRES_PASSWORD"),
			PostgresHost:     viper.GetString("POSTGRES_HOST"),
			PostgresPort:     viper.GetString("POSTGRES_PORT"),
			PostgresDB:       viper.GetString("POSTGRES_DB"),
			DatabaseURL:      viper.GetString("DATABASE_URL"),
			RedisURL:         viper.GetString("REDIS_URL"),
			KafkaBrokers:     viper.GetString("KAFKA_BROKERS"),
			KafkaTopic:       viper.GetString("KAFKA_TOPIC"),
			MinioEndpoint:    viper.GetString("MINIO_ENDPOINT"),
			MinioAccessKey:   viper.GetString("MINIO_ACCESS_KEY"),
			MinioSecretKey:   viper.GetString("MINIO_SECRET_KEY"),
			MinioBucket:      viper.GetString("MINIO_BUCKET"),
			MinioUseSSL:      viper.GetBool("MINIO_USE_SSL"),
			HubSweepInterval: sweep,
			HubStaleTimeout:  stale,
		}
	})
	return instance
}
