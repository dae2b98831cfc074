package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is resolved from defaults, an optional config.yaml, then the environment
type Config struct {
	Port   int    `mapstructure:"port"`
	GoEnv  string `mapstructure:"go_env"`
	Origin string `mapstructure:"public_base_url"`

	StoreDriver    string        `mapstructure:"store_driver"`
	MongoURI       string        `mapstructure:"mongodb_uri"`
	MongoDatabase  string        `mapstructure:"mongodb_database"`
	RedisAddress   string        `mapstructure:"redis_address"`
	RedisPassword  string        `mapstructure:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db"`
	StatusChannel  string        `mapstructure:"status_events_channel"`
	PlateLockTTL   time.Duration `mapstructure:"plate_lock_ttl"`
	ReportLimit    int           `mapstructure:"report_daily_limit"`
	ReportLimitKey string        `mapstructure:"redis_queue_for_report_limit"`

	JWTSecret   string        `mapstructure:"jwt_secret"`
	JWTDuration time.Duration `mapstructure:"jwt_duration"`

	StorageDriver string `mapstructure:"storage_driver"`
	UploadDir     string `mapstructure:"upload_dir"`
	S3Bucket      string `mapstructure:"s3_bucket"`
	S3Endpoint    string `mapstructure:"s3_endpoint"`
	S3Region      string `mapstructure:"s3_region"`
	S3AccessKey   string `mapstructure:"s3_access_key"`
	S3SecretKey   string `mapstructure:"s3_secret_key"`
	S3PublicURL   string `mapstructure:"s3_public_url"`

	ProfanityWords []string `mapstructure:"profanity_words"`
	StreetsFile    string   `mapstructure:"streets_file"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("go_env", "development")
	v.SetDefault("public_base_url", "http://localhost:8080")
	v.SetDefault("store_driver", "mongo")
	v.SetDefault("mongodb_uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb_database", "parkwatch")
	v.SetDefault("redis_address", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("status_events_channel", "parkwatch:report-status")
	v.SetDefault("plate_lock_ttl", 5*time.Second)
	v.SetDefault("report_daily_limit", 10)
	v.SetDefault("redis_queue_for_report_limit", "parkwatch:report-limit")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_duration", 72*time.Hour)
	v.SetDefault("storage_driver", "local")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")
	v.SetDefault("s3_public_url", "")
	v.SetDefault("profanity_words", []string{})
	v.SetDefault("streets_file", "./data/streets.yaml")
	v.SetDefault("cors_origins", []string{"*"})
}

// Load reads .env (if present) and resolves the configuration
func Load() (*Config, error) {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &c, c.Validate()
}

func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	switch {
	case c.StoreDriver != "mongo" && c.StoreDriver != "memory":
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	case c.StorageDriver != "local" && c.StorageDriver != "s3":
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	case c.StorageDriver == "s3" && c.S3Bucket == "":
		return errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3")
	case c.IsProduction() && c.JWTSecret == "":
		return errors.New("JWT_SECRET is required in production")
	case c.Port <= 0:
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}
