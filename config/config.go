package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Env            string   `mapstructure:"env"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// Production reports whether manual triggers and other dev conveniences must be off.
func (s ServerConfig) Production() bool {
	return strings.EqualFold(s.Env, "production")
}

type MongoConfig struct {
	URI          string `mapstructure:"uri"`
	DBName       string `mapstructure:"dbName"`
	Transactions bool   `mapstructure:"transactions"`
}

type DatabaseConfig struct {
	Driver             string      `mapstructure:"driver"` // sqlite | mongo
	SQLitePath         string      `mapstructure:"sqlitePath"`
	Mongo              MongoConfig `mapstructure:"mongo"`
	SeedDemo           bool        `mapstructure:"seedDemo"`
	SeedExternalUserID string      `mapstructure:"seedExternalUserID"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
	Issuer    string `mapstructure:"issuer"`
}

type CronConfig struct {
	Secret     string `mapstructure:"secret"`
	SecretHash string `mapstructure:"secretHash"`
}

type PushConfig struct {
	VAPIDPublicKey  string        `mapstructure:"vapidPublicKey"`
	VAPIDPrivateKey string        `mapstructure:"vapidPrivateKey"`
	VAPIDEmail      string        `mapstructure:"vapidEmail"`
	IconURL         string        `mapstructure:"iconURL"`
	Workers         int           `mapstructure:"workers"`
	SendTimeout     time.Duration `mapstructure:"sendTimeout"`
}

type RemindersConfig struct {
	RunDeadline time.Duration `mapstructure:"runDeadline"`
	CatchUpDays int           `mapstructure:"catchUpDays"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

// Enabled reports whether image uploads can be served.
func (s S3Config) Enabled() bool {
	return s.Bucket != "" && s.Region != ""
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cron      CronConfig      `mapstructure:"cron"`
	Push      PushConfig      `mapstructure:"push"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	S3        S3Config        `mapstructure:"s3"`
	Log       LogConfig       `mapstructure:"log"`
}

var envBindings = map[string]string{
	"server.port":                 "PORT",
	"server.env":                  "APP_ENV",
	"server.allowedOrigins":       "ALLOWED_ORIGINS",
	"database.driver":             "DATABASE_DRIVER",
	"database.sqlitePath":         "SQLITE_PATH",
	"database.mongo.uri":          "MONGO_URI",
	"database.mongo.dbName":       "MONGO_DBNAME",
	"database.mongo.transactions": "MONGO_TRANSACTIONS",
	"database.seedDemo":           "SEED_DEMO",
	"database.seedExternalUserID": "SEED_EXTERNAL_USER_ID",
	"auth.jwtSecret":              "JWT_SECRET",
	"auth.issuer":                 "JWT_ISSUER",
	"cron.secret":                 "CRON_SECRET",
	"cron.secretHash":             "CRON_SECRET_HASH",
	"push.vapidPublicKey":         "VAPID_PUBLIC_KEY",
	"push.vapidPrivateKey":        "VAPID_PRIVATE_KEY",
	"push.vapidEmail":             "VAPID_EMAIL",
	"push.iconURL":                "PUSH_ICON_URL",
	"push.workers":                "PUSH_WORKERS",
	"push.sendTimeout":            "PUSH_SEND_TIMEOUT",
	"reminders.runDeadline":       "REMINDERS_RUN_DEADLINE",
	"reminders.catchUpDays":       "REMINDERS_CATCH_UP_DAYS",
	"s3.bucket":                   "S3_BUCKET",
	"s3.region":                   "S3_REGION",
	"s3.accessKeyID":              "S3_ACCESS_KEY_ID",
	"s3.secretAccessKey":          "S3_SECRET_ACCESS_KEY",
	"s3.cloudFrontDomain":         "S3_CLOUDFRONT_DOMAIN",
	"log.level":                   "LOG_LEVEL",
	"log.format":                  "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlitePath", "jaothui.db")
	v.SetDefault("database.mongo.dbName", "jaothui")
	v.SetDefault("push.workers", 8)
	v.SetDefault("push.sendTimeout", 10*time.Second)
	v.SetDefault("push.iconURL", "/icons/icon-192x192.png")
	v.SetDefault("reminders.runDeadline", 50*time.Second)
	v.SetDefault("reminders.catchUpDays", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads config.yaml from path (optional) and applies environment
// overrides. A .env file in the working directory is loaded first if present.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	for key, env := range envBindings {
		if err = v.BindEnv(key, env); err != nil {
			return config, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("reading config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decoding config: %w", err)
	}

	return config, nil
}

// Validate reports settings the API server cannot start without.
func (c Config) Validate() error {
	var missing []string
	if c.Server.Port == "" {
		missing = append(missing, "server.port")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "auth.jwtSecret")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			missing = append(missing, "database.sqlitePath")
		}
	case "mongo":
		if c.Database.Mongo.URI == "" {
			missing = append(missing, "database.mongo.uri")
		}
		if c.Database.Mongo.DBName == "" {
			missing = append(missing, "database.mongo.dbName")
		}
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing %s", strings.Join(missing, ", "))
	}
	if c.Push.Workers < 1 {
		return fmt.Errorf("config: push.workers must be at least 1")
	}
	if c.Reminders.CatchUpDays < 0 {
		return fmt.Errorf("config: reminders.catchUpDays must not be negative")
	}
	return nil
}

// PushEnabled reports whether VAPID credentials are present.
func (c Config) PushEnabled() bool {
	return c.Push.VAPIDPublicKey != "" && c.Push.VAPIDPrivateKey != "" && c.Push.VAPIDEmail != ""
}
