package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const devSecret = "restro-dev-secret"

type Config struct {
	Port string `mapstructure:"port"`

	DBDriver        string `mapstructure:"db_driver"`
	DBPath          string `mapstructure:"db_path"`
	DatabaseURL     string `mapstructure:"database_url"`
	DBBusyTimeoutMS int    `mapstructure:"db_busy_timeout_ms"`
	DBOpenAttempts  int    `mapstructure:"db_open_attempts"`

	SecretKey     string `mapstructure:"jwt_secret_key"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
	RequireAuth   bool   `mapstructure:"require_auth"`

	OrderTransitions string `mapstructure:"order_transitions"`

	KafkaBrokers string `mapstructure:"kafka_brokers"`
	KafkaTopic   string `mapstructure:"kafka_topic"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Brokers splits the comma separated KAFKA_BROKERS value.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "4000")
	v.SetDefault("db_driver", "sqlite3")
	v.SetDefault("db_path", "restro.db")
	v.SetDefault("database_url", "")
	v.SetDefault("db_busy_timeout_ms", 5000)
	v.SetDefault("db_open_attempts", 5)
	v.SetDefault("jwt_secret_key", "")
	v.SetDefault("admin_email", "admin@restro.local")
	v.SetDefault("admin_password", "admin123")
	v.SetDefault("require_auth", false)
	v.SetDefault("order_transitions", "permissive")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "order-status")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows; Unmarshal needs
	// every key bound explicitly.
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.SecretKey == "" {
		logrus.Warn("JWT_SECRET_KEY not set, using development secret")
		cfg.SecretKey = devSecret
	}
	return &cfg, nil
}

// SetupLogger configures the global logrus logger.
func (c *Config) SetupLogger() {
	if strings.EqualFold(c.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
