package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

type MessagingConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type Config struct {
	Port      string
	LogLevel  string
	APIKey    string
	DB        DatabaseConfig
	Messaging MessagingConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_key", "")
	v.SetDefault("db_driver", DriverPostgres)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "tasks_user")
	v.SetDefault("db_password", "tasks_pass")
	v.SetDefault("db_name", "tasks_db")
	v.SetDefault("sqlite_path", "tasktracker.db")
	v.SetDefault("whapi_url", "https://gate.whapi.cloud")
	v.SetDefault("whapi_token", "")
	v.SetDefault("messaging_timeout", "10s")
}

// Load читает конфигурацию: значения по умолчанию, затем YAML из CONFIG_FILE
// (если задан), затем переменные окружения
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log_level"),
		APIKey:   v.GetString("api_key"),
		DB: DatabaseConfig{
			Driver:     v.GetString("db_driver"),
			Host:       v.GetString("db_host"),
			Port:       v.GetString("db_port"),
			User:       v.GetString("db_user"),
			Password:   v.GetString("db_password"),
			DBName:     v.GetString("db_name"),
			SQLitePath: v.GetString("sqlite_path"),
		},
		Messaging: MessagingConfig{
			URL:     v.GetString("whapi_url"),
			Token:   v.GetString("whapi_token"),
			Timeout: v.GetDuration("messaging_timeout"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.DB.Driver)
	}
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.Messaging.Timeout <= 0 {
		return fmt.Errorf("messaging timeout must be positive, got %s", c.Messaging.Timeout)
	}
	return nil
}

func (db *DatabaseConfig) DSN() string {
	switch db.Driver {
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			db.Host, db.Port, db.User, db.Password, db.DBName)
	case DriverSQLite:
		return db.SQLitePath
	default:
		return ""
	}
}
