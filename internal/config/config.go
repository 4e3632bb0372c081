package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds every parameter of the application. Values come from defaults, then the YAML file,
// then environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq" envPrefix:"RABBITMQ_"`
	HTTP     HTTPConfig     `yaml:"http" envPrefix:"HTTP_"`
	Notify   NotifyConfig   `yaml:"notify" envPrefix:"NOTIFY_"`
	Order    OrderConfig    `yaml:"order" envPrefix:"ORDER_"`
	Dispatch DispatchConfig `yaml:"dispatch" envPrefix:"DISPATCH_"`
	// Tables seeds the in-memory backend.
	Tables []TableConfig `yaml:"tables"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Database string `yaml:"database" env:"NAME"`
	MaxConns int32  `yaml:"max_conns" env:"MAX_CONNS"`
	Migrate  bool   `yaml:"migrate" env:"MIGRATE"`
}

// DSN renders the connection string understood by pgxpool.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

type RabbitMQConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	VHost    string `yaml:"vhost" env:"VHOST"`
	UseTLS   bool   `yaml:"tls" env:"TLS"`
}

type HTTPConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

type NotifyConfig struct {
	// Port serves the websocket endpoints of the notification subscriber.
	Port     int `yaml:"port" env:"PORT"`
	Prefetch int `yaml:"prefetch" env:"PREFETCH"`
}

type OrderConfig struct {
	Currency string `yaml:"currency" env:"CURRENCY"`
}

type DispatchConfig struct {
	// Strict makes the first failing event handler abort dispatch.
	Strict bool `yaml:"strict" env:"STRICT"`
}

type TableConfig struct {
	ID   int64  `yaml:"id"`
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "restaurant_user", Password: "restaurant_pass",
			Database: "restaurant_db", MaxConns: 10, Migrate: true},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest", VHost: "/"},
		HTTP:     HTTPConfig{Port: 3000},
		Notify:   NotifyConfig{Port: 3002, Prefetch: 10},
		Order:    OrderConfig{Currency: "VND"},
	}
	for i := int64(1); i <= 5; i++ {
		cfg.Tables = append(cfg.Tables, TableConfig{ID: i, Code: fmt.Sprintf("T%02d", i), Name: fmt.Sprintf("Table %d", i)})
	}
	return cfg
}

// LoadConfig reads path (optional) over the defaults and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Order.Currency = strings.ToUpper(strings.TrimSpace(cfg.Order.Currency))
	return cfg, nil
}

// Validate checks the sections a mode depends on.
func (c *Config) Validate(storage string, needsBroker bool) error {
	var errs []error
	if storage == "postgres" {
		if c.Database.Host == "" || c.Database.Database == "" {
			errs = append(errs, errors.New("database.host and database.database are required"))
		}
		if c.Database.Port <= 0 {
			errs = append(errs, errors.New("database.port must be positive"))
		}
	}
	if needsBroker && (c.RabbitMQ.Host == "" || c.RabbitMQ.Port <= 0) {
		errs = append(errs, errors.New("rabbitmq.host and rabbitmq.port are required"))
	}
	if len(c.Order.Currency) != 3 {
		errs = append(errs, fmt.Errorf("order.currency %q must be a 3-letter code", c.Order.Currency))
	}
	return errors.Join(errs...)
}

// FindConfig returns the first config file present in the working directory.
func FindConfig() (string, error) {
	for _, p := range []string{"config.yaml", "deploy/config.example.yaml"} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
