// config реализует конфигурацию shop-service: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	HTTP     HTTPConfig     `yaml:"http"`
	DB       DBConfig       `yaml:"db"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Comments CommentsConfig `yaml:"comments"`
	Cache    CacheConfig    `yaml:"cache"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

// TimeoutConfig — сервисные таймауты (общий дедлайн обработки запроса).
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// GRPCConfig — сетевые настройки gRPC-сервера (health/reflection).
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50056"`
}

// HTTPConfig — публичный HTTP API + /metrics, /livez, /healthz.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8086"`
}

// Addr возвращает адрес в формате host:port.
func (g GRPCConfig) Addr() string {
	return net.JoinHostPort(g.Host, g.Port)
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// DBConfig — настройки подключения к MongoDB. Имя базы берётся из пути URI.
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
}

// AuthConfig — параметры валидации access-токенов, выпущенных auth-сервисом.
type AuthConfig struct {
	JWTSecret string   `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Issuer    string   `yaml:"issuer"     env:"ISSUER"     env-default:"auth-service"`
	Audience  []string `yaml:"audience"   env:"AUDIENCE"   env-default:"api-gateway"`
}

// PaymentConfig — платёжный шлюз: ключи API и параметры клиента.
type PaymentConfig struct {
	KeyID     string `yaml:"key_id"     env:"PAYMENT_KEY_ID"`
	KeySecret string `yaml:"key_secret" env:"PAYMENT_KEY_SECRET" env-required:"true"`
	BaseURL   string `yaml:"base_url"   env:"PAYMENT_BASE_URL"   env-default:"https://api.razorpay.com"`
	// Валюта платёжных намерений (ISO 4217).
	Currency string        `yaml:"currency" env:"PAYMENT_CURRENCY" env-default:"INR"`
	Timeout  time.Duration `yaml:"timeout"  env:"PAYMENT_TIMEOUT"  env-default:"10s"`
}

// CheckoutConfig — политика оформления заказа.
type CheckoutConfig struct {
	// RecomputeTotals=true: суммы заказа считаются на сервере по живой корзине,
	// а не берутся из тела колбэка.
	RecomputeTotals bool `yaml:"recompute_totals" env:"CHECKOUT_RECOMPUTE_TOTALS" env-default:"false"`
}

// CacheConfig — кэш карточек товаров в Redis. Пустой RedisURL отключает кэш.
type CacheConfig struct {
	RedisURL   string        `yaml:"redis_url"   env:"REDIS_URL"`
	Prefix     string        `yaml:"prefix"      env:"CACHE_PREFIX"      env-default:"shop:product:"`
	ProductTTL time.Duration `yaml:"product_ttl" env:"CACHE_PRODUCT_TTL" env-default:"1m"`
}

// CommentsConfig — ограничения на комментарии.
type CommentsConfig struct {
	MaxLength int `yaml:"max_length" env:"COMMENT_MAX_LENGTH" env-default:"200"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	readFile := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", p, err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	var (
		c   *Config
		err error
	)

	switch {
	case path != "":
		c, err = readFile(path)
	case os.Getenv("CONFIG_PATH") != "":
		c, err = readFile(os.Getenv("CONFIG_PATH"))
	default:
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			c, err = readFile("local.yaml")
			break
		}

		// Только ENV.
		if envErr := cleanenv.ReadEnv(&cfg); envErr != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", envErr)
		}
		c = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("db.url is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Payment.KeySecret == "" {
		return fmt.Errorf("payment.key_secret is required")
	}

	if c.Payment.Currency == "" {
		return fmt.Errorf("payment.currency is required")
	}

	if c.Comments.MaxLength <= 0 {
		return fmt.Errorf("comments.max_length must be > 0")
	}

	if c.Comments.MaxLength > 2000 {
		return fmt.Errorf("comments.max_length is too large (<= 2000)")
	}

	if c.Cache.RedisURL != "" && c.Cache.ProductTTL <= 0 {
		return fmt.Errorf("cache.product_ttl must be > 0")
	}

	if c.Timeouts.Service <= 0 {
		return fmt.Errorf("timeouts.service must be > 0")
	}

	switch c.Env {
	case "local", "dev", "prod":
	default:
		return fmt.Errorf("env must be one of local|dev|prod, got %q", c.Env)
	}

	return nil
}
