package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	viper "github.com/spf13/viper"
)

/*
把init config跟read config分開
init : 需要設置viper watch 與 onConfigChange
read : 一般讀取  需要使用讀寫鎖
*/
const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

var configSingleton *ConfigSingleTon
var muonce sync.Once

type ConfigSingleTon struct {
	Config *Config
	mu     sync.RWMutex
}

type Config struct {
	Env        string `mapstructure:"ENV"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogPretty  bool   `mapstructure:"LOG_PRETTY"`

	DbDriver   string `mapstructure:"DB_DRIVER"`
	DbName     string `mapstructure:"POSTGRES_DB"`
	DbHost     string `mapstructure:"POSTGRES_HOST"`
	DbPort     string `mapstructure:"POSTGRES_PORT"`
	DbUser     string `mapstructure:"POSTGRES_USER"`
	DbPas      string `mapstructure:"POSTGRES_PASSWORD"`
	SqlitePath string `mapstructure:"SQLITE_PATH"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	KafkaBrokers           []string `mapstructure:"KAFKA_BROKERS"`
	KafkaNotifyTopic       string   `mapstructure:"KAFKA_NOTIFY_TOPIC"`
	KafkaNotifyPartitions  int      `mapstructure:"KAFKA_NOTIFY_PARTITIONS"`
	KafkaReplicationFactor int      `mapstructure:"KAFKA_REPLICATION_FACTOR"`

	PaymentBaseURL     string        `mapstructure:"PAYMENT_BASE_URL"`
	PaymentSecretKey   string        `mapstructure:"PAYMENT_SECRET_KEY"`
	PaymentCallbackURL string        `mapstructure:"PAYMENT_CALLBACK_URL"`
	PaymentTimeout     time.Duration `mapstructure:"PAYMENT_TIMEOUT"`

	AdminEmail        string        `mapstructure:"ADMIN_EMAIL"`
	GuestCartTTL      time.Duration `mapstructure:"GUEST_CART_TTL"`
	CartSweepInterval time.Duration `mapstructure:"CART_SWEEP_INTERVAL"`
	NotifyConcurrency int           `mapstructure:"NOTIFY_CONCURRENCY"`

	TaxRate            string `mapstructure:"TAX_RATE"`
	DefaultStandardFee string `mapstructure:"DEFAULT_STANDARD_FEE"`
	DefaultExpressFee  string `mapstructure:"DEFAULT_EXPRESS_FEE"`
	DefaultPickupFee   string `mapstructure:"DEFAULT_PICKUP_FEE"`

	RateLimitCapacity  int `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitPerSecond int `mapstructure:"RATE_LIMIT_PER_SECOND"`
}

var defaults = map[string]any{
	"ENV":                      string(constants.Dev),
	"SERVER_PORT":              "8080",
	"LOG_LEVEL":                "info",
	"LOG_PRETTY":               false,
	"DB_DRIVER":                "postgres",
	"POSTGRES_DB":              "marketplace",
	"POSTGRES_HOST":            "localhost",
	"POSTGRES_PORT":            "5432",
	"POSTGRES_USER":            "",
	"POSTGRES_PASSWORD":        "",
	"SQLITE_PATH":              "marketplace.db",
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"KAFKA_BROKERS":            []string{},
	"KAFKA_NOTIFY_TOPIC":       "marketplace.notifications",
	"KAFKA_NOTIFY_PARTITIONS":  3,
	"KAFKA_REPLICATION_FACTOR": 1,
	"PAYMENT_BASE_URL":         "https://api.paystack.co",
	"PAYMENT_SECRET_KEY":       "",
	"PAYMENT_CALLBACK_URL":     "",
	"PAYMENT_TIMEOUT":          15 * time.Second,
	"ADMIN_EMAIL":              "",
	"GUEST_CART_TTL":           constants.DefaultGuestCartTTL,
	"CART_SWEEP_INTERVAL":      constants.DefaultCartSweepInterval,
	"NOTIFY_CONCURRENCY":       constants.DefaultNotifyConcurrency,
	"TAX_RATE":                 "0",
	"DEFAULT_STANDARD_FEE":     "0",
	"DEFAULT_EXPRESS_FEE":      "0",
	"DEFAULT_PICKUP_FEE":       "0",
	"RATE_LIMIT_CAPACITY":      20,
	"RATE_LIMIT_PER_SECOND":    5,
}

func GetConfig(path string) *Config {
	initConfig(path)
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.Config
}

func initConfig(path string) {
	muonce.Do(func() {
		configSingleton = &ConfigSingleTon{}
		v := viper.GetViper()
		cf, err := readConfig(v, path)
		if err != nil {
			log.Fatalf("error read config: %v", err)
		}
		configSingleton.Config = cf

		if path == "" {
			return
		}
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			cf, err := readConfig(v, path)
			if err != nil {
				// 保留舊設定，不讓錯誤的設定檔把服務打掛
				log.Printf("failed to reload config file %s: %v", e.Name, err)
				return
			}
			configSingleton.mu.Lock()
			configSingleton.Config = cf
			configSingleton.mu.Unlock()
		})
	})
}

// LoadConfig 不經過singleton，單純回傳錯誤，由外部決定要不要Fatal
func LoadConfig(path string) (*Config, error) {
	return readConfig(viper.New(), path)
}

func readConfig(v *viper.Viper, path string) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cf.KafkaBrokers = normalizeList(cf.KafkaBrokers)

	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}

// env 來源的清單可能是 "a,b" 單一字串
func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch c.DbDriver {
	case DriverPostgres, DriverSqlite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DbDriver)
	}
	for key, raw := range map[string]string{
		"TAX_RATE":             c.TaxRate,
		"DEFAULT_STANDARD_FEE": c.DefaultStandardFee,
		"DEFAULT_EXPRESS_FEE":  c.DefaultExpressFee,
		"DEFAULT_PICKUP_FEE":   c.DefaultPickupFee,
	} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%s must be a decimal: %w", key, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	if c.GuestCartTTL <= 0 {
		return fmt.Errorf("GUEST_CART_TTL must be positive")
	}
	return nil
}

// 以下皆已在Validate檢查過格式
func (c *Config) TaxRateDecimal() decimal.Decimal {
	return decimal.RequireFromString(c.TaxRate)
}

func (c *Config) DefaultFees() (standard, express, pickup decimal.Decimal) {
	return decimal.RequireFromString(c.DefaultStandardFee),
		decimal.RequireFromString(c.DefaultExpressFee),
		decimal.RequireFromString(c.DefaultPickupFee)
}

func (c *Config) IsProduction() bool {
	return constants.ENV(c.Env) == constants.Prod
}
