package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Env      string `yaml:"env"` // development, production, test
		LogLevel string `yaml:"log_level"`
	} `yaml:"server"`

	Database struct {
		Driver       string `yaml:"driver"` // postgres, memory
		DSN          string `yaml:"url"`
		MaxTxRetries int    `yaml:"max_tx_retries"`
		AutoMigrate  bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Storage struct {
		Type       string        `yaml:"type"`        // local, s3, cloudflare_r2, memory
		BasePath   string        `yaml:"base_path"`   // local
		BaseURL    string        `yaml:"base_url"`    // public URL base
		Bucket     string        `yaml:"bucket"`      // s3, r2
		Region     string        `yaml:"region"`      // s3
		AccessKey  string        `yaml:"access_key"`  // s3, r2
		SecretKey  string        `yaml:"secret_key"`  // s3, r2
		Endpoint   string        `yaml:"endpoint"`    // r2 or custom s3
		PublicRead bool          `yaml:"public_read"` // s3 ACL
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"`      // bytes
		AllowedTypes []string `yaml:"allowed_types"` // MIME types
		MaxDimension int      `yaml:"max_dimension"` // px, 0 disables downscaling
		ImageQuality int      `yaml:"image_quality"` // JPEG 1-100
	} `yaml:"upload"`

	Cache struct {
		Enabled  bool          `yaml:"enabled"`
		Driver   string        `yaml:"driver"` // redis, memory
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	Worker struct {
		SweepInterval time.Duration `yaml:"sweep_interval"` // 0 disables the asset sweeper
		BatchSize     int           `yaml:"batch_size"`
	} `yaml:"worker"`

	CORS struct {
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"cors"`
}

var AppConfig *Config

// LoadConfig reads .env (if present), then the YAML file at CONFIG_PATH,
// then applies environment overrides and defaults.
//
// When DATABASE_URL is set and no config file exists, the file step is
// skipped entirely (container and test mode).
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: failed to load .env: %v", err)
	}

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if err := loadFile(configPath, &cfg); err != nil {
		if !os.IsNotExist(err) || os.Getenv("DATABASE_URL") == "" && os.Getenv("DATABASE_DRIVER") == "" {
			return nil, err
		}
		log.Printf("config: %s not found, using environment only", configPath)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = &cfg
	return &cfg, nil
}

// MustLoad is LoadConfig for main: any error is fatal.
func MustLoad() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file at %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
		if cfg.Database.Driver == "" {
			cfg.Database.Driver = "postgres"
		}
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Addr = v
		cfg.Cache.Enabled = true
	}
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		cfg.CORS.AllowOrigins = strings.Split(v, ",")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.MaxTxRetries <= 0 {
		cfg.Database.MaxTxRetries = 3
	}
	if cfg.JWT.TTL <= 0 {
		cfg.JWT.TTL = 60
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.Type == "local" {
		if cfg.Storage.BasePath == "" {
			cfg.Storage.BasePath = "./uploads"
		}
		if cfg.Storage.BaseURL == "" {
			cfg.Storage.BaseURL = "/files"
		}
	}
	if cfg.Storage.Timeout <= 0 {
		cfg.Storage.Timeout = 30 * time.Second
	}
	if cfg.Upload.MaxSize <= 0 {
		cfg.Upload.MaxSize = 5 * 1024 * 1024
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png", "image/gif"}
	}
	if cfg.Upload.ImageQuality <= 0 || cfg.Upload.ImageQuality > 100 {
		cfg.Upload.ImageQuality = 85
	}
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "redis"
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Worker.BatchSize <= 0 {
		cfg.Worker.BatchSize = 50
	}
	if len(cfg.CORS.AllowOrigins) == 0 {
		cfg.CORS.AllowOrigins = []string{"*"}
	}
}

// Validate reports configuration that cannot start a server.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Cache.Enabled {
		switch c.Cache.Driver {
		case "redis":
			if c.Cache.Addr == "" {
				return fmt.Errorf("cache.addr is required for the redis cache")
			}
		case "memory":
		default:
			return fmt.Errorf("unsupported cache driver: %s", c.Cache.Driver)
		}
	}
	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.TTL) * time.Minute
}
