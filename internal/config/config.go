package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		RateCapacity   int      `yaml:"rateCapacity"`
		RateRefill     int      `yaml:"rateRefill"`
	} `yaml:"server"`

	// Auth maps a client name to the bearer key it uses against this service.
	Auth struct {
		Keys map[string]string `yaml:"keys"`
	} `yaml:"auth"`

	Backend struct {
		Mode      string `yaml:"mode"` // "rest" or "agent"
		BaseURL   string `yaml:"baseURL"`
		APIKey    string `yaml:"apiKey"`
		TimeoutMS int    `yaml:"timeoutMS"`
		Agents    struct {
			Upload string `yaml:"upload"`
			Fetch  string `yaml:"fetch"`
			Notify string `yaml:"notify"`
		} `yaml:"agents"`
	} `yaml:"backend"`

	Database struct {
		Driver   string `yaml:"driver"` // "mysql", "postgres", empty disables history
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Upload struct {
		MaxFileBytes int64 `yaml:"maxFileBytes"`
	} `yaml:"upload"`
}

// Load reads the YAML config file, merges env overrides and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	mergeWithEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func mergeWithEnv(cfg *Config) {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.Backend.APIKey = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateCapacity == 0 {
		cfg.Server.RateCapacity = 30
	}
	if cfg.Server.RateRefill == 0 {
		cfg.Server.RateRefill = 10
	}
	if cfg.Backend.Mode == "" {
		cfg.Backend.Mode = "rest"
	}
	if cfg.Backend.TimeoutMS == 0 {
		cfg.Backend.TimeoutMS = 60000
	}
	if cfg.Backend.Agents.Upload == "" {
		cfg.Backend.Agents.Upload = "transcript_analyze"
	}
	if cfg.Backend.Agents.Fetch == "" {
		cfg.Backend.Agents.Fetch = "get_analysis"
	}
	if cfg.Backend.Agents.Notify == "" {
		cfg.Backend.Agents.Notify = "heatmap_email"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Upload.MaxFileBytes == 0 {
		cfg.Upload.MaxFileBytes = 16 << 20
	}
}

// MySQLDSN builds the DSN for the mysql driver
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds the DSN for lib/pq
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
