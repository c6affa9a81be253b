package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr            = ":8080"
	DefaultLogLevel        = "info"
	DefaultMaxUploadBytes  = 16 << 20
	DefaultUploadDir       = "uploads"
	DefaultCleanupInterval = time.Hour
	DefaultCleanupMaxAge   = 24 * time.Hour
)

// Config is the service configuration read from conf.yaml.
type Config struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`
	GinMode  string `yaml:"gin_mode"`

	ModelPath        string `yaml:"model_path"`
	ClassMappingPath string `yaml:"class_mapping_path"`
	ModelConfigPath  string `yaml:"model_config_path"`
	OnnxRuntimeLib   string `yaml:"onnxruntime_lib"`

	UploadDir       string        `yaml:"upload_dir"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	CleanupMaxAge   time.Duration `yaml:"cleanup_max_age"`

	EnableMetrics bool `yaml:"enable_metrics"`
}

// Load reads the YAML file at path. A missing file is not an error: the
// defaults are returned instead. PORT in the environment overrides the
// listen address.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Resolve makes the relative artifact and upload paths absolute against root.
func (c *Config) Resolve(root string) {
	for _, p := range []*string{&c.ModelPath, &c.ClassMappingPath, &c.ModelConfigPath, &c.UploadDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ModelPath == "" {
		c.ModelPath = filepath.Join("models", "garbage_classification_cnn.onnx")
	}
	if c.ClassMappingPath == "" {
		c.ClassMappingPath = filepath.Join("models", "class_mapping.json")
	}
	if c.ModelConfigPath == "" {
		c.ModelConfigPath = filepath.Join("models", "model_config.json")
	}
	if c.UploadDir == "" {
		c.UploadDir = DefaultUploadDir
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	if c.CleanupMaxAge <= 0 {
		c.CleanupMaxAge = DefaultCleanupMaxAge
	}
}
