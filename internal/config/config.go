// Package config loads phylotree settings from a YAML file and PHYLOTREE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"phylotree/internal/blob"
	"phylotree/internal/presets"
)

// Config is the merged application configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Server  ServerConfig  `yaml:"server"`
	Render  RenderConfig  `yaml:"render"`
	Presets PresetsConfig `yaml:"presets"`
	Blob    BlobConfig    `yaml:"blob"`
	Log     LogConfig     `yaml:"log"`
	Exports ExportsConfig `yaml:"exports"`
}

// DataConfig locates the classification table.
type DataConfig struct {
	Path  string `yaml:"path" validate:"required"`
	Sheet string `yaml:"sheet"`
	Watch bool   `yaml:"watch"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// RenderConfig picks the diagram engine. DotPath overrides the graphviz
// binary lookup.
type RenderConfig struct {
	Engine  string `yaml:"engine" validate:"oneof=auto graphviz native"`
	DotPath string `yaml:"dot_path"`
}

type PresetsConfig struct {
	Driver      string `yaml:"driver" validate:"oneof=blob sqlite postgres"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=Driver sqlite"`
	PostgresDSN string `yaml:"postgres_dsn" validate:"required_if=Driver postgres"`
}

type BlobConfig struct {
	Driver string   `yaml:"driver" validate:"oneof=fs s3 memory"`
	FSRoot string   `yaml:"fs_root"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint" validate:"omitempty,url"`
	PathStyle bool   `yaml:"path_style"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

type ExportsConfig struct {
	QueueSize int `yaml:"queue_size" validate:"min=1,max=10000"`
}

// Default returns the settings used when neither file nor environment
// override them.
func Default() Config {
	return Config{
		Data:    DataConfig{Path: "sharks.xlsx"},
		Server:  ServerConfig{Addr: "localhost:8080"},
		Render:  RenderConfig{Engine: "auto"},
		Presets: PresetsConfig{Driver: "blob", SQLitePath: "phylotree.db"},
		Blob:    BlobConfig{Driver: "fs", FSRoot: "./blobdata"},
		Log:     LogConfig{Level: "info", Format: "json"},
		Exports: ExportsConfig{QueueSize: 16},
	}
}

// Load merges defaults, the YAML file at path (skipped when path is empty or
// the file does not exist) and environment overrides, then validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("PHYLOTREE_DATA_PATH", &cfg.Data.Path)
	str("PHYLOTREE_DATA_SHEET", &cfg.Data.Sheet)
	if err := boolean("PHYLOTREE_DATA_WATCH", &cfg.Data.Watch); err != nil {
		return err
	}
	str("PHYLOTREE_ADDR", &cfg.Server.Addr)
	str("PHYLOTREE_RENDER_ENGINE", &cfg.Render.Engine)
	str("PHYLOTREE_RENDER_DOT_PATH", &cfg.Render.DotPath)
	str("PHYLOTREE_PRESETS_DRIVER", &cfg.Presets.Driver)
	str("PHYLOTREE_PRESETS_SQLITE_PATH", &cfg.Presets.SQLitePath)
	str("PHYLOTREE_PRESETS_POSTGRES_DSN", &cfg.Presets.PostgresDSN)
	str("PHYLOTREE_BLOB_DRIVER", &cfg.Blob.Driver)
	str("PHYLOTREE_BLOB_FS_ROOT", &cfg.Blob.FSRoot)
	str("PHYLOTREE_BLOB_S3_BUCKET", &cfg.Blob.S3.Bucket)
	str("PHYLOTREE_BLOB_S3_REGION", &cfg.Blob.S3.Region)
	str("PHYLOTREE_BLOB_S3_ENDPOINT", &cfg.Blob.S3.Endpoint)
	if err := boolean("PHYLOTREE_BLOB_S3_PATH_STYLE", &cfg.Blob.S3.PathStyle); err != nil {
		return err
	}
	str("PHYLOTREE_LOG_LEVEL", &cfg.Log.Level)
	str("PHYLOTREE_LOG_FORMAT", &cfg.Log.Format)
	if v, ok := lookup("PHYLOTREE_EXPORTS_QUEUE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PHYLOTREE_EXPORTS_QUEUE_SIZE: %w", err)
		}
		cfg.Exports.QueueSize = n
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	return nil
}

var validate = validator.New()

// Validate checks field constraints and cross-section requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Blob.Driver == string(blob.DriverS3) && c.Blob.S3.Bucket == "" {
		return errors.New("blob.s3.bucket is required for the s3 driver")
	}
	return nil
}

// BlobStore returns the blob factory settings.
func (c Config) BlobStore() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.Blob.Driver),
		FSRoot: c.Blob.FSRoot,
		S3: blob.S3Config{
			Bucket:    c.Blob.S3.Bucket,
			Region:    c.Blob.S3.Region,
			Endpoint:  c.Blob.S3.Endpoint,
			PathStyle: c.Blob.S3.PathStyle,
		},
	}
}

// PresetStore returns the preset backend settings.
func (c Config) PresetStore() presets.Config {
	return presets.Config{
		Driver:      presets.Driver(c.Presets.Driver),
		SQLitePath:  c.Presets.SQLitePath,
		PostgresDSN: c.Presets.PostgresDSN,
	}
}
