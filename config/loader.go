// Package config loads the application configuration from defaults, an
// optional YAML file and HY3D_-prefixed environment variables, in that
// order of precedence.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fooni/hy3d/types"
)

// Config is the full application configuration.
type Config struct {
	// Region is the provider region jobs are submitted to.
	Region string `yaml:"region" env:"REGION"`

	Generation GenerationConfig `yaml:"generation" env:"GENERATION"`
	Client     ClientConfig     `yaml:"client" env:"CLIENT"`
	Secrets    SecretsConfig    `yaml:"secrets" env:"SECRETS"`
	Log        LogConfig        `yaml:"log" env:"LOG"`
	Metrics    MetricsConfig    `yaml:"metrics" env:"METRICS"`
}

// GenerationConfig holds the generation defaults the CLI starts from;
// flags override these per invocation.
type GenerationConfig struct {
	// ResultFormat is GLB, OBJ or FBX.
	ResultFormat string `yaml:"result_format" env:"RESULT_FORMAT"`
	// EnablePBR requests physically-based rendering materials.
	EnablePBR bool `yaml:"enable_pbr" env:"ENABLE_PBR"`
	// Base64LimitMB caps the total encoded size of inline images.
	Base64LimitMB int `yaml:"base64_limit_mb" env:"BASE64_LIMIT_MB"`
	// OutputDir is where imported results are written.
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
	// OutputName is the base file name for imported results.
	OutputName string `yaml:"output_name" env:"OUTPUT_NAME"`
}

// ClientConfig holds provider transport settings.
type ClientConfig struct {
	// Endpoint is the provider API host.
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
	// RequestTimeout bounds a single API call.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	// DownloadTimeout bounds a result download.
	DownloadTimeout time.Duration `yaml:"download_timeout" env:"DOWNLOAD_TIMEOUT"`
}

// SecretsConfig holds credential storage settings.
type SecretsConfig struct {
	// Dir is the vault directory; empty means the per-user default.
	Dir string `yaml:"dir" env:"DIR"`
	// StorageMode is NONE, SESSION or DISK.
	StorageMode string `yaml:"storage_mode" env:"STORAGE_MODE"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// EnableCaller annotates entries with the call site.
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	// Enabled registers the collectors; disabled keeps them no-ops.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// Loader loads a Config. Precedence: defaults, then the YAML file, then
// environment variables.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a loader with the HY3D env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "HY3D"}
}

// WithConfigPath sets the YAML file path. A missing file is not an
// error; the defaults simply stand.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load builds the configuration and validates it.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, err
		}
	}
	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return types.NewError(types.ErrInternal, "failed to read config file").WithCause(err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return types.NewError(types.ErrFormat, "failed to parse config file").WithCause(err)
	}
	return nil
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return types.Errorf(types.ErrValidation, "invalid value for %s", envKey).WithCause(err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	}
	return nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	var errs []string

	if _, ok := types.ParseResultFormat(c.Generation.ResultFormat); !ok {
		errs = append(errs, fmt.Sprintf("unknown result format %q", c.Generation.ResultFormat))
	}
	if c.Generation.Base64LimitMB <= 0 {
		errs = append(errs, "base64_limit_mb must be positive")
	}
	switch types.StorageMode(strings.ToUpper(c.Secrets.StorageMode)) {
	case types.StoreNone, types.StoreSession, types.StoreDisk:
	default:
		errs = append(errs, fmt.Sprintf("unknown storage mode %q", c.Secrets.StorageMode))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	if c.Client.RequestTimeout <= 0 {
		errs = append(errs, "request_timeout must be positive")
	}
	if c.Client.DownloadTimeout <= 0 {
		errs = append(errs, "download_timeout must be positive")
	}

	if len(errs) > 0 {
		return types.Errorf(types.ErrValidation, "config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
