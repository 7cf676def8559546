package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/a-luna/vigorish-sub003/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	envPrefix   = "VIG_"
	envFileName = "VIG_CONFIG_FILE"
)

// Config stores runtime configuration for the reconciliation tools.
type Config struct {
	AppEnv                  string        `koanf:"app_env" validate:"oneof=dev stage prod"`
	ServiceName             string        `koanf:"service_name" validate:"required"`
	ServiceVersion          string        `koanf:"service_version"`
	LogLevelName            string        `koanf:"log_level"`
	Interactive             bool          `koanf:"interactive"`
	DataDir                 string        `koanf:"data_dir" validate:"required"`
	PatchDir                string        `koanf:"patch_dir"`
	CombinedDir             string        `koanf:"combined_dir"`
	BackupDir               string        `koanf:"backup_dir"`
	DBURL                   string        `koanf:"db_url"`
	DBDisablePreparedBinary bool          `koanf:"db_disable_prepared_binary"`
	Workers                 int           `koanf:"workers"`
	DuplicateWindow         time.Duration `koanf:"duplicate_window"`
	MetricsTextfile         string        `koanf:"metrics_textfile"`
	UptraceEnabled          bool          `koanf:"uptrace_enabled"`
	UptraceDSN              string        `koanf:"uptrace_dsn"`
	PyroscopeEnabled        bool          `koanf:"pyroscope_enabled"`
	PyroscopeServerAddress  string        `koanf:"pyroscope_server_address"`
	PyroscopeAppName        string        `koanf:"pyroscope_app_name"`
	PyroscopeUploadRate     time.Duration `koanf:"pyroscope_upload_rate"`

	LogLevel logging.Level `koanf:"-"`
}

// Defaults returns the built-in configuration layer.
func Defaults() Config {
	return Config{
		AppEnv:                  EnvDev,
		ServiceName:             "vigorish",
		ServiceVersion:          "dev",
		LogLevelName:            "info",
		DataDir:                 "./data",
		PatchDir:                "./data/patches",
		DBDisablePreparedBinary: true,
		Workers:                 4,
		DuplicateWindow:         2 * time.Second,
		PyroscopeAppName:        "vigorish",
		PyroscopeUploadRate:     15 * time.Second,
	}
}

// Load layers defaults, the YAML file named by VIG_CONFIG_FILE and VIG_*
// environment variables, in that order.
func Load() (Config, error) {
	k := koanf.New(".")

	if path := strings.TrimSpace(os.Getenv(envFileName)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// VIG_DB_URL -> db_url. Keys stay flat.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return finalize(cfg)
}

func finalize(cfg Config) (Config, error) {
	appEnv, err := parseAppEnv(cfg.AppEnv)
	if err != nil {
		return Config{}, err
	}
	cfg.AppEnv = appEnv
	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	cfg.PatchDir = strings.TrimSpace(cfg.PatchDir)
	cfg.DBURL = strings.TrimSpace(cfg.DBURL)
	cfg.UptraceDSN = strings.TrimSpace(cfg.UptraceDSN)
	if cfg.CombinedDir = strings.TrimSpace(cfg.CombinedDir); cfg.CombinedDir == "" {
		cfg.CombinedDir = cfg.DataDir
	}
	cfg.LogLevel = logging.ParseLevel(cfg.LogLevelName)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Workers <= 0 {
		return Config{}, fmt.Errorf("workers must be > 0")
	}
	if cfg.DuplicateWindow <= 0 {
		return Config{}, fmt.Errorf("duplicate_window must be > 0")
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("uptrace_dsn is required when uptrace_enabled=true")
	}
	if cfg.PyroscopeEnabled {
		if strings.TrimSpace(cfg.PyroscopeServerAddress) == "" {
			return Config{}, fmt.Errorf("pyroscope_server_address is required when pyroscope_enabled=true")
		}
		if cfg.PyroscopeUploadRate <= 0 {
			return Config{}, fmt.Errorf("pyroscope_upload_rate must be > 0")
		}
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid app_env %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
