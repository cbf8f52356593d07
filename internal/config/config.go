package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// StatusConfig drives the statusctl probe loop.
type StatusConfig struct {
	TargetURL  string
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration
}

// DeployConfig drives the deployctl pipeline.
type DeployConfig struct {
	WorkDir       string
	Environment   string
	Remote        string
	Branch        string
	RequiredFiles []string
	ManifestFiles []string
	TargetURL     string
	PollAttempts  int
	PollDelay     time.Duration
}

// ServerConfig drives the platformd HTTP daemon.
type ServerConfig struct {
	Addr         string
	ServiceName  string
	Version      string
	Environment  string
	DatabasePath string
	CorsOrigins  []string
}

func DefaultStatusConfig() StatusConfig {
	return StatusConfig{
		TargetURL:  ResolveTargetURL(""),
		Timeout:    30 * time.Second,
		Attempts:   3,
		RetryDelay: 5 * time.Second,
	}
}

func DefaultDeployConfig() DeployConfig {
	return DeployConfig{
		WorkDir:       ".",
		Environment:   "staging",
		Remote:        "origin",
		Branch:        "main",
		RequiredFiles: []string{"app.py", "requirements.txt", "Procfile"},
		ManifestFiles: []string{"app.py", "requirements.txt", "Procfile"},
		TargetURL:     ResolveTargetURL(""),
		PollAttempts:  3,
		PollDelay:     5 * time.Second,
	}
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ResolveListenAddr("5000"),
		ServiceName:  "MAGSASA-CARD AgriTech Platform",
		Version:      "2.1.0",
		Environment:  "development",
		DatabasePath: ResolveDatabasePath("data/platform.db"),
		CorsOrigins:  []string{"*"},
	}
}

type statusFile struct {
	TargetURL         string `toml:"target_url"`
	Timeout           string `toml:"timeout"`
	TimeoutSeconds    int64  `toml:"timeout_seconds"`
	Attempts          int    `toml:"attempts"`
	RetryDelay        string `toml:"retry_delay"`
	RetryDelaySeconds int64  `toml:"retry_delay_seconds"`
}

type deployFile struct {
	WorkDir          string   `toml:"work_dir"`
	Environment      string   `toml:"environment"`
	Remote           string   `toml:"remote"`
	Branch           string   `toml:"branch"`
	RequiredFiles    []string `toml:"required_files"`
	ManifestFiles    []string `toml:"manifest_files"`
	TargetURL        string   `toml:"target_url"`
	PollAttempts     int      `toml:"poll_attempts"`
	PollDelay        string   `toml:"poll_delay"`
	PollDelaySeconds int64    `toml:"poll_delay_seconds"`
}

type serverFile struct {
	Addr         string   `toml:"addr"`
	ServiceName  string   `toml:"service_name"`
	Version      string   `toml:"version"`
	Environment  string   `toml:"environment"`
	DatabasePath string   `toml:"database_path"`
	CorsOrigins  []string `toml:"cors_origins"`
}

// LoadStatusConfig layers a TOML file over defaults. Only keys present in
// the file override the defaults.
func LoadStatusConfig(path string) (StatusConfig, error) {
	cfg := DefaultStatusConfig()

	var raw statusFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return StatusConfig{}, fmt.Errorf("load status config: %w", err)
	}

	if meta.IsDefined("target_url") {
		if v := strings.TrimSpace(raw.TargetURL); v != "" {
			cfg.TargetURL = v
		}
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return StatusConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if meta.IsDefined("timeout_seconds") {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	if meta.IsDefined("attempts") {
		cfg.Attempts = raw.Attempts
	}
	if meta.IsDefined("retry_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RetryDelay))
		if err != nil {
			return StatusConfig{}, fmt.Errorf("parse retry_delay: %w", err)
		}
		cfg.RetryDelay = d
	}
	if meta.IsDefined("retry_delay_seconds") {
		cfg.RetryDelay = time.Duration(raw.RetryDelaySeconds) * time.Second
	}

	if err := ValidateStatusConfig(cfg); err != nil {
		return StatusConfig{}, err
	}
	return cfg, nil
}

// LoadDeployConfig layers a TOML file over defaults.
func LoadDeployConfig(path string) (DeployConfig, error) {
	cfg := DefaultDeployConfig()

	var raw deployFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return DeployConfig{}, fmt.Errorf("load deploy config: %w", err)
	}

	if meta.IsDefined("work_dir") {
		if v := strings.TrimSpace(raw.WorkDir); v != "" {
			cfg.WorkDir = v
		}
	}
	if meta.IsDefined("environment") {
		if v := strings.TrimSpace(raw.Environment); v != "" {
			cfg.Environment = v
		}
	}
	if meta.IsDefined("remote") {
		if v := strings.TrimSpace(raw.Remote); v != "" {
			cfg.Remote = v
		}
	}
	if meta.IsDefined("branch") {
		if v := strings.TrimSpace(raw.Branch); v != "" {
			cfg.Branch = v
		}
	}
	if meta.IsDefined("required_files") {
		cfg.RequiredFiles = normalizeList(raw.RequiredFiles)
	}
	if meta.IsDefined("manifest_files") {
		cfg.ManifestFiles = normalizeList(raw.ManifestFiles)
	}
	if meta.IsDefined("target_url") {
		if v := strings.TrimSpace(raw.TargetURL); v != "" {
			cfg.TargetURL = v
		}
	}
	if meta.IsDefined("poll_attempts") {
		cfg.PollAttempts = raw.PollAttempts
	}
	if meta.IsDefined("poll_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollDelay))
		if err != nil {
			return DeployConfig{}, fmt.Errorf("parse poll_delay: %w", err)
		}
		cfg.PollDelay = d
	}
	if meta.IsDefined("poll_delay_seconds") {
		cfg.PollDelay = time.Duration(raw.PollDelaySeconds) * time.Second
	}

	if err := ValidateDeployConfig(cfg); err != nil {
		return DeployConfig{}, err
	}
	return cfg, nil
}

// LoadServerConfig layers a TOML file over defaults.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	var raw serverFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("load server config: %w", err)
	}

	if meta.IsDefined("addr") {
		if v := strings.TrimSpace(raw.Addr); v != "" {
			cfg.Addr = v
		}
	}
	if meta.IsDefined("service_name") {
		if v := strings.TrimSpace(raw.ServiceName); v != "" {
			cfg.ServiceName = v
		}
	}
	if meta.IsDefined("version") {
		if v := strings.TrimSpace(raw.Version); v != "" {
			cfg.Version = v
		}
	}
	if meta.IsDefined("environment") {
		if v := strings.TrimSpace(raw.Environment); v != "" {
			cfg.Environment = v
		}
	}
	if meta.IsDefined("database_path") {
		if v := strings.TrimSpace(raw.DatabasePath); v != "" {
			cfg.DatabasePath = v
		}
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}

	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func ValidateStatusConfig(cfg StatusConfig) error {
	if strings.TrimSpace(cfg.TargetURL) == "" {
		return fmt.Errorf("status config missing target_url")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("status config timeout must be positive")
	}
	if cfg.Attempts < 1 {
		return fmt.Errorf("status config attempts must be at least 1")
	}
	if cfg.RetryDelay < 0 {
		return fmt.Errorf("status config retry_delay must not be negative")
	}
	return nil
}

func ValidateDeployConfig(cfg DeployConfig) error {
	if strings.TrimSpace(cfg.WorkDir) == "" {
		return fmt.Errorf("deploy config missing work_dir")
	}
	if strings.TrimSpace(cfg.Remote) == "" {
		return fmt.Errorf("deploy config missing remote")
	}
	if strings.TrimSpace(cfg.Branch) == "" {
		return fmt.Errorf("deploy config missing branch")
	}
	if cfg.PollAttempts < 0 {
		return fmt.Errorf("deploy config poll_attempts must not be negative")
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if strings.TrimSpace(cfg.ServiceName) == "" {
		return fmt.Errorf("server config missing service_name")
	}
	if strings.TrimSpace(cfg.Version) == "" {
		return fmt.Errorf("server config missing version")
	}
	if strings.TrimSpace(cfg.DatabasePath) == "" {
		return fmt.Errorf("server config missing database_path")
	}
	return nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, item := range in {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
