// Package config resolves runtime configuration for gpos.
//
// Sources are layered, later ones winning:
//
//	defaults
//	YAML file (--config)
//	.env file in the working directory
//	process environment (GPOS_*)
//	command-line flags (applied by the CLI after Load)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultDataDir          = "pos_data"
	DefaultBackupSubdir     = "backups"
	DefaultBackupRetention  = 10
	DefaultAutosaveInterval = 5 * time.Second
	DefaultListenAddr       = "127.0.0.1:8080"
	DefaultEnvFile          = ".env"
)

// Environment variable names.
const (
	EnvDataDir          = "GPOS_DATA_DIR"
	EnvBackupDir        = "GPOS_BACKUP_DIR"
	EnvBackupRetention  = "GPOS_BACKUP_RETENTION"
	EnvAutosaveInterval = "GPOS_AUTOSAVE_INTERVAL"
	EnvListenAddr       = "GPOS_LISTEN_ADDR"
)

// Config holds gpos runtime configuration.
type Config struct {
	DataDir          string        `yaml:"data_dir" json:"data_dir"`
	BackupDir        string        `yaml:"backup_dir" json:"backup_dir"`
	BackupRetention  int           `yaml:"backup_retention" json:"backup_retention"`
	AutosaveInterval time.Duration `yaml:"autosave_interval" json:"autosave_interval"`
	ListenAddr       string        `yaml:"listen_addr" json:"listen_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:          DefaultDataDir,
		BackupRetention:  DefaultBackupRetention,
		AutosaveInterval: DefaultAutosaveInterval,
		ListenAddr:       DefaultListenAddr,
	}
}

// BackupRoot is the backup directory, defaulting to backups/ under the data
// directory.
func (c Config) BackupRoot() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(c.DataDir, DefaultBackupSubdir)
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.BackupRetention < 1 {
		return fmt.Errorf("backup_retention must be at least 1, got %d", c.BackupRetention)
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("autosave_interval must be positive, got %s", c.AutosaveInterval)
	}
	return nil
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an optional YAML file. Empty skips it; a named file
	// that does not exist is an error.
	ConfigFile string

	// EnvFile is a dotenv file. Empty means DefaultEnvFile; a missing file
	// is ignored.
	EnvFile string

	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load resolves configuration from defaults, the YAML file, the dotenv file
// and the environment. Values from the dotenv file never overwrite variables
// already present in the environment, matching godotenv.Load.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.ConfigFile != "" {
		if err := loadYAML(opts.ConfigFile, &cfg); err != nil {
			return cfg, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("read %s: %w", envFile, err)
		}
		dotenv = map[string]string{}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
		v, ok := dotenv[key]
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if err := applyEnv(&cfg, get); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, get func(string) (string, bool)) error {
	if v, ok := get(EnvDataDir); ok {
		cfg.DataDir = v
	}
	if v, ok := get(EnvBackupDir); ok {
		cfg.BackupDir = v
	}
	if v, ok := get(EnvListenAddr); ok {
		cfg.ListenAddr = v
	}
	if v, ok := get(EnvBackupRetention); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvBackupRetention, v)
		}
		cfg.BackupRetention = n
	}
	if v, ok := get(EnvAutosaveInterval); ok {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvAutosaveInterval, v)
		}
		cfg.AutosaveInterval = d
	}
	return nil
}

// parseDuration accepts Go durations and bare integers as seconds.
func parseDuration(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err == nil {
		return d, nil
	}
	secs, convErr := strconv.Atoi(v)
	if convErr != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}
