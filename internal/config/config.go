// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Download DownloadConfig `toml:"download"`
	Sequence SequenceConfig `toml:"sequence"`
	Merge    MergeConfig    `toml:"merge"`
	Memory   MemoryConfig   `toml:"memory"`
	History  HistoryConfig  `toml:"history"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type DownloadConfig struct {
	Timeout    time.Duration `toml:"timeout"`
	UserAgent  string        `toml:"user_agent"`
	ChunkSize  int           `toml:"chunk_size"`
	DefaultExt string        `toml:"default_ext"`
}

type SequenceConfig struct {
	BackupPrefix string `toml:"backup_prefix"`
}

type MergeConfig struct {
	CollectionName string `toml:"collection_name"`
}

// MemoryConfig locates the remembered-directories file.
type MemoryConfig struct {
	Path string `toml:"path"`
}

// HistoryConfig controls the SQLite run history.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Defaults used when a value is omitted.
const (
	DefaultLogLevel       = "info"
	DefaultTimeout        = 10 * time.Second
	DefaultUserAgent      = "imgkit/dev"
	DefaultChunkSize      = 8192
	DefaultExt            = ".jpg"
	DefaultBackupPrefix   = "image_backup_"
	DefaultCollectionName = "合集"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: DefaultLogLevel},
		Download: DownloadConfig{
			Timeout:    DefaultTimeout,
			UserAgent:  DefaultUserAgent,
			ChunkSize:  DefaultChunkSize,
			DefaultExt: DefaultExt,
		},
		Sequence: SequenceConfig{BackupPrefix: DefaultBackupPrefix},
		Merge:    MergeConfig{CollectionName: DefaultCollectionName},
		Memory:   MemoryConfig{Path: filepath.Join(configHome(), "imgkit", "saved_dirs.txt")},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(dataHome(), "imgkit", "history.db"),
		},
	}
}

// Load reads and parses the configuration file. Values the file omits keep
// their defaults. Unresolved ${VAR} references are reported as an *Error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &Error{Path: path, Missing: missing}
	}

	cfg := Default()
	if _, err := toml.Decode(content, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills values explicitly set to empty and expands "~".
func (c *Config) applyDefaults() {
	def := Default()
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Download.Timeout == 0 {
		c.Download.Timeout = def.Download.Timeout
	}
	if c.Download.UserAgent == "" {
		c.Download.UserAgent = def.Download.UserAgent
	}
	if c.Download.ChunkSize == 0 {
		c.Download.ChunkSize = def.Download.ChunkSize
	}
	if c.Download.DefaultExt == "" {
		c.Download.DefaultExt = def.Download.DefaultExt
	}
	if c.Sequence.BackupPrefix == "" {
		c.Sequence.BackupPrefix = def.Sequence.BackupPrefix
	}
	if c.Merge.CollectionName == "" {
		c.Merge.CollectionName = def.Merge.CollectionName
	}
	if c.Memory.Path == "" {
		c.Memory.Path = def.Memory.Path
	}
	if c.History.Path == "" {
		c.History.Path = def.History.Path
	}
	c.Memory.Path = expandHome(c.Memory.Path)
	c.History.Path = expandHome(c.History.Path)
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// ${VAR:-default} falls back to default when VAR is unset or empty.
// Unresolved references are left in place and returned as missing.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	seen := make(map[string]bool)

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, hasDefault, def := parts[1], parts[2] != "", parts[3]

		value, ok := os.LookupEnv(name)
		if ok && (value != "" || !hasDefault) {
			return value
		}
		if hasDefault {
			return def
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return match
	})
	return result, missing
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}
