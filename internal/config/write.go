package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed default_config.toml
var defaultConfig string

// WriteDefault writes the example config to the specified path.
// Creates parent directories if needed and refuses to overwrite.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(defaultConfig); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Encode serializes the config to TOML.
func (c *Config) Encode() (string, error) {
	// Durations are written as strings so the output loads back unchanged.
	out := struct {
		Log      LogConfig `toml:"log"`
		Download struct {
			Timeout    string `toml:"timeout"`
			UserAgent  string `toml:"user_agent"`
			ChunkSize  int    `toml:"chunk_size"`
			DefaultExt string `toml:"default_ext"`
		} `toml:"download"`
		Sequence SequenceConfig `toml:"sequence"`
		Merge    MergeConfig    `toml:"merge"`
		Memory   MemoryConfig   `toml:"memory"`
		History  HistoryConfig  `toml:"history"`
	}{
		Log:      c.Log,
		Sequence: c.Sequence,
		Merge:    c.Merge,
		Memory:   c.Memory,
		History:  c.History,
	}
	out.Download.Timeout = c.Download.Timeout.String()
	out.Download.UserAgent = c.Download.UserAgent
	out.Download.ChunkSize = c.Download.ChunkSize
	out.Download.DefaultExt = c.Download.DefaultExt

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return buf.String(), nil
}
