package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	if c.Download.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("download.timeout: must be positive, got %s", c.Download.Timeout))
	}
	if c.Download.ChunkSize < 0 {
		errs = append(errs, fmt.Sprintf("download.chunk_size: must be positive, got %d", c.Download.ChunkSize))
	}
	if ext := c.Download.DefaultExt; ext != "" && (!strings.HasPrefix(ext, ".") || len(ext) < 2 || hasSeparator(ext[1:]) || strings.Contains(ext[1:], ".")) {
		errs = append(errs, fmt.Sprintf("download.default_ext: must look like \".jpg\", got %q", ext))
	}

	if hasSeparator(c.Sequence.BackupPrefix) {
		errs = append(errs, fmt.Sprintf("sequence.backup_prefix: must not contain a path separator, got %q", c.Sequence.BackupPrefix))
	}

	if name := c.Merge.CollectionName; name != "" {
		if hasSeparator(name) || name == "." || name == ".." {
			errs = append(errs, fmt.Sprintf("merge.collection_name: must be a plain folder name, got %q", name))
		} else if strings.HasPrefix(name, ".") {
			errs = append(errs, fmt.Sprintf("merge.collection_name: must not be hidden, got %q", name))
		}
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path: required when history is enabled")
	}

	return errs
}

func hasSeparator(s string) bool {
	return strings.ContainsAny(s, `/\`)
}
