package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmunix/imgkit/internal/app"
	"github.com/vmunix/imgkit/internal/config"
	"github.com/vmunix/imgkit/internal/dirmem"
	"github.com/vmunix/imgkit/internal/download"
	"github.com/vmunix/imgkit/internal/history"
	"github.com/vmunix/imgkit/internal/merge"
	"github.com/vmunix/imgkit/internal/sequence"
)

var version = "dev"

var (
	configPath string
	jsonOutput bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "imgkit",
	Short: "Download, renumber and merge image folders",
	Long: `imgkit - batch image file utility

Downloads every image referenced by a block of HTML, renames the
images in a folder to 1..N by modification time, and merges the
images of several subfolders into one numbered collection.`,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: discovered)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("imgkit {{.Version}}\n")
}

// loadConfig loads --config, or the discovered file, or the defaults when
// no file exists.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		found, err := config.Discover()
		if errors.Is(err, config.ErrNotFound) {
			cfg := config.Default()
			applyFlagOverrides(cfg)
			return cfg, nil
		}
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &config.Error{Path: path, Errors: errs}
	}
	applyFlagOverrides(cfg)
	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config) {
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// session holds what a command needs for one invocation.
type session struct {
	cfg     *config.Config
	app     *app.App
	history *history.Store // nil if disabled or unavailable
	db      *sql.DB
	log     *slog.Logger
}

func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg.Log.Level)

	var dirs dirmem.Store
	fileStore, err := dirmem.Open(cfg.Memory.Path)
	if err != nil {
		log.Warn("directory memory unavailable, using in-memory store", "path", cfg.Memory.Path, "error", err)
		dirs = dirmem.NewMemoryStore()
	} else {
		dirs = fileStore
	}

	s := &session{cfg: cfg, log: log}
	if cfg.History.Enabled {
		db, err := history.OpenDB(cfg.History.Path)
		if err != nil {
			log.Warn("run history unavailable", "path", cfg.History.Path, "error", err)
		} else {
			s.db = db
			s.history = history.NewStore(db)
		}
	}

	s.app = app.New(app.Options{
		Fetcher: download.NewHTTPFetcher(cfg.Download.Timeout, cfg.Download.UserAgent, log),
		Download: download.Config{
			ChunkSize:  cfg.Download.ChunkSize,
			DefaultExt: cfg.Download.DefaultExt,
		},
		Sequence: sequence.Config{BackupPrefix: cfg.Sequence.BackupPrefix},
		Merge:    merge.Config{CollectionName: cfg.Merge.CollectionName},
		Dirs:     dirs,
		History:  s.history,
	}, log)
	return s, nil
}

func (s *session) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// resolveDir returns arg, or the directory remembered under key.
func (s *session) resolveDir(arg, key string) string {
	if strings.TrimSpace(arg) != "" {
		return arg
	}
	if dir, ok := s.app.RememberedDir(key); ok {
		s.log.Debug("using remembered directory", "key", key, "dir", dir)
		return dir
	}
	return ""
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLog(w io.Writer, lines []string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(w, line)
	}
}
