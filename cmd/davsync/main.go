package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/davsync/davsync/internal/config"
	"github.com/davsync/davsync/internal/sync"
	"github.com/davsync/davsync/internal/utils"
	"github.com/davsync/davsync/internal/version"
	"github.com/davsync/davsync/internal/webdav"
)

var (
	home, _           = os.UserHomeDir()
	defaultConfigPath = "davsync.yaml"
	defaultLogPath    = filepath.Join(home, ".davsync", "davsync.log")

	cyan = color.New(color.FgHiCyan, color.Bold).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:     "davsync",
	Short:   "Mirror local folders to a WebDAV store",
	Version: version.Detailed(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		applyOverrides(cmd, cfg)

		// config is valid, errors past this point are runtime failures
		cmd.SilenceUsage = true
		fmt.Println(cyan(version.AppName + " " + version.Short()))
		slog.Info("config loaded", "path", cfgPath, "folders", len(cfg.Folders))

		client := webdav.New(&webdav.Options{
			BaseURL:  cfg.WebDAVURL,
			Username: cfg.Username,
			Password: cfg.Password,
			Timeout:  cfg.Timeout(),
		})

		var progress sync.ProgressFunc
		if cfg.Progress {
			progress = newProgressRenderer(os.Stderr)
		}

		engine := sync.NewEngine(cfg, client, progress)
		if err := engine.Run(cmd.Context()); err != nil {
			slog.Error("sync failed", "error", err)
			return err
		}

		slog.Info("sync completed")
		return nil
	},
}

// applyOverrides layers CLI flags and DAVSYNC_* environment variables on top
// of the config file. Credentials via environment keep secrets out of YAML.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	viper.SetEnvPrefix("DAVSYNC")
	viper.BindEnv("username")
	viper.BindEnv("password")
	if v := viper.GetString("username"); v != "" {
		cfg.Username = v
	}
	if v := viper.GetString("password"); v != "" {
		cfg.Password = v
	}

	if cmd.Flags().Changed("progress") {
		cfg.Progress, _ = cmd.Flags().GetBool("progress")
	}
	if cmd.Flags().Changed("pseudo-hash") {
		cfg.PseudoHash, _ = cmd.Flags().GetBool("pseudo-hash")
	}
	if cmd.Flags().Changed("target-dir") {
		cfg.TargetDir, _ = cmd.Flags().GetString("target-dir")
	}
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("config", "c", defaultConfigPath, "Path to the YAML config file")
	rootCmd.Flags().BoolP("progress", "p", false, "Show a progress bar")
	rootCmd.Flags().Bool("pseudo-hash", false, "Fingerprint by name+size+first KiB instead of full content")
	rootCmd.Flags().StringP("target-dir", "t", "", "Remote directory prefix for uploaded files")
}

func main() {
	if err := setupLogging(defaultLogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setupLogging fans slog out to a colored stdout handler and a plain text
// log file.
func setupLogging(logFile string) error {
	if err := utils.EnsureParent(logFile); err != nil {
		return err
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	slog.SetDefault(slog.New(utils.NewMultiLogHandler(stdoutHandler, fileHandler)))
	return nil
}
