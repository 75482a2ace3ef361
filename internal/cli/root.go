// Package cli implements the command-line interface using Cobra.
package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ytget/yt-downloader-bot/internal/config"
	"github.com/ytget/yt-downloader-bot/internal/retention"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig  string
	flagDir     string
	flagWorkers int
	flagDebug   bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "yt-downloader-bot",
	Short: "Telegram bot that downloads YouTube audio and video",
	Long: `yt-downloader-bot answers YouTube links with audio (MP3) or video (MP4)
files. Small files are uploaded to the chat, large ones are kept on disk for a
limited time. Every downloaded file is deleted after the retention delay.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              serveRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default: $XDG_CONFIG_HOME/yt-downloader-bot/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", "", "Artifact directory (default: downloads)")
	rootCmd.PersistentFlags().IntVarP(&flagWorkers, "workers", "w", 0, "Maximum parallel downloads (1-16)")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagDir != "" {
		cfg.DownloadDir = flagDir
	}
	if flagWorkers != 0 {
		cfg.MaxWorkers = flagWorkers
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Debug {
		log.SetOutput(os.Stderr)
		log.SetPrefix("[yt-bot] ")
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else {
		log.SetOutput(os.Stderr)
	}

	return nil
}

// debugf logs a message if debug mode is enabled.
func debugf(format string, args ...interface{}) {
	if cfg != nil && cfg.Debug {
		log.Printf(format, args...)
	}
}

// openStore opens the retention store, with the deadline journal when
// withJournal is set and schedule_db is configured
func openStore(withJournal bool) (*retention.Store, error) {
	dir, err := cfg.ExpandDownloadDir()
	if err != nil {
		return nil, err
	}
	opts := retention.Options{
		Dir:         dir,
		DeleteAfter: cfg.DeleteAfter.Duration,
		StaleAfter:  cfg.StaleAfter.Duration,
	}

	if withJournal {
		dbPath, err := cfg.ExpandScheduleDB()
		if err != nil {
			return nil, err
		}
		if dbPath != "" {
			journal, err := retention.OpenJournal(dbPath)
			if err != nil {
				return nil, fmt.Errorf("opening deadline journal: %w", err)
			}
			debugf("deadline journal at %s", dbPath)
			opts.Journal = journal
		}
	}

	store, err := retention.Open(opts)
	if err != nil {
		if opts.Journal != nil {
			opts.Journal.Close()
		}
		return nil, err
	}
	return store, nil
}
