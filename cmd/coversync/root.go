package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"coversync/pkg/config"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	quiet      bool

	// Sync flags
	outputDir    string
	collections  int
	syncChecks   int
	downloads    int
	rateLimit    int
	timeout      time.Duration
	reportFormat string
	dryRun       bool
	showProgress bool
)

// rootCmd syncs every collection named in the seed file
var rootCmd = &cobra.Command{
	Use:   "coversync [flags] <seed-file>",
	Short: "Mirror comic cover collections onto a local directory tree",
	Long: `coversync keeps a local directory of cover images in step with remote
collection listings.

For every collection URL in the seed file it walks the paginated listing,
works out which covers should exist, then deletes local files that are no
longer listed or have zero length and downloads whatever is missing. Each
collection is mirrored into a directory named after its title.

The seed file is either a JSON array of {"url": "..."} objects or a plain
text file with one URL per line. The list of added and removed files is
printed to stdout once every collection has finished.`,
	Example: `  # Sync every collection listed in collections.json into the current directory
  coversync collections.json

  # Sync into ./covers, two collections at a time, with a progress bar
  coversync --output ./covers --collections 2 --progress seeds.txt

  # Show what would change without touching disk, as Markdown
  coversync --dry-run --format markdown seeds.txt`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.ExactArgs(1),
	RunE:    runSync,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaults := config.DefaultConfig()

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.coversync.yaml or $XDG_CONFIG_HOME/coversync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.Logging.Level, "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file, rotated by size")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress status output except errors")

	rootCmd.Flags().StringVarP(&outputDir, "output", "o", defaults.Output.BaseDirectory, "directory the collection directories are created in")
	rootCmd.Flags().IntVar(&collections, "collections", defaults.Concurrency.Collections, "collections synced at the same time")
	rootCmd.Flags().IntVar(&syncChecks, "sync-checks", defaults.Concurrency.SyncChecks, "concurrent file checks and deletions per collection")
	rootCmd.Flags().IntVar(&downloads, "downloads", defaults.Concurrency.Downloads, "concurrent cover downloads per collection")
	rootCmd.Flags().IntVar(&rateLimit, "rate-limit", defaults.HTTP.RequestsPerMinute, "maximum requests per minute across all collections (0 = unlimited)")
	rootCmd.Flags().DurationVar(&timeout, "timeout", defaults.HTTP.Timeout, "timeout of a single request")
	rootCmd.Flags().StringVarP(&reportFormat, "format", "f", defaults.Report.Format, "report format (text, markdown)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without touching disk")
	rootCmd.Flags().BoolVarP(&showProgress, "progress", "p", false, "show a progress bar on stderr")

	rootCmd.SetVersionTemplate(`coversync {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// changedFlags returns the flags the user set explicitly, keyed the way
// config.MergeCommandLineFlags expects
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := func(name string, value interface{}) {
		if cmd.Flags().Changed(name) {
			flags[name] = value
		}
	}

	set("output", outputDir)
	set("collections", collections)
	set("sync-checks", syncChecks)
	set("downloads", downloads)
	set("rate-limit", rateLimit)
	set("timeout", timeout)
	set("format", reportFormat)
	set("dry-run", dryRun)
	set("log-level", logLevel)
	set("log-file", logFile)

	return flags
}
