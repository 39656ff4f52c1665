package main

import (
	"fmt"
	"os"

	"coversync/pkg/config"
	"coversync/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage coversync configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (COVERSYNC_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a file",
	Long: `Write a configuration file containing every option at its default value.

The file is created as '.coversync.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Long: `Load the configuration from every source and check it.

Besides value ranges this checks that the output and log directories can be created.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	console := ui.NewConsole(quiet)

	path := configFile
	if path == "" {
		path = ".coversync.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		err := fmt.Errorf("configuration file already exists: %s", path)
		console.PrintError("Refusing to overwrite", err)
		return err
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		console.PrintError("Failed to create configuration file", err)
		return err
	}

	console.PrintSuccess("Configuration file created: " + path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	console := ui.NewConsole(quiet)

	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		console.PrintError("Failed to load configuration", err)
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		console.PrintError("Failed to format configuration", err)
		return err
	}

	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	console := ui.NewConsole(quiet)

	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		console.PrintError("Configuration is invalid", err)
		return err
	}

	if err := cfg.CheckPaths(); err != nil {
		console.PrintError("Configuration paths are not usable", err)
		return err
	}

	console.PrintSuccess("Configuration is valid")
	console.PrintInfo("Output directory", cfg.Output.BaseDirectory)
	console.PrintInfo("Concurrency", fmt.Sprintf("%d collections, %d sync checks, %d downloads",
		cfg.Concurrency.Collections, cfg.Concurrency.SyncChecks, cfg.Concurrency.Downloads))
	console.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}
