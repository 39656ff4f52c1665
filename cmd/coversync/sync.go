package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"coversync/pkg/catalog"
	"coversync/pkg/config"
	"coversync/pkg/logger"
	"coversync/pkg/report"
	"coversync/pkg/seeds"
	"coversync/pkg/syncer"
	"coversync/pkg/ui"

	"github.com/spf13/cobra"
)

func runSync(cmd *cobra.Command, args []string) error {
	// Argument errors print usage; anything after this point does not
	cmd.SilenceUsage = true

	console := ui.NewConsole(quiet)

	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		console.PrintError("Failed to load configuration", err)
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		console.PrintError("Failed to initialize logger", err)
		return err
	}
	log := logger.GetLogger()

	urls, err := seeds.Load(args[0])
	if err != nil {
		log.WithError(err).WithField("file", args[0]).Error("Could not load seed file")
		console.PrintError("Failed to load seed file", err)
		return err
	}

	console.PrintInfo("Collections", fmt.Sprintf("%d", len(urls)))
	console.PrintInfo("Output", cfg.Output.BaseDirectory)
	if cfg.Output.DryRun {
		console.PrintWarning("Dry run: nothing will be written or deleted")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := syncer.NewFromConfig(cfg, log)

	tracker := ui.NewStatusTracker()
	var progress *ui.CollectionProgress
	if showProgress && !quiet {
		progress = ui.NewCollectionProgress(len(urls))
	}
	s.OnCollectionDone = func(col *catalog.Collection) {
		tracker.Track(col)
		if progress != nil {
			progress.Done(col)
		}
	}

	results := s.Run(ctx, urls)
	if progress != nil {
		progress.Finish()
	}

	if err := writeReport(os.Stdout, cfg.Report.Format, results); err != nil {
		log.WithError(err).Error("Could not write report")
		return err
	}

	log.InfoWithFields("Sync finished", map[string]interface{}{
		"collections": tracker.Collections,
		"skipped":     tracker.Skipped,
		"added":       tracker.Added,
		"removed":     tracker.Removed,
		"failures":    tracker.Failures,
		"elapsed":     tracker.GetElapsedTime(),
	})
	console.PrintSuccess(tracker.Summary())

	return nil
}

func writeReport(w io.Writer, format string, results []*catalog.Collection) error {
	switch strings.ToLower(format) {
	case "markdown":
		return report.WriteMarkdown(w, results)
	default:
		return report.PrintText(w, results)
	}
}
