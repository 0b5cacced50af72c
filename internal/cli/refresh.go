package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/re-cinq/lanectl/internal/collaborators"
	"github.com/re-cinq/lanectl/internal/config"
	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/refresh"
	"github.com/re-cinq/lanectl/internal/registry"
)

var (
	refreshSettings  string
	refreshMaxEvents int
	refreshStopOnErr bool
)

func init() {
	refreshCmd.Flags().StringVar(&refreshSettings, "settings", "", "Optional YAML settings file overlay")
	refreshCmd.Flags().IntVar(&refreshMaxEvents, "max-events", 0, "Cap events consumed this run (0 = unbounded)")
	refreshCmd.Flags().BoolVar(&refreshStopOnErr, "stop-on-error", true, "Stop at the first repo-level error")
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Advance the knowledge-refresh-from-events consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(refreshSettings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}
		layout := fileutil.NewLayout(cfg.ProjectRoot)

		repos, err := registry.Load(layout)
		if err != nil {
			return err
		}

		report, err := refresh.Run(context.Background(), refresh.Request{
			Layout:       layout,
			KRoot:        cfg.KnowledgeRepoDir,
			Repos:        repos,
			KnownRepoIDs: registry.AllIDSet(repos),
			Scan:         collaborators.NoopScan,
			StopOnError:  refreshStopOnErr,
			MaxEvents:    refreshMaxEvents,
			Now:          time.Now(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}
		fmt.Printf("read %d events, impacted repos: %v\n", report.EventsRead, report.ImpactedRepos)
		return nil
	},
}
