package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/re-cinq/lanectl/internal/config"
	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/qafollowup"
)

var (
	qaFollowupsSettings  string
	qaFollowupsMaxEvents int
)

func init() {
	qaFollowupsCmd.Flags().StringVar(&qaFollowupsSettings, "settings", "", "Optional YAML settings file overlay")
	qaFollowupsCmd.Flags().IntVar(&qaFollowupsMaxEvents, "max-events", 0, "Cap events consumed this run (0 = unbounded)")
	rootCmd.AddCommand(qaFollowupsCmd)
}

var qaFollowupsCmd = &cobra.Command{
	Use:   "qa-followups",
	Short: "Emit Lane B intake stubs for merges missing required end-to-end coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(qaFollowupsSettings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}
		layout := fileutil.NewLayout(cfg.ProjectRoot)

		report, err := qafollowup.Run(qafollowup.Request{Layout: layout, Now: time.Now(), MaxEvents: qaFollowupsMaxEvents})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}
		written := 0
		for _, o := range report.Outcomes {
			if o.StubWritten {
				written++
			}
		}
		fmt.Printf("read %d events, %d follow-up stubs written\n", report.EventsRead, written)
		for _, w := range report.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		return nil
	},
}
