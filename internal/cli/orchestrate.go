package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/re-cinq/lanectl/internal/collaborators"
	"github.com/re-cinq/lanectl/internal/config"
	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/orchestrator"
	"github.com/re-cinq/lanectl/internal/registry"
)

var (
	orchestrateLimit      int
	orchestrateDryRun     bool
	orchestrateSettings   string
)

func init() {
	orchestrateCmd.Flags().IntVar(&orchestrateLimit, "limit", 0, "Cap per-action batch size (0 = unbounded)")
	orchestrateCmd.Flags().BoolVar(&orchestrateDryRun, "dry-run", false, "Compute and report the next action without executing it")
	orchestrateCmd.Flags().StringVar(&orchestrateSettings, "settings", "", "Optional YAML settings file overlay")
	rootCmd.AddCommand(orchestrateCmd)
}

var orchestrateCmd = &cobra.Command{
	Use:   "orchestrate",
	Short: "Run one Lane A orchestrator tick",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(orchestrateSettings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}

		layout := fileutil.NewLayout(cfg.ProjectRoot)
		repos, err := registry.Load(layout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}

		deps := orchestrator.Deps{
			Layout:       layout,
			KRoot:        cfg.KnowledgeRepoDir,
			Scan:         collaborators.NoopScan,
			Meeting:      collaborators.NoopMeeting,
			Policy:       cfg.Staleness,
			SoftStale:    cfg.SoftStale,
			LockTTL:      cfg.LockTTL,
			KnownRepoIDs: registry.AllIDSet(repos),
		}

		result := orchestrator.Orchestrate(deps, orchestrateLimit, orchestrateDryRun)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if !result.OK {
			return fmt.Errorf("orchestrate tick failed: %s", result.Message)
		}
		return nil
	},
}
