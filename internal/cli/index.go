package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/re-cinq/lanectl/internal/config"
	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/indexer"
	"github.com/re-cinq/lanectl/internal/registry"
)

var indexSettings string

func init() {
	indexCmd.Flags().StringVar(&indexSettings, "settings", "", "Optional YAML settings file overlay")
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index <repo-id>",
	Short: "Index one registered repository at its active branch (or HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(indexSettings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}
		layout := fileutil.NewLayout(cfg.ProjectRoot)

		repos, err := registry.Load(layout)
		if err != nil {
			return err
		}
		repo, ok := registry.ByID(repos)[args[0]]
		if !ok {
			return fmt.Errorf("repo %q is not in the registry", args[0])
		}

		knownIDs := registry.AllIDSet(repos)
		result, err := indexer.Index(repo.RepoID, repo.Path, layout.RepoOutputDir(repo.RepoID), layout.RepoIndexErrorDir(), indexer.RepoConfig{ActiveBranch: repo.ActiveBranch}, knownIDs, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}
		fmt.Printf("indexed %s at %s (%d fingerprinted files)\n", repo.RepoID, result.RepoIndex.HeadSHA, len(result.RepoFingerprints.Files))
		return nil
	},
}
