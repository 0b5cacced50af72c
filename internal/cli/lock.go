package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/re-cinq/lanectl/internal/config"
	"github.com/re-cinq/lanectl/internal/fileutil"
)

var lockSettings string

func init() {
	lockCmd.PersistentFlags().StringVar(&lockSettings, "settings", "", "Optional YAML settings file overlay")
	lockCmd.AddCommand(lockStatusCmd)
	lockCmd.AddCommand(lockReleaseCmd)
	rootCmd.AddCommand(lockCmd)
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect or clear the Lane A orchestrate lock",
}

var lockStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent lock status snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(lockSettings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}
		layout := fileutil.NewLayout(cfg.ProjectRoot)

		entries, err := os.ReadDir(layout.LockStatusDir())
		if os.IsNotExist(err) {
			fmt.Println("no lock status snapshots yet")
			return nil
		}
		if err != nil {
			return err
		}
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		if len(names) == 0 {
			fmt.Println("no lock status snapshots yet")
			return nil
		}
		latest := names[len(names)-1]
		data, err := os.ReadFile(filepath.Join(layout.LockStatusDir(), latest))
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var lockReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Force-remove a stale lock file (use only when you know no tick is running)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(lockSettings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return err
		}
		layout := fileutil.NewLayout(cfg.ProjectRoot)
		if err := os.Remove(layout.LockFile()); err != nil {
			if os.IsNotExist(err) {
				fmt.Println("no lock held")
				return nil
			}
			return err
		}
		fmt.Println("lock released")
		return nil
	},
}
