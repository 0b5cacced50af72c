package orchestrator

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/re-cinq/lanectl/internal/fileutil"
	"github.com/re-cinq/lanectl/internal/validate"
)

// openDecisionIDs scans the decision packets directory for packets whose
// front matter status is still "open", sorted by decision_id.
func openDecisionIDs(layout fileutil.Layout) ([]string, error) {
	dir := layout.DecisionPacketsDir()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		fm, err := validate.LoadDecisionPacket(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		if fm.Status == validate.DecisionOpen {
			ids = append(ids, fm.DecisionID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
