package orchestrator

import (
	"os"
	"path/filepath"

	"github.com/re-cinq/lanectl/internal/fileutil"
)

// scanStatus records that the knowledge-scan collaborator has run
// successfully for a repo since its last index. The scan collaborator
// itself is out of scope (§6.3); this is the orchestrator's own
// bookkeeping of "have I asked for a scan of this index yet".
type scanStatus struct {
	Version    int    `json:"version"`
	HeadSHA    string `json:"head_sha"`
	ScannedAt  string `json:"scanned_at"`
}

func scanStatusPath(layout fileutil.Layout, repoID string) string {
	return filepath.Join(layout.RepoOutputDir(repoID), "scan_status.json")
}

func loadScanStatus(layout fileutil.Layout, repoID string) (scanStatus, bool) {
	var s scanStatus
	err := fileutil.ReadJSON(scanStatusPath(layout, repoID), &s)
	if err != nil {
		return scanStatus{}, false
	}
	return s, true
}

func writeScanStatus(layout fileutil.Layout, repoID, headSHA, scannedAt string) error {
	s := scanStatus{Version: 1, HeadSHA: headSHA, ScannedAt: scannedAt}
	return fileutil.WriteJSON(scanStatusPath(layout, repoID), s)
}

func indexExists(layout fileutil.Layout, repoID string) bool {
	_, err := os.Stat(layout.RepoIndexFile(repoID))
	return err == nil
}
