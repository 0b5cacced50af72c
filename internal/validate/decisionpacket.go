package validate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decision packet status values (§3.1).
const (
	DecisionOpen     = "open"
	DecisionAnswered = "answered"
	DecisionResolved = "resolved"
)

// DecisionPacketFrontMatter is the machine-readable header of a decision
// packet markdown file (§3.1's `{version, decision_id, status, …}`). The
// file itself is markdown (§4.5, §6.1 name `.md` artifacts); lanectl
// resolves the JSON-vs-markdown tension the same way the teacher resolves
// "state.json + STATE.md": one YAML front-matter block, reusing the
// already-wired yaml.v3 dependency, followed by a human-readable body.
type DecisionPacketFrontMatter struct {
	Version    int    `yaml:"version"`
	DecisionID string `yaml:"decision_id"`
	Status     string `yaml:"status"`
	RepoID     string `yaml:"repo_id,omitempty"`
	CreatedAt  string `yaml:"created_at"`
}

// RenderDecisionPacket builds the full markdown file content.
func RenderDecisionPacket(fm DecisionPacketFrontMatter, body string) (string, error) {
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshaling decision packet front matter: %w", err)
	}
	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(header)
	sb.WriteString("---\n\n")
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ParseDecisionPacket extracts the front matter from a decision packet file.
func ParseDecisionPacket(content string) (DecisionPacketFrontMatter, error) {
	if !strings.HasPrefix(content, "---\n") {
		return DecisionPacketFrontMatter{}, fmt.Errorf("missing front matter delimiter")
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return DecisionPacketFrontMatter{}, fmt.Errorf("unterminated front matter")
	}
	var fm DecisionPacketFrontMatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return DecisionPacketFrontMatter{}, fmt.Errorf("parsing front matter: %w", err)
	}
	return fm, nil
}

// LoadDecisionPacket reads and parses a decision packet file from disk.
func LoadDecisionPacket(path string) (DecisionPacketFrontMatter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DecisionPacketFrontMatter{}, err
	}
	return ParseDecisionPacket(string(data))
}
