package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Golden files pin the byte-exact revision chains these scenarios produce,
// so any drift in interval closing, numbering, or flag computation shows as
// a diff. Regenerate with: go test ./internal/harness -update
func TestGoldenChains(t *testing.T) {
	for _, name := range []string{
		"single-delete",
		"amend-correction",
		"edits-and-delete",
		"backdated-rejected",
		"pending-future",
	} {
		name := name
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}
