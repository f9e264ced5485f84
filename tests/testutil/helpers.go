// Package testutil provides shared test helpers used across integration,
// e2e, and unit test packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// AppRepository maps manifest file names to their yaml content.
var AppRepository = map[string]string{
	"acme-fwd-1.0.0.yaml": `
schemaVersion: 2.0.0
info:
  id: {group: acme, name: fwd, version: 1.0.0}
  title: Acme forwarder inputs
dependencies:
  - id: acme-base
    version: "<1.1.0"
inputGroups:
  syslog:
    inputs: ["udp://514"]
    requires:
      acme-base: [parsing]
  metrics:
    inputs: ["tcp://9997"]
supportedDeployments: [forwarder]
`,
	"acme-fwd-1.1.0.yaml": `
schemaVersion: 2.0.0
info:
  id: {group: acme, name: fwd, version: 1.1.0}
  title: Acme forwarder inputs
dependencies:
  - id: acme-base
    version: ">=1.1.0"
inputGroups:
  syslog:
    inputs: ["udp://514"]
    requires:
      acme-base: [parsing]
  metrics:
    inputs: ["tcp://9997"]
supportedDeployments: [forwarder]
`,
	"acme-search-1.0.0.yaml": `
schemaVersion: 2.0.0
info:
  id: {group: acme, name: search, version: 1.0.0}
dependencies:
  - id: acme-base
    version: ">=1.0.0"
supportedDeployments: [searchHead]
`,
	"acme-base-1.0.0.yaml": `
schemaVersion: 2.0.0
info:
  id: {group: acme, name: base, version: 1.0.0}
`,
	"acme-base-1.1.0.yaml": `
schemaVersion: 2.0.0
info:
  id: {group: acme, name: base, version: 1.1.0}
`,
}

// WriteAppRepository writes AppRepository to a temporary directory and
// returns its path.
func WriteAppRepository(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range AppRepository {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}
