package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app-packager/internal/adapters"
	"app-packager/internal/core"
	"app-packager/internal/types"
)

func TestCollectionIntegration(t *testing.T) {
	repo := writeRepository(t)
	packages := adapters.NewPackageRepositoryAdapter(repo)
	payload := adapters.NewPayloadFileAdapter()
	diag := core.NewDiagnostics(t.Context())

	collection := core.LoadCollection(types.InstallationFile{}, packages, adapters.NewDependencyTreeAdapter(packages), payload, diag)
	action, err := core.NewInstallationAction(types.ActionAdd, types.ActionArgs{
		AppPackage:                        "acme-sh-1.0.0.yaml",
		CombineSearchHeadIndexerWorkloads: true,
		TargetOS:                          "linux",
	})
	require.NoError(t, err)
	require.NoError(t, collection.Apply(action, false, diag))
	collection.Reload(diag)
	require.Zero(t, diag.ErrorCount(), diag.Errors())

	got := map[string][]string{}
	for _, rc := range collection.RoleClasses() {
		got[rc.Name] = rc.Graph.IDs()
	}
	want := map[string][]string{
		types.RoleClassSearchHeads: {"acme-sh", "acme-lib"},
		types.RoleClassIndexers:    {"acme-sh", "acme-lib"},
		types.RoleClassForwarders:  {},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected role classes (-want +got):\n%s", diff)
	}
	assert.Len(t, payload.GraphUpdates(), 2)

	outDir := t.TempDir()
	store := adapters.NewGraphFileAdapter()
	target := filepath.Join(outDir, "installation-update.json")
	require.NoError(t, store.Save(target, collection.File()))

	reloaded, err := store.Load(target)
	require.NoError(t, err)
	again := core.LoadCollection(reloaded, packages, nil, nil, core.NewDiagnostics(t.Context()))
	sh := again.RoleClass(types.RoleClassIndexers).Graph.Get("acme-sh")
	require.NotNil(t, sh)
	assert.True(t, sh.IsRoot())
	assert.Equal(t, []string{"acme-lib"}, sh.DependencyIDs())
}

func TestCollectionReinstallIsRecordedAsUpdate(t *testing.T) {
	repo := writeRepository(t)
	packages := adapters.NewPackageRepositoryAdapter(repo)
	trees := adapters.NewDependencyTreeAdapter(packages)
	diag := core.NewDiagnostics(t.Context())

	add, err := core.NewInstallationAction(types.ActionAdd, types.ActionArgs{AppPackage: "acme-sh-1.0.0.yaml", TargetOS: "linux"})
	require.NoError(t, err)
	remove, err := core.NewInstallationAction(types.ActionRemove, types.ActionArgs{AppID: "acme-sh"})
	require.NoError(t, err)

	installed := core.LoadCollection(types.InstallationFile{}, packages, trees, adapters.NewPayloadFileAdapter(), diag)
	require.NoError(t, installed.Apply(add, false, diag))

	payload := adapters.NewPayloadFileAdapter()
	collection := core.LoadCollection(installed.File(), packages, trees, payload, diag)
	require.NoError(t, collection.Apply(remove, false, diag))
	require.NoError(t, collection.Apply(add, false, diag))
	require.Zero(t, diag.ErrorCount(), diag.Errors())

	changeset := payload.GraphUpdates()[types.RoleClassSearchHeads]
	assert.Empty(t, changeset.Add)
	assert.Empty(t, changeset.Remove)
	assert.Equal(t, map[string]string{
		"acme-sh":  "acme-sh-1.0.0.yaml",
		"acme-lib": "acme-lib-1.0.0.yaml",
	}, changeset.Update)
	assert.Equal(t, []string{"acme-sh", "acme-lib"}, collection.RoleClass(types.RoleClassSearchHeads).Graph.IDs())
}

func writeRepository(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	manifests := map[string]string{
		"acme-sh-1.0.0.yaml": `
schemaVersion: 2.0.0
info:
  id: {group: acme, name: sh, version: 1.0.0}
dependencies:
  - id: acme-lib
    version: ">=1.0.0"
  - id: acme-winlib
    version: ">=1.0.0"
    targetOS: [windows]
supportedDeployments: [searchHead]
`,
		"acme-lib-1.0.0.yaml": `
schemaVersion: 2.0.0
info:
  id: {group: acme, name: lib, version: 1.0.0}
`,
		"acme-winlib-1.0.0.yaml": `
schemaVersion: 2.0.0
info:
  id: {group: acme, name: winlib, version: 1.0.0}
`,
	}
	for name, content := range manifests {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}
