package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app-packager/internal/types"
)

func TestNewInstallationRecordVersionWins(t *testing.T) {
	source := pkg("A", "1.0.0")
	installation, err := NewInstallation(source, types.InstallationRecord{Version: "1.0.3", IsRoot: true})
	require.NoError(t, err)
	assert.Equal(t, "A:1.0.3", installation.QualifiedID())
	assert.True(t, installation.IsRoot())

	_, err = NewInstallation(source, types.InstallationRecord{Version: "one"})
	require.Error(t, err)
}

func TestNewInstallationFromSourceSplitsOptional(t *testing.T) {
	source := pkg("A", "1.0.0", dep("B", ""), optionalDep("Z", ""))
	installation, err := NewInstallationFromSource(source, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, installation.DependencyIDs())
	assert.Equal(t, []string{"Z"}, installation.OptionalDependencyIDs())
	edge, ok := installation.Dependency("B")
	assert.True(t, ok)
	assert.Nil(t, edge)
}

func TestDependenciesForTargetOS(t *testing.T) {
	manifest := types.Manifest{Dependencies: []types.DependencyDecl{
		{ID: "any"},
		{ID: "wild", TargetOS: []string{"*"}},
		{ID: "linux", TargetOS: []string{"linux"}},
		{ID: "windows", TargetOS: []string{"windows"}},
	}}

	ids := func(decls []types.DependencyDecl) []string {
		out := []string{}
		for _, decl := range decls {
			out = append(out, decl.ID)
		}
		return out
	}

	if diff := cmp.Diff([]string{"any", "wild", "linux"}, ids(DependenciesForTargetOS(manifest, "linux"))); diff != "" {
		t.Fatalf("unexpected linux dependencies (-want +got):\n%s", diff)
	}
	assert.Len(t, DependenciesForTargetOS(manifest, "*"), 4)
	assert.Len(t, DependenciesForTargetOS(manifest, ""), 4)
}

func TestUpdateInputGroups(t *testing.T) {
	installation, err := NewInstallationFromSource(pkg("B", "1.0.0"), "")
	require.NoError(t, err)

	installation.UpdateInputGroups("A", []string{"syslog", "metrics"})
	installation.UpdateInputGroups("C", []string{"metrics"})
	want := map[string][]string{"metrics": {"A", "C"}, "syslog": {"A"}}
	if diff := cmp.Diff(want, installation.InputGroups()); diff != "" {
		t.Fatalf("unexpected input groups (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"metrics", "syslog"}, installation.InputGroupsOf("A"))

	installation.UpdateInputGroups("A", []string{"metrics"})
	want = map[string][]string{"metrics": {"A", "C"}}
	if diff := cmp.Diff(want, installation.InputGroups()); diff != "" {
		t.Fatalf("unexpected input groups after replace (-want +got):\n%s", diff)
	}

	installation.UpdateInputGroups("A", nil)
	installation.UpdateInputGroups("C", nil)
	assert.Empty(t, installation.InputGroups())
}

func TestMergeInputGroups(t *testing.T) {
	left, err := NewInstallationFromSource(pkg("B", "1.0.0"), "")
	require.NoError(t, err)
	right, err := NewInstallationFromSource(pkg("B", "1.1.0"), "")
	require.NoError(t, err)

	left.UpdateInputGroups("A", []string{"syslog"})
	right.UpdateInputGroups("C", []string{"syslog", "metrics"})
	left.MergeInputGroups(right)

	want := map[string][]string{"metrics": {"C"}, "syslog": {"A", "C"}}
	if diff := cmp.Diff(want, left.InputGroups()); diff != "" {
		t.Fatalf("unexpected merged groups (-want +got):\n%s", diff)
	}
}

func TestResetVersionRangeUsesCurrentDependents(t *testing.T) {
	diag := newTestDiagnostics(t)
	g := installedGraph(t, diag, []types.PackageSource{
		pkg("A", "1.0.0", dep("B", ">=1.0.0")),
		pkg("D", "1.0.0", dep("B", "<1.4.0")),
		pkg("B", "1.2.0"),
	}, "A", "D")
	require.Zero(t, diag.ErrorCount(), diag.Errors())

	b := g.Get("B")
	b.removeDependent("D")
	require.NoError(t, b.ResetVersionRange(g))
	assert.Equal(t, ">=1.0.0", b.VersionRange().String())
}

func TestResetVersionRangeReportsBadRange(t *testing.T) {
	diag := newTestDiagnostics(t)
	g := installedGraph(t, diag, []types.PackageSource{
		pkg("A", "1.0.0", dep("B", ">=banana")),
		pkg("B", "1.2.0"),
	}, "A")

	assert.Equal(t, types.StatusError, diag.Status())
	assert.Contains(t, diag.Errors()[0], "Invalid version range for app B:1.2.0")
	require.Error(t, g.Get("B").ResetVersionRange(g))
}

func TestDiagnosticsMessages(t *testing.T) {
	diag := newTestDiagnostics(t)
	diag.Infof("loaded %d apps", 2)
	diag.Warnf("kept %s", "B")
	assert.Equal(t, types.StatusOK, diag.Status())

	diag.Conflictf(types.StatusResolvableConflict, "update %s", "A")
	diag.Errorf("broken")
	assert.Equal(t, types.StatusResolvableConflict, diag.Status())
	assert.Equal(t, 2, diag.ErrorCount())

	want := map[string][]string{
		"ERROR":   {"update A", "broken"},
		"WARNING": {"kept B"},
		"INFO":    {"loaded 2 apps"},
	}
	if diff := cmp.Diff(want, diag.Messages()); diff != "" {
		t.Fatalf("unexpected messages (-want +got):\n%s", diff)
	}
}
