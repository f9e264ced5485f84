package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app-packager/internal/types"
)

func ids(installations []*Installation) []string {
	out := make([]string, 0, len(installations))
	for _, installation := range installations {
		out = append(out, installation.ID())
	}
	return out
}

func requireBackEdges(t *testing.T, g *Graph) {
	t.Helper()
	for _, installation := range g.Installations() {
		for _, id := range installation.DependencyIDs() {
			edge, ok := installation.Dependency(id)
			require.True(t, ok)
			if edge == nil {
				continue
			}
			target := edge.Installation(g)
			require.NotNil(t, target, "edge %s -> %s", installation.ID(), id)
			assert.True(t, target.HasDependent(installation.ID()), "missing back edge %s -> %s", id, installation.ID())
		}
	}
}

func TestLoadGraphResolvesEdges(t *testing.T) {
	diag := newTestDiagnostics(t)
	g := installedGraph(t, diag, []types.PackageSource{
		pkg("A", "1.0.0", dep("B", ">=1.0.0,<2.0.0")),
		pkg("B", "1.5.0", dep("C", "")),
		pkg("C", "0.1.0"),
	}, "A")

	require.Zero(t, diag.ErrorCount(), diag.Errors())
	if diff := cmp.Diff([]string{"A", "B", "C"}, g.IDs()); diff != "" {
		t.Fatalf("unexpected graph order (-want +got):\n%s", diff)
	}
	requireBackEdges(t, g)

	edge, ok := g.Get("A").Dependency("B")
	require.True(t, ok)
	require.NotNil(t, edge)
	assert.Equal(t, ">=1.0.0,<2.0.0", edge.VersionRange())
	assert.Equal(t, "1.5.0", edge.Version(g).String())
	assert.Equal(t, []string{"C"}, edge.Dependencies(g))
	assert.Equal(t, []string{"A"}, edge.Dependents(g))
	assert.Equal(t, ">=1.0.0,<2.0.0", g.Get("B").VersionRange().String())
	assert.True(t, g.Get("A").IsRoot())
	assert.False(t, g.Get("B").IsRoot())
}

func TestLoadGraphUnresolvedDependency(t *testing.T) {
	diag := newTestDiagnostics(t)
	g := installedGraph(t, diag, []types.PackageSource{
		pkg("A", "1.0.0", dep("B", ""), dep("X", "")),
		pkg("B", "1.0.0"),
	}, "A")

	require.Equal(t, 1, diag.ErrorCount())
	assert.Contains(t, diag.Errors()[0], "Cannot resolve dependency for app A:1.0.0: X")
	assert.Equal(t, types.StatusError, diag.Status())

	edge, ok := g.Get("A").Dependency("X")
	require.True(t, ok)
	assert.Nil(t, edge)
	requireBackEdges(t, g)
}

func TestLoadGraphSkipsMalformedRecord(t *testing.T) {
	diag := newTestDiagnostics(t)
	a := pkg("A", "1.0.0")
	records := types.NewAppRecords()
	records.Set("wrong", types.InstallationRecord{Source: a.Basename(), Version: "1.0.0"})
	records.Set("missing", types.InstallationRecord{Source: "missing-1.0.0.tgz", Version: "1.0.0"})

	g := LoadGraph(testRoleClass, records, newTestPackages(a), diag)

	assert.Zero(t, g.Len())
	require.Equal(t, 2, diag.ErrorCount())
	assert.Contains(t, diag.Errors()[0], "Expected source for wrong, not A")
	assert.Contains(t, diag.Errors()[1], "Cannot find source package missing-1.0.0.tgz")
}

func TestResolveReportsVersionConflict(t *testing.T) {
	diag := newTestDiagnostics(t)
	g := installedGraph(t, diag, []types.PackageSource{
		pkg("A", "1.0.0", dep("B", ">=2.0.0")),
		pkg("B", "1.5.0"),
	}, "A")

	require.Equal(t, 1, diag.ErrorCount())
	assert.Contains(t, diag.Errors()[0], "Invalid dependency B:1.5.0 is outside of required version range(s): >=2.0.0 (required by A)")
	assert.Equal(t, types.StatusConflict, diag.Status())

	conflicts := g.Get("B").VersionConflicts(g)
	if diff := cmp.Diff([]VersionConflict{{DependentID: "A", Range: ">=2.0.0"}}, conflicts); diff != "" {
		t.Fatalf("unexpected conflicts (-want +got):\n%s", diff)
	}
}

func TestIsCyclic(t *testing.T) {
	diag := newTestDiagnostics(t)
	g := installedGraph(t, diag, []types.PackageSource{
		pkg("A", "1.0.0", dep("B", "")),
		pkg("B", "1.0.0", dep("C", "")),
		pkg("C", "1.0.0", dep("A", "")),
	}, "A")

	assert.True(t, g.IsCyclic())
	require.Equal(t, 1, diag.ErrorCount())
	assert.Equal(t, "Installation graph for _indexers is cyclic", diag.Errors()[0])
}

func TestIsCyclicDiamond(t *testing.T) {
	diag := newTestDiagnostics(t)
	g := installedGraph(t, diag, []types.PackageSource{
		pkg("A", "1.0.0", dep("B", ""), dep("C", "")),
		pkg("B", "1.0.0", dep("D", "")),
		pkg("C", "1.0.0", dep("D", "")),
		pkg("D", "1.0.0"),
	}, "A")

	assert.False(t, g.IsCyclic())
	require.Zero(t, diag.ErrorCount(), diag.Errors())
	assert.ElementsMatch(t, []string{"B", "C"}, g.Get("D").DependentIDs())
}

func TestIsCyclicIgnoresUnresolvedEdges(t *testing.T) {
	diag := newTestDiagnostics(t)
	g := installedGraph(t, diag, []types.PackageSource{
		pkg("A", "1.0.0", dep("A2", "")),
	}, "A")

	assert.False(t, g.IsCyclic())
	assert.Equal(t, 1, diag.ErrorCount())
}

func TestDescribe(t *testing.T) {
	diag := newTestDiagnostics(t)
	g := installedGraph(t, diag, []types.PackageSource{
		pkg("A", "1.0.0", dep("B", "")),
		pkg("B", "1.0.0", dep("C", "")),
		pkg("C", "1.0.0"),
		pkg("D", "1.0.0"),
	}, "A", "D")
	require.Zero(t, diag.ErrorCount(), diag.Errors())

	if diff := cmp.Diff([]string{"A", "B", "C"}, ids(g.Describe(g.Get("A")))); diff != "" {
		t.Fatalf("unexpected closure (-want +got):\n%s", diff)
	}
	assert.Nil(t, g.Describe(nil))
}

func TestRecordsRoundTrip(t *testing.T) {
	diag := newTestDiagnostics(t)
	sources := []types.PackageSource{
		pkg("A", "1.0.0", dep("B", "^1.0.0"), optionalDep("Z", "")),
		pkg("B", "1.2.0"),
	}
	g := installedGraph(t, diag, sources, "A")
	require.Zero(t, diag.ErrorCount(), diag.Errors())

	records := g.Records()
	assert.Equal(t, []string{"A", "B"}, records.Order)
	want := types.InstallationRecord{
		Dependencies:         []string{"B"},
		OptionalDependencies: []string{"Z"},
		Dependents:           []string{},
		IsRoot:               true,
		InputGroups:          map[string][]string{},
		Source:               "A-1.0.0.tgz",
		Version:              "1.0.0",
	}
	if diff := cmp.Diff(want, records.Entries["A"]); diff != "" {
		t.Fatalf("unexpected record (-want +got):\n%s", diff)
	}

	reloaded := LoadGraph(testRoleClass, records, newTestPackages(sources...), diag)
	require.Zero(t, diag.ErrorCount(), diag.Errors())
	if diff := cmp.Diff(records, reloaded.Records()); diff != "" {
		t.Fatalf("records changed on reload (-want +got):\n%s", diff)
	}
}

func TestLoadGraphRestoresMissingDependent(t *testing.T) {
	diag := newTestDiagnostics(t)
	a := pkg("A", "1.0.0", dep("B", ">=2.0.0"))
	b := pkg("B", "1.5.0")
	records := types.NewAppRecords()
	records.Set("A", types.InstallationRecord{
		Dependencies: []string{"B"},
		IsRoot:       true,
		Source:       a.Basename(),
		Version:      "1.0.0",
	})
	records.Set("B", types.InstallationRecord{
		Dependents: []string{},
		Source:     b.Basename(),
		Version:    "1.5.0",
	})

	g := LoadGraph(testRoleClass, records, newTestPackages(a, b), diag)

	requireBackEdges(t, g)
	assert.Equal(t, []string{"A"}, g.Get("B").DependentIDs())
	assert.Equal(t, ">=2.0.0", g.Get("B").VersionRange().String())
	assert.Equal(t, 1, diag.ErrorCount(), diag.Errors())
	assert.Equal(t, types.StatusConflict, diag.Status())
}

func TestAddInstallation(t *testing.T) {
	diag := newTestDiagnostics(t)
	a := pkg("A", "1.0.0", dep("B", ""), dep("C", ""))
	b := pkg("B", "1.0.0", dep("C", ""))
	c := pkg("C", "1.0.0")
	repo := map[string]types.PackageSource{"A": a, "B": b, "C": c}

	incoming := FromDependencyTree(NewGraph(testRoleClass), buildTree(a, repo, ""), TreeOptions{Validate: true}, diag)
	require.Zero(t, diag.ErrorCount(), diag.Errors())

	g := NewGraph(testRoleClass)
	g.AddInstallation(incoming.Get("A"), incoming)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, g.IDs())
	for _, id := range g.IDs() {
		assert.NotSame(t, incoming.Get(id), g.Get(id), id)
	}

	g.AddInstallation(incoming.Get("B"), incoming)
	assert.Equal(t, 3, g.Len())

	g.Resolve(diag)
	require.Zero(t, diag.ErrorCount(), diag.Errors())
	requireBackEdges(t, g)
}

func TestFromDependencyTreeReusesInstalledSubGraphAsCopy(t *testing.T) {
	diag := newTestDiagnostics(t)
	a := pkg("A", "1.0.0", dep("B", ""))
	b := pkg("B", "1.0.0", dep("C", ""))
	c := pkg("C", "1.0.0")
	installed := installedGraph(t, diag, []types.PackageSource{a, b, c}, "A")
	require.Zero(t, diag.ErrorCount(), diag.Errors())

	repo := map[string]types.PackageSource{"A": a, "B": b, "C": c}
	incoming := FromDependencyTree(installed, buildTree(a, repo, ""), TreeOptions{Validate: true}, diag)
	require.Zero(t, diag.ErrorCount(), diag.Errors())

	assert.ElementsMatch(t, []string{"A", "B", "C"}, incoming.IDs())
	for _, id := range incoming.IDs() {
		assert.NotSame(t, installed.Get(id), incoming.Get(id), id)
	}
	requireBackEdges(t, incoming)

	incoming.Get("C").addDependent("Z")
	assert.Equal(t, []string{"B"}, installed.Get("C").DependentIDs())
}
