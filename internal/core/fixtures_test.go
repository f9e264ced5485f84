package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"app-packager/internal/types"
)

const testRoleClass = types.RoleClassIndexers

type testPackages map[string]types.PackageSource

func newTestPackages(sources ...types.PackageSource) testPackages {
	out := testPackages{}
	for _, source := range sources {
		out[source.Basename()] = source
	}
	return out
}

func (p testPackages) Load(ref string) (types.PackageSource, error) {
	source, ok := p[ref]
	if !ok {
		return types.PackageSource{}, fmt.Errorf("package %s not found", ref)
	}
	return source, nil
}

func (p testPackages) Versions(id string) ([]types.PackageSource, error) {
	var out []types.PackageSource
	for _, source := range p {
		if source.ID() == id {
			out = append(out, source)
		}
	}
	return out, nil
}

// testTrees builds dependency trees from a fixed id to package mapping.
type testTrees map[string]types.PackageSource

func (tr testTrees) Build(root types.PackageSource, targetOS string) (types.DependencyTree, error) {
	return buildTree(root, tr, targetOS), nil
}

type testPayload struct {
	updates map[string][]types.Changeset
}

func newTestPayload() *testPayload {
	return &testPayload{updates: map[string][]types.Changeset{}}
}

func (p *testPayload) AddGraphUpdate(roleClass string, changeset types.Changeset) {
	p.updates[roleClass] = append(p.updates[roleClass], changeset)
}

func dep(id string, versionRange string) types.DependencyDecl {
	return types.DependencyDecl{ID: id, Version: versionRange}
}

func optionalDep(id string, versionRange string) types.DependencyDecl {
	return types.DependencyDecl{ID: id, Version: versionRange, Optional: true}
}

func pkg(id string, version string, deps ...types.DependencyDecl) types.PackageSource {
	return types.PackageSource{
		Package: fmt.Sprintf("/repo/%s-%s.tgz", id, version),
		Manifest: types.Manifest{
			SchemaVersion: "2.0.0",
			Info:          types.AppInfo{ID: types.AppIdentity{Name: id, Version: version}},
			Dependencies:  deps,
		},
	}
}

// buildTree walks repo depth first from root the way a dependency tree
// provider does, listing every app once in pre-order.
func buildTree(root types.PackageSource, repo map[string]types.PackageSource, targetOS string) types.DependencyTree {
	tree := types.DependencyTree{Root: root}
	dependents := map[string][]types.TreeDependent{}
	index := map[string]int{}

	var walk func(source types.PackageSource)
	walk = func(source types.PackageSource) {
		id := source.ID()
		if _, ok := index[id]; ok {
			return
		}
		visit := types.TreeVisit{Source: source}
		for _, decl := range DependenciesForTargetOS(source.Manifest, targetOS) {
			if decl.Optional {
				continue
			}
			dependency, ok := repo[decl.ID]
			if !ok {
				continue
			}
			visit.Dependencies = append(visit.Dependencies, dependency)
			dependents[decl.ID] = append(dependents[decl.ID], types.TreeDependent{ID: id, VersionRange: decl.Version})
		}
		index[id] = len(tree.Visits)
		tree.Visits = append(tree.Visits, visit)
		for _, dependency := range visit.Dependencies {
			walk(dependency)
		}
	}
	walk(root)

	for id, i := range index {
		tree.Visits[i].Dependents = dependents[id]
	}
	return tree
}

// installedGraph persists sources as records, deriving dependents from the
// forced dependencies, and loads them back through LoadGraph.
func installedGraph(t *testing.T, diag *Diagnostics, sources []types.PackageSource, roots ...string) *Graph {
	t.Helper()
	rootSet := map[string]bool{}
	for _, id := range roots {
		rootSet[id] = true
	}
	dependents := map[string][]string{}
	for _, source := range sources {
		for _, decl := range source.Manifest.Dependencies {
			if !decl.Optional {
				dependents[decl.ID] = append(dependents[decl.ID], source.ID())
			}
		}
	}
	records := types.NewAppRecords()
	for _, source := range sources {
		record := types.InstallationRecord{
			Dependents: dependents[source.ID()],
			IsRoot:     rootSet[source.ID()],
			Source:     source.Basename(),
			Version:    source.Version(),
		}
		for _, decl := range source.Manifest.Dependencies {
			if decl.Optional {
				record.OptionalDependencies = append(record.OptionalDependencies, decl.ID)
				continue
			}
			record.Dependencies = append(record.Dependencies, decl.ID)
		}
		records.Set(source.ID(), record)
	}
	g := LoadGraph(testRoleClass, records, newTestPackages(sources...), diag)
	require.NotNil(t, g)
	return g
}

func newTestDiagnostics(t *testing.T) *Diagnostics {
	return NewDiagnostics(t.Context())
}
