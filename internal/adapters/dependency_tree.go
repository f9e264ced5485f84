package adapters

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"app-packager/internal/core"
	"app-packager/internal/ports"
	"app-packager/internal/types"
)

// DependencyTreeAdapter resolves the dependency closure of a package
// against a package provider, choosing for each dependency the highest
// version that satisfies its declared range.
type DependencyTreeAdapter struct {
	Packages ports.PackageProviderPort
}

func NewDependencyTreeAdapter(packages ports.PackageProviderPort) DependencyTreeAdapter {
	return DependencyTreeAdapter{Packages: packages}
}

// Build walks the closure of root depth first and lists every app once,
// before any of its dependencies. Optional dependencies are not followed.
func (a DependencyTreeAdapter) Build(root types.PackageSource, targetOS string) (types.DependencyTree, error) {
	tree := types.DependencyTree{Root: root}
	index := map[string]int{}
	chosen := map[string]types.PackageSource{root.ID(): root}
	dependents := map[string][]types.TreeDependent{}

	var walk func(source types.PackageSource) error
	walk = func(source types.PackageSource) error {
		id := source.ID()
		if _, ok := index[id]; ok {
			return nil
		}
		i := len(tree.Visits)
		index[id] = i
		tree.Visits = append(tree.Visits, types.TreeVisit{Source: source})

		var dependencies []types.PackageSource
		for _, decl := range core.DependenciesForTargetOS(source.Manifest, targetOS) {
			if decl.Optional {
				continue
			}
			dependency, ok := chosen[decl.ID]
			if !ok {
				var err error
				dependency, err = a.choose(source, decl)
				if err != nil {
					return err
				}
				chosen[decl.ID] = dependency
			}
			dependencies = append(dependencies, dependency)
			dependents[decl.ID] = append(dependents[decl.ID], types.TreeDependent{ID: id, VersionRange: decl.Version})
		}
		tree.Visits[i].Dependencies = dependencies
		for _, dependency := range dependencies {
			if err := walk(dependency); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return types.DependencyTree{}, err
	}

	for id, i := range index {
		tree.Visits[i].Dependents = dependents[id]
	}
	return tree, nil
}

func (a DependencyTreeAdapter) choose(dependent types.PackageSource, decl types.DependencyDecl) (types.PackageSource, error) {
	if decl.Package != "" {
		return a.Packages.Load(decl.Package)
	}
	required, err := core.ParseRange(decl.Version)
	if err != nil {
		return types.PackageSource{}, err
	}
	candidates, err := a.Packages.Versions(decl.ID)
	if err != nil {
		return types.PackageSource{}, err
	}
	for _, candidate := range candidates {
		version, err := core.ParseVersion(candidate.Version())
		if err != nil {
			continue
		}
		if required.Match(version) {
			return candidate, nil
		}
	}
	return types.PackageSource{}, errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("no available versions of %s satisfy %q as required by %s",
			decl.ID, decl.Version, dependent.QualifiedID()))
}

var _ ports.DependencyTreePort = DependencyTreeAdapter{}
