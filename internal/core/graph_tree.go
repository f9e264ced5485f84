package core

import (
	"github.com/rs/zerolog/log"

	"app-packager/internal/types"
)

// TreeOptions controls how FromDependencyTree treats apps that are
// already installed.
type TreeOptions struct {
	TargetOS   string
	Validate   bool
	IsExternal bool
}

// FromDependencyTree builds a new graph for the root of tree against the
// installed graph, which it never modifies.
//
// An installed app that the tree asks for at the same version, or whose
// version satisfies every dependent in the tree, is reused together with
// its installed sub-graph. Otherwise, when validating, the requested
// version must satisfy the installed version range; a mismatch is
// reported and that branch is pruned so the rest of the tree is still
// explored.
func FromDependencyTree(installed *Graph, tree types.DependencyTree, opts TreeOptions, diag *Diagnostics) *Graph {
	g := NewGraph(installed.roleClass)
	rootID := tree.Root.ID()

	rootVersion, err := ParseVersion(tree.Root.Version())
	if err != nil {
		diag.Errorf("Cannot install %s to %s: %v", tree.Root.QualifiedID(), installed.roleClass, err)
		return g
	}

	if current := installed.Get(rootID); current != nil {
		if current.version.Equal(rootVersion) {
			g.AddInstallation(current, installed)
			root := g.Get(rootID)
			root.isRoot = true
			root.isExternal = opts.IsExternal
			g.finish(diag)
			return g
		}
		if opts.Validate && !current.versionRange.Match(rootVersion) {
			diag.Conflictf(types.StatusConflict,
				"Cannot install %s to %s because its version number does not match %s as required by the installation",
				tree.Root.QualifiedID(), installed.roleClass, current.versionRange)
			return g
		}
	}

	reachable := map[string]struct{}{rootID: {}}
	deferred := map[string]types.TreeVisit{}

	var visit func(v types.TreeVisit)
	var reach func(id string)

	reach = func(id string) {
		if _, ok := reachable[id]; ok {
			return
		}
		reachable[id] = struct{}{}
		if pending, ok := deferred[id]; ok {
			delete(deferred, id)
			visit(pending)
		}
	}

	visit = func(v types.TreeVisit) {
		id := v.Source.ID()
		if g.Has(id) {
			return
		}
		isRoot, isExternal := false, false
		if id == rootID {
			isRoot, isExternal = true, opts.IsExternal
		} else if current := installed.Get(id); current != nil {
			requested, err := ParseVersion(v.Source.Version())
			if err != nil {
				diag.Errorf("Cannot install %s to %s: %v", v.Source.QualifiedID(), installed.roleClass, err)
				return
			}
			if current.version.Equal(requested) || g.treeDependentsAccept(v, current.version, diag) {
				g.AddInstallation(current, installed)
				return
			}
			if opts.Validate && !current.versionRange.Match(requested) {
				diag.Conflictf(types.StatusConflict,
					"Cannot install %s to %s because a version in this range is required by the installation: %s",
					v.Source.QualifiedID(), installed.roleClass, current.versionRange)
				return
			}
			isRoot, isExternal = current.isRoot, current.isExternal
		}

		installation, err := NewInstallationFromSource(v.Source, opts.TargetOS)
		if err != nil {
			diag.Errorf("Cannot install %s to %s: %v", v.Source.QualifiedID(), installed.roleClass, err)
			return
		}
		installation.isRoot = isRoot
		installation.isExternal = isExternal
		g.set(installation)
		for _, dependency := range v.Dependencies {
			reach(dependency.ID())
		}
	}

	for _, v := range tree.Visits {
		if _, ok := reachable[v.Source.ID()]; ok {
			visit(v)
			continue
		}
		deferred[v.Source.ID()] = v
	}

	g.finish(diag)
	return g
}

// treeDependentsAccept reports whether version satisfies the range every
// dependent in the tree declares for the visited app.
func (g *Graph) treeDependentsAccept(v types.TreeVisit, version Version, diag *Diagnostics) bool {
	if len(v.Dependents) == 0 {
		return false
	}
	var ranges []RangeSpec
	for _, dependent := range v.Dependents {
		parsed, err := g.ranges.parse(dependent.VersionRange)
		if err != nil {
			diag.Errorf("Invalid version range %q declared by %s for %s: %v",
				dependent.VersionRange, dependent.ID, v.Source.ID(), err)
			return false
		}
		ranges = append(ranges, parsed)
	}
	return Intersect(ranges...).Match(version)
}

// finish promotes optional dependencies that are present in g, wires the
// dependents of every edge and resolves the graph.
func (g *Graph) finish(diag *Diagnostics) {
	for _, installation := range g.Installations() {
		for _, id := range installation.optionalDependencies.Keys() {
			if g.Has(id) {
				installation.addDependencyPlaceholder(id)
			}
		}
	}
	for _, installation := range g.Installations() {
		for _, id := range installation.dependencies.Keys() {
			if dependency := g.Get(id); dependency != nil {
				dependency.addDependent(installation.ID())
			}
		}
	}
	g.Resolve(diag)
	log.Ctx(diag.Context()).Debug().
		Str("role_class", g.roleClass).
		Strs("apps", g.IDs()).
		Msg("installation graph built from dependency tree")
}
