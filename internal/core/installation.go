package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"app-packager/internal/types"
)

// Installation is one application resolved into a role class graph.
//
// Dependencies maps a dependency id to its edge, or to nil while the id
// is unresolved. Dependents holds the ids of the installations that depend
// on this one; they are back references looked up through the graph.
type Installation struct {
	source     types.PackageSource
	version    Version
	isRoot     bool
	isExternal bool

	dependencies         *orderedMap[*InstallationDependency]
	optionalDependencies *orderedMap[struct{}]
	dependents           *orderedMap[struct{}]
	inputGroups          map[string]mapset.Set[string]
	versionRange         RangeSpec
}

// NewInstallation builds an installation from a persisted record. The
// record version wins over the manifest version when both are present.
func NewInstallation(source types.PackageSource, record types.InstallationRecord) (*Installation, error) {
	versionText := strings.TrimSpace(record.Version)
	if versionText == "" {
		versionText = source.Version()
	}
	version, err := ParseVersion(versionText)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("expected version string for %s, not %q", source.ID(), versionText)).
			WithCause(err)
	}
	installation := newInstallation(source, version)
	installation.isRoot = record.IsRoot
	installation.isExternal = record.IsExternal
	for _, id := range record.Dependencies {
		installation.dependencies.Set(id, nil)
	}
	for _, id := range record.OptionalDependencies {
		installation.optionalDependencies.Set(id, struct{}{})
	}
	for _, id := range record.Dependents {
		installation.dependents.Set(id, struct{}{})
	}
	for name, ids := range record.InputGroups {
		installation.inputGroups[name] = mapset.NewSet(ids...)
	}
	return installation, nil
}

// NewInstallationFromSource builds a fresh installation from a package
// descriptor. Only dependencies declared for targetOS are kept; optional
// dependencies are recorded apart from the forced ones.
func NewInstallationFromSource(source types.PackageSource, targetOS string) (*Installation, error) {
	version, err := ParseVersion(source.Version())
	if err != nil {
		return nil, err
	}
	installation := newInstallation(source, version)
	for _, decl := range DependenciesForTargetOS(source.Manifest, targetOS) {
		if decl.Optional {
			installation.optionalDependencies.Set(decl.ID, struct{}{})
			continue
		}
		installation.dependencies.Set(decl.ID, nil)
	}
	return installation, nil
}

func newInstallation(source types.PackageSource, version Version) *Installation {
	return &Installation{
		source:               source,
		version:              version,
		dependencies:         newOrderedMap[*InstallationDependency](),
		optionalDependencies: newOrderedMap[struct{}](),
		dependents:           newOrderedMap[struct{}](),
		inputGroups:          map[string]mapset.Set[string]{},
	}
}

// clone copies everything but the dependents and resolved edges, which
// belong to the graph the copy is inserted into.
func (n *Installation) clone() *Installation {
	out := newInstallation(n.source, n.version)
	out.isRoot = n.isRoot
	out.isExternal = n.isExternal
	for _, id := range n.dependencies.Keys() {
		out.dependencies.Set(id, nil)
	}
	for _, id := range n.optionalDependencies.Keys() {
		out.optionalDependencies.Set(id, struct{}{})
	}
	for name, ids := range n.inputGroups {
		out.inputGroups[name] = ids.Clone()
	}
	return out
}

func (n *Installation) ID() string {
	return n.source.ID()
}

func (n *Installation) QualifiedID() string {
	return n.ID() + ":" + n.version.String()
}

func (n *Installation) Version() Version {
	return n.version
}

func (n *Installation) Source() types.PackageSource {
	return n.source
}

func (n *Installation) IsRoot() bool {
	return n.isRoot
}

func (n *Installation) IsExternal() bool {
	return n.isExternal
}

func (n *Installation) VersionRange() RangeSpec {
	return n.versionRange
}

// Dependency returns the edge for id; ok is false when id is not a
// dependency and edge is nil when the dependency is unresolved.
func (n *Installation) Dependency(id string) (edge *InstallationDependency, ok bool) {
	return n.dependencies.Get(id)
}

func (n *Installation) DependencyIDs() []string {
	return n.dependencies.Keys()
}

func (n *Installation) OptionalDependencyIDs() []string {
	return n.optionalDependencies.Keys()
}

func (n *Installation) DependentIDs() []string {
	return n.dependents.Keys()
}

func (n *Installation) HasDependent(id string) bool {
	return n.dependents.Has(id)
}

// InputGroups returns the input group names and the app ids requiring
// each, sorted.
func (n *Installation) InputGroups() map[string][]string {
	out := map[string][]string{}
	for name, ids := range n.inputGroups {
		if ids.Cardinality() == 0 {
			continue
		}
		members := ids.ToSlice()
		sort.Strings(members)
		out[name] = members
	}
	return out
}

func (n *Installation) addDependent(id string) {
	n.dependents.Set(id, struct{}{})
}

func (n *Installation) removeDependent(id string) {
	n.dependents.Delete(id)
}

// addDependencyPlaceholder records id as an unresolved dependency unless
// it is already present.
func (n *Installation) addDependencyPlaceholder(id string) {
	if !n.dependencies.Has(id) {
		n.dependencies.Set(id, nil)
	}
}

func (n *Installation) declaredRange(id string) string {
	decl, ok := n.source.Manifest.Dependency(id)
	if !ok {
		return ""
	}
	return decl.Version
}

// ResolveDependencies wires an edge for every dependency present in g and
// makes sure the target lists n as a dependent. Missing ids are reported
// and left unresolved.
func (n *Installation) ResolveDependencies(g *Graph, diag *Diagnostics) {
	for _, id := range n.dependencies.Keys() {
		target := g.Get(id)
		if target == nil {
			diag.Errorf("Cannot resolve dependency for app %s: %s", n.QualifiedID(), id)
			n.dependencies.Set(id, nil)
			continue
		}
		n.dependencies.Set(id, newInstallationDependency(id, n.declaredRange(id)))
		if !target.HasDependent(n.ID()) {
			log.Ctx(diag.Context()).Debug().
				Str("app", id).
				Str("dependent", n.ID()).
				Msg("restoring missing dependent")
			target.addDependent(n.ID())
		}
	}
}

// ResolveDependents checks that every dependent is present in g, then
// recomputes the version range from their declared requirements and
// reports a conflict when the installed version falls outside of it.
func (n *Installation) ResolveDependents(g *Graph, diag *Diagnostics) {
	for _, id := range n.dependents.Keys() {
		if !g.Has(id) {
			diag.Errorf("Cannot resolve dependency on app %s: %s", n.ID(), id)
		}
	}
	if err := n.ResetVersionRange(g); err != nil {
		diag.Errorf("Invalid version range for app %s: %v", n.QualifiedID(), err)
	}
	if n.versionRange.Match(n.version) {
		return
	}
	required := lo.Map(n.VersionConflicts(g), func(c VersionConflict, _ int) string {
		return fmt.Sprintf("%s (required by %s)", c.Range, c.DependentID)
	})
	diag.Conflictf(types.StatusConflict,
		"Invalid dependency %s:%s is outside of required version range(s): %s",
		n.ID(), n.version, strings.Join(required, ", "))
}

// ResetVersionRange recomputes the version range from the current
// dependents only. Ranges that fail to parse are skipped and returned as
// an error after the rest have been applied.
func (n *Installation) ResetVersionRange(g *Graph) error {
	var ranges []RangeSpec
	var bad []string
	for _, text := range n.dependentRanges(g) {
		parsed, err := g.ranges.parse(text.Range)
		if err != nil {
			bad = append(bad, text.Range)
			continue
		}
		ranges = append(ranges, parsed)
	}
	n.versionRange = Intersect(ranges...)
	if len(bad) > 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unparsable range(s): %s", strings.Join(bad, ", ")))
	}
	return nil
}

// VersionConflict is one dependent whose declared range excludes the
// installed version.
type VersionConflict struct {
	DependentID string
	Range       string
}

// VersionConflicts lists the dependents whose requirement is not met by
// the installed version.
func (n *Installation) VersionConflicts(g *Graph) []VersionConflict {
	var out []VersionConflict
	for _, c := range n.dependentRanges(g) {
		parsed, err := g.ranges.parse(c.Range)
		if err != nil || !parsed.Match(n.version) {
			out = append(out, c)
		}
	}
	return out
}

func (n *Installation) dependentRanges(g *Graph) []VersionConflict {
	var out []VersionConflict
	id := n.ID()
	for _, dependentID := range n.dependents.Keys() {
		dependent := g.Get(dependentID)
		if dependent == nil {
			continue
		}
		edge, ok := dependent.dependencies.Get(id)
		if !ok {
			continue
		}
		text := dependent.declaredRange(id)
		if edge != nil {
			text = edge.versionRange
		}
		out = append(out, VersionConflict{DependentID: dependentID, Range: text})
	}
	return out
}

// UpdateInputGroups makes groups the exact set of input groups appID
// requires of this installation. Groups left without members are dropped.
func (n *Installation) UpdateInputGroups(appID string, groups []string) {
	wanted := mapset.NewSet(groups...)
	for name, ids := range n.inputGroups {
		if ids.Contains(appID) && !wanted.Contains(name) {
			ids.Remove(appID)
			if ids.Cardinality() == 0 {
				delete(n.inputGroups, name)
			}
		}
	}
	for _, name := range groups {
		ids, ok := n.inputGroups[name]
		if !ok {
			ids = mapset.NewSet[string]()
			n.inputGroups[name] = ids
		}
		ids.Add(appID)
	}
}

// InputGroupsOf returns the groups appID currently requires, sorted.
func (n *Installation) InputGroupsOf(appID string) []string {
	var out []string
	for name, ids := range n.inputGroups {
		if ids.Contains(appID) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// MergeInputGroups unions other's input groups into n, group by group.
func (n *Installation) MergeInputGroups(other *Installation) {
	if other == nil || other == n {
		return
	}
	for name, ids := range other.inputGroups {
		existing, ok := n.inputGroups[name]
		if !ok {
			n.inputGroups[name] = ids.Clone()
			continue
		}
		n.inputGroups[name] = existing.Union(ids)
	}
}

// dropInputGroupMember removes appID from every group, dropping groups
// left empty.
func (n *Installation) dropInputGroupMember(appID string) {
	for name, ids := range n.inputGroups {
		ids.Remove(appID)
		if ids.Cardinality() == 0 {
			delete(n.inputGroups, name)
		}
	}
}

// Record returns the persisted form of n.
func (n *Installation) Record() types.InstallationRecord {
	return types.InstallationRecord{
		Dependencies:         n.dependencies.Keys(),
		OptionalDependencies: n.optionalDependencies.Keys(),
		Dependents:           n.dependents.Keys(),
		IsExternal:           n.isExternal,
		IsRoot:               n.isRoot,
		InputGroups:          n.InputGroups(),
		Source:               n.source.Basename(),
		Version:              n.version.String(),
	}
}

func (n *Installation) String() string {
	return n.QualifiedID()
}

// DependenciesForTargetOS filters a manifest's dependencies down to those
// declared for targetOS. The wildcard selects all of them, as does an
// empty target list on the declaration.
func DependenciesForTargetOS(manifest types.Manifest, targetOS string) []types.DependencyDecl {
	if targetOS == "" || targetOS == types.TargetOSWildcard {
		return manifest.Dependencies
	}
	return lo.Filter(manifest.Dependencies, func(decl types.DependencyDecl, _ int) bool {
		if len(decl.TargetOS) == 0 {
			return true
		}
		return lo.Contains(decl.TargetOS, types.TargetOSWildcard) || lo.Contains(decl.TargetOS, targetOS)
	})
}
