package core

import (
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"app-packager/internal/ports"
	"app-packager/internal/types"
)

// AddInstallation inserts a copy of installation and of every app of from
// it depends on, directly or not. Apps already present in g are not
// descended into, so shared and cyclic sub-graphs are visited once. The
// copies carry unresolved edges until g is resolved.
func (g *Graph) AddInstallation(installation *Installation, from *Graph) {
	stack := []*Installation{installation}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if g.Has(current.ID()) {
			continue
		}
		g.set(current.clone())
		for _, id := range current.dependencies.Keys() {
			if target := from.Get(id); target != nil {
				stack = append(stack, target)
			}
		}
	}
}

// RemoveInstallation uninstalls target and every dependency left without
// dependents. A dependency that was installed on its own (a root) is kept
// even when its last dependent goes away. Every dependency that stays has
// its version range recomputed from the dependents it has left.
func (g *Graph) RemoveInstallation(target *Installation, payload ports.PayloadPort, diag *Diagnostics) types.Changeset {
	changeset := types.NewChangeset()
	rootID := target.ID()
	queue := []*Installation{target}
	queued := map[string]struct{}{rootID: {}}
	touched := newOrderedMap[struct{}]()

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		id := current.ID()

		if current.dependents.Len() > 0 {
			if id == rootID {
				diag.Warnf("%s is required by %v and is kept", current.QualifiedID(), current.DependentIDs())
			}
			continue
		}
		if id != rootID && current.isRoot {
			continue
		}
		if !g.Has(id) {
			continue
		}

		for _, dependencyID := range current.dependencies.Keys() {
			dependency := g.Get(dependencyID)
			if dependency == nil {
				continue
			}
			dependency.removeDependent(id)
			dependency.dropInputGroupMember(id)
			touched.Set(dependencyID, struct{}{})
			if dependency.dependents.Len() > 0 {
				continue
			}
			if _, ok := queued[dependencyID]; ok {
				continue
			}
			queued[dependencyID] = struct{}{}
			queue = append(queue, dependency)
		}

		g.delete(id)
		changeset.Remove = append(changeset.Remove, id)
	}

	for _, id := range touched.Keys() {
		installation := g.Get(id)
		if installation == nil {
			continue
		}
		if err := installation.ResetVersionRange(g); err != nil {
			diag.Errorf("Invalid version range for app %s: %v", installation.QualifiedID(), err)
		}
	}

	log.Ctx(diag.Context()).Debug().
		Str("role_class", g.roleClass).
		Strs("removed", changeset.Remove).
		Msg("installation removed")
	if payload != nil {
		payload.AddGraphUpdate(g.roleClass, changeset)
	}
	return changeset
}

// Update folds incoming, a graph built by FromDependencyTree, into g.
//
// Incompatibilities are checked in both directions and reported without
// stopping. Optional dependencies of installed apps on an incoming app
// become forced edges. New apps are inserted; installed apps are replaced
// by their incoming version after their edges and input groups have been
// reconciled. A package change is recorded as an update and is reported
// as a conflict when automatic resolution is disabled.
func (g *Graph) Update(incoming *Graph, disableAutomaticResolution bool, payload ports.PayloadPort, diag *Diagnostics) types.Changeset {
	changeset := types.NewChangeset()

	for _, id := range incoming.IDs() {
		updated := incoming.Get(id)

		g.checkCompatibility(updated, diag)
		g.promoteOptionalDependency(updated)

		installed := g.Get(id)
		if installed == nil {
			for _, dependencyID := range updated.dependencies.Keys() {
				if incoming.Has(dependencyID) {
					continue
				}
				if dependency := g.Get(dependencyID); dependency != nil {
					dependency.addDependent(id)
				}
			}
			g.set(updated)
			changeset.Add = append(changeset.Add, id)
			changeset.Packages[id] = updated.source.Basename()
			continue
		}

		if installed != updated {
			for _, dependencyID := range installed.dependencies.Keys() {
				if updated.dependencies.Has(dependencyID) {
					continue
				}
				if dependency := g.Get(dependencyID); dependency != nil {
					dependency.removeDependent(id)
				}
			}
			for _, dependencyID := range updated.dependencies.Keys() {
				if installed.dependencies.Has(dependencyID) {
					continue
				}
				dependency := incoming.Get(dependencyID)
				if dependency == nil {
					dependency = g.Get(dependencyID)
				}
				if dependency != nil {
					dependency.addDependent(id)
				}
			}
			for _, dependentID := range installed.dependents.Keys() {
				updated.addDependent(dependentID)
			}
			updated.MergeInputGroups(installed)
		}

		if installed.source.Basename() != updated.source.Basename() {
			if disableAutomaticResolution {
				diag.Conflictf(types.StatusResolvableConflict,
					"%s needs to be updated to %s to resolve dependency conflicts, but automatic dependency resolution is disabled",
					installed.QualifiedID(), updated.QualifiedID())
			}
			changeset.Update[id] = updated.source.Basename()
		}

		g.set(updated)
	}

	log.Ctx(diag.Context()).Debug().
		Str("role_class", g.roleClass).
		Strs("added", changeset.Add).
		Int("updated", len(changeset.Update)).
		Msg("installation graph updated")
	if payload != nil {
		payload.AddGraphUpdate(g.roleClass, changeset)
	}
	return changeset
}

// checkCompatibility reports installed apps that updated declares
// incompatible, and installed apps that declare updated incompatible.
func (g *Graph) checkCompatibility(updated *Installation, diag *Diagnostics) {
	id := updated.ID()
	incompatible := updated.source.Manifest.IncompatibleApps
	ids := lo.Keys(incompatible)
	sort.Strings(ids)
	for _, incompatibleID := range ids {
		text := incompatible[incompatibleID]
		installed := g.Get(incompatibleID)
		if installed == nil {
			continue
		}
		spec, err := g.ranges.parse(text)
		if err != nil {
			diag.Errorf("Invalid incompatible app range %q declared by %s: %v", text, updated.QualifiedID(), err)
			continue
		}
		if spec.Match(installed.version) {
			diag.Conflictf(types.StatusConflict, "Installed app %s is incompatible with %s",
				installed.QualifiedID(), updated.QualifiedID())
		}
	}
	for _, installed := range g.Installations() {
		if installed.ID() == id {
			continue
		}
		text, ok := installed.source.Manifest.IncompatibleApps[id]
		if !ok {
			continue
		}
		spec, err := g.ranges.parse(text)
		if err != nil {
			diag.Errorf("Invalid incompatible app range %q declared by %s: %v", text, installed.QualifiedID(), err)
			continue
		}
		if spec.Match(updated.version) {
			diag.Conflictf(types.StatusConflict, "%s is incompatible with installed app %s",
				updated.QualifiedID(), installed.QualifiedID())
		}
	}
}

// promoteOptionalDependency turns an installed app's optional dependency
// on updated into a forced edge, with its back edge, now that updated is
// being installed.
func (g *Graph) promoteOptionalDependency(updated *Installation) {
	id := updated.ID()
	for _, installed := range g.Installations() {
		if installed.ID() == id || !installed.optionalDependencies.Has(id) {
			continue
		}
		installed.dependencies.Set(id, newInstallationDependency(id, installed.declaredRange(id)))
		updated.addDependent(installed.ID())
	}
}
