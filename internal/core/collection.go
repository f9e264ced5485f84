package core

import (
	"errors"
	"fmt"
	"sort"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gobwas/glob"
	"github.com/samber/lo"

	"app-packager/internal/ports"
	"app-packager/internal/types"
)

// RoleClass is a named deployment target and its installation graph.
type RoleClass struct {
	Name      string
	Workloads []types.Workload
	Graph     *Graph
}

// Collection holds the installation graph of every role class and applies
// installation actions to them one role class at a time.
type Collection struct {
	roleClasses []*RoleClass
	packages    ports.PackageProviderPort
	trees       ports.DependencyTreePort
	payload     ports.PayloadPort

	// Validate checks requested versions against installed version ranges
	// while building incoming graphs.
	Validate bool
}

// DefaultRoleClasses returns one empty role class per workload.
func DefaultRoleClasses() []types.RoleClassRecord {
	return []types.RoleClassRecord{
		{Name: types.RoleClassSearchHeads, Workload: []types.Workload{types.WorkloadSearchHead}, Apps: types.NewAppRecords()},
		{Name: types.RoleClassIndexers, Workload: []types.Workload{types.WorkloadIndexer}, Apps: types.NewAppRecords()},
		{Name: types.RoleClassForwarders, Workload: []types.Workload{types.WorkloadForwarder}, Apps: types.NewAppRecords()},
	}
}

// LoadCollection builds and resolves the graph of every role class in
// file. An empty file yields the default role classes.
func LoadCollection(file types.InstallationFile, packages ports.PackageProviderPort, trees ports.DependencyTreePort, payload ports.PayloadPort, diag *Diagnostics) *Collection {
	records := file.ServerClasses
	if len(records) == 0 {
		records = DefaultRoleClasses()
	}
	c := &Collection{
		packages: packages,
		trees:    trees,
		payload:  payload,
		Validate: true,
	}
	seen := map[string]struct{}{}
	for _, record := range records {
		assert.NotEmpty(diag.Context(), record.Name, "role class name must be set")
		if _, ok := seen[record.Name]; ok {
			diag.Errorf("Duplicate role class %s", record.Name)
			continue
		}
		seen[record.Name] = struct{}{}
		c.roleClasses = append(c.roleClasses, &RoleClass{
			Name:      record.Name,
			Workloads: append([]types.Workload(nil), record.Workload...),
			Graph:     LoadGraph(record.Name, record.Apps, packages, diag),
		})
	}
	return c
}

func (c *Collection) RoleClasses() []*RoleClass {
	return append([]*RoleClass(nil), c.roleClasses...)
}

func (c *Collection) RoleClass(name string) *RoleClass {
	for _, rc := range c.roleClasses {
		if rc.Name == name {
			return rc
		}
	}
	return nil
}

// Apply performs one installation action on every role class it targets.
// Graph problems are reported to diag; the returned error is reserved for
// failures to read packages or build dependency trees.
func (c *Collection) Apply(action InstallationAction, disableAutomaticResolution bool, diag *Diagnostics) error {
	diag.Infof("Applying installation action: %s", action)
	args := action.Args()
	if action.Kind() == types.ActionRemove {
		c.remove(args.AppID, diag)
		return nil
	}

	source, err := c.packages.Load(args.AppPackage)
	if err != nil {
		return err
	}
	tree, err := c.trees.Build(source, args.TargetOS)
	if err != nil {
		if errbuilder.CodeOf(err) != errbuilder.CodeNotFound {
			return err
		}
		diag.Conflictf(types.StatusConflict, "Cannot install %s: %s", source.QualifiedID(), errorText(err))
		return nil
	}
	selector, err := newWorkloadSelector(args.Workloads)
	if err != nil {
		return err
	}

	targets := c.targets(source, args.CombineSearchHeadIndexerWorkloads)
	if action.Kind() == types.ActionUpdate {
		targets = lo.Filter(c.roleClasses, func(rc *RoleClass, _ int) bool {
			return rc.Graph.Has(source.ID())
		})
		if len(targets) == 0 {
			diag.Errorf("Cannot update %s because it is not installed", source.ID())
			return nil
		}
	}
	if len(targets) == 0 {
		diag.Warnf("%s does not support any of the role classes in the installation", source.QualifiedID())
		return nil
	}

	opts := TreeOptions{
		TargetOS:   args.TargetOS,
		Validate:   c.Validate,
		IsExternal: args.IsExternal,
	}
	for _, rc := range targets {
		incoming := FromDependencyTree(rc.Graph, tree, opts, diag)
		if incoming.Len() == 0 {
			continue
		}
		rc.Graph.Update(incoming, disableAutomaticResolution, c.payload, diag)
		if selector != nil {
			exact := action.Kind() == types.ActionSet
			selector.apply(rc, source, exact, diag)
		}
	}
	return nil
}

func (c *Collection) remove(id string, diag *Diagnostics) {
	found := false
	for _, rc := range c.roleClasses {
		installation := rc.Graph.Get(id)
		if installation == nil {
			continue
		}
		found = true
		rc.Graph.RemoveInstallation(installation, c.payload, diag)
	}
	if !found {
		diag.Errorf("Cannot remove %s because it is not installed", id)
	}
}

// targets selects the role classes whose workloads the package supports.
// A package without supported deployments, or with the wildcard, goes to
// every role class.
func (c *Collection) targets(source types.PackageSource, combine bool) []*RoleClass {
	supported := mapset.NewSet(source.Manifest.SupportedDeployments...)
	all := supported.Cardinality() == 0 || supported.Contains(types.WorkloadAny)
	if combine && supported.ContainsAny(types.WorkloadSearchHead, types.WorkloadIndexer) {
		supported.Append(types.WorkloadSearchHead, types.WorkloadIndexer)
	}
	return lo.Filter(c.roleClasses, func(rc *RoleClass, _ int) bool {
		return all || supported.ContainsAny(rc.Workloads...)
	})
}

// Reload resolves every graph again. It is the validation pass run once
// all actions have been applied.
func (c *Collection) Reload(diag *Diagnostics) {
	for _, rc := range c.roleClasses {
		rc.Graph.Resolve(diag)
	}
}

// File returns the persisted form of the collection.
func (c *Collection) File() types.InstallationFile {
	file := types.InstallationFile{}
	for _, rc := range c.roleClasses {
		file.ServerClasses = append(file.ServerClasses, types.RoleClassRecord{
			Name:     rc.Name,
			Workload: append([]types.Workload(nil), rc.Workloads...),
			Apps:     rc.Graph.Records(),
		})
	}
	return file
}

// workloadSelector maps input groups onto the role classes whose names
// match the group's patterns.
type workloadSelector struct {
	groups   []string
	patterns map[string][]glob.Glob
}

func newWorkloadSelector(workloads map[string][]string) (*workloadSelector, error) {
	if len(workloads) == 0 {
		return nil, nil
	}
	s := &workloadSelector{patterns: map[string][]glob.Glob{}}
	for group, patterns := range workloads {
		for _, pattern := range patterns {
			compiled, err := glob.Compile(pattern)
			if err != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("invalid role class pattern %q for input group %s", pattern, group)).
					WithCause(err)
			}
			s.patterns[group] = append(s.patterns[group], compiled)
		}
		s.groups = append(s.groups, group)
	}
	sort.Strings(s.groups)
	return s, nil
}

func (s *workloadSelector) selected(roleClass string) []string {
	return lo.Filter(s.groups, func(group string, _ int) bool {
		return lo.SomeBy(s.patterns[group], func(g glob.Glob) bool {
			return g.Match(roleClass)
		})
	})
}

// apply records the input groups the root app requires of itself and of
// its dependencies in rc. With exact set, the selection replaces what the
// root previously required across its closure; otherwise it is added.
func (s *workloadSelector) apply(rc *RoleClass, source types.PackageSource, exact bool, diag *Diagnostics) {
	rootID := source.ID()
	root := rc.Graph.Get(rootID)
	if root == nil {
		return
	}
	groups := s.selected(rc.Name)
	for _, group := range groups {
		if _, ok := source.Manifest.InputGroups[group]; !ok {
			diag.Warnf("Input group %s is not defined by %s", group, source.QualifiedID())
		}
	}

	required := map[string][]string{rootID: groups}
	for _, group := range groups {
		for dependencyID, names := range source.Manifest.InputGroups[group].Requires {
			required[dependencyID] = append(required[dependencyID], names...)
		}
	}
	if exact {
		for _, installation := range rc.Graph.Describe(root) {
			if _, ok := required[installation.ID()]; !ok {
				installation.UpdateInputGroups(rootID, nil)
			}
		}
	}
	for id, names := range required {
		installation := rc.Graph.Get(id)
		if installation == nil {
			continue
		}
		if !exact {
			names = append(names, installation.InputGroupsOf(rootID)...)
		}
		installation.UpdateInputGroups(rootID, lo.Uniq(names))
	}
}

func errorText(err error) string {
	var built *errbuilder.ErrBuilder
	if errors.As(err, &built) && built.Msg != "" {
		return built.Msg
	}
	return err.Error()
}
