package core

import (
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"

	"app-packager/internal/ports"
	"app-packager/internal/types"
)

// Graph is the installation graph of one role class. It owns every
// Installation by id; edges in either direction are id lookups into it.
type Graph struct {
	roleClass string
	nodes     *orderedMap[*Installation]
	ranges    *rangeCache
}

func NewGraph(roleClass string) *Graph {
	return &Graph{
		roleClass: roleClass,
		nodes:     newOrderedMap[*Installation](),
		ranges:    newRangeCache(),
	}
}

// LoadGraph builds a graph from persisted records and resolves it. Records
// whose package cannot be found, or whose package id differs from the
// record key, are reported and skipped.
func LoadGraph(roleClass string, records types.AppRecords, packages ports.PackageProviderPort, diag *Diagnostics) *Graph {
	assert.NotEmpty(diag.Context(), roleClass, "role class name must be set")
	g := NewGraph(roleClass)
	for _, key := range records.Order {
		record := records.Entries[key]
		source, err := packages.Load(record.Source)
		if err != nil {
			diag.Errorf("Cannot find source package %s for %s in %s: %v", record.Source, key, roleClass, err)
			continue
		}
		installation, err := NewInstallation(source, record)
		if err != nil {
			diag.Errorf("Cannot load %s in %s: %v", key, roleClass, err)
			continue
		}
		if installation.ID() != key {
			diag.Errorf("Expected source for %s, not %s: %s", key, installation.ID(), record.Source)
			continue
		}
		g.nodes.Set(key, installation)
	}
	g.Resolve(diag)
	return g
}

func (g *Graph) RoleClass() string {
	return g.roleClass
}

func (g *Graph) Get(id string) *Installation {
	installation, _ := g.nodes.Get(id)
	return installation
}

func (g *Graph) Has(id string) bool {
	return g.nodes.Has(id)
}

func (g *Graph) Len() int {
	return g.nodes.Len()
}

// IDs returns the app ids in graph order.
func (g *Graph) IDs() []string {
	return g.nodes.Keys()
}

func (g *Graph) Installations() []*Installation {
	out := make([]*Installation, 0, g.nodes.Len())
	for _, id := range g.nodes.Keys() {
		out = append(out, g.Get(id))
	}
	return out
}

func (g *Graph) set(installation *Installation) {
	g.nodes.Set(installation.ID(), installation)
}

func (g *Graph) delete(id string) {
	g.nodes.Delete(id)
}

// Resolve wires every dependency edge, then every dependent and version
// range, and finally checks the graph for cycles. Dependents are resolved
// in a second pass because a dependent is only known once some other node
// has declared its dependency.
func (g *Graph) Resolve(diag *Diagnostics) {
	for _, installation := range g.Installations() {
		installation.ResolveDependencies(g, diag)
	}
	for _, installation := range g.Installations() {
		installation.ResolveDependents(g, diag)
	}
	if g.IsCyclic() {
		diag.Errorf("Installation graph for %s is cyclic", g.roleClass)
	}
	log.Ctx(diag.Context()).Debug().
		Str("role_class", g.roleClass).
		Int("apps", g.Len()).
		Msg("installation graph resolved")
}

// IsCyclic reports whether any chain of resolved dependency edges returns
// to its start.
func (g *Graph) IsCyclic() bool {
	visited := map[string]struct{}{}
	onPath := map[string]struct{}{}

	var visit func(n *Installation) bool
	visit = func(n *Installation) bool {
		id := n.ID()
		if _, ok := visited[id]; ok {
			return false
		}
		onPath[id] = struct{}{}
		for _, dependencyID := range n.dependencies.Keys() {
			edge, _ := n.dependencies.Get(dependencyID)
			if edge == nil {
				continue
			}
			if _, ok := onPath[dependencyID]; ok {
				return true
			}
			target := edge.Installation(g)
			if target == nil {
				continue
			}
			if visit(target) {
				return true
			}
		}
		delete(onPath, id)
		visited[id] = struct{}{}
		return false
	}

	for _, installation := range g.Installations() {
		if visit(installation) {
			return true
		}
	}
	return false
}

// Describe lists installation and every installation it transitively
// depends on, in discovery order, restricted to apps present in g.
func (g *Graph) Describe(installation *Installation) []*Installation {
	if installation == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []*Installation
	queue := []*Installation{installation}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		id := current.ID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if g.Has(id) {
			out = append(out, current)
		}
		for _, dependencyID := range current.dependencies.Keys() {
			if target := g.Get(dependencyID); target != nil {
				queue = append(queue, target)
			}
		}
	}
	return out
}

// Records returns the persisted form of g in graph order.
func (g *Graph) Records() types.AppRecords {
	records := types.NewAppRecords()
	for _, installation := range g.Installations() {
		records.Set(installation.ID(), installation.Record())
	}
	return records
}

func (g *Graph) String() string {
	ids := make([]string, 0, g.Len())
	for _, installation := range g.Installations() {
		ids = append(ids, installation.QualifiedID())
	}
	return "Graph(" + g.roleClass + ", [" + strings.Join(ids, ", ") + "])"
}
