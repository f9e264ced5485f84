package core

// InstallationDependency is an edge from a dependent installation to the
// installation it depends on. The edge stores the target id only; the
// target is looked up in whichever graph the caller traverses.
type InstallationDependency struct {
	id           string
	versionRange string
}

func newInstallationDependency(id string, versionRange string) *InstallationDependency {
	return &InstallationDependency{id: id, versionRange: versionRange}
}

// ID is the id of the depended-upon app.
func (d *InstallationDependency) ID() string {
	return d.id
}

// VersionRange is the range text declared by the dependent's manifest.
func (d *InstallationDependency) VersionRange() string {
	return d.versionRange
}

func (d *InstallationDependency) Installation(g *Graph) *Installation {
	return g.Get(d.id)
}

func (d *InstallationDependency) Version(g *Graph) Version {
	if target := d.Installation(g); target != nil {
		return target.Version()
	}
	return Version{}
}

func (d *InstallationDependency) Dependencies(g *Graph) []string {
	if target := d.Installation(g); target != nil {
		return target.DependencyIDs()
	}
	return nil
}

func (d *InstallationDependency) Dependents(g *Graph) []string {
	if target := d.Installation(g); target != nil {
		return target.DependentIDs()
	}
	return nil
}

func (d *InstallationDependency) String() string {
	return "InstallationDependency(" + d.id + ", " + d.versionRange + ")"
}
