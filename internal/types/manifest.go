package types

import (
	"path/filepath"
	"strings"
)

type AppIdentity struct {
	Group   string `yaml:"group,omitempty"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type AppInfo struct {
	ID    AppIdentity `yaml:"id"`
	Title string      `yaml:"title,omitempty"`
}

// DependencyDecl is one entry of a manifest's dependency list. Version is
// the range text the declaring app requires of the dependency.
type DependencyDecl struct {
	ID       string   `yaml:"id"`
	Version  string   `yaml:"version"`
	Package  string   `yaml:"package,omitempty"`
	Optional bool     `yaml:"optional,omitempty"`
	TargetOS []string `yaml:"targetOS,omitempty"`
}

// InputGroupDecl names the inputs that make up a group and the input
// groups it requires of each dependency.
type InputGroupDecl struct {
	Inputs   []string            `yaml:"inputs,omitempty"`
	Requires map[string][]string `yaml:"requires,omitempty"`
}

type Manifest struct {
	SchemaVersion        string                    `yaml:"schemaVersion"`
	Info                 AppInfo                   `yaml:"info"`
	Dependencies         []DependencyDecl          `yaml:"dependencies,omitempty"`
	IncompatibleApps     map[string]string         `yaml:"incompatibleApps,omitempty"`
	InputGroups          map[string]InputGroupDecl `yaml:"inputGroups,omitempty"`
	SupportedDeployments []Workload                `yaml:"supportedDeployments,omitempty"`
}

// Dependency returns the declaration for id, if any.
func (m Manifest) Dependency(id string) (DependencyDecl, bool) {
	for _, decl := range m.Dependencies {
		if decl.ID == id {
			return decl, true
		}
	}
	return DependencyDecl{}, false
}

// PackageSource is a package descriptor: the physical package location and
// the manifest extracted from it.
type PackageSource struct {
	Package  string
	Manifest Manifest
}

// ID returns the application id, "group-name" or just "name".
func (s PackageSource) ID() string {
	return AppID(s.Manifest.Info.ID.Group, s.Manifest.Info.ID.Name)
}

func (s PackageSource) Version() string {
	return s.Manifest.Info.ID.Version
}

func (s PackageSource) QualifiedID() string {
	return s.ID() + ":" + s.Version()
}

// Basename is the package file name as persisted in installation records.
func (s PackageSource) Basename() string {
	return filepath.Base(s.Package)
}

// AppID joins the optional group and the required name.
func AppID(group string, name string) string {
	group = strings.TrimSpace(group)
	name = strings.TrimSpace(name)
	if group == "" {
		return name
	}
	return group + "-" + name
}
