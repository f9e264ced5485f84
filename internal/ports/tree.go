package ports

import "app-packager/internal/types"

// DependencyTreePort resolves the dependency closure of a root package
// into a pre-order list of visits.
type DependencyTreePort interface {
	Build(root types.PackageSource, targetOS string) (types.DependencyTree, error)
}
