package ports

import "app-packager/internal/types"

// PackageProviderPort exposes package descriptors from an app repository.
type PackageProviderPort interface {
	// Load returns the descriptor for a package path or basename.
	Load(ref string) (types.PackageSource, error)

	// Versions returns every known package of an app id, highest version
	// first.
	Versions(id string) ([]types.PackageSource, error)
}
