package ports

import "app-packager/internal/types"

type GraphStorePort interface {
	Load(path string) (types.InstallationFile, error)
	Save(path string, file types.InstallationFile) error
}
