package adapters

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"app-packager/internal/ports"
	"app-packager/internal/shared"
	"app-packager/internal/types"
)

// GraphFileAdapter persists the installation of every role class as one
// JSON document.
type GraphFileAdapter struct{}

func NewGraphFileAdapter() GraphFileAdapter {
	return GraphFileAdapter{}
}

// Load reads an installation file. A missing file is an empty
// installation.
func (a GraphFileAdapter) Load(path string) (types.InstallationFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return types.InstallationFile{}, nil
	}
	if err != nil {
		return types.InstallationFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read installation graph %s", path)).
			WithCause(err)
	}
	var file types.InstallationFile
	if err := json.Unmarshal(data, &file); err != nil {
		return types.InstallationFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid installation graph format in %s", path)).
			WithCause(err)
	}
	for i := range file.ServerClasses {
		if file.ServerClasses[i].Apps.Entries == nil {
			file.ServerClasses[i].Apps = types.NewAppRecords()
		}
	}
	return file, nil
}

func (a GraphFileAdapter) Save(path string, file types.InstallationFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode installation graph").
			WithCause(err)
	}
	if err := shared.EnsureParentDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write installation graph %s", path)).
			WithCause(err)
	}
	return nil
}

var _ ports.GraphStorePort = GraphFileAdapter{}
