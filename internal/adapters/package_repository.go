package adapters

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"app-packager/internal/core"
	"app-packager/internal/ports"
	"app-packager/internal/shared"
	"app-packager/internal/types"
)

// PackageRepositoryAdapter serves package descriptors from a directory of
// yaml manifests. A descriptor's basename is its package reference.
type PackageRepositoryAdapter struct {
	Dir    string
	byName map[string]types.PackageSource
	byID   map[string][]types.PackageSource
	loaded bool
}

func NewPackageRepositoryAdapter(dir string) *PackageRepositoryAdapter {
	return &PackageRepositoryAdapter{Dir: dir}
}

// Load returns the descriptor for ref, looked up by basename in the
// repository first and read from ref as a path otherwise.
func (a *PackageRepositoryAdapter) Load(ref string) (types.PackageSource, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return types.PackageSource{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package reference is empty")
	}
	if err := a.load(); err != nil {
		return types.PackageSource{}, err
	}
	if source, ok := a.byName[filepath.Base(ref)]; ok {
		return source, nil
	}
	if _, err := os.Stat(ref); err == nil {
		source, err := readPackage(ref)
		if err != nil {
			return types.PackageSource{}, err
		}
		a.add(source)
		return source, nil
	}
	return types.PackageSource{}, errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("package %s not found in repository %s", ref, a.Dir))
}

// Versions returns every package of id, highest version first.
func (a *PackageRepositoryAdapter) Versions(id string) ([]types.PackageSource, error) {
	if err := a.load(); err != nil {
		return nil, err
	}
	return append([]types.PackageSource(nil), a.byID[id]...), nil
}

func (a *PackageRepositoryAdapter) load() error {
	if a.loaded {
		return nil
	}
	a.byName = map[string]types.PackageSource{}
	a.byID = map[string][]types.PackageSource{}
	a.loaded = true
	if strings.TrimSpace(a.Dir) == "" {
		return nil
	}
	entries, err := os.ReadDir(a.Dir)
	if err != nil {
		a.loaded = false
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package repository %s not found", a.Dir)).
			WithCause(err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !shared.IsManifestFile(entry.Name()) {
			continue
		}
		source, err := readPackage(filepath.Join(a.Dir, entry.Name()))
		if err != nil {
			a.loaded = false
			return err
		}
		a.add(source)
	}
	return nil
}

func (a *PackageRepositoryAdapter) add(source types.PackageSource) {
	a.byName[source.Basename()] = source
	id := source.ID()
	versions := a.byID[id]
	for i, existing := range versions {
		if existing.Basename() == source.Basename() {
			versions = append(versions[:i], versions[i+1:]...)
			break
		}
	}
	versions = append(versions, source)
	sort.SliceStable(versions, func(i, j int) bool {
		left, _ := core.ParseVersion(versions[i].Version())
		right, _ := core.ParseVersion(versions[j].Version())
		return left.Compare(right) > 0
	})
	a.byID[id] = versions
}

// readPackage decodes one manifest strictly and validates it.
func readPackage(path string) (types.PackageSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PackageSource{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package %s not found", path)).
			WithCause(err)
	}
	var manifest types.Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil && !errors.Is(err, io.EOF) {
		return types.PackageSource{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to parse package manifest %s", path)).
			WithCause(err)
	}
	if problems := core.ValidateManifest(manifest); len(problems) > 0 {
		return types.PackageSource{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid package manifest %s: %s", path, strings.Join(problems, "; ")))
	}
	return types.PackageSource{Package: path, Manifest: manifest}, nil
}

var _ ports.PackageProviderPort = (*PackageRepositoryAdapter)(nil)
