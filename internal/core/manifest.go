package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"app-packager/internal/types"
)

var knownWorkloads = map[types.Workload]struct{}{
	types.WorkloadSearchHead: {},
	types.WorkloadIndexer:    {},
	types.WorkloadForwarder:  {},
	types.WorkloadAny:        {},
}

// ValidateManifest checks a package manifest field by field and returns
// every problem found. An empty result means the manifest is usable.
func ValidateManifest(manifest types.Manifest) []string {
	var problems []string
	identity := manifest.Info.ID
	if strings.TrimSpace(identity.Name) == "" {
		problems = append(problems, "info.id.name is required")
	}
	if _, err := ParseVersion(identity.Version); err != nil {
		problems = append(problems, fmt.Sprintf("info.id.version %q is not a semantic version", identity.Version))
	}

	declared := map[string]struct{}{}
	for i, decl := range manifest.Dependencies {
		if strings.TrimSpace(decl.ID) == "" {
			problems = append(problems, fmt.Sprintf("dependencies[%d].id is required", i))
			continue
		}
		if _, ok := declared[decl.ID]; ok {
			problems = append(problems, fmt.Sprintf("dependencies[%d].id %s is declared twice", i, decl.ID))
		}
		declared[decl.ID] = struct{}{}
		if _, err := ParseRange(decl.Version); err != nil {
			problems = append(problems, fmt.Sprintf("dependencies[%d].version %q is not a version range", i, decl.Version))
		}
	}

	incompatible := lo.Keys(manifest.IncompatibleApps)
	sort.Strings(incompatible)
	for _, id := range incompatible {
		if _, err := ParseRange(manifest.IncompatibleApps[id]); err != nil {
			problems = append(problems, fmt.Sprintf("incompatibleApps.%s %q is not a version range", id, manifest.IncompatibleApps[id]))
		}
	}

	groups := lo.Keys(manifest.InputGroups)
	sort.Strings(groups)
	for _, name := range groups {
		required := lo.Keys(manifest.InputGroups[name].Requires)
		sort.Strings(required)
		for _, id := range required {
			if _, ok := declared[id]; !ok {
				problems = append(problems, fmt.Sprintf("inputGroups.%s.requires.%s is not a declared dependency", name, id))
			}
		}
	}

	for i, workload := range manifest.SupportedDeployments {
		if _, ok := knownWorkloads[workload]; !ok {
			problems = append(problems, fmt.Sprintf("supportedDeployments[%d] %q is not a known workload", i, workload))
		}
	}
	return problems
}
