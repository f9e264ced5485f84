package app

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"app-packager/internal/adapters"
	"app-packager/internal/core"
)

// Describe lists an installed app and everything it depends on, per role
// class that has it.
func (s Service) Describe(ctx context.Context, req DescribeRequest) (DescribeResult, error) {
	installationPath, err := requireValue(req.InstallationPath, "installation graph path")
	if err != nil {
		return DescribeResult{}, err
	}
	repositoryDir, err := requireValue(req.RepositoryDir, "app repository directory")
	if err != nil {
		return DescribeResult{}, err
	}
	appID, err := requireValue(req.AppID, "app id")
	if err != nil {
		return DescribeResult{}, err
	}

	file, err := s.Store.Load(installationPath)
	if err != nil {
		return DescribeResult{}, err
	}
	diag := core.NewDiagnostics(ctx)
	collection := core.LoadCollection(file, adapters.NewPackageRepositoryAdapter(repositoryDir), nil, nil, diag)

	result := DescribeResult{AppID: appID}
	for _, rc := range collection.RoleClasses() {
		installation := rc.Graph.Get(appID)
		if installation == nil {
			continue
		}
		described := DescribeRoleClass{Name: rc.Name}
		for _, member := range rc.Graph.Describe(installation) {
			described.Apps = append(described.Apps, DescribedApp{
				ID:           member.ID(),
				Version:      member.Version().String(),
				IsRoot:       member.IsRoot(),
				IsExternal:   member.IsExternal(),
				Dependencies: member.DependencyIDs(),
				InputGroups:  member.InputGroups(),
			})
		}
		result.RoleClasses = append(result.RoleClasses, described)
	}
	if len(result.RoleClasses) == 0 {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("%s is not installed", appID))
	}
	return result, nil
}
