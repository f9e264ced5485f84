package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"app-packager/internal/adapters"
	"app-packager/internal/core"
)

// Validate loads and resolves an installation graph file without changing
// it.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	installationPath, err := requireValue(req.InstallationPath, "installation graph path")
	if err != nil {
		return ValidateResult{}, err
	}
	repositoryDir, err := requireValue(req.RepositoryDir, "app repository directory")
	if err != nil {
		return ValidateResult{}, err
	}

	file, err := s.Store.Load(installationPath)
	if err != nil {
		return ValidateResult{}, err
	}
	diag := core.NewDiagnostics(ctx)
	collection := core.LoadCollection(file, adapters.NewPackageRepositoryAdapter(repositoryDir), nil, nil, diag)

	result := ValidateResult{
		Status:   diag.Status(),
		Messages: diag.Messages(),
	}
	for _, rc := range collection.RoleClasses() {
		result.RoleClasses = append(result.RoleClasses, ValidateRoleClass{Name: rc.Name, Apps: rc.Graph.Len()})
	}
	if diag.ErrorCount() > 0 {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("installation graph has %d error(s): %s",
				diag.ErrorCount(), strings.Join(diag.Errors(), "; ")))
	}
	return result, nil
}
