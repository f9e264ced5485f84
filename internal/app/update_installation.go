package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"app-packager/internal/adapters"
	"app-packager/internal/core"
	"app-packager/internal/types"
)

const (
	installationUpdateFile = "installation-update.json"
	payloadFile            = "payload.json"
)

// UpdateInstallation applies every requested action to the installation
// graph file and writes the updated graph and the invocation payload to
// the output directory. The updated graph is only written when no errors
// were reported.
func (s Service) UpdateInstallation(ctx context.Context, req UpdateInstallationRequest) (UpdateInstallationResult, error) {
	installationPath, err := requireValue(req.InstallationPath, "installation graph path")
	if err != nil {
		return UpdateInstallationResult{}, err
	}
	repositoryDir, err := requireValue(req.RepositoryDir, "app repository directory")
	if err != nil {
		return UpdateInstallationResult{}, err
	}
	outputDir, err := requireValue(req.OutputDir, "output directory")
	if err != nil {
		return UpdateInstallationResult{}, err
	}
	actions, err := buildActions(req.Actions)
	if err != nil {
		return UpdateInstallationResult{}, err
	}

	file, err := s.Store.Load(installationPath)
	if err != nil {
		return UpdateInstallationResult{}, err
	}

	packages := adapters.NewPackageRepositoryAdapter(repositoryDir)
	trees := adapters.NewDependencyTreeAdapter(packages)
	payload := adapters.NewPayloadFileAdapter()
	metrics := adapters.NewMetricsTextfileAdapter()
	diag := core.NewDiagnostics(ctx)

	collection := core.LoadCollection(file, packages, trees, payload, diag)
	collection.Validate = false
	for _, action := range actions {
		if err := collection.Apply(action, req.DisableAutomaticResolution, diag); err != nil {
			return UpdateInstallationResult{}, err
		}
	}
	collection.Validate = true
	collection.Reload(diag)

	updates := payload.GraphUpdates()
	roleClasses := lo.Keys(updates)
	sort.Strings(roleClasses)
	for _, roleClass := range roleClasses {
		metrics.ObserveChangeset(roleClass, updates[roleClass])
	}
	metrics.ObserveDiagnostics(diag.ErrorCount(), diag.WarningCount(), diag.Status())

	result := UpdateInstallationResult{
		InvocationID: s.InvocationID(),
		Status:       diag.Status(),
		PayloadPath:  filepath.Join(outputDir, payloadFile),
		Updates:      updates,
		Errors:       diag.ErrorCount(),
		Warnings:     diag.WarningCount(),
	}
	installation := collection.File()
	out := types.Payload{
		InvocationID:             result.InvocationID,
		Status:                   result.Status,
		Messages:                 diag.Messages(),
		InstallationGraphUpdates: updates,
	}
	if diag.ErrorCount() == 0 {
		out.InstallationGraph = &installation
	}
	if err := payload.Write(result.PayloadPath, out); err != nil {
		return result, err
	}
	if err := metrics.Flush(req.MetricsFile); err != nil {
		return result, err
	}

	if diag.ErrorCount() > 0 {
		prefix := "installation update failed"
		if result.Status == types.StatusConflict || result.Status == types.StatusResolvableConflict {
			prefix = fmt.Sprintf("unresolved version conflict (%s)", result.Status)
		}
		return result, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("%s with %d error(s): %s",
				prefix, diag.ErrorCount(), strings.Join(diag.Errors(), "; ")))
	}

	result.OutputPath = filepath.Join(outputDir, installationUpdateFile)
	if err := s.Store.Save(result.OutputPath, installation); err != nil {
		return result, err
	}
	log.Ctx(ctx).Info().
		Str("invocation_id", result.InvocationID).
		Str("status", string(result.Status)).
		Str("output", result.OutputPath).
		Msg("installation updated")
	return result, nil
}

func buildActions(requests []ActionRequest) ([]core.InstallationAction, error) {
	if len(requests) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one installation action is required")
	}
	actions := make([]core.InstallationAction, 0, len(requests))
	for _, request := range requests {
		action, err := core.NewInstallationAction(core.ParseActionKind(request.Kind), types.ActionArgs{
			AppID:                             request.AppID,
			AppPackage:                        request.AppPackage,
			IsExternal:                        request.IsExternal,
			CombineSearchHeadIndexerWorkloads: request.CombineSearchHeadIndexerWorkloads,
			Workloads:                         request.Workloads,
			TargetOS:                          request.TargetOS,
		})
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}
