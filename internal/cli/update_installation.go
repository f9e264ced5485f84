package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"app-packager/internal/app"
	"app-packager/internal/shared"
)

type updateInstallationOptions struct {
	Installation                      string
	Repository                        string
	OutputDir                         string
	Action                            string
	Package                           string
	AppID                             string
	CombineSearchHeadIndexerWorkloads bool
	ForwarderWorkloads                []string
	TargetOS                          string
	IsExternal                        bool
	DisableAutomaticResolution        bool
	MetricsFile                       string
}

func newUpdateInstallationCommand() *cobra.Command {
	opts := updateInstallationOptions{}
	cmd := &cobra.Command{
		Use:   "update-installation",
		Short: "Add, set, update or remove an app in the installation graph",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpdateInstallation(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Installation, "installation", "installation.json", "Installation graph file")
	cmd.Flags().StringVar(&opts.Repository, "repository", "", "App package repository directory")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().StringVar(&opts.Action, "action", "", "Installation action (add, set, update, remove)")
	cmd.Flags().StringVar(&opts.Package, "package", "", "App package path or file name")
	cmd.Flags().StringVar(&opts.AppID, "id", "", "App id (remove)")
	cmd.Flags().BoolVar(&opts.CombineSearchHeadIndexerWorkloads, "combine-search-head-indexer-workloads", false, "Install to search heads and indexers when either is supported")
	cmd.Flags().StringArrayVar(&opts.ForwarderWorkloads, "forwarder-workloads", nil, "Input group role classes as group=pattern[,pattern]")
	cmd.Flags().StringVar(&opts.TargetOS, "target-os", "", "Target OS for OS-specific dependencies (* for all)")
	cmd.Flags().BoolVar(&opts.IsExternal, "is-external", false, "Mark the app as managed outside this installation")
	cmd.Flags().BoolVar(&opts.DisableAutomaticResolution, "disable-automatic-resolution", false, "Report required dependency updates as conflicts")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Prometheus textfile to write invocation metrics to")

	_ = viper.BindPFlag("installation", cmd.Flags().Lookup("installation"))
	_ = viper.BindPFlag("repository", cmd.Flags().Lookup("repository"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("target_os", cmd.Flags().Lookup("target-os"))
	_ = viper.BindPFlag("disable_automatic_resolution", cmd.Flags().Lookup("disable-automatic-resolution"))
	_ = viper.BindPFlag("metrics_file", cmd.Flags().Lookup("metrics-file"))

	return cmd
}

func runUpdateInstallation(ctx context.Context, cmd *cobra.Command, opts updateInstallationOptions) error {
	workloads, err := parseWorkloads(opts.ForwarderWorkloads)
	if err != nil {
		return err
	}
	service := newAppService()
	result, err := service.UpdateInstallation(ctx, app.UpdateInstallationRequest{
		InstallationPath: resolveString(cmd, opts.Installation, "installation", "installation"),
		RepositoryDir:    resolveString(cmd, opts.Repository, "repository", "repository"),
		OutputDir:        resolveString(cmd, opts.OutputDir, "output", "output"),
		MetricsFile:      resolveString(cmd, opts.MetricsFile, "metrics_file", "metrics-file"),
		Actions: []app.ActionRequest{{
			Kind:                              opts.Action,
			AppID:                             opts.AppID,
			AppPackage:                        opts.Package,
			IsExternal:                        opts.IsExternal,
			CombineSearchHeadIndexerWorkloads: opts.CombineSearchHeadIndexerWorkloads,
			Workloads:                         workloads,
			TargetOS:                          resolveString(cmd, opts.TargetOS, "target_os", "target-os"),
		}},
		DisableAutomaticResolution: resolveBool(cmd, opts.DisableAutomaticResolution, "disable_automatic_resolution", "disable-automatic-resolution"),
	})
	if err != nil {
		if result.PayloadPath != "" {
			fmt.Printf("payload: %s\n", result.PayloadPath)
		}
		return err
	}

	fmt.Printf("status: %s (invocation %s)\n", result.Status, result.InvocationID)
	roleClasses := lo.Keys(result.Updates)
	sort.Strings(roleClasses)
	for _, name := range roleClasses {
		changeset := result.Updates[name]
		fmt.Printf("- %s: %d added, %d updated, %d removed\n", name, len(changeset.Add), len(changeset.Update), len(changeset.Remove))
	}
	fmt.Printf("installation: %s\n", result.OutputPath)
	fmt.Printf("payload: %s\n", result.PayloadPath)
	return nil
}

// parseWorkloads reads group=pattern[,pattern] entries into the input
// group to role class pattern mapping.
func parseWorkloads(entries []string) (map[string][]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := map[string][]string{}
	for _, entry := range entries {
		group, patterns, ok := strings.Cut(entry, "=")
		group = strings.TrimSpace(group)
		if !ok || group == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("forwarder workload %q must look like group=pattern", entry))
		}
		out[group] = append(out[group], shared.SplitList([]string{patterns})...)
	}
	return out, nil
}
