package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"app-packager/internal/app"
)

type describeOptions struct {
	Installation string
	Repository   string
	AppID        string
}

func newDescribeCommand() *cobra.Command {
	opts := describeOptions{}
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show an installed app and its dependencies per role class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDescribe(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Installation, "installation", "installation.json", "Installation graph file")
	cmd.Flags().StringVar(&opts.Repository, "repository", "", "App package repository directory")
	cmd.Flags().StringVar(&opts.AppID, "id", "", "App id")
	_ = viper.BindPFlag("installation", cmd.Flags().Lookup("installation"))
	_ = viper.BindPFlag("repository", cmd.Flags().Lookup("repository"))
	return cmd
}

func runDescribe(ctx context.Context, cmd *cobra.Command, opts describeOptions) error {
	service := newAppService()
	result, err := service.Describe(ctx, app.DescribeRequest{
		InstallationPath: resolveString(cmd, opts.Installation, "installation", "installation"),
		RepositoryDir:    resolveString(cmd, opts.Repository, "repository", "repository"),
		AppID:            opts.AppID,
	})
	if err != nil {
		return err
	}
	for _, rc := range result.RoleClasses {
		fmt.Printf("%s:\n", rc.Name)
		for _, installed := range rc.Apps {
			flags := ""
			if installed.IsRoot {
				flags += " root"
			}
			if installed.IsExternal {
				flags += " external"
			}
			fmt.Printf("- %s %s%s\n", installed.ID, installed.Version, flags)
			if len(installed.Dependencies) > 0 {
				fmt.Printf("  depends on: %s\n", strings.Join(installed.Dependencies, ", "))
			}
		}
	}
	return nil
}
