package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"app-packager/internal/app"
)

type validateOptions struct {
	Installation string
	Repository   string
}

func newValidateCommand() *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Resolve an installation graph file and report problems",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Installation, "installation", "installation.json", "Installation graph file")
	cmd.Flags().StringVar(&opts.Repository, "repository", "", "App package repository directory")
	_ = viper.BindPFlag("installation", cmd.Flags().Lookup("installation"))
	_ = viper.BindPFlag("repository", cmd.Flags().Lookup("repository"))
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts validateOptions) error {
	service := newAppService()
	result, err := service.Validate(ctx, app.ValidateRequest{
		InstallationPath: resolveString(cmd, opts.Installation, "installation", "installation"),
		RepositoryDir:    resolveString(cmd, opts.Repository, "repository", "repository"),
	})
	for _, message := range result.Messages["ERROR"] {
		fmt.Printf("error: %s\n", message)
	}
	if err != nil {
		return err
	}
	for _, rc := range result.RoleClasses {
		fmt.Printf("- %s: %d apps\n", rc.Name, rc.Apps)
	}
	fmt.Printf("validated: %s\n", result.Status)
	return nil
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringSlice(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
