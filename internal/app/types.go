package app

import "app-packager/internal/types"

// ActionRequest is the raw form of one installation action as given on
// the command line or in a config file.
type ActionRequest struct {
	Kind                              string
	AppID                             string
	AppPackage                        string
	IsExternal                        bool
	CombineSearchHeadIndexerWorkloads bool
	Workloads                         map[string][]string
	TargetOS                          string
}

type UpdateInstallationRequest struct {
	InstallationPath           string
	RepositoryDir              string
	OutputDir                  string
	MetricsFile                string
	Actions                    []ActionRequest
	DisableAutomaticResolution bool
}

type UpdateInstallationResult struct {
	InvocationID string
	Status       types.Status
	OutputPath   string
	PayloadPath  string
	Updates      map[string]types.Changeset
	Errors       int
	Warnings     int
}

type DescribeRequest struct {
	InstallationPath string
	RepositoryDir    string
	AppID            string
}

type DescribedApp struct {
	ID           string
	Version      string
	IsRoot       bool
	IsExternal   bool
	Dependencies []string
	InputGroups  map[string][]string
}

type DescribeRoleClass struct {
	Name string
	Apps []DescribedApp
}

type DescribeResult struct {
	AppID       string
	RoleClasses []DescribeRoleClass
}

type ValidateRequest struct {
	InstallationPath string
	RepositoryDir    string
}

type ValidateRoleClass struct {
	Name string
	Apps int
}

type ValidateResult struct {
	Status      types.Status
	RoleClasses []ValidateRoleClass
	Messages    map[string][]string
}
