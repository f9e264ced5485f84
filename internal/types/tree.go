package types

// TreeDependent is an app that declares a dependency on the visited app
// together with the range text it requires.
type TreeDependent struct {
	ID           string
	VersionRange string
}

// TreeVisit is one step of a pre-order dependency tree traversal.
type TreeVisit struct {
	Source       PackageSource
	Dependencies []PackageSource
	Dependents   []TreeDependent
}

// DependencyTree is the already-resolved closure of one root app, listed
// in pre-order with each app appearing once.
type DependencyTree struct {
	Root   PackageSource
	Visits []TreeVisit
}

// ActionArgs carries the arguments of an installation action.
// Workloads maps a forwarder input group to the role class name patterns
// it should be deployed to.
type ActionArgs struct {
	AppID                             string              `json:"app_id,omitempty"`
	AppPackage                        string              `json:"app_package,omitempty"`
	IsExternal                        bool                `json:"is_external,omitempty"`
	CombineSearchHeadIndexerWorkloads bool                `json:"combine_search_head_indexer_workloads"`
	Workloads                         map[string][]string `json:"workloads"`
	TargetOS                          string              `json:"target_os,omitempty"`
}
