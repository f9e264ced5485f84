package types

type Workload string

const (
	WorkloadSearchHead Workload = "searchHead"
	WorkloadIndexer    Workload = "indexer"
	WorkloadForwarder  Workload = "forwarder"
	WorkloadAny        Workload = "*"
)

type ActionKind string

const (
	ActionAdd    ActionKind = "add"
	ActionSet    ActionKind = "set"
	ActionUpdate ActionKind = "update"
	ActionRemove ActionKind = "remove"
)

type Status string

const (
	StatusOK                 Status = "ok"
	StatusConflict           Status = "conflict"
	StatusResolvableConflict Status = "resolvable-conflict"
	StatusError              Status = "error"
)

// TargetOSWildcard selects dependencies for every target OS.
const TargetOSWildcard = "*"

// Default role class names, one per workload.
const (
	RoleClassSearchHeads = "_search_heads"
	RoleClassIndexers    = "_indexers"
	RoleClassForwarders  = "_forwarders"
)
