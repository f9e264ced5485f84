package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"app-packager/internal/types"
)

// InstallationAction is a validated request to change the installation.
// It is immutable once constructed.
type InstallationAction struct {
	kind types.ActionKind
	args types.ActionArgs
}

// NewInstallationAction validates kind against the arguments it requires.
// remove needs an app id; add, set and update need an app package.
func NewInstallationAction(kind types.ActionKind, args types.ActionArgs) (InstallationAction, error) {
	args.AppID = strings.TrimSpace(args.AppID)
	args.AppPackage = strings.TrimSpace(args.AppPackage)

	switch kind {
	case types.ActionRemove:
		if args.AppID == "" {
			return InstallationAction{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("expected an app id along with the %s action", kind))
		}
	case types.ActionAdd, types.ActionSet:
		if args.AppPackage == "" {
			return InstallationAction{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("expected an app package along with the %s action", kind))
		}
		if len(args.Workloads) == 0 {
			args.Workloads = nil
		}
	case types.ActionUpdate:
		if args.AppPackage == "" {
			return InstallationAction{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("expected an app package along with the update action")
		}
	default:
		return InstallationAction{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("installation action %q is unknown or not-yet-implemented", kind))
	}
	return InstallationAction{kind: kind, args: cloneArgs(args)}, nil
}

// ParseActionKind maps user input onto an action kind without validating
// it; NewInstallationAction rejects unknown kinds.
func ParseActionKind(value string) types.ActionKind {
	return types.ActionKind(strings.ToLower(strings.TrimSpace(value)))
}

func (a InstallationAction) Kind() types.ActionKind {
	return a.kind
}

func (a InstallationAction) Args() types.ActionArgs {
	return cloneArgs(a.args)
}

func (a InstallationAction) String() string {
	if a.kind == types.ActionRemove {
		return fmt.Sprintf("%s %s", a.kind, a.args.AppID)
	}
	return fmt.Sprintf("%s %s", a.kind, a.args.AppPackage)
}

func cloneArgs(args types.ActionArgs) types.ActionArgs {
	if args.Workloads == nil {
		return args
	}
	workloads := make(map[string][]string, len(args.Workloads))
	for group, patterns := range args.Workloads {
		workloads[group] = append([]string(nil), patterns...)
	}
	args.Workloads = workloads
	return args
}
