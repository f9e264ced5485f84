package adapters

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"app-packager/internal/ports"
	"app-packager/internal/shared"
	"app-packager/internal/types"
)

// PayloadFileAdapter accumulates the changesets of one invocation and
// writes the final payload as JSON.
type PayloadFileAdapter struct {
	updates map[string]types.Changeset
}

func NewPayloadFileAdapter() *PayloadFileAdapter {
	return &PayloadFileAdapter{updates: map[string]types.Changeset{}}
}

// AddGraphUpdate merges changeset into what was recorded for roleClass so
// far. Empty changesets are kept so every touched role class is listed.
func (a *PayloadFileAdapter) AddGraphUpdate(roleClass string, changeset types.Changeset) {
	current, ok := a.updates[roleClass]
	if !ok {
		current = types.NewChangeset()
	}
	a.updates[roleClass] = current.Merge(changeset)
}

func (a *PayloadFileAdapter) GraphUpdates() map[string]types.Changeset {
	out := make(map[string]types.Changeset, len(a.updates))
	for roleClass, changeset := range a.updates {
		out[roleClass] = changeset
	}
	return out
}

func (a *PayloadFileAdapter) Write(path string, payload types.Payload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode payload").
			WithCause(err)
	}
	if err := shared.EnsureParentDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write payload %s", path)).
			WithCause(err)
	}
	return nil
}

var _ ports.PayloadWriterPort = (*PayloadFileAdapter)(nil)
