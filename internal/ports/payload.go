package ports

import "app-packager/internal/types"

// PayloadPort receives the changeset of each graph mutation, keyed by role
// class name.
type PayloadPort interface {
	AddGraphUpdate(roleClass string, changeset types.Changeset)
}

type PayloadWriterPort interface {
	PayloadPort
	Write(path string, payload types.Payload) error
	GraphUpdates() map[string]types.Changeset
}
