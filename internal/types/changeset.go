package types

import "github.com/samber/lo"

// Changeset describes how one mutation altered a role class graph. Update
// maps an app id to the basename of its new package. Packages holds the
// basename of every added app and is not persisted.
type Changeset struct {
	Add      []string          `json:"add"`
	Update   map[string]string `json:"update"`
	Remove   []string          `json:"remove"`
	Packages map[string]string `json:"-"`
}

func NewChangeset() Changeset {
	return Changeset{
		Add:      []string{},
		Update:   map[string]string{},
		Remove:   []string{},
		Packages: map[string]string{},
	}
}

func (c Changeset) IsEmpty() bool {
	return len(c.Add) == 0 && len(c.Update) == 0 && len(c.Remove) == 0
}

// Payload is the machine readable result of one invocation.
type Payload struct {
	InvocationID             string               `json:"invocation_id"`
	Status                   Status               `json:"status"`
	Messages                 map[string][]string  `json:"messages"`
	InstallationGraphUpdates map[string]Changeset `json:"installation_graph_updates,omitempty"`
	InstallationGraph        *InstallationFile    `json:"installation_graph,omitempty"`
}

// Merge folds next into c as the net effect of applying both in order.
// An app added and then removed disappears from both lists. An app removed
// and then added again is recorded as an update to its new package, and an
// added app that is then updated stays an add of the new package.
func (c Changeset) Merge(next Changeset) Changeset {
	out := NewChangeset()
	out.Add = append(out.Add, c.Add...)
	out.Remove = append(out.Remove, c.Remove...)
	for id, basename := range c.Update {
		out.Update[id] = basename
	}
	for _, id := range c.Add {
		if basename, ok := c.Packages[id]; ok {
			out.Packages[id] = basename
		}
	}
	for _, id := range next.Add {
		basename, known := next.Packages[id]
		if i := lo.IndexOf(out.Remove, id); i >= 0 {
			out.Remove = append(out.Remove[:i], out.Remove[i+1:]...)
			if known {
				out.Update[id] = basename
				continue
			}
		}
		if !lo.Contains(out.Add, id) {
			out.Add = append(out.Add, id)
		}
		if known {
			out.Packages[id] = basename
		}
	}
	for id, basename := range next.Update {
		if lo.Contains(out.Add, id) {
			out.Packages[id] = basename
			continue
		}
		out.Update[id] = basename
	}
	for _, id := range next.Remove {
		delete(out.Update, id)
		if i := lo.IndexOf(out.Add, id); i >= 0 {
			out.Add = append(out.Add[:i], out.Add[i+1:]...)
			delete(out.Packages, id)
			continue
		}
		if !lo.Contains(out.Remove, id) {
			out.Remove = append(out.Remove, id)
		}
	}
	return out
}
