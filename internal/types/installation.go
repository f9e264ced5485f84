package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// InstallationRecord is the persisted form of one installed application.
type InstallationRecord struct {
	Dependencies         []string            `json:"dependencies"`
	OptionalDependencies []string            `json:"optional_dependencies"`
	Dependents           []string            `json:"dependents"`
	IsExternal           bool                `json:"is_external"`
	IsRoot               bool                `json:"is_root"`
	InputGroups          map[string][]string `json:"inputGroups"`
	Source               string              `json:"source"`
	Version              string              `json:"version"`
}

// AppRecords is a JSON object keyed by application id that keeps the
// order in which entries were read or added.
type AppRecords struct {
	Order   []string
	Entries map[string]InstallationRecord
}

func NewAppRecords() AppRecords {
	return AppRecords{Entries: map[string]InstallationRecord{}}
}

func (r *AppRecords) Set(id string, record InstallationRecord) {
	if r.Entries == nil {
		r.Entries = map[string]InstallationRecord{}
	}
	if _, ok := r.Entries[id]; !ok {
		r.Order = append(r.Order, id)
	}
	r.Entries[id] = record
}

func (r AppRecords) Len() int {
	return len(r.Order)
}

func (r AppRecords) Has(id string) bool {
	_, ok := r.Entries[id]
	return ok
}

func (r AppRecords) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range r.Order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.Entries[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *AppRecords) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if token == nil {
		*r = NewAppRecords()
		return nil
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object of app records, got %v", token)
	}
	*r = NewAppRecords()
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		id, ok := token.(string)
		if !ok {
			return fmt.Errorf("expected app id, got %v", token)
		}
		var record InstallationRecord
		if err := decoder.Decode(&record); err != nil {
			return fmt.Errorf("app %s: %w", id, err)
		}
		r.Set(id, record)
	}
	_, err = decoder.Token()
	return err
}

// RoleClassRecord is one role class and its installation graph.
type RoleClassRecord struct {
	Name     string     `json:"name"`
	Workload []Workload `json:"workload"`
	Apps     AppRecords `json:"apps"`
}

// InstallationFile is the persisted installation of every role class.
type InstallationFile struct {
	ServerClasses []RoleClassRecord `json:"server_classes"`
}
