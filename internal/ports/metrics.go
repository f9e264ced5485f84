package ports

import "app-packager/internal/types"

// MetricsPort records per-invocation counters and flushes them to a
// node exporter textfile.
type MetricsPort interface {
	ObserveChangeset(roleClass string, changeset types.Changeset)
	ObserveDiagnostics(errors int, warnings int, status types.Status)
	Flush(path string) error
}
