package adapters

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"app-packager/internal/ports"
	"app-packager/internal/shared"
	"app-packager/internal/types"
)

var allStatuses = []types.Status{
	types.StatusOK,
	types.StatusConflict,
	types.StatusResolvableConflict,
	types.StatusError,
}

// MetricsTextfileAdapter records invocation metrics in a private registry
// and writes them in the node exporter textfile format.
type MetricsTextfileAdapter struct {
	registry    *prometheus.Registry
	changes     *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	status      *prometheus.GaugeVec
}

func NewMetricsTextfileAdapter() *MetricsTextfileAdapter {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &MetricsTextfileAdapter{
		registry: registry,
		changes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "app_packager_graph_changes_total",
			Help: "Apps added, updated or removed per role class.",
		}, []string{"role_class", "change"}),
		diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "app_packager_diagnostics_total",
			Help: "Diagnostics reported by level.",
		}, []string{"level"}),
		status: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "app_packager_invocation_status",
			Help: "1 for the status of the last invocation, 0 otherwise.",
		}, []string{"status"}),
	}
}

func (a *MetricsTextfileAdapter) ObserveChangeset(roleClass string, changeset types.Changeset) {
	a.changes.WithLabelValues(roleClass, "add").Add(float64(len(changeset.Add)))
	a.changes.WithLabelValues(roleClass, "update").Add(float64(len(changeset.Update)))
	a.changes.WithLabelValues(roleClass, "remove").Add(float64(len(changeset.Remove)))
}

func (a *MetricsTextfileAdapter) ObserveDiagnostics(errors int, warnings int, status types.Status) {
	a.diagnostics.WithLabelValues("error").Add(float64(errors))
	a.diagnostics.WithLabelValues("warning").Add(float64(warnings))
	for _, candidate := range allStatuses {
		value := 0.0
		if candidate == status {
			value = 1
		}
		a.status.WithLabelValues(string(candidate)).Set(value)
	}
}

// Flush writes the registry to path. An empty path disables metrics.
func (a *MetricsTextfileAdapter) Flush(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := shared.EnsureParentDir(path); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write metrics textfile").
			WithCause(err)
	}
	return nil
}

var _ ports.MetricsPort = (*MetricsTextfileAdapter)(nil)
