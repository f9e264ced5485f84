package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"app-packager/internal/types"
)

// Diagnostics collects the errors and warnings reported while resolving
// and mutating installation graphs. Passes never stop at the first
// problem; callers inspect ErrorCount once a full pass has completed.
type Diagnostics struct {
	ctx      context.Context
	errors   []string
	warnings []string
	infos    []string
	status   types.Status
}

func NewDiagnostics(ctx context.Context) *Diagnostics {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Diagnostics{ctx: ctx, status: types.StatusOK}
}

func (d *Diagnostics) Errorf(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	d.errors = append(d.errors, message)
	if d.status == types.StatusOK {
		d.status = types.StatusError
	}
	d.logger().Error().Msg(message)
}

func (d *Diagnostics) Warnf(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	d.warnings = append(d.warnings, message)
	d.logger().Warn().Msg(message)
}

func (d *Diagnostics) Infof(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	d.infos = append(d.infos, message)
	d.logger().Info().Msg(message)
}

// Conflictf reports an error and marks the invocation as conflicting.
func (d *Diagnostics) Conflictf(status types.Status, format string, args ...any) {
	d.Errorf(format, args...)
	d.status = status
}

func (d *Diagnostics) ErrorCount() int {
	return len(d.errors)
}

func (d *Diagnostics) WarningCount() int {
	return len(d.warnings)
}

func (d *Diagnostics) Errors() []string {
	return append([]string(nil), d.errors...)
}

func (d *Diagnostics) Status() types.Status {
	return d.status
}

// Messages groups the collected messages by level name.
func (d *Diagnostics) Messages() map[string][]string {
	out := map[string][]string{}
	if len(d.errors) > 0 {
		out["ERROR"] = append([]string(nil), d.errors...)
	}
	if len(d.warnings) > 0 {
		out["WARNING"] = append([]string(nil), d.warnings...)
	}
	if len(d.infos) > 0 {
		out["INFO"] = append([]string(nil), d.infos...)
	}
	return out
}

func (d *Diagnostics) Context() context.Context {
	return d.ctx
}

func (d *Diagnostics) logger() *zerolog.Logger {
	return log.Ctx(d.ctx)
}
