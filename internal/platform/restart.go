package platform

import (
	"log/slog"
	"os"
)

// RestartExitCode is the exit status the service unit maps to an immediate
// restart of the process.
const RestartExitCode = 86

// RealRestarter exits the process so the service supervisor starts a fresh
// instance, clearing all transient state.
type RealRestarter struct {
	Log *slog.Logger
}

// RequestRestart logs the reason and exits with RestartExitCode. It does not
// return.
func (r *RealRestarter) RequestRestart(reason string) {
	if r.Log != nil {
		r.Log.Info("restart requested", "reason", reason)
	}
	os.Exit(RestartExitCode)
}
