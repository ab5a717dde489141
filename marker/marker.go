// Package marker decides whether a generation step should run again.
//
// The primary signal is deliberately simple: the presence of the generated
// file itself is the marker that the step already ran. A content-hash
// manifest persisted alongside the target tree adds a second signal,
// distinguishing "present and current" from "present but produced by an
// older template". The latter is surfaced to the operator, never silently
// skipped or silently overwritten.
//
// The guard is advisory and single-process. Two concurrent runs against the
// same target directory are not mutually excluded and can race.
package marker

import (
	"os"

	"github.com/charmbracelet/log"
)

// Guard answers the skip-or-generate question for one marker artifact.
type Guard struct {
	logger *log.Logger
}

// NewGuard returns a Guard that logs skips to the given logger.
func NewGuard(logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.Default()
	}
	return &Guard{logger: logger}
}

// ShouldGenerate reports whether the step owning markerPath should run.
// If the marker exists the step is skipped and an informational entry is
// logged; otherwise there is no side effect until the write succeeds.
//
// Marker granularity is one artifact file: callers check each derived file
// separately, so a missing sibling is still regenerated.
func (g *Guard) ShouldGenerate(markerPath string) bool {
	if _, err := os.Stat(markerPath); err == nil {
		g.logger.Info("skipping generation, marker present", "marker", markerPath)
		return false
	}
	return true
}
