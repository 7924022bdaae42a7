// -----------------------------------------------------------------------
// Guarded steps - panic-protected pipeline stages
// -----------------------------------------------------------------------

package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
)

// Step is a named stage of a report run.
type Step struct {
	Name string
	Fn   func()
}

// SafeRun calls fn with panic recovery and reports whether it completed.
// A panic is logged and swallowed; whatever fn had not yet written stays
// at its zero value.
func SafeRun(logger arbor.ILogger, name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("step", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", GetStackTrace()).
				Msg("Recovered from panic in step - continuing run")
			ok = false
		}
	}()

	fn()
	return true
}

// RunSteps runs every step in order with SafeRun and returns the names of
// the steps that panicked.
func RunSteps(logger arbor.ILogger, steps ...Step) []string {
	var failed []string
	for _, step := range steps {
		if !SafeRun(logger, step.Name, step.Fn) {
			failed = append(failed, step.Name)
		}
	}
	return failed
}
