package opt

import (
	"fmt"
	"io"
	"strings"

	"mmcc/report"
)

// PassInfo is a registration record for a pass.
type PassInfo struct {
	// The pass's unique name, as used by dependency declarations and
	// diagnostics.
	Name string

	// Constructor for a fresh pass instance.
	Ctor func() Pass

	// The stages the pass participates in.
	Stages Stage

	// The minimum `-O` level at which the pass runs.
	MinOptLevel int

	// Names of passes that must run before this one within a stage.
	Deps []string
}

// registry holds all registered passes in registration order.  Registration
// order is the deterministic tiebreak for scheduling.
var registry []*PassInfo

// Register adds a pass to the process-wide registry.  It is invoked
// explicitly from the driver's start-up path, never from init functions, so
// registration order is manifest.
func Register(info *PassInfo) {
	for _, r := range registry {
		if r.Name == info.Name {
			report.ReportFatal("pass `%s` registered twice", info.Name)
		}
	}

	registry = append(registry, info)
}

// Lookup finds a registration record by pass name.
func Lookup(name string) *PassInfo {
	for _, r := range registry {
		if r.Name == name {
			return r
		}
	}

	return nil
}

// Registered returns all registration records in registration order.
func Registered() []*PassInfo {
	return registry
}

// ResetRegistry discards all registrations.  Test hook.
func ResetRegistry() {
	registry = nil
}

// ShowInfo enumerates the registered passes with their stage masks, level
// thresholds, and dependencies.
func ShowInfo(w io.Writer) {
	fmt.Fprintln(w, "registered passes:")

	for _, r := range registry {
		deps := "<none>"
		if len(r.Deps) > 0 {
			deps = strings.Join(r.Deps, ", ")
		}

		fmt.Fprintf(w, "  %-20s stages: %-24s min level: %d  deps: %s\n",
			r.Name, r.Stages, r.MinOptLevel, deps)
	}
}
