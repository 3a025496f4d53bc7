// Package toposort groups items into dependency levels: every item's
// dependencies land in a strictly earlier level. The engine uses it for
// cycle reporting and for the display ordering of the outcome table; the
// runtime resolver does not depend on it.
package toposort

import (
	"fmt"
	"sort"
)

// CycleError reports that leveling stalled: the named items still have
// unsatisfied dependencies and none of them is extractable.
type CycleError struct {
	Remaining map[string][]string
}

func (e *CycleError) Error() string {
	items := make([]string, 0, len(e.Remaining))
	for item := range e.Remaining {
		items = append(items, item)
	}
	sort.Strings(items)
	return fmt.Sprintf("unresolvable dependencies among %v", items)
}

// Levels runs the base leveling algorithm over a map of item -> direct
// dependency set. Items that appear only as dependencies are treated as
// dependency-free leaves. Each returned level is sorted for determinism.
func Levels(depMap map[string]map[string]bool) ([][]string, error) {
	if len(depMap) == 0 {
		return nil, nil
	}

	remaining := make(map[string]map[string]bool, len(depMap))
	for item, deps := range depMap {
		set := make(map[string]bool, len(deps))
		for dep := range deps {
			set[dep] = true
		}
		remaining[item] = set
	}
	// Dependencies with no entry of their own are leaves.
	for _, deps := range depMap {
		for dep := range deps {
			if _, ok := remaining[dep]; !ok {
				remaining[dep] = map[string]bool{}
			}
		}
	}

	var levels [][]string
	for len(remaining) > 0 {
		var ready []string
		for item, deps := range remaining {
			if len(deps) == 0 {
				ready = append(ready, item)
			}
		}
		if len(ready) == 0 {
			return nil, &CycleError{Remaining: snapshotRemaining(remaining)}
		}
		sort.Strings(ready)
		levels = append(levels, ready)

		for _, item := range ready {
			delete(remaining, item)
		}
		for _, deps := range remaining {
			for _, item := range ready {
				delete(deps, item)
			}
		}
	}

	return levels, nil
}

// DisplayLevels is the leveling variant used for human-facing ordering. At
// each step it emits only the ready items that something still pending
// actually consumes, deferring genuinely-unused ready items; anything still
// held back when the pending set empties lands in a final catch-all level.
// This groups variables next to their consumers instead of front-loading
// every leaf.
func DisplayLevels(depMap map[string]map[string]bool) ([][]string, error) {
	if len(depMap) == 0 {
		return nil, nil
	}

	remaining := make(map[string]map[string]bool, len(depMap))
	for item, deps := range depMap {
		set := make(map[string]bool, len(deps))
		for dep := range deps {
			set[dep] = true
		}
		remaining[item] = set
	}
	for _, deps := range depMap {
		for dep := range deps {
			if _, ok := remaining[dep]; !ok {
				remaining[dep] = map[string]bool{}
			}
		}
	}

	held := make(map[string]bool)
	var levels [][]string
	for len(remaining) > 0 {
		for item, deps := range remaining {
			if len(deps) == 0 {
				held[item] = true
				delete(remaining, item)
			}
		}
		if len(held) == 0 {
			return nil, &CycleError{Remaining: snapshotRemaining(remaining)}
		}

		// Emit the held items some pending item still depends on.
		var emit []string
		for item := range held {
			for _, deps := range remaining {
				if deps[item] {
					emit = append(emit, item)
					break
				}
			}
		}
		if len(emit) == 0 {
			// Nothing pending consumes anything held; flush the holdovers as
			// the final catch-all level.
			if len(remaining) > 0 {
				return nil, &CycleError{Remaining: snapshotRemaining(remaining)}
			}
			break
		}
		sort.Strings(emit)
		levels = append(levels, emit)

		for _, item := range emit {
			delete(held, item)
		}
		for _, deps := range remaining {
			for _, item := range emit {
				delete(deps, item)
			}
		}
	}

	if len(held) > 0 {
		final := make([]string, 0, len(held))
		for item := range held {
			final = append(final, item)
		}
		sort.Strings(final)
		levels = append(levels, final)
	}

	return levels, nil
}

// Flatten concatenates levels into a single ordered slice.
func Flatten(levels [][]string) []string {
	var out []string
	for _, level := range levels {
		out = append(out, level...)
	}
	return out
}

func snapshotRemaining(remaining map[string]map[string]bool) map[string][]string {
	snap := make(map[string][]string, len(remaining))
	for item, deps := range remaining {
		list := make([]string, 0, len(deps))
		for dep := range deps {
			list = append(list, dep)
		}
		sort.Strings(list)
		snap[item] = list
	}
	return snap
}
