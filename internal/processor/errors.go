package processor

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/substrate/internal/layer"
)

// ExhaustedError is raised when every provider for a needed variable has
// been attempted and none succeeded. It carries enough structure to
// reconstruct a full diagnostic without re-running resolution.
type ExhaustedError struct {
	// Var is the variable whose fallback chain ran out.
	Var string

	// Consumers are the providers that declared Var as a dependency.
	Consumers []*layer.Provider

	// Attempts is Var's outcome history, in attempt order.
	Attempts []*Outcome
}

func (e *ExhaustedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "could not resolve variable %q: all %d providers failed", e.Var, len(e.Attempts))

	if len(e.Consumers) > 0 {
		names := make([]string, 0, len(e.Consumers))
		for _, c := range e.Consumers {
			names = append(names, fmt.Sprintf("%s.%s", c.LayerName, c.Var))
		}
		fmt.Fprintf(&sb, "; needed by %s", strings.Join(names, ", "))
	}

	for _, attempt := range e.Attempts {
		if attempt.Kind != KindUnsatisfied {
			continue
		}
		fmt.Fprintf(&sb, "\n  - layer %q: %v", attempt.By.LayerName, attempt.Err)
	}
	return sb.String()
}
