package spec

import (
	"fmt"
	"sort"
	"strings"
)

// UnresolvedError reports variables that ended spec construction with no
// registered provider: declared variables no layer services, or dependency
// names some provider uses that never got a provider of their own.
type UnresolvedError struct {
	Vars []string
}

func (e *UnresolvedError) Error() string {
	vars := append([]string(nil), e.Vars...)
	sort.Strings(vars)
	return fmt.Sprintf("no provider registered for: %s", strings.Join(vars, ", "))
}

// CycleError reports that transitive-dependency expansion for a variable did
// not converge. Partial holds the transitive set accumulated at the point of
// detection.
type CycleError struct {
	Var     string
	Partial []string
}

func (e *CycleError) Error() string {
	partial := append([]string(nil), e.Partial...)
	sort.Strings(partial)
	return fmt.Sprintf("dependency cycle through variable %q (transitive set at detection: %v)", e.Var, partial)
}
