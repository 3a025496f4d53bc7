package processor

import (
	"fmt"

	"github.com/specialistvlad/substrate/internal/layer"
	"github.com/zclconf/go-cty/cty"
)

// OutcomeKind tags the result of attempting (or declining to attempt) one
// provider within a resolution run.
type OutcomeKind int

const (
	// KindSatisfied: the provider ran and produced a post-validation value.
	KindSatisfied OutcomeKind = iota
	// KindUnsatisfied: the provider ran and failed, or its value failed
	// validation.
	KindUnsatisfied
	// KindPruned: the provider was never run because it became irrelevant.
	KindPruned
)

func (k OutcomeKind) String() string {
	switch k {
	case KindSatisfied:
		return "satisfied"
	case KindUnsatisfied:
		return "unsatisfied"
	case KindPruned:
		return "pruned"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// PruneReason explains why a pruned provider never ran.
type PruneReason int

const (
	// PruneNone is the zero value for non-pruned outcomes.
	PruneNone PruneReason = iota
	// PruneAlreadySatisfied: a higher-priority provider for the same
	// variable succeeded first.
	PruneAlreadySatisfied
	// PruneNeverReferenced: no resolution path from a required variable ever
	// reached this provider.
	PruneNeverReferenced
)

func (r PruneReason) String() string {
	switch r {
	case PruneNone:
		return ""
	case PruneAlreadySatisfied:
		return "already satisfied"
	case PruneNeverReferenced:
		return "never referenced"
	default:
		return fmt.Sprintf("PruneReason(%d)", int(r))
	}
}

// Outcome is the single result a provider receives within one resolution
// run. Exactly one of Value or Err is meaningful, keyed by Kind.
type Outcome struct {
	Kind   OutcomeKind
	By     *layer.Provider
	Value  cty.Value
	Err    error
	Reason PruneReason
}

func (o *Outcome) String() string {
	switch o.Kind {
	case KindSatisfied:
		return fmt.Sprintf("Satisfied(by=%s)", o.By)
	case KindUnsatisfied:
		return fmt.Sprintf("Unsatisfied(by=%s, err=%v)", o.By, o.Err)
	case KindPruned:
		return fmt.Sprintf("Pruned(by=%s, reason=%s)", o.By, o.Reason)
	default:
		return fmt.Sprintf("Outcome(kind=%d, by=%s)", int(o.Kind), o.By)
	}
}
