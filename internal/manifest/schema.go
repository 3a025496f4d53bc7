package manifest

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// VariableBlock represents a `variable "name" { ... }` block from a
// manifest file.
type VariableBlock struct {
	Name        string     `hcl:"name,label"`
	Description string     `hcl:"description,optional"`
	Summary     string     `hcl:"summary,optional"`
	Default     *cty.Value `hcl:"default,optional"`
	Sensitive   bool       `hcl:"sensitive,optional"`
}

// File represents the top-level structure of one manifest file.
type File struct {
	Variables []*VariableBlock `hcl:"variable,block"`
	Body      hcl.Body         `hcl:",remain"`
}
