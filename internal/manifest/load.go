// Package manifest loads variable declarations from HCL manifest files. A
// manifest is documentation-and-defaults only; layers supply the actual
// values.
package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/substrate/internal/ctxlog"
	"github.com/specialistvlad/substrate/internal/fsutil"
	"github.com/specialistvlad/substrate/internal/variable"
)

// Load reads every .hcl file under path (a file or a directory) and returns
// the declared variables. Duplicate declarations across files are an error.
func Load(ctx context.Context, path string) ([]*variable.Variable, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl manifest files found under %q", path)
	}
	logger.Debug("Loading variable manifests.", "path", path, "files", len(files))

	parser := hclparse.NewParser()
	seen := make(map[string]string) // variable name -> declaring file
	var vars []*variable.Variable

	for _, filePath := range files {
		hclFile, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %w", filePath, diags)
		}

		var mf File
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &mf); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %w", filePath, diags)
		}

		for _, block := range mf.Variables {
			if prev, dup := seen[block.Name]; dup {
				return nil, fmt.Errorf("variable %q declared in both %s and %s", block.Name, prev, filePath)
			}
			seen[block.Name] = filePath

			v, err := toVariable(block)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", filePath, err)
			}
			vars = append(vars, v)
		}
	}

	logger.Debug("Variable manifests loaded.", "variables", len(vars))
	return vars, nil
}

// toVariable converts a decoded block into the engine's variable model.
func toVariable(block *VariableBlock) (*variable.Variable, error) {
	opts := []variable.Option{
		variable.WithDescription(block.Description),
	}
	if block.Summary != "" {
		opts = append(opts, variable.WithSummary(block.Summary))
	}
	if block.Default != nil {
		opts = append(opts, variable.WithDefault(*block.Default))
	}
	if block.Sensitive {
		opts = append(opts, variable.Sensitive())
	}
	return variable.New(block.Name, opts...)
}
