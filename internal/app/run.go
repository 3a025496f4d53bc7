package app

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/substrate/internal/ctxlog"
	"github.com/specialistvlad/substrate/internal/render"
	"github.com/specialistvlad/substrate/internal/session"
	"github.com/specialistvlad/substrate/internal/spec"
	"github.com/zclconf/go-cty/cty"
)

// Run executes one resolution (or, in watch mode, a resolution per file
// change) and renders the outcome table.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.resolveOnce(ctx); err != nil {
		return err
	}

	if a.config.Watch {
		return a.watch(ctx)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// resolveOnce assembles layers, builds the spec, resolves, and renders.
func (a *App) resolveOnce(ctx context.Context) error {
	layers, err := a.buildLayers(ctx)
	if err != nil {
		return err
	}

	s, err := spec.Build(ctx, a.vars, layers)
	if err != nil {
		return fmt.Errorf("failed to build configuration spec: %w", err)
	}
	a.logger.Debug("Configuration spec built.", "variables", len(s.Vars))

	overrides, err := parseOverrides(a.config.Overrides)
	if err != nil {
		return err
	}

	opts := []session.Option{}
	if len(overrides) > 0 {
		opts = append(opts, session.WithOverrides(overrides))
	}
	if len(a.config.Required) > 0 {
		opts = append(opts, session.WithRequired(a.config.Required...))
	}

	sess, err := session.New(ctx, s, opts...)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}
	a.logger.Info("Resolution succeeded.", "values", len(sess.Values()))

	if err := render.Table(a.outW, sess.Processor()); err != nil {
		return err
	}
	return render.Summary(a.outW, sess.Processor())
}

// parseOverrides interprets -var values: anything that statically evaluates
// as an HCL expression (numbers, bools, quoted strings, tuples) is taken as
// such; everything else is a plain string.
func parseOverrides(raw map[string]string) (map[string]cty.Value, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]cty.Value, len(raw))
	for name, text := range raw {
		out[name] = parseOverrideValue(text)
	}
	return out, nil
}

func parseOverrideValue(text string) cty.Value {
	expr, diags := hclsyntax.ParseExpression([]byte(text), "<override>", hcl.InitialPos)
	if !diags.HasErrors() {
		if val, valDiags := expr.Value(nil); !valDiags.HasErrors() && val.IsWhollyKnown() {
			return val
		}
	}
	return cty.StringVal(text)
}
