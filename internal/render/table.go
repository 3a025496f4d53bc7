// Package render draws the layer-by-variable outcome table: for every
// variable (in display order) and every layer (in priority order), the cell
// shows the winning value, a failure marker for an attempt that ran and
// failed, a prune marker, or nothing when the provider was never involved.
// Display only; nothing here feeds back into resolution.
package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/specialistvlad/substrate/internal/ctyconv"
	"github.com/specialistvlad/substrate/internal/processor"
)

const (
	markUnsatisfied = "✗"
	markPruned      = "·"
	markMasked      = "•••"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))
	winnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Table renders the outcome grid for a finished resolution run.
func Table(w io.Writer, proc *processor.Processor) error {
	sp := proc.Spec()

	headers := append([]string{"variable"}, sp.LayerNames()...)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)

	order := sp.SlotOrder
	if len(order) == 0 {
		order = sp.VarNames()
	}

	for _, varName := range order {
		row := make([]string, 0, len(headers))
		row = append(row, varName)
		for _, l := range sp.Layers {
			row = append(row, cell(proc, varName, l.Name()))
		}
		t = t.Row(row...)
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	return nil
}

// cell computes one grid cell from the provider outcomes of a variable
// under a single layer.
func cell(proc *processor.Processor, varName, layerName string) string {
	for _, prov := range proc.BoundProviderMap[varName] {
		if prov.LayerName != layerName {
			continue
		}
		o, ok := proc.Outcome(prov)
		if !ok {
			return ""
		}
		switch o.Kind {
		case processor.KindSatisfied:
			return winnerStyle.Render(valueText(proc, varName, o))
		case processor.KindUnsatisfied:
			return failStyle.Render(markUnsatisfied)
		case processor.KindPruned:
			return mutedStyle.Render(markPruned)
		}
	}
	return ""
}

// valueText formats a winning value, masking sensitive variables.
func valueText(proc *processor.Processor, varName string, o *processor.Outcome) string {
	if v, ok := proc.Spec().Variable(varName); ok && v.Sensitive {
		return markMasked
	}
	return ctyconv.FormatValue(o.Value)
}

// Summary prints the flat name=value listing below the table, in display
// order.
func Summary(w io.Writer, proc *processor.Processor) error {
	sp := proc.Spec()
	order := sp.SlotOrder
	if len(order) == 0 {
		order = sp.VarNames()
	}

	for _, varName := range order {
		val, ok := proc.Value(varName)
		if !ok {
			continue
		}
		text := ctyconv.FormatValue(val)
		if v, ok := sp.Variable(varName); ok && v.Sensitive {
			text = markMasked
		}
		satisfier := ""
		if prov, ok := proc.Satisfier(varName); ok {
			satisfier = prov.LayerName
		}
		if _, err := fmt.Fprintf(w, "%s = %s  (%s)\n", varName, text, satisfier); err != nil {
			return err
		}
	}
	return nil
}
