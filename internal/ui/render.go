// Package ui renders run reports for the terminal and for machines.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"sigs.k8s.io/yaml"

	"github.com/imamik/k8sgce/internal/orchestration"
	"github.com/imamik/k8sgce/internal/reconcile"
)

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat resolves an output format name. Empty selects text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatYAML, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, yaml or json)", s)
}

// Renderer writes reports in one format.
type Renderer struct {
	w      io.Writer
	format Format
	colors palette
}

// NewRenderer creates a renderer writing to w. Text output is coloured only
// when w is a terminal.
func NewRenderer(w io.Writer, format Format) *Renderer {
	return &Renderer{w: w, format: format, colors: newPalette(isTerminal(w))}
}

// WithColor forces colour on or off.
func (r *Renderer) WithColor(color bool) *Renderer {
	r.colors = newPalette(color)
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes report.
func (r *Renderer) Render(report *orchestration.Report) error {
	switch r.format {
	case FormatYAML:
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		_, err = r.w.Write(data)
		return err
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	default:
		_, err := io.WriteString(r.w, r.text(report))
		return err
	}
}

func (r *Renderer) text(report *orchestration.Report) string {
	var b strings.Builder
	c := r.colors

	title := map[orchestration.Mode]string{
		orchestration.ModeApply:   "Apply",
		orchestration.ModePlan:    "Plan",
		orchestration.ModeDestroy: "Destroy",
	}[report.Mode]
	b.WriteString(c.title(title))
	if report.Identity.Email != "" {
		b.WriteString(c.dim(fmt.Sprintf(" (service account %s)", report.Identity.Email)))
	}
	b.WriteString("\n")

	for _, p := range report.Plans {
		b.WriteString("\n" + c.section(string(p.Domain)) + "\n")
		if p.Converged() && !hasFindings(p.Deferred, p.Drift, p.Denied, p.Warnings) {
			b.WriteString("  " + c.dim("no changes") + "\n")
			continue
		}
		for _, a := range p.Actions {
			b.WriteString("  " + r.action(a) + "\n")
		}
		r.findings(&b, p.Deferred, p.Drift, p.Denied, p.Warnings)
	}

	for _, res := range report.Results {
		b.WriteString("\n" + c.section(string(res.Domain)) + "\n")
		if len(res.Applied) == 0 && !hasFindings(res.Deferred, res.Drift, res.Denied, res.Warnings) {
			b.WriteString("  " + c.dim("up to date") + "\n")
			continue
		}
		for _, a := range res.Applied {
			b.WriteString("  " + r.action(a) + "\n")
		}
		r.findings(&b, res.Deferred, res.Drift, res.Denied, res.Warnings)
	}

	if len(report.Skipped) > 0 {
		b.WriteString("\n" + c.section("skipped") + "\n")
		for _, s := range report.Skipped {
			b.WriteString(fmt.Sprintf("  %s: %s\n", s.Phase, c.dim(s.Reason)))
		}
	}

	b.WriteString("\n")
	if report.Mode == orchestration.ModePlan {
		b.WriteString(fmt.Sprintf("%d to change\n", report.Pending()))
	} else {
		b.WriteString(fmt.Sprintf("%d applied\n", report.Applied()))
	}
	return b.String()
}

func (r *Renderer) action(a reconcile.Action) string {
	c := r.colors
	switch a.Op {
	case reconcile.OpCreate:
		return c.create(createMark) + " " + a.String()
	case reconcile.OpDelete:
		return c.remove(deleteMark) + " " + a.String()
	default:
		return c.update(updateMark) + " " + a.String()
	}
}

func (r *Renderer) findings(b *strings.Builder, deferred []reconcile.Deferred, drift []reconcile.Drift, denied []reconcile.Denied, warnings []string) {
	c := r.colors
	for _, d := range drift {
		fmt.Fprintf(b, "  %s %s %s %s: desired %s, observed %s\n",
			c.warning(driftMark), d.Kind, d.Name, d.Field, d.Desired, d.Observed)
	}
	for _, d := range deferred {
		fmt.Fprintf(b, "  %s %s %s: %s\n", c.dim(deferredMark), d.Kind, d.Name, c.dim(d.Reason))
	}
	for _, d := range denied {
		fmt.Fprintf(b, "  %s %s %s: %s\n", c.remove(deniedMark), d.Kind, d.Name, d.Reason)
	}
	for _, w := range warnings {
		fmt.Fprintf(b, "  %s %s\n", c.warning("warning:"), w)
	}
}

func hasFindings(deferred []reconcile.Deferred, drift []reconcile.Drift, denied []reconcile.Denied, warnings []string) bool {
	return len(deferred)+len(drift)+len(denied)+len(warnings) > 0
}
