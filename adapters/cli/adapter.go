// Package cli renders build reports for the terminal.
// All evaluation happens in the core; this package handles output only.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"pcbuild/core/compat"
	"pcbuild/core/pricing"
	"pcbuild/core/types"
)

// OutputFormat specifies the output format
type OutputFormat int

const (
	FormatTable OutputFormat = iota
	FormatJSON
	FormatMarkdown
)

// ParseFormat resolves a --format flag value
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "cli", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return FormatTable, fmt.Errorf("unknown output format: %s", s)
	}
}

// Report is the evaluated view of one build
type Report struct {
	Selections      types.Selections
	Issues          []string
	Rules           []compat.RuleResult
	Summary         pricing.Summary
	RequiredWattage int
}

// NewReport evaluates sel with engine
func NewReport(engine *compat.Engine, sel types.Selections) *Report {
	issues := engine.Evaluate(sel)
	return &Report{
		Selections:      sel,
		Issues:          issues,
		Rules:           engine.Results(sel),
		Summary:         pricing.Summarize(sel, issues),
		RequiredWattage: pricing.EstimatedPower(sel, engine.Config().PowerHeadroomWatts),
	}
}

// CLIAdapter writes reports in the chosen format
type CLIAdapter struct {
	output io.Writer
	format OutputFormat
}

// NewCLIAdapter creates a new CLI adapter writing to stdout
func NewCLIAdapter() *CLIAdapter {
	return &CLIAdapter{
		output: os.Stdout,
		format: FormatTable,
	}
}

// SetOutput sets the output writer
func (a *CLIAdapter) SetOutput(w io.Writer) {
	a.output = w
}

// SetFormat sets the output format
func (a *CLIAdapter) SetFormat(f OutputFormat) {
	a.format = f
}

// Render writes the report
func (a *CLIAdapter) Render(r *Report) error {
	switch a.format {
	case FormatJSON:
		return a.outputJSON(r)
	case FormatMarkdown:
		return a.outputMarkdown(r)
	default:
		return a.outputTable(r)
	}
}

// RenderComponents lists catalog components
func (a *CLIAdapter) RenderComponents(comps []types.Component) error {
	if a.format == FormatJSON {
		return a.encode(comps)
	}
	fmt.Fprintf(a.output, "%-18s %-12s %-36s %10s\n", "ID", "CATEGORY", "NAME", "PRICE")
	fmt.Fprintln(a.output, strings.Repeat("─", 79))
	for _, c := range comps {
		fmt.Fprintf(a.output, "%-18s %-12s %-36s %10s\n",
			truncate(c.ID, 18), c.Category, truncate(c.Name, 36), money(c.Price))
	}
	return nil
}

// RenderSaved lists saved configurations
func (a *CLIAdapter) RenderSaved(list []*types.SavedConfiguration) error {
	if a.format == FormatJSON {
		return a.encode(list)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.output, "No saved configurations.")
		return nil
	}
	fmt.Fprintf(a.output, "%-36s %-24s %12s  %s\n", "ID", "NAME", "TOTAL", "SAVED")
	fmt.Fprintln(a.output, strings.Repeat("─", 96))
	for _, cfg := range list {
		fmt.Fprintf(a.output, "%-36s %-24s %12s  %s\n",
			cfg.ID, truncate(cfg.Name, 24), money(cfg.TotalPrice), cfg.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *CLIAdapter) outputTable(r *Report) error {
	fmt.Fprintln(a.output, "")
	fmt.Fprintln(a.output, "╔══════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(a.output, "║                        PC BUILD REPORT                           ║")
	fmt.Fprintln(a.output, "╚══════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(a.output, "")

	fmt.Fprintf(a.output, "%-12s %-40s %12s\n", "CATEGORY", "COMPONENT", "PRICE")
	fmt.Fprintln(a.output, "─────────────────────────────────────────────────────────────────────")
	for _, c := range types.Categories() {
		comp := r.Selections[c]
		if comp == nil {
			fmt.Fprintf(a.output, "%-12s %-40s %12s\n", c.Label(), "(not selected)", "-")
			continue
		}
		fmt.Fprintf(a.output, "%-12s %-40s %12s\n", c.Label(), truncate(comp.Name, 40), money(comp.Price))
	}
	fmt.Fprintln(a.output, "─────────────────────────────────────────────────────────────────────")
	fmt.Fprintf(a.output, "%-53s %12s\n", "TOTAL", money(r.Summary.TotalPrice))
	fmt.Fprintln(a.output, "")

	fmt.Fprintf(a.output, "Completion:     %d/%d (%d%%)\n", r.Summary.Filled, r.Summary.Total, r.Summary.Completion)
	fmt.Fprintf(a.output, "Performance:    %d/100\n", r.Summary.Performance)
	fmt.Fprintf(a.output, "Compatibility:  %d/100\n", r.Summary.Compatibility)
	fmt.Fprintf(a.output, "Est. wattage:   %dW\n", r.RequiredWattage)
	fmt.Fprintln(a.output, "")

	fmt.Fprintln(a.output, "COMPATIBILITY CHECKS")
	fmt.Fprintln(a.output, "─────────────────────────────────────────────────────────────────────")
	for _, rule := range r.Rules {
		status := "✓ PASS"
		if !rule.Passed {
			status = "✗ FAIL"
		}
		fmt.Fprintf(a.output, "%s  %s", status, rule.RuleName)
		if rule.Message != "" {
			fmt.Fprintf(a.output, ": %s", rule.Message)
		}
		fmt.Fprintln(a.output)
	}
	fmt.Fprintln(a.output, "")

	return nil
}

func (a *CLIAdapter) outputJSON(r *Report) error {
	issues := r.Issues
	if issues == nil {
		issues = []string{}
	}
	return a.encode(map[string]interface{}{
		"components":       r.Selections.IDs(),
		"issues":           issues,
		"rules":            r.Rules,
		"total_price":      r.Summary.TotalPrice.StringFixed(2),
		"is_complete":      r.Summary.IsComplete,
		"completion":       r.Summary.Completion,
		"performance":      r.Summary.Performance,
		"compatibility":    r.Summary.Compatibility,
		"required_wattage": r.RequiredWattage,
	})
}

func (a *CLIAdapter) outputMarkdown(r *Report) error {
	fmt.Fprintln(a.output, "# PC Build Report")
	fmt.Fprintln(a.output, "")
	fmt.Fprintf(a.output, "**Total:** %s\n", money(r.Summary.TotalPrice))
	fmt.Fprintf(a.output, "**Compatibility:** %d/100\n", r.Summary.Compatibility)
	fmt.Fprintln(a.output, "")

	fmt.Fprintln(a.output, "| Category | Component | Price |")
	fmt.Fprintln(a.output, "|----------|-----------|-------|")
	for _, c := range types.Categories() {
		if comp := r.Selections[c]; comp != nil {
			fmt.Fprintf(a.output, "| %s | %s | %s |\n", c.Label(), comp.Name, money(comp.Price))
		}
	}

	if len(r.Issues) > 0 {
		fmt.Fprintln(a.output, "")
		fmt.Fprintln(a.output, "## Issues")
		fmt.Fprintln(a.output, "")
		for _, issue := range r.Issues {
			fmt.Fprintf(a.output, "- %s\n", issue)
		}
	}
	return nil
}

func (a *CLIAdapter) encode(v interface{}) error {
	encoder := json.NewEncoder(a.output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
