package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"pcbuild/core/compat"
	"pcbuild/core/types"
)

func sampleSelections() types.Selections {
	sel := types.NewSelections()
	sel[types.CategoryCPU] = &types.Component{
		ID: "cpu-a", Category: types.CategoryCPU, Name: "Ryzen 7 7800X3D",
		Price: decimal.RequireFromString("449"), Specs: types.Specs{Socket: "AM5", TDP: 120, PerformanceScore: 90},
	}
	sel[types.CategoryMotherboard] = &types.Component{
		ID: "mb-a", Category: types.CategoryMotherboard, Name: "Z790-A",
		Price: decimal.RequireFromString("289.5"), Specs: types.Specs{Socket: "LGA1700", MemoryType: "DDR5", FormFactor: "ATX"},
	}
	return sel
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatTable, false},
		{"cli", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"md", FormatMarkdown, false},
		{"xml", FormatTable, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	a := NewCLIAdapter()
	a.SetOutput(&buf)

	report := NewReport(compat.NewEngine(compat.DefaultConfig()), sampleSelections())
	if err := a.Render(report); err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Ryzen 7 7800X3D",
		"(not selected)",
		"$738.50",
		"✗ FAIL  socket_match",
		"Compatibility:  75/100",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	a := NewCLIAdapter()
	a.SetOutput(&buf)
	a.SetFormat(FormatJSON)

	report := NewReport(compat.NewEngine(compat.DefaultConfig()), sampleSelections())
	if err := a.Render(report); err != nil {
		t.Fatalf("Render: %v", err)
	}

	var got struct {
		Components map[string]string `json:"components"`
		Issues     []string          `json:"issues"`
		TotalPrice string            `json:"total_price"`
		IsComplete bool              `json:"is_complete"`
		Wattage    int               `json:"required_wattage"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if got.TotalPrice != "738.50" || got.IsComplete || len(got.Issues) != 1 {
		t.Errorf("unexpected report: %+v", got)
	}
	if got.Components["cpu"] != "cpu-a" || got.Wattage != 270 {
		t.Errorf("unexpected components or wattage: %+v", got)
	}
}

func TestRenderMarkdownListsIssues(t *testing.T) {
	var buf bytes.Buffer
	a := NewCLIAdapter()
	a.SetOutput(&buf)
	a.SetFormat(FormatMarkdown)

	if err := a.Render(NewReport(compat.NewEngine(compat.DefaultConfig()), sampleSelections())); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "## Issues") || !strings.Contains(buf.String(), "CPU socket (AM5)") {
		t.Errorf("markdown missing issues:\n%s", buf.String())
	}
}

func TestRenderSavedEmpty(t *testing.T) {
	var buf bytes.Buffer
	a := NewCLIAdapter()
	a.SetOutput(&buf)
	if err := a.RenderSaved(nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No saved configurations") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
