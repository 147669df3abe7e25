package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/reqcheck/pkg/checker"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleCode for rule codes.
	StyleCode = lipgloss.NewStyle().Bold(true).Foreground(colorRed)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleKey = lipgloss.NewStyle().Foreground(colorGray).Width(14)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Reports
// =============================================================================

// printFinding prints one finding as "path:line:col: I900 message", with
// the position dimmed and the rule code highlighted.
func printFinding(w io.Writer, f checker.Finding) {
	pos := fmt.Sprintf("%s:%d:%d:", f.Filename, f.Line, f.Col+1)
	msg := strings.TrimPrefix(f.Message, f.Code+" ")
	fmt.Fprintln(w, StyleDim.Render(pos)+" "+StyleCode.Render(f.Code)+" "+msg)
}

// printReport prints every finding and error of r, followed by a one-line
// summary.
func printReport(w io.Writer, r *checker.Report) {
	for _, f := range r.Findings {
		printFinding(w, f)
	}
	for _, file := range slices.Sorted(maps.Keys(r.Errors)) {
		printError(w, "%s: %s", file, r.Errors[file])
	}

	switch {
	case len(r.Findings) == 0 && len(r.Errors) == 0:
		printSuccess(w, "%s checked, all imports declared", plural(r.Files, "file"))
	case len(r.Findings) > 0:
		printWarning(w, "%s in %s", plural(len(r.Findings), "undeclared import"), plural(r.Files, "file"))
	}
	if len(r.Errors) > 0 {
		printError(w, "%s could not be checked", plural(len(r.Errors), "file"))
	}
}

// printSummary prints what the engine read from the project.
func printSummary(w io.Writer, s *checker.Summary) {
	fmt.Fprintln(w, StyleTitle.Render("Project"))
	printKeyValue(w, "root", s.Root)
	printKeyValue(w, "source", s.Source)
	if s.FirstParty != "" {
		printKeyValue(w, "name", s.FirstParty)
	}
	if len(s.FirstPartyModules) > 0 {
		printKeyValue(w, "modules", strings.Join(s.FirstPartyModules, ", "))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, StyleTitle.Render("Requirements"))
	if len(s.Requirements) == 0 {
		printDetail(w, "none declared")
		return
	}
	for _, d := range s.Requirements {
		fmt.Fprintln(w, "  "+StyleHighlight.Render(d.Requirement))
		fmt.Fprintln(w, "    "+StyleDim.Render(iconArrow)+" "+
			StyleValue.Render(strings.Join(d.Modules, ", "))+" "+StyleDim.Render("("+d.Mapping+")"))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// encode writes v as indented JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	if format == checker.FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
