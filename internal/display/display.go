// Package display formats CIR's verbose-mode output: the boxed run banner
// plus a line per phase transition and mediator decision, so an operator
// watching `cir run --verbose` can follow the repair loop without reading
// the benchmark log afterward.
package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// Display handles all CLI output with visual hierarchy.
type Display struct {
	theme     *Theme
	termWidth int
	noColor   bool
}

// New creates a new Display instance.
func New() *Display {
	return NewWithOptions(false)
}

// NewWithOptions creates a Display with configuration.
func NewWithOptions(noColor bool) *Display {
	d := &Display{
		termWidth: getTerminalWidth(),
		noColor:   noColor,
	}
	if noColor {
		d.theme = NoColorTheme()
	} else {
		d.theme = DefaultTheme()
	}
	return d
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	if width > 120 {
		return 120
	}
	return width
}

// Banner prints a boxed message under the given title.
func (d *Display) Banner(title string, lines ...string) {
	if len(lines) == 0 {
		return
	}

	width := d.termWidth - 2
	titleLen := len(title) + 4
	remainingWidth := width - titleLen
	if remainingWidth < 0 {
		remainingWidth = 0
	}

	topLine := BoxTopLeft + BoxHorizontal + " " + title + " " + strings.Repeat(BoxHorizontal, remainingWidth) + BoxTopRight
	fmt.Println(d.theme.Border(topLine))

	for _, line := range lines {
		paddedLine := d.padRight(line, width-2)
		fmt.Println(d.theme.Border(BoxVertical) + " " + d.theme.Text(paddedLine) + " " + d.theme.Border(BoxVertical))
	}

	bottomLine := BoxBottomLeft + strings.Repeat(BoxHorizontal, width) + BoxBottomRight
	fmt.Println(d.theme.Border(bottomLine))
}

// Status prints a single-line timestamped status message (no box).
func (d *Display) Status(symbol, message string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Printf("%s %s %s\n", d.theme.Border(timestamp), symbol, d.theme.Text(message))
}

// Success prints a success message with a green checkmark.
func (d *Display) Success(message string) {
	d.Status(d.theme.Success(SymbolSuccess), message)
}

// Error prints an error message with a red X.
func (d *Display) Error(message string) {
	d.Status(d.theme.Error(SymbolError), message)
}

// Warning prints a warning message with a yellow triangle.
func (d *Display) Warning(message string) {
	d.Status(d.theme.Warning(SymbolWarning), message)
}

// Info prints a labeled info line.
func (d *Display) Info(label, message string) {
	d.Status(d.theme.Info(label+":"), message)
}

// RunStart prints the banner shown when a repair run begins.
func (d *Display) RunStart(goal string) {
	d.Banner("CIR", "Goal: "+Truncate(goal, d.termWidth-12))
}

// PhaseTransition prints an iteration's phase and task.
func (d *Display) PhaseTransition(iteration int, phase, task string) {
	d.Status(d.theme.Info(SymbolPhase), fmt.Sprintf("[%d] %s — %s", iteration, phase, Truncate(task, d.termWidth-30)))
}

// Decision prints the mediator's decision for the iteration just executed.
func (d *Display) Decision(decision, reason string) {
	symbol := d.theme.Info(SymbolDecision)
	switch decision {
	case "SUCCESS":
		symbol = d.theme.Success(SymbolSuccess)
	case "FAIL":
		symbol = d.theme.Error(SymbolError)
	case "REPLAN":
		symbol = d.theme.Warning(SymbolWarning)
	}
	d.Status(symbol, fmt.Sprintf("%s: %s", decision, reason))
}

// RunSummary prints the terminal banner for a finished run.
func (d *Display) RunSummary(success bool, status string, iterations int, dur time.Duration) {
	lines := []string{
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Iterations: %d", iterations),
		fmt.Sprintf("Duration: %s", dur.Round(time.Second)),
	}
	if success {
		d.Banner("RESOLVED", lines...)
	} else {
		d.Banner("UNRESOLVED", lines...)
	}
}

// wrapText wraps text to specified width, returning at most 5 lines.
func (d *Display) wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		maxWidth = 80
	}

	text = strings.TrimSpace(text)
	if len(text) <= maxWidth {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len()+len(word)+1 > maxWidth {
			if currentLine.Len() > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
			}
		}
		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	if len(lines) > 5 {
		lines = lines[:5]
		if len(lines[4]) > maxWidth-3 {
			lines[4] = lines[4][:maxWidth-3]
		}
		lines[4] = lines[4] + "..."
	}

	return lines
}

// Theme returns the current theme for external use.
func (d *Display) Theme() *Theme {
	return d.theme
}

func (d *Display) padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Truncate truncates text to max length with ellipsis.
func Truncate(s string, max int) string {
	s = CleanText(s)
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// CleanText removes newlines and collapses spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}
