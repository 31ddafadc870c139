package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lektrico/pkg/lektrico"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Result is the box printed after a device command completes.
type Result struct {
	Type            ResultType
	Title           string   // e.g., "Charging started"
	Details         []Param  // Ordered key-value details
	Error           error    // For failure results
	Explanation     string   // One-line description of the failure
	Troubleshooting []string // Bullet points for failure results
	Width           int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Param) *Result {
	return &Result{
		Type:    ResultSuccess,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details ...Param) *Result {
	return &Result{
		Type:    ResultWarning,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewErrorResult creates a failure box for err. Device errors are shown with
// their short message and the troubleshooting steps for their category.
func NewErrorResult(title string, err error) *Result {
	explanation, tips := splitHint(lektrico.TroubleshootingHint(err))
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Explanation:     explanation,
		Troubleshooting: tips,
		Width:           GetTerminalWidth(),
	}
}

// splitHint separates the bullet points of a troubleshooting hint from its
// leading explanation.
func splitHint(hint string) (string, []string) {
	var text []string
	var tips []string
	for _, line := range strings.Split(hint, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" || trimmed == "Troubleshooting:":
		case strings.HasPrefix(trimmed, "•"):
			tips = append(tips, strings.TrimSpace(strings.TrimPrefix(trimmed, "•")))
		default:
			text = append(text, trimmed)
		}
	}
	return strings.Join(text, " "), tips
}

// SetWidth sets the width used for rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail line
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Param{Key: key, Value: value})
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var (
		lines  []string
		border lipgloss.Color
	)

	switch r.Type {
	case ResultFailure:
		border = ErrorColor
		lines = append(lines, "", ErrorTitleStyle.Render(fmt.Sprintf("   %s  FAILED  ─  %s", FailureMarker, r.Title)), "")
		if r.Error != nil {
			lines = append(lines, ErrorMessageStyle.Render("   Error: "+lektrico.ShortMessage(r.Error)))
		}
		if r.Explanation != "" {
			lines = append(lines, ResultValueStyle.Render("   "+r.Explanation))
		}
		lines = append(lines, "")
		if len(r.Troubleshooting) > 0 {
			lines = append(lines, r.renderTroubleshootingBox(width), "")
		}
	case ResultWarning:
		border = WarningColor
		lines = append(lines, "", WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, r.Title)), "")
		lines = append(lines, r.renderDetails()...)
		lines = append(lines, "")
	default:
		border = SuccessColor
		lines = append(lines, "", SuccessTitleStyle.Render(fmt.Sprintf("   %s  SUCCESS  ─  %s", SuccessMarker, r.Title)), "")
		lines = append(lines, r.renderDetails()...)
		lines = append(lines, "")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(border).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

func (r *Result) renderDetails() []string {
	lines := make([]string, 0, len(r.Details))
	for _, d := range r.Details {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	return lines
}

func (r *Result) renderTroubleshootingBox(width int) string {
	lines := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
	for _, tip := range r.Troubleshooting {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
	}

	innerWidth := width - 12
	if innerWidth < 40 {
		innerWidth = 40
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(innerWidth).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

// RenderSuccess renders a success box with the given title and details
func RenderSuccess(title string, details ...Param) string {
	return NewSuccessResult(title, details...).Render()
}

// RenderWarning renders a warning box with the given title and details
func RenderWarning(title string, details ...Param) string {
	return NewWarningResult(title, details...).Render()
}

// RenderError renders a failure box for err
func RenderError(title string, err error) string {
	return NewErrorResult(title, err).Render()
}
