package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/searchmap/internal/reindex"
)

// Level is the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// MessageOptions configures a formatted message
type MessageOptions struct {
	Level       Level
	Context     string
	Problem     string
	Details     []string
	Suggestions []string
	Hints       []string
	NoColor     bool
}

func palette(level Level, noColor bool) (header, body *color.Color, symbol string) {
	switch level {
	case LevelWarning:
		header, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "⚠️"
	case LevelInfo:
		header, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "ℹ️"
	default:
		header, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "❌"
	}
	if noColor {
		header.DisableColor()
		body.DisableColor()
	}
	return header, body, symbol
}

func colored(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// FormatMessage renders a message with its details, suggestions and hints
//
// Example output:
//
//	❌ SEARCH MAPPING FAILED: 1 type cannot be indexed
//	   *shop.Order
//	     - cannot invert path ...
//
//	   → Declare the inverse side with search:"inverse=..."
func FormatMessage(opts MessageOptions) string {
	var b strings.Builder
	header, body, symbol := palette(opts.Level, opts.NoColor)

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	for _, d := range opts.Details {
		body.Fprintf(&b, "   %s\n", d)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		colored(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.Hints) > 0 {
		b.WriteString("\n")
		cyan := colored(opts.NoColor, color.FgCyan)
		for _, h := range opts.Hints {
			cyan.Fprintf(&b, "   → %s\n", h)
		}
	}
	return b.String()
}

// WriteMessage writes a formatted message to w
func WriteMessage(w io.Writer, opts MessageOptions) {
	fmt.Fprint(w, FormatMessage(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return colored(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to w
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// BootstrapFailure renders the failures of a mapping build grouped by type. Errors that
// are not a *reindex.BootstrapError are rendered as a single problem.
func BootstrapFailure(err error, noColor bool) string {
	var be *reindex.BootstrapError
	if !errors.As(err, &be) {
		return FormatMessage(MessageOptions{
			Context: "search mapping failed",
			Problem: err.Error(),
			NoColor: noColor,
		})
	}

	var details []string
	for _, t := range be.Types {
		details = append(details, t)
		for _, f := range be.Failures[t] {
			details = append(details, "  - "+f.Error())
		}
	}

	noun := "types"
	if len(be.Types) == 1 {
		noun = "type"
	}
	return FormatMessage(MessageOptions{
		Context: "search mapping failed",
		Problem: fmt.Sprintf("%d %s cannot be indexed", len(be.Types), noun),
		Details: details,
		Hints: []string{
			`Declare the inverse side of embedded associations: search:"inverse=Property"`,
			"Or declare it outside the model: Builder.InverseSide / Builder.LoadMetadata",
		},
		NoColor: noColor,
	})
}

// UnknownTypeError reports an entity type or index name that does not exist, suggesting
// the closest known names
func UnknownTypeError(name string, known []string, noColor bool) string {
	return FormatMessage(MessageOptions{
		Context:     "unknown type",
		Problem:     fmt.Sprintf("No entity type or index is named '%s'.", name),
		Suggestions: FindSimilar(name, known, nil),
		NoColor:     noColor,
	})
}

// ConfigError reports an invalid configuration
func ConfigError(err error, noColor bool) string {
	return FormatMessage(MessageOptions{
		Context: "configuration error",
		Problem: err.Error(),
		Hints: []string{
			"View config: searchmap config",
			"Environment overrides use the SEARCHMAP_ prefix, e.g. SEARCHMAP_BACKEND_KIND",
		},
		NoColor: noColor,
	})
}

// OutboxError reports a failed outbox operation
func OutboxError(err error, noColor bool) string {
	return FormatMessage(MessageOptions{
		Context: "outbox error",
		Problem: err.Error(),
		Hints: []string{
			"Check outbox.database_url in searchmap.yaml",
			"Create the table: searchmap outbox init",
		},
		NoColor: noColor,
	})
}

// Warning creates a warning message
func Warning(message string, noColor bool) string {
	return FormatMessage(MessageOptions{Level: LevelWarning, Problem: message, NoColor: noColor})
}
