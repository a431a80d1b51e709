package ui

import (
	"bufio"
	"io"
	"strings"

	"github.com/fatih/color"
)

// RenderExplanation writes the output of Mapping.Explain with highlighting: index and
// resolver headers in bold, marks for reindexing in green, casts in magenta
func RenderExplanation(w io.Writer, explanation string, noColor bool) error {
	header := colored(noColor, color.Bold)
	keyword := colored(noColor, color.FgCyan)
	mark := colored(noColor, color.FgGreen)
	cast := colored(noColor, color.FgMagenta)
	dim := colored(noColor, color.FgHiBlack)

	bw := bufio.NewWriter(w)
	for _, line := range strings.Split(strings.TrimRight(explanation, "\n"), "\n") {
		trimmed := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(trimmed)]
		word, rest, _ := strings.Cut(trimmed, " ")

		var c *color.Color
		switch word {
		case "index", "resolver":
			c = header
		case "reindex", "self":
			c = mark
		case "cast":
			c = cast
		case "none":
			c = dim
		default:
			c = keyword
		}

		bw.WriteString(indent)
		c.Fprint(bw, word)
		if rest != "" {
			bw.WriteString(" " + rest)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}
