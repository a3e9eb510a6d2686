// Package observability provides formatted terminal output for answers,
// contexts and verbose mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxSourcesToShow is the number of sources listed in a result box
	maxSourcesToShow = 5
	// maxContextToShow caps the context printed in verbose mode
	maxContextToShow = 2000
)

// Printer writes labelled, optionally colored output.
type Printer struct {
	out    io.Writer
	green  *color.Color
	yellow *color.Color
	white  *color.Color
	red    *color.Color
	grey   *color.Color
}

// NewPrinter creates a new Printer that writes to the given writer.
// Colors follow fatih/color's terminal detection.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		green:  color.New(color.FgGreen, color.Bold),
		yellow: color.New(color.FgYellow, color.Bold),
		white:  color.New(color.FgWhite, color.Bold),
		red:    color.New(color.FgRed, color.Bold),
		grey:   color.New(color.FgHiBlack),
	}
}

// WithColor forces colors on or off.
func (p *Printer) WithColor(enabled bool) *Printer {
	for _, c := range []*color.Color{p.green, p.yellow, p.white, p.red, p.grey} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// GreenBold colors s for labels of primary output.
func (p *Printer) GreenBold(s string) string { return p.green.Sprint(s) }

// YellowBold colors s for labels of verbose output.
func (p *Printer) YellowBold(s string) string { return p.yellow.Sprint(s) }

// Label prints "label: value" with a green label.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Label(label string, value any) {
	fmt.Fprintln(p.out, p.GreenBold(label+":"), value)
}

// Verbose prints "label: value" with a yellow label.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Verbose(label string, value any) {
	fmt.Fprintln(p.out, p.YellowBold(label+":"), value)
}

// Debug prints a named intermediate value.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Debug(name string, value any) {
	fmt.Fprintf(p.out, "%s %s %v\n", p.red.Sprint("DEBUG"), p.white.Sprint(name+":"), value)
}

// Highlights lists the substrings ColorDoc colors.
type Highlights struct {
	Green  []string
	Yellow []string
	White  []string
	Grey   []string
}

// ColorDoc returns doc with every highlighted substring colored.
func (p *Printer) ColorDoc(doc string, h Highlights) string {
	pairs := make([]string, 0)
	add := func(c *color.Color, items []string) {
		for _, s := range items {
			pairs = append(pairs, s, c.Sprint(s))
		}
	}
	add(p.green, h.Green)
	add(p.yellow, h.Yellow)
	add(p.white, h.White)
	add(p.grey, h.Grey)
	return strings.NewReplacer(pairs...).Replace(doc)
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, chunk := range wrap(line, boxWidth-4) {
			fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, chunk)
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrap splits line into chunks of at most width runes.
func wrap(line string, width int) []string {
	runes := []rune(line)
	if len(runes) <= width {
		return []string{line}
	}
	var chunks []string
	for len(runes) > width {
		chunks = append(chunks, string(runes[:width]))
		runes = runes[width:]
	}
	return append(chunks, string(runes))
}

// PrintAnswer prints the question and answer lines of a result.
func (p *Printer) PrintAnswer(result *types.Result) {
	if result == nil {
		return
	}
	p.Label("question", result.Question)
	p.Label("answer", result.Answer)
}

// PrintContext prints the filtered context, truncated for the terminal.
func (p *Printer) PrintContext(ctx types.Context) {
	text := string(ctx)
	if r := []rune(text); len(r) > maxContextToShow {
		text = string(r[:maxContextToShow]) + fmt.Sprintf("... (%d more characters)", len(r)-maxContextToShow)
	}
	p.Verbose("context", text)
}

// PrintExtraData prints the model's auxiliary output.
func (p *Printer) PrintExtraData(extra types.ExtraData) {
	p.Verbose("extradata", fmt.Sprintf("score=%.4f start=%d end=%d model=%s tokenizer=%s",
		extra.Score, extra.Start, extra.End, extra.Model, extra.Tokenizer))
}

// PrintResult outputs a boxed summary of a result and its sources.
func (p *Printer) PrintResult(result *types.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Question: %s\n", result.Question))
	if result.Query != "" {
		sb.WriteString(fmt.Sprintf("Query:    %s\n", result.Query))
	}
	sb.WriteString(fmt.Sprintf("Answer:   %s\n", result.Answer))
	sb.WriteString(fmt.Sprintf("Score:    %.4f\n", result.ExtraData.Score))
	if result.ID != "" {
		sb.WriteString(fmt.Sprintf("ID:       %s\n", result.ID))
	}
	if result.Cached {
		sb.WriteString("(from cache)\n")
	}

	if len(result.Sources) > 0 {
		sb.WriteString(fmt.Sprintf("\nSources (%d):\n", len(result.Sources)))
		count := min(len(result.Sources), maxSourcesToShow)
		for i := 0; i < count; i++ {
			src := result.Sources[i]
			line := fmt.Sprintf("  • %s", src.URL)
			if src.Error != "" {
				line += " (" + src.Error + ")"
			}
			sb.WriteString(line + "\n")
		}
		if len(result.Sources) > maxSourcesToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Sources)-maxSourcesToShow))
		}
	}

	p.printBox("ANSWER", strings.TrimSuffix(sb.String(), "\n"))
}
