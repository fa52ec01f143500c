// Package report renders bridge query results for the terminal.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Format selects how query results are printed
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", s)
}

// Printer writes results with optional colors
type Printer struct {
	out       io.Writer
	useColors bool
}

// NewPrinter creates a new printer
func NewPrinter(out io.Writer, useColors bool) *Printer {
	if !useColors {
		color.NoColor = true
	}
	return &Printer{
		out:       out,
		useColors: useColors,
	}
}

// PrintHeader prints a section title underlined with dashes
func (p *Printer) PrintHeader(title string) {
	_, _ = fmt.Fprintln(p.out)
	if p.useColors {
		bold := color.New(color.FgCyan, color.Bold)
		_, _ = bold.Fprintln(p.out, title)
	} else {
		_, _ = fmt.Fprintln(p.out, title)
	}
	_, _ = fmt.Fprintf(p.out, "%s\n\n", strings.Repeat("-", 15))
}

// PrintFatal prints an error the way portage tools do, prefixed with "!!!"
func (p *Printer) PrintFatal(err error) {
	if p.useColors {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(p.out, "!!! %s\n", err)
	} else {
		_, _ = fmt.Fprintf(p.out, "!!! %s\n", err)
	}
}

// Print writes v as JSON or YAML, or the text lines for FormatText
func (p *Printer) Print(format Format, v interface{}, text ...string) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(p.out, string(data))
	case FormatYAML:
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		_, _ = fmt.Fprint(p.out, buf.String())
	default:
		for _, line := range text {
			_, _ = fmt.Fprintln(p.out, line)
		}
	}
	return nil
}
