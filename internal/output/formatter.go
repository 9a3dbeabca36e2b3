package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/gitpulse/internal/errors"
)

// Format selects how results are rendered
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a user-supplied format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", errors.ValidationErrorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// ColorEnabled reports whether colored output should be used on w. Color is
// only used when requested and w is a terminal.
func ColorEnabled(requested bool, w io.Writer) bool {
	if !requested {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Printer renders statistics results in one format
type Printer struct {
	w      io.Writer
	format Format
	color  bool
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer, format Format, color bool) *Printer {
	if format == "" {
		format = FormatTable
	}
	return &Printer{w: w, format: format, color: color}
}

// Print renders v. Structured formats accept any value; the table format
// accepts the result types of the statistics, ingestion and git packages.
func (p *Printer) Print(v interface{}) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text, err := p.table(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.w, text)
		return err
	}
}
