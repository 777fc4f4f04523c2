package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes stream parts in the tutorial client's layout: the line
// "Receiving new event of type: <event>...", the JSON payload on the next
// line, then three blank lines.
//
// The header is styled only when the output supports colors.
type Printer struct {
	w      io.Writer
	header lipgloss.Style
	indent bool
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithIndent pretty-prints the JSON payloads.
func WithIndent(indent bool) PrinterOption {
	return func(p *Printer) {
		p.indent = indent
	}
}

// NewPrinter returns a Printer writing to w. Colors follow the terminal
// capabilities of w.
func NewPrinter(w io.Writer, opts ...PrinterOption) *Printer {
	renderer := lipgloss.NewRenderer(w)
	p := &Printer{
		w:      w,
		header: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Print writes one part. It is called once per part, before the next part
// is read.
func (p *Printer) Print(part StreamPart) error {
	data := []byte(part.Data)
	if p.indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err == nil {
			data = buf.Bytes()
		}
	}
	header := p.header.Render(fmt.Sprintf("Receiving new event of type: %s...", part.Event))
	_, err := fmt.Fprintf(p.w, "%s\n%s\n\n\n\n", header, data)
	return err
}

// PrintAll prints every part of stream in arrival order and returns the
// number printed. It stops at the first stream or write error.
func (p *Printer) PrintAll(stream *RunStream) (int, error) {
	n := 0
	for part, err := range stream.Iter() {
		if err != nil {
			return n, err
		}
		if err := p.Print(part); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
