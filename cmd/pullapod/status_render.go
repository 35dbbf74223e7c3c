package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"pullapod/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusError
)

type statusStyle struct {
	tag   string
	color string
}

var statusStyles = map[statusKind]statusStyle{
	statusInfo:  {tag: "INFO", color: "\x1b[34m"},
	statusOK:    {tag: "OK", color: "\x1b[32m"},
	statusError: {tag: "ERROR", color: "\x1b[31m"},
}

const (
	ansiReset  = "\x1b[0m"
	labelWidth = 22
	lineIndent = "  "
)

// statusPrinter writes aligned "label: value" blocks, colored when the
// destination is a terminal.
type statusPrinter struct {
	w     io.Writer
	color bool
}

func newStatusPrinter(w io.Writer) *statusPrinter {
	return &statusPrinter{w: w, color: shouldColorize(w)}
}

func (p *statusPrinter) section(title string) {
	head := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len([]rune(head)))
	fmt.Fprintln(p.w, p.paint(statusInfo, head))
	fmt.Fprintln(p.w, p.paint(statusInfo, rule))
}

// field prints label and value; blank values are skipped.
func (p *statusPrinter) field(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintln(p.w, alignedLine(label, value))
}

func (p *statusPrinter) status(label string, kind statusKind, detail string) {
	fmt.Fprintln(p.w, p.paint(kind, statusLine(label, kind, detail)))
}

func (p *statusPrinter) preflight(results []preflight.Result) {
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		p.status(r.Name, kind, r.Detail)
	}
}

func (p *statusPrinter) paint(kind statusKind, s string) string {
	if !p.color {
		return s
	}
	return statusStyles[kind].color + s + ansiReset
}

func statusLine(label string, kind statusKind, detail string) string {
	value := "[" + statusStyles[kind].tag + "]"
	if detail != "" {
		value += " " + detail
	}
	return alignedLine(label, value)
}

func alignedLine(label, value string) string {
	return fmt.Sprintf("%s%-*s %s", lineIndent, labelWidth, label+":", value)
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
