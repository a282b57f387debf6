// Package observability provides formatted output utilities for the CLI's --pretty mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/resume-versions/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for pretty mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
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
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most width runes
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// PrintHistory outputs a company's version timeline, newest first, with the current version marked.
func (p *Printer) PrintHistory(h *types.CompanyVersionHistory) {
	if h == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", h.CompanyName))
	sb.WriteString(fmt.Sprintf("ID:       %s\n", h.CompanyID))
	sb.WriteString(fmt.Sprintf("Versions: %d\n\n", len(h.Versions)))

	count := 0
	for i := len(h.Versions) - 1; i >= 0 && count < maxItemsToShow; i-- {
		v := h.Versions[i]
		marker := " "
		if v.ID == h.CurrentVersionID {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s v%d  %s  %s\n", marker, v.Version, v.JobTitle, v.CreatedAt.Format(time.DateOnly)))
		if v.ChangeSummary != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", v.ChangeSummary))
		}
		count++
	}
	if len(h.Versions) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d older versions\n", len(h.Versions)-maxItemsToShow))
	}

	p.printBox("VERSION HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintVersion outputs one version's metadata and its reported changes.
func (p *Printer) PrintVersion(v *types.CompanyVersion) {
	if v == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", v.CompanyName))
	sb.WriteString(fmt.Sprintf("Role:     %s\n", v.JobTitle))
	sb.WriteString(fmt.Sprintf("Version:  %d (%s)\n", v.Version, v.ID))
	if v.BaseVersionID != "" {
		sb.WriteString(fmt.Sprintf("Based on: %s\n", v.BaseVersionID))
	}
	if v.Notes != "" {
		sb.WriteString(fmt.Sprintf("Notes:    %s\n", v.Notes))
	}
	if v.ChangeSummary != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", v.ChangeSummary))
	}

	if len(v.Changes) > 0 {
		sb.WriteString("\nChanges:\n")
		count := min(len(v.Changes), maxItemsToShow)
		for i := 0; i < count; i++ {
			c := v.Changes[i]
			sb.WriteString(fmt.Sprintf("  • %s", c.Section))
			if c.Field != "" {
				sb.WriteString(fmt.Sprintf(".%s", c.Field))
			}
			if c.Description != "" {
				sb.WriteString(fmt.Sprintf(": %s", c.Description))
			}
			sb.WriteString("\n")
		}
		if len(v.Changes) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(v.Changes)-maxItemsToShow))
		}
	}

	p.printBox(fmt.Sprintf("VERSION %d", v.Version), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCompanies outputs the company listing as a compact box.
func (p *Printer) PrintCompanies(metas []types.CompanyVersionMeta) {
	if len(metas) == 0 {
		p.printBox("COMPANIES", "No companies yet")
		return
	}

	var sb strings.Builder
	for i, m := range metas {
		sb.WriteString(fmt.Sprintf("%s  (%d versions)\n", m.CompanyName, m.VersionCount))
		sb.WriteString(fmt.Sprintf("    %s\n", m.JobTitle))
		if i < len(metas)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("COMPANIES", strings.TrimSuffix(sb.String(), "\n"))
}
