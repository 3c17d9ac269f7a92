// Package observability provides formatted console output for the board CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/pipeline-board/internal/board"
	"github.com/jonathan/pipeline-board/internal/stages"
	"github.com/jonathan/pipeline-board/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of cards listed per stage
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
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

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBoard outputs one box per stage, in board order, with the first cards of each.
func (p *Printer) PrintBoard(snap board.Snapshot, registry *stages.Registry) {
	counts := snap.Counts()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:      %s\n", snap.JobID))
	sb.WriteString(fmt.Sprintf("Total:    %d\n", snap.Len()))
	if len(snap.Unplaced) > 0 {
		sb.WriteString(fmt.Sprintf("Unplaced: %d\n", len(snap.Unplaced)))
	}
	sb.WriteString("\n")
	for _, id := range snap.Stages {
		sb.WriteString(fmt.Sprintf("%-12s %3d\n", stageName(registry, id), counts[id]))
	}
	p.printBox("PIPELINE BOARD", strings.TrimSuffix(sb.String(), "\n"))

	for _, id := range snap.Stages {
		records := snap.Bucket(id)
		if len(records) == 0 {
			continue
		}
		p.printBox(fmt.Sprintf("%s (%d)", strings.ToUpper(stageName(registry, id)), len(records)), formatCards(records))
	}

	if len(snap.Unplaced) > 0 {
		var ub strings.Builder
		for i, u := range snap.Unplaced {
			ub.WriteString(fmt.Sprintf("⚠ %s: %s %q", u.ApplicationID, u.Reason, u.Stage))
			if i < len(snap.Unplaced)-1 {
				ub.WriteString("\n")
			}
		}
		p.printBox("UNPLACED APPLICATIONS", ub.String())
	}
}

// PrintView outputs a filtered board as one box listing matches per stage.
func (p *Printer) PrintView(view board.View, registry *stages.Registry) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Matches: %d\n", view.Total))
	for _, id := range view.Stages {
		records := view.Buckets[id]
		if len(records) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s:\n", stageName(registry, id)))
		sb.WriteString(formatCards(records))
		sb.WriteString("\n")
	}
	p.printBox("FILTERED BOARD", strings.TrimSuffix(sb.String(), "\n"))
}

func formatCards(records []types.ApplicationRecord) string {
	var sb strings.Builder
	count := min(len(records), maxItemsToShow)
	for i := 0; i < count; i++ {
		rec := records[i]
		star := " "
		if rec.Star {
			star = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %-30s %5.1f", star, rec.Name, rec.Score))
		if rec.Source != "" {
			sb.WriteString(fmt.Sprintf("  %s", rec.Source))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(records) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n  ... and %d more", len(records)-maxItemsToShow))
	}
	return sb.String()
}

// PrintHistory outputs the audit log of one application, oldest first.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintHistory(applicationID string, events []types.TransitionEvent) {
	if len(events) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO HISTORY FOR "+applicationID)
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	for i, ev := range events {
		sb.WriteString(fmt.Sprintf("%s  %s -> %s\n", ev.OccurredAt.Format("2006-01-02 15:04"), ev.FromStage, ev.ToStage))
		detail := ev.Actor
		if ev.Note != "" {
			detail = strings.TrimSpace(detail + " (" + ev.Note + ")")
		}
		if detail != "" {
			sb.WriteString(fmt.Sprintf("  by %s", detail))
		}
		if i < len(events)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("HISTORY "+applicationID, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBulkResult outputs the per-item outcome of a bulk move.
func (p *Printer) PrintBulkResult(result board.BulkResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Target:    %s\n", result.Target))
	sb.WriteString(fmt.Sprintf("Succeeded: %d\n", result.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed:    %d\n", result.Failed))
	if len(result.Items) > 0 {
		sb.WriteString("\n")
	}
	for i, item := range result.Items {
		if item.Succeeded() {
			sb.WriteString(fmt.Sprintf("✓ %s", item.ApplicationID))
		} else {
			sb.WriteString(fmt.Sprintf("✗ %s: %s", item.ApplicationID, item.Error))
		}
		if i < len(result.Items)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("BULK MOVE", strings.TrimSuffix(sb.String(), "\n"))
}

func stageName(registry *stages.Registry, id string) string {
	if registry != nil {
		if st, ok := registry.Get(id); ok && st.Name != "" {
			return st.Name
		}
	}
	return id
}
