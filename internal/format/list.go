// Package format provides output writers for raw-log listings.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"github.com/hugentobler/ralph/internal/logdir"
)

// WriteSummaries writes log summaries to w in the requested format.
func WriteSummaries(w io.Writer, items []logdir.Summary, includeHeader bool, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeSummariesTable(w, items, includeHeader)
	case "plain":
		return writeSummariesPlain(w, items, includeHeader)
	case "json":
		return writeSummariesJSON(w, items)
	case "jsonl":
		return writeSummariesJSONL(w, items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeSummariesPlain(w io.Writer, items []logdir.Summary, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "modified\tname\tlines\tevents\traw\tdone\tsize"); err != nil {
			return err
		}
	}

	for _, item := range items {
		line := fmt.Sprintf(
			"%s\t%s\t%d\t%d\t%d\t%s\t%d",
			item.ModTime.Format(time.RFC3339),
			item.Name,
			item.Lines,
			item.Events,
			item.RawLines,
			doneMark(item.CompletionFound),
			item.Size,
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeSummariesJSON(w io.Writer, items []logdir.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func writeSummariesJSONL(w io.Writer, items []logdir.Summary) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func writeSummariesTable(w io.Writer, items []logdir.Summary, includeHeader bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 60},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 7, Align: text.AlignRight, AlignHeader: text.AlignCenter},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"Modified", "Name", "Lines", "Events", "Raw", "Done", "Size"})
	}

	for _, item := range items {
		tw.AppendRow(table.Row{
			item.ModTime.Format(time.RFC3339),
			ClipDisplay(item.Name, 60),
			item.Lines,
			item.Events,
			item.RawLines,
			doneMark(item.CompletionFound),
			item.Size,
		})
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "(no logs)", 0, 0, 0, "-", 0})
	}

	_ = tw.Render()
	return nil
}

// ClipDisplay truncates text to max display columns, appending an ellipsis
// when anything was cut.
func ClipDisplay(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= max {
		return text
	}
	return runewidth.Truncate(text, max, "…")
}

func doneMark(found bool) string {
	if found {
		return "yes"
	}
	return "-"
}
