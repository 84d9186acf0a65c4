// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/staranto/memo/internal/config"
)

// Column is one attribute of a result row. Text renders it for the table,
// Value for json and yaml output.
type Column[R any] struct {
	Name  string
	Text  func(R) string
	Value func(R) any
}

// Emit writes rows in the format selected by --output.
func Emit[R any](cmd *cli.Command, w io.Writer, columns []Column[R], rows []R) error {
	switch cmd.String("output") {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records(columns, rows))
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(records(columns, rows))
	default:
		TableWriter(cmd, w, columns, rows)
		return nil
	}
}

func records[R any](columns []Column[R], rows []R) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		rec := make(map[string]any, len(columns))
		for _, c := range columns {
			rec[c.Name] = c.Value(r)
		}
		out = append(out, rec)
	}
	return out
}

// TableWriter renders rows as a borderless table honoring the color and
// titles flags.
func TableWriter[R any](cmd *cli.Command, w io.Writer, columns []Column[R], rows []R) {
	if len(rows) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if cmd.Bool("color") {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	pad, _ := config.GetInt("padding", 2)

	var cells [][]string
	for _, r := range rows {
		row := make([]string, 0, len(columns))
		for _, c := range columns {
			row = append(row, c.Text(r))
		}
		cells = append(cells, row)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Rows(cells...)

	if cmd.Bool("titles") {
		headers := make([]string, 0, len(columns))
		for _, c := range columns {
			headers = append(headers, c.Name)
		}
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t.String())
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}
