package command

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"afriotv/internal/catalog"
	"afriotv/internal/live"
	"afriotv/internal/notify"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	titleColor   = color.New(color.FgCyan, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

func printNotice(n notify.Notice) {
	if n.Destructive {
		errorColor.Fprint(os.Stderr, "✗ ", n.Title)
	} else {
		successColor.Print("✓ ", n.Title)
	}
	if n.Description != "" {
		fmt.Fprint(noticeOut(n), " - ", n.Description)
	}
	fmt.Fprintln(noticeOut(n))
}

func noticeOut(n notify.Notice) *os.File {
	if n.Destructive {
		return os.Stderr
	}
	return os.Stdout
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// contentTable lists catalog items one per row.
func contentTable(items []live.Doc[catalog.Item]) string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		year := ""
		if it.Data.ReleaseYear > 0 {
			year = strconv.Itoa(it.Data.ReleaseYear)
		}
		title := it.Data.Title
		if it.Data.IsTrending {
			title += " 🔥"
		}
		rows = append(rows, []string{
			it.ID,
			title,
			it.Data.Type,
			year,
			fmt.Sprintf("%.1f", it.Data.Rating),
			strings.Join(it.Data.Genres, ", "),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Type", "Year", "Rating", "Genres"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}
