package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// table renders aligned columns with a colored header row.
type table struct {
	headers []string
	rows    [][]string
	widths  []int
}

func newTable(headers []string) *table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &table{headers: headers, widths: widths}
}

// addRow appends a row and widens columns to fit its cells.
func (t *table) addRow(cells []string) {
	for i, cell := range cells {
		if i < len(t.widths) && len(cell) > t.widths[i] {
			t.widths[i] = len(cell)
		}
	}
	t.rows = append(t.rows, cells)
}

// render prints the table to stdout.
func (t *table) render() {
	headerColor := color.New(color.FgCyan, color.Bold)
	for i, h := range t.headers {
		headerColor.Printf("%-*s", t.widths[i], h)
		if i < len(t.headers)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()

	for i := range t.headers {
		fmt.Print(strings.Repeat("-", t.widths[i]))
		if i < len(t.headers)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()

	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(t.widths) {
				break
			}
			fmt.Printf("%-*s", t.widths[i], cell)
			if i < len(row)-1 {
				fmt.Print("  ")
			}
		}
		fmt.Println()
	}
}
