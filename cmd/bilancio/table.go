package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"bilancio/internal/cli"
)

func writeTable(out io.Writer, header []string, rows [][]string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	styled := make([]string, len(header))
	for i, h := range header {
		styled[i] = cli.HeaderStyle.Render(h)
	}
	fmt.Fprintln(w, strings.Join(styled, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func printEmpty(out io.Writer, msg string) {
	fmt.Fprintln(out, cli.InfoStyle.Render(msg))
}
