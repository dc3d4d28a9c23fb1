package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/segmmu/datarecording"
	"github.com/sarchlab/segmmu/tracing"
)

var reportCmd = &cobra.Command{
	Use:   "report [recording.sqlite3]",
	Short: "Summarize a recording created with translate --record.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := runReport(args[0], cmd.OutOrStdout())
		if err != nil {
			atexit.Fatalf("Error: %v\n", err)
		}

		atexit.Exit(0)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(filename string, out io.Writer) error {
	reader, err := datarecording.NewReader(filename)
	if err != nil {
		return err
	}
	defer reader.Close()

	n, err := reader.CountRows(tracing.TranslationTable)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "translations: %d\n", n)

	groups := []struct {
		table, column string
	}{
		{tracing.TranslationTable, "Location"},
		{tracing.TranslationTable, "Outcome"},
		{tracing.AllocationTable, "Level"},
		{tracing.EvictionTable, "Location"},
	}

	for _, g := range groups {
		counts, err := reader.CountBy(g.table, g.column)
		if err != nil {
			return err
		}

		printCounts(out, g.table+" by "+g.column, counts)
	}

	return nil
}

func printCounts(out io.Writer, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	fmt.Fprintf(out, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %d\n", k, counts[k])
	}
}
