package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var dirsCmd = &cobra.Command{
	Use:   "dirs",
	Short: "List remembered directories",
	Args:  cobra.NoArgs,
	RunE:  runDirs,
}

func init() {
	rootCmd.AddCommand(dirsCmd)
}

func runDirs(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	dirs := s.app.RememberedDirs()
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, dirs)
	}
	if len(dirs) == 0 {
		_, err := fmt.Fprintln(out, "No remembered directories")
		return err
	}

	keys := make([]string, 0, len(dirs))
	for k := range dirs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tDIRECTORY")
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", k, dirs[k])
	}
	return w.Flush()
}
