package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/imgkit/internal/history"
)

var validOperations = []string{history.OpDownload, history.OpSequence, history.OpMerge}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past runs",
	Long: `Show past download, sequence and merge runs, newest first.

Examples:
  imgkit history                      # Last 20 runs
  imgkit history --operation merge    # Only merges
  imgkit history show 7               # Full log of run #7`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run with its log",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("operation", "o", "", "Filter by operation (download, sequence, merge)")
	historyCmd.Flags().IntP("limit", "l", 20, "Maximum number of runs (0 for all)")
	historyCmd.AddCommand(historyShowCmd)
}

func openHistory() (*session, error) {
	s, err := openSession()
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		s.Close()
		return nil, errors.New("run history is disabled or unavailable")
	}
	return s, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	op, _ := cmd.Flags().GetString("operation")
	limit, _ := cmd.Flags().GetInt("limit")

	op = strings.ToLower(op)
	if op != "" && !isValidOperation(op) {
		return fmt.Errorf("invalid operation %q, valid operations: %s", op, strings.Join(validOperations, ", "))
	}

	s, err := openHistory()
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.history.List(history.Filter{Operation: op, Limit: limit})
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if runs == nil {
			runs = []*history.Run{}
		}
		return printJSON(out, runs)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs recorded")
		return err
	}
	return printRuns(out, runs)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ID: %s", args[0])
	}

	s, err := openHistory()
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := s.history.Get(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, run)
	}
	printRun(out, run)
	return nil
}

func isValidOperation(op string) bool {
	for _, v := range validOperations {
		if op == v {
			return true
		}
	}
	return false
}

func printRuns(w io.Writer, runs []*history.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tOPERATION\tOK\tFAILED\tSTARTED\tDURATION\tTARGET")
	for _, r := range runs {
		status := strconv.Itoa(r.Failed)
		if r.Error != "" {
			status += " (error)"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.Operation, r.Succeeded, status,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			formatDuration(r.Duration()), r.Target)
	}
	return tw.Flush()
}

func printRun(w io.Writer, r *history.Run) {
	_, _ = fmt.Fprintf(w, "Run #%d: %s\n", r.ID, r.Operation)
	_, _ = fmt.Fprintf(w, "  Target:    %s\n", r.Target)
	_, _ = fmt.Fprintf(w, "  Succeeded: %d\n", r.Succeeded)
	_, _ = fmt.Fprintf(w, "  Failed:    %d\n", r.Failed)
	_, _ = fmt.Fprintf(w, "  Started:   %s\n", r.StartedAt.Local().Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "  Duration:  %s\n", formatDuration(r.Duration()))
	if r.Error != "" {
		_, _ = fmt.Fprintf(w, "  Error:     %s\n", r.Error)
	}
	if len(r.Log) > 0 {
		_, _ = fmt.Fprintln(w, "\nLog:")
		for _, line := range r.Log {
			_, _ = fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// formatDuration rounds to a readable precision.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
