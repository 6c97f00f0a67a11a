package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/imgkit/internal/app"
	"github.com/vmunix/imgkit/internal/dirmem"
	"github.com/vmunix/imgkit/internal/sequence"
)

var sequenceCmd = &cobra.Command{
	Use:   "sequence [dir]",
	Short: "Rename the images in a folder to 1..N by modification time",
	Long: `Rename the images in a folder to 1..N, oldest first.

Originals are copied to a fresh image_backup_<timestamp> folder first.
Without DIR the remembered rename directory is used.

Examples:
  imgkit sequence ./photos
  imgkit sequence ./photos --dry-run
  imgkit sequence --remember ./photos`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSequence,
}

func init() {
	rootCmd.AddCommand(sequenceCmd)
	sequenceCmd.Flags().BoolP("remember", "r", false, "Remember the directory for next time")
	sequenceCmd.Flags().BoolP("dry-run", "n", false, "Show the planned renames without changing anything")
}

func runSequence(cmd *cobra.Command, args []string) error {
	remember, _ := cmd.Flags().GetBool("remember")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	dir := s.resolveDir(arg, dirmem.KeyRenameDir)
	out := cmd.OutOrStdout()

	if dryRun {
		plan, err := s.app.PlanSequence(dir)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, plan)
		}
		printSequencePlan(out, plan)
		return nil
	}

	result, err := s.app.Sequence(cmd.Context(), app.DirRequest{Dir: dir, Remember: remember})
	if result != nil {
		if jsonOutput {
			if perr := printJSON(out, result); perr != nil {
				return perr
			}
		} else {
			printLog(out, result.Log)
		}
	}
	if err != nil {
		return fmt.Errorf("sequence failed: %w", err)
	}
	return nil
}

func printSequencePlan(w io.Writer, plan *sequence.Plan) {
	if len(plan.Entries) == 0 {
		_, _ = fmt.Fprintf(w, "No images in %s\n", plan.Dir)
		return
	}
	_, _ = fmt.Fprintf(w, "Would rename %d images in %s:\n", len(plan.Entries), plan.Dir)
	for _, e := range plan.Entries {
		_, _ = fmt.Fprintf(w, "  %s -> %s\n", e.File.Name, e.NewName)
	}
	for _, name := range plan.Conflicts {
		_, _ = fmt.Fprintf(w, "Conflict: %s is held by another entry, sequence would fail\n", name)
	}
}
