package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/imgkit/internal/app"
	"github.com/vmunix/imgkit/internal/dirmem"
	"github.com/vmunix/imgkit/internal/merge"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [root]",
	Short: "Merge the images of every subfolder into one numbered collection",
	Long: `Merge the images of every subfolder of ROOT into ROOT/合集.

Folders are visited by name and images within a folder by the number
in their file name. Copies are numbered 1..N across all folders.
Without ROOT the remembered merge directory is used.

Examples:
  imgkit merge ./album
  imgkit merge ./album --dry-run --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().BoolP("remember", "r", false, "Remember the directory for next time")
	mergeCmd.Flags().BoolP("dry-run", "n", false, "Show the planned copies without changing anything")
}

func runMerge(cmd *cobra.Command, args []string) error {
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
	root := s.resolveDir(arg, dirmem.KeyMergeDir)
	out := cmd.OutOrStdout()

	if dryRun {
		plan, err := s.app.PlanMerge(root)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, plan)
		}
		printMergePlan(out, plan)
		return nil
	}

	result, err := s.app.Merge(cmd.Context(), app.DirRequest{Dir: root, Remember: remember})
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
		return fmt.Errorf("merge failed: %w", err)
	}
	return nil
}

func printMergePlan(w io.Writer, plan *merge.Plan) {
	if len(plan.Folders) == 0 {
		_, _ = fmt.Fprintf(w, "No subfolders in %s\n", plan.Root)
		return
	}
	_, _ = fmt.Fprintf(w, "Would merge %d images into %s:\n", plan.Total, plan.CollectionDir)
	for _, f := range plan.Folders {
		if f.Err != "" {
			_, _ = fmt.Fprintf(w, "  %s: unreadable (%s)\n", f.Name, f.Err)
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s (%d images)\n", f.Name, len(f.Entries))
		for _, e := range f.Entries {
			_, _ = fmt.Fprintf(w, "    %s -> %s\n", e.File.Name, e.NewName)
		}
	}
}
