package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/imgkit/internal/app"
	"github.com/vmunix/imgkit/internal/dirmem"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download every image referenced by an HTML fragment",
	Long: `Download every image referenced by an HTML fragment.

Images are saved as 1.<ext>, 2.<ext>, ... in document order. Without
--dir the remembered download directory is used.

Examples:
  imgkit download --input page.html --dir ./out
  pbpaste | imgkit download --dir ./out --remember
  imgkit download --input page.html          # uses the remembered directory`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringP("input", "i", "-", "HTML file to read, - for stdin")
	downloadCmd.Flags().StringP("dir", "d", "", "Directory to save images into")
	downloadCmd.Flags().BoolP("remember", "r", false, "Remember the directory for next time")
}

func runDownload(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	dirFlag, _ := cmd.Flags().GetString("dir")
	remember, _ := cmd.Flags().GetBool("remember")

	markup, err := readInput(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.app.Download(cmd.Context(), app.DownloadRequest{
		Markup:   markup,
		Dir:      s.resolveDir(dirFlag, dirmem.KeySaveDir),
		Remember: remember,
	})
	if result != nil {
		out := cmd.OutOrStdout()
		if jsonOutput {
			if perr := printJSON(out, result); perr != nil {
				return perr
			}
		} else {
			printLog(out, result.Log)
		}
	}
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	return nil
}

func readInput(stdin io.Reader, input string) (string, error) {
	if input == "" || input == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}
