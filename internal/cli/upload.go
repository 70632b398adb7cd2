package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var uploadNoWait bool

var uploadCmd = &cobra.Command{
	Use:   "upload <kb-id> <file>...",
	Short: "Upload files for text extraction",
	Long: `Upload one or more files into a knowledge base. The server extracts text
from PDF and PPTX files in the background; other formats are stored with
empty text.

By default the command waits for each extraction to finish, showing live
progress. Use --no-wait to return immediately after the upload.

Examples:
  studyrot upload abc123 lecture1.pdf
  studyrot upload abc123 slides/*.pptx --no-wait`,
	Args: cobra.MinimumNArgs(2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadNoWait, "no-wait", false, "do not wait for extraction to finish")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	kbID := args[0]

	var failed int
	for _, path := range args[1:] {
		info, err := apiClient.Upload(ctx, kbID, path)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", path, err)
			failed++
			continue
		}

		if uploadNoWait {
			fmt.Printf("Uploaded %s (%s), extraction queued\n", info.Name, info.ID)
			continue
		}

		if err := RunExtractionProgress(apiClient, info); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args)-1)
	}
	return nil
}
