package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusWait bool

var statusCmd = &cobra.Command{
	Use:   "status <file-id>",
	Short: "Show the extraction status of an uploaded file",
	Long: `Show the current extraction status of one uploaded file.

With --wait, keeps polling until the extraction reaches a terminal state.

Examples:
  studyrot status file123
  studyrot status file123 --wait`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWait, "wait", "w", false, "poll until completed or failed")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	info, err := apiClient.GetFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}

	if statusWait && !info.Status.Terminal() {
		return RunExtractionProgress(apiClient, info)
	}

	fmt.Printf("File: %s\n", info.Name)
	fmt.Printf("  ID: %s\n", info.ID)
	fmt.Printf("  Status: %s\n", info.Status)
	return nil
}
