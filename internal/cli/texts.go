package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var textsNamesOnly bool

var textsCmd = &cobra.Command{
	Use:   "texts <kb-id>",
	Short: "Print the extracted texts of a knowledge base",
	Long: `Print the extracted text of every completed file in a knowledge base.

Examples:
  studyrot texts abc123
  studyrot texts abc123 --names`,
	Args: cobra.ExactArgs(1),
	RunE: runTexts,
}

func init() {
	textsCmd.Flags().BoolVar(&textsNamesOnly, "names", false, "list file names only, without the text")
}

func runTexts(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	texts, err := apiClient.GetExtractedTexts(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get extracted texts: %w", err)
	}

	if len(texts) == 0 {
		fmt.Println("No completed extractions yet.")
		return nil
	}

	for _, t := range texts {
		if textsNamesOnly {
			fmt.Printf("%-20s %s\n", t.ID, t.Name)
			continue
		}
		fmt.Printf("## %s\n\n%s\n\n", t.Name, t.Text)
	}
	return nil
}
