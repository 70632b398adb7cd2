package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server runtime statistics",
	Long: `Show server runtime statistics: uptime, extraction timings and LLM token
usage.

Examples:
  studyrot stats
  studyrot stats --json`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print raw JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	stats, err := apiClient.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	if uptime, ok := stats["uptime_seconds"].(float64); ok {
		fmt.Printf("Uptime: %.0fs\n", uptime)
	}
	printOpStats(stats, "extract_pdf", "PDF extraction")
	printOpStats(stats, "extract_pptx", "PPTX extraction")
	printOpStats(stats, "thread_generate", "Thread generation")
	return nil
}

func printOpStats(stats map[string]any, key, label string) {
	op, ok := stats[key].(map[string]any)
	if !ok || op == nil {
		return
	}

	fmt.Printf("\n%s:\n", label)
	if count, ok := op["count"].(float64); ok {
		fmt.Printf("  Count: %.0f\n", count)
	}
	if avg, ok := op["avg_time_ms"].(float64); ok {
		fmt.Printf("  Avg: %.1fms\n", avg)
	}
	if in, ok := op["total_input_tokens"].(float64); ok {
		fmt.Printf("  Input tokens: %.0f\n", in)
	}
	if out, ok := op["total_output_tokens"].(float64); ok {
		fmt.Printf("  Output tokens: %.0f\n", out)
	}
}
