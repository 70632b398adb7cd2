package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	kbTitle       string
	kbDescription string
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage knowledge bases",
	Long: `Create, list, inspect and delete knowledge bases.

Examples:
  studyrot kb create --title "Distributed Systems"
  studyrot kb list
  studyrot kb show abc123
  studyrot kb delete abc123`,
	RunE: runKBList,
}

var kbCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a knowledge base",
	RunE:  runKBCreate,
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge bases",
	RunE:  runKBList,
}

var kbShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a knowledge base and its files",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBShow,
}

var kbDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a knowledge base and all its files",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBDelete,
}

func init() {
	kbCreateCmd.Flags().StringVarP(&kbTitle, "title", "t", "", "knowledge base title (required)")
	kbCreateCmd.Flags().StringVarP(&kbDescription, "description", "d", "", "optional description")
	kbCreateCmd.MarkFlagRequired("title")

	kbCmd.AddCommand(kbCreateCmd)
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbShowCmd)
	kbCmd.AddCommand(kbDeleteCmd)
}

func runKBCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	kb, err := apiClient.CreateKnowledgeBase(ctx, kbTitle, kbDescription)
	if err != nil {
		return fmt.Errorf("create knowledge base: %w", err)
	}

	fmt.Printf("Created knowledge base %s (%s)\n", kb.Title, kb.ID)
	return nil
}

func runKBList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	bases, err := apiClient.ListKnowledgeBases(ctx)
	if err != nil {
		return fmt.Errorf("list knowledge bases: %w", err)
	}

	if len(bases) == 0 {
		fmt.Println("No knowledge bases found.")
		return nil
	}

	fmt.Printf("%-20s %-30s %s\n", "ID", "TITLE", "CREATED")
	fmt.Println("----------------------------------------------------------------")
	for _, kb := range bases {
		fmt.Printf("%-20s %-30s %s\n", kb.ID, kb.Title, kb.Created.Format("2006-01-02 15:04"))
	}
	return nil
}

func runKBShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	kb, err := apiClient.GetKnowledgeBase(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get knowledge base: %w", err)
	}

	fmt.Printf("Knowledge base: %s\n", kb.Title)
	fmt.Printf("  ID: %s\n", kb.ID)
	if kb.Description != "" {
		fmt.Printf("  Description: %s\n", kb.Description)
	}

	if len(kb.Files) == 0 {
		fmt.Println("\nNo files uploaded yet.")
		return nil
	}

	fmt.Printf("\nFiles (%d):\n", len(kb.Files))
	for _, f := range kb.Files {
		fmt.Printf("  %-20s %-12s %s\n", f.ID, f.Status, f.Name)
	}
	return nil
}

func runKBDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := apiClient.DeleteKnowledgeBase(ctx, args[0]); err != nil {
		return fmt.Errorf("delete knowledge base: %w", err)
	}

	fmt.Printf("Deleted knowledge base %s\n", args[0])
	return nil
}
