// Package cli provides the command-line interface for studyrot.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/studyrot/studyrot/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	verbose   bool

	// API client, initialized before every command
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "studyrot",
	Short: "Turn lecture material into study threads",
	Long: `StudyRot ingests lecture PDFs and slide decks, extracts their text on the
server, and generates social-media style study threads from the material.

Create a knowledge base per course, upload files into it, and watch the
extraction finish before generating threads.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Version and help never touch the server
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		apiClient = client.New(serverURL)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server base URL (default $STUDYROT_SERVER_URL or http://localhost:8080)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(kbCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(textsCmd)
	rootCmd.AddCommand(threadCmd)
	rootCmd.AddCommand(statsCmd)
}
