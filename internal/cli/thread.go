package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/studyrot/studyrot/internal/threads"
)

var threadCmd = &cobra.Command{
	Use:   "thread <kb-id>",
	Short: "Generate a study thread from a knowledge base",
	Long: `Generate a social-media style study thread from the extracted texts of a
knowledge base. Requires at least one completed extraction and a configured
LLM provider on the server.

Example:
  studyrot thread abc123`,
	Args: cobra.ExactArgs(1),
	RunE: runThread,
}

func runThread(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Println("Generating thread, this can take a minute...")
	posts, err := apiClient.GenerateThread(ctx, args[0])
	if err != nil {
		return fmt.Errorf("generate thread: %w", err)
	}

	if len(posts) == 0 {
		fmt.Println("The model returned no posts.")
		return nil
	}

	for i, post := range posts {
		fmt.Println(renderPost(post, 0))
		if i < len(posts)-1 {
			fmt.Println()
		}
	}
	return nil
}

var (
	postAuthorStyle = lipgloss.NewStyle().Bold(true)
	postHandleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	postMetaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7"))
)

// renderPost formats one post and its replies, indenting each reply level.
func renderPost(post threads.Post, depth int) string {
	indent := strings.Repeat("  ", depth)

	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(postAuthorStyle.Render(post.Author))
	if post.Handle != "" {
		b.WriteString(" " + postHandleStyle.Render("@"+strings.TrimPrefix(post.Handle, "@")))
	}
	b.WriteString("\n")

	for _, line := range strings.Split(post.Content, "\n") {
		b.WriteString(indent + line + "\n")
	}
	b.WriteString(indent + postMetaStyle.Render(fmt.Sprintf("♥ %d", post.Likes)))

	for _, reply := range post.Replies {
		b.WriteString("\n\n" + renderPost(reply, depth+1))
	}
	return b.String()
}
