package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyrot/studyrot/internal/client"
	"github.com/studyrot/studyrot/internal/models"
)

const pollInterval = time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the file status
type tickMsg time.Time

// fileUpdateMsg carries the latest file status
type fileUpdateMsg struct {
	file *client.FileInfo
	err  error
}

// progressModel is the bubbletea model for extraction progress.
type progressModel struct {
	client   *client.Client
	fileID   string
	file     *client.FileInfo
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model.
func newProgressModel(c *client.Client, file *client.FileInfo) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		client:   c,
		fileID:   file.ID,
		file:     file,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command (start polling).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.fetchFile()

	case fileUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to fetch file status: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.file = msg.file

		switch m.file.Status {
		case models.FileStatusCompleted:
			m.done = true
			return m, tea.Quit
		case models.FileStatusFailed:
			m.done = true
			m.err = fmt.Errorf("text extraction failed")
			return m, tea.Quit
		}

		// Keep polling while pending or processing
		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if m.file == nil {
		return "Loading file status...\n"
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.file.Status))
	progressBar := m.progress.ViewAs(statusFraction(m.file.Status))
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, m.file.Name, hint)
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nExtraction of %s continues in background.\nUse 'studyrot status %s' to check progress.\n",
			m.file.Name, m.fileID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ %s: %s\n", m.file.Name, m.err))
	}

	return m.theme.completedStyle().Render(fmt.Sprintf("✓ Extracted %s\n", m.file.Name))
}

// fetchFile fetches the current file status from the server.
// Runs as a command to avoid blocking Update().
func (m progressModel) fetchFile() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		file, err := m.client.GetFile(ctx, m.fileID)
		return fileUpdateMsg{file: file, err: err}
	}
}

// statusFraction maps the extraction state to a bar fraction. The server
// reports no finer-grained progress than the status itself.
func statusFraction(s models.FileStatus) float64 {
	switch s {
	case models.FileStatusProcessing:
		return 0.6
	case models.FileStatusCompleted, models.FileStatusFailed:
		return 1
	default:
		return 0.15
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunExtractionProgress runs the interactive progress UI for an uploaded
// file. Returns nil on success or Ctrl+C (background), error on failure.
func RunExtractionProgress(c *client.Client, file *client.FileInfo) error {
	model := newProgressModel(c, file)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		// Ctrl+C lets extraction continue server-side; not an error
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}

	return nil
}
