package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Adaptive renders a live spinner on a TTY and falls back to
// timestamped log lines when output is piped or redirected.
type Adaptive struct {
	isTTY     bool
	program   *tea.Program
	model     Model
	output    io.Writer
	startTime time.Time
}

// NewAdaptive creates a progress indicator for the given writer
func NewAdaptive(output io.Writer) *Adaptive {
	return &Adaptive{
		isTTY:     isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		output:    output,
		startTime: time.Now(),
	}
}

// Start begins the progress indication
func (a *Adaptive) Start(message string) {
	if a.isTTY {
		a.model = New(message)
		a.program = tea.NewProgram(&a.model, tea.WithOutput(a.output))
		go func() {
			if _, err := a.program.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "progress UI error: %v\n", err)
			}
		}()
		// Give TUI time to initialize
		time.Sleep(50 * time.Millisecond)
		return
	}
	a.logLine(message)
}

// Update replaces the progress message
func (a *Adaptive) Update(message string) {
	if a.isTTY && a.program != nil {
		a.program.Send(UpdateMsg{Message: message})
		return
	}
	a.logLine(message)
}

// SetBytes updates the byte counter in TTY mode
func (a *Adaptive) SetBytes(written int64) {
	if a.isTTY && a.program != nil {
		a.program.Send(BytesMsg{Written: written})
	}
}

// Success completes with success
func (a *Adaptive) Success(message string) {
	duration := time.Since(a.startTime)
	final := fmt.Sprintf("%s (%.2fs)", message, duration.Seconds())

	if a.isTTY && a.program != nil {
		a.program.Send(DoneMsg{})
		a.program.Quit()
		time.Sleep(100 * time.Millisecond)
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
		fmt.Fprintf(a.output, "%s\n", style.Render(final))
		return
	}
	a.logLine(final)
}

// Error completes with an error
func (a *Adaptive) Error(err error) {
	duration := time.Since(a.startTime)
	final := fmt.Sprintf("failed after %.2fs: %v", duration.Seconds(), err)

	if a.isTTY && a.program != nil {
		a.program.Send(DoneMsg{Error: err})
		a.program.Quit()
		time.Sleep(100 * time.Millisecond)
		return
	}
	a.logLine(final)
}

func (a *Adaptive) logLine(message string) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(a.output, "[%s] %s\n", timestamp, message)
}
