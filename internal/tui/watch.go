// Package tui implements the -watch view: after a successful dispatch it
// keeps re-polling the workflow's latest run until that run completes.
// The polls are the same read-only call the one-shot mode makes; watch mode
// adds no write traffic.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ghdispatch/internal/github"
)

const defaultPollInterval = 3 * time.Second

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	doneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50C878"))
)

// RunReader is the read side of the GitHub client the watch view needs.
type RunReader interface {
	LatestRun(ctx context.Context) (github.WorkflowRun, bool, error)
}

type pollMsg struct {
	run   github.WorkflowRun
	found bool
	err   error
}

// Watch is the bubbletea model for the run-status view.
type Watch struct {
	client   RunReader
	spinner  spinner.Model
	interval time.Duration

	run     github.WorkflowRun
	found   bool
	errText string
	done    bool
}

// NewWatch builds the watch model. A non-positive interval falls back to
// the default.
func NewWatch(client RunReader, interval time.Duration) Watch {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	return Watch{
		client:   client,
		spinner:  s,
		interval: interval,
	}
}

// Done reports whether the watched run reached a terminal status.
func (w Watch) Done() bool {
	return w.done
}

// Init starts the spinner and fires the first poll immediately.
func (w Watch) Init() tea.Cmd {
	return tea.Batch(w.spinner.Tick, w.poll())
}

// Update handles poll results, spinner ticks and quit keys.
func (w Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pollMsg:
		if msg.err != nil {
			w.errText = msg.err.Error()
			return w, w.schedulePoll()
		}
		w.errText = ""
		w.found = msg.found
		if msg.found {
			w.run = msg.run
			if w.run.Completed() {
				w.done = true
				return w, tea.Quit
			}
		}
		return w, w.schedulePoll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(msg)
		return w, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return w, tea.Quit
		}
	}
	return w, nil
}

// View renders the latest known run state.
func (w Watch) View() string {
	header := titleStyle.Render("Watching workflow run")

	var body string
	switch {
	case w.errText != "":
		body = errStyle.Render("poll error: " + w.errText)
	case !w.found:
		body = w.spinner.View() + " waiting for the run to appear..."
	default:
		status := w.run.Status
		if w.run.Completed() {
			status = doneStyle.Render(fmt.Sprintf("completed (%s)", w.run.Conclusion))
		} else {
			status = w.spinner.View() + " " + status
		}
		body = fmt.Sprintf("Run ID:   %d\nStatus:   %s\nCreated:  %s\nURL:      %s",
			w.run.ID, status, w.run.CreatedAt.Format(time.RFC3339), w.run.HTMLURL)
	}

	footer := footerStyle.Render("q to quit")
	return header + "\n" + boxStyle.Render(body) + "\n" + footer + "\n"
}

func (w Watch) poll() tea.Cmd {
	return func() tea.Msg {
		run, found, err := w.client.LatestRun(context.Background())
		return pollMsg{run: run, found: found, err: err}
	}
}

func (w Watch) schedulePoll() tea.Cmd {
	return tea.Tick(w.interval, func(time.Time) tea.Msg {
		run, found, err := w.client.LatestRun(context.Background())
		return pollMsg{run: run, found: found, err: err}
	})
}
