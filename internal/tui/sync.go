package tui

import (
	"context"
	"fmt"
	"strings"

	"velowatt/internal/service"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

// maxSkippedShown caps the skipped activities listed after a sync
const maxSkippedShown = 5

// SyncModel is the sync screen model
type SyncModel struct {
	sync     *service.SyncService
	spinner  spinner.Model
	syncing  bool
	progress service.SyncProgress
	updates  <-chan service.SyncProgress
	finished <-chan SyncDoneMsg
	result   *service.SyncResult
	err      error
	done     bool
}

// NewSyncModel creates a new sync model
func NewSyncModel(ss *service.SyncService) SyncModel {
	return SyncModel{
		sync:    ss,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(primaryColor))),
	}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

// SyncDoneMsg is sent when the sync goroutine returns
type SyncDoneMsg struct {
	Result *service.SyncResult
	Err    error
}

type syncProgressMsg service.SyncProgress

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (SyncModel, tea.Cmd) {
	switch msg := msg.(type) {
	case syncProgressMsg:
		m.progress = service.SyncProgress(msg)
		return m, waitForSync(m.updates, m.finished)

	case SyncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, func() tea.Msg { return SyncCompleteMsg{} }

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.sync != nil && !m.syncing {
			switch msg.String() {
			case "enter", "s":
				return m.start()
			}
		}
	}
	return m, nil
}

// start runs the sync in the background and relays its progress
func (m SyncModel) start() (SyncModel, tea.Cmd) {
	updates := make(chan service.SyncProgress)
	finished := make(chan SyncDoneMsg, 1)

	m.syncing = true
	m.done = false
	m.err = nil
	m.result = nil
	m.progress = service.SyncProgress{}
	m.updates = updates
	m.finished = finished

	svc := m.sync
	go func() {
		result, err := svc.SyncAll(context.Background(), updates)
		finished <- SyncDoneMsg{Result: result, Err: err}
	}()

	return m, tea.Batch(waitForSync(updates, finished), m.spinner.Tick)
}

// waitForSync yields the next progress update, or the final result once
// the progress channel is closed
func waitForSync(updates <-chan service.SyncProgress, finished <-chan SyncDoneMsg) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-updates
		if !ok {
			return <-finished
		}
		return syncProgressMsg(p)
	}
}

// View renders the sync screen
func (m SyncModel) View() string {
	sections := []string{cardTitleStyle.Render("Strava Sync")}

	switch {
	case m.sync == nil:
		sections = append(sections, m.renderNotConfigured())
	case m.syncing:
		sections = append(sections, m.renderProgress())
	case m.err != nil:
		sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press 's' or Enter to retry"))
	case m.done:
		sections = append(sections, successStyle.Render("\n  Sync complete!"))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press '1' to go to dashboard"))
	default:
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderNotConfigured() string {
	lines := []string{
		"",
		"  Strava is not connected.",
		"",
		"  Add strava.client_id and strava.client_secret to the config file",
		"  and restart, or run 'velowatt sync' to connect from the command line.",
		"  API credentials: https://www.strava.com/settings/api",
	}
	return strings.Join(lines, "\n")
}

func (m SyncModel) renderStartPrompt() string {
	lines := []string{
		"",
		"  This will import your rides from Strava:",
		"",
		"  1. Fetch activities since the last sync",
		"  2. Download power and heart rate streams",
		"  3. Score each ride against your FTP",
		"",
	}

	if short, daily, ok := m.sync.RateLimitStatus(); ok {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  API requests left: %d (15min), %s (daily)", short, humanize.Comma(int64(daily)))))
		lines = append(lines, "")
	}
	lines = append(lines, statusStyle.Render("  Press 's' or Enter to start sync"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	p := m.progress
	lines := []string{""}

	switch p.Phase {
	case "rides":
		lines = append(lines, fmt.Sprintf("  %s Importing rides %d/%d", m.spinner.View(), p.Completed, p.Total))
		frac := 0.0
		if p.Total > 0 {
			frac = float64(p.Completed) / float64(p.Total)
		}
		lines = append(lines, "  "+RenderProgressBar(frac, 40))
		if p.CurrentActivity != "" {
			lines = append(lines, mutedStyle.Render("  "+truncateName(p.CurrentActivity, 50)))
		}
	default:
		lines = append(lines, fmt.Sprintf("  %s Fetching activities... %d so far", m.spinner.View(), p.Completed))
	}

	lines = append(lines, "", statusStyle.Render("  This may take a moment..."))
	return strings.Join(lines, "\n")
}

func (m SyncModel) renderSummary() string {
	r := m.result
	if r == nil {
		return ""
	}

	lines := []string{""}
	if r.RidesImported > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %s imported", english.Plural(r.RidesImported, "ride", "rides"))))
	} else {
		lines = append(lines, statusStyle.Render("  No new rides"))
	}
	lines = append(lines, fmt.Sprintf("  %s fetched, %d with streams", english.Plural(r.ActivitiesFetched, "activity", "activities"), r.StreamsFetched))

	if len(r.Skipped) > 0 {
		lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("  Skipped %d:", len(r.Skipped))))
		for i, s := range r.Skipped {
			if i == maxSkippedShown {
				lines = append(lines, mutedStyle.Render(fmt.Sprintf("    ... and %d more", len(r.Skipped)-maxSkippedShown)))
				break
			}
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("    %s (%s)", truncateName(s.Name, 40), s.Reason)))
		}
	}

	if len(r.Errors) > 0 {
		lines = append(lines, "", warningStyle.Render(fmt.Sprintf("  %d errors occurred", len(r.Errors))))
		for _, err := range r.Errors {
			lines = append(lines, warningStyle.Render("    "+err.Error()))
		}
	}

	return strings.Join(lines, "\n")
}
