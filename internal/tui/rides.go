package tui

import (
	"context"
	"fmt"

	"velowatt/internal/analysis"
	"velowatt/internal/service"
	"velowatt/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RidesModel is the paged ride list
type RidesModel struct {
	query    *service.QueryService
	rides    []store.Ride
	cursor   int
	offset   int
	pageSize int
	hasMore  bool
	loading  bool
	err      error
}

// NewRidesModel creates a new ride list model
func NewRidesModel(qs *service.QueryService) RidesModel {
	return RidesModel{
		query:    qs,
		pageSize: 15,
		loading:  true,
	}
}

// Init initializes the ride list
func (m RidesModel) Init() tea.Cmd {
	return m.loadPage
}

type ridesLoadedMsg struct {
	rides   []store.Ride
	hasMore bool
	err     error
}

// loadPage fetches one extra ride to learn whether a next page exists
func (m RidesModel) loadPage() tea.Msg {
	rides, err := m.query.Rides(context.Background(), m.pageSize+1, m.offset)
	if err != nil {
		return ridesLoadedMsg{err: err}
	}
	hasMore := len(rides) > m.pageSize
	if hasMore {
		rides = rides[:m.pageSize]
	}
	return ridesLoadedMsg{rides: rides, hasMore: hasMore}
}

// Update handles messages
func (m RidesModel) Update(msg tea.Msg) (RidesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case ridesLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.rides = msg.rides
		m.hasMore = msg.hasMore
		m.cursor = min(m.cursor, max(len(m.rides)-1, 0))

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.offset > 0 {
				m.offset -= m.pageSize
				m.cursor = m.pageSize - 1
				m.loading = true
				return m, m.loadPage
			}
		case "down", "j":
			if m.cursor < len(m.rides)-1 {
				m.cursor++
			} else if m.hasMore {
				m.offset += m.pageSize
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "pgup":
			if m.offset > 0 {
				m.offset = max(m.offset-m.pageSize, 0)
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "pgdown":
			if m.hasMore {
				m.offset += m.pageSize
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "r":
			m.loading = true
			return m, m.loadPage
		case "enter":
			if m.cursor < len(m.rides) {
				id := m.rides[m.cursor].ID
				return m, func() tea.Msg { return OpenRideDetailMsg{RideID: id} }
			}
		}
	}
	return m, nil
}

// View renders the ride list
func (m RidesModel) View() string {
	if m.loading {
		return "\n  Loading rides..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if len(m.rides) == 0 {
		return "\n  No rides found. Press 's' to sync with Strava."
	}

	var sections []string

	title := cardTitleStyle.Render(fmt.Sprintf("Rides %d-%d", m.offset+1, m.offset+len(m.rides)))
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("   %-10s  %-26s  %8s  %5s  %5s  %8s  %6s  %5s  %-10s",
		"Date", "Title", "Time", "Avg", "NP", "Source", "TSS", "IF", "Intensity"))
	sections = append(sections, header)

	for i, r := range m.rides {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-10s  %-26s  %8s  %5.0f  %5.0f  %8s  %6.1f  %5.2f  %-10s",
			cursor,
			r.RideDate.Format("2006-01-02"),
			truncateName(r.Title, 26),
			analysis.FormatDuration(r.DurationSeconds),
			r.AvgPower,
			r.NormalizedPower,
			r.NPSource,
			r.TSS,
			r.IntensityFactor,
			analysis.IntensityLabel(r.IntensityFactor),
		)

		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	help := statusStyle.Render("  enter: details  j/k: navigate  pgup/pgdn: page  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
