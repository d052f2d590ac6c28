package tui

import (
	"velowatt/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenRides
	ScreenRideDetail
	ScreenZones
	ScreenSync
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	dashboard  DashboardModel
	rides      RidesModel
	rideDetail RideDetailModel
	zones      ZonesModel
	syncScreen SyncModel
	help       HelpModel

	query *service.QueryService
	sync  *service.SyncService // nil when Strava is not configured

	width  int
	height int
}

// NewApp creates a new App. sync may be nil, in which case the sync
// screen explains how to connect Strava.
func NewApp(query *service.QueryService, sync *service.SyncService) *App {
	return &App{
		screen:     ScreenDashboard,
		query:      query,
		sync:       sync,
		dashboard:  NewDashboardModel(query),
		rides:      NewRidesModel(query),
		zones:      NewZonesModel(query),
		syncScreen: NewSyncModel(sync),
		help:       NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keys are disabled while a sync is running
		if a.screen != ScreenSync || !a.syncScreen.syncing {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.query)
				return a, a.dashboard.Init()
			case "2":
				a.screen = ScreenRides
				return a, a.rides.Init()
			case "3":
				a.screen = ScreenZones
				return a, a.zones.Init()
			case "4", "s":
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.syncScreen.Init()
				}
			case "?":
				if a.screen != ScreenHelp {
					a.prevScreen = a.screen
					a.screen = ScreenHelp
				}
				return a, nil
			case "esc":
				switch a.screen {
				case ScreenHelp:
					a.screen = a.prevScreen
					return a, nil
				case ScreenRideDetail:
					a.screen = ScreenRides
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case OpenRideDetailMsg:
		a.screen = ScreenRideDetail
		a.rideDetail = NewRideDetailModel(a.query, msg.RideID, a.width, a.height)
		return a, a.rideDetail.Init()

	case SyncCompleteMsg:
		// Reload so the dashboard reflects the new rides
		a.dashboard = NewDashboardModel(a.query)
		a.rides = NewRidesModel(a.query)
		return a, a.dashboard.Init()
	}

	var cmd tea.Cmd
	switch a.screen {
	case ScreenDashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	case ScreenRides:
		a.rides, cmd = a.rides.Update(msg)
	case ScreenRideDetail:
		a.rideDetail, cmd = a.rideDetail.Update(msg)
	case ScreenZones:
		a.zones, cmd = a.zones.Update(msg)
	case ScreenSync:
		a.syncScreen, cmd = a.syncScreen.Update(msg)
	case ScreenHelp:
		a.help, cmd = a.help.Update(msg)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenRides:
		content = a.rides.View()
	case ScreenRideDetail:
		content = a.rideDetail.View()
	case ScreenZones:
		content = a.zones.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.renderHeader(), a.renderNav(), content)
}

func (a *App) renderHeader() string {
	title := "velowatt - Cycling Training Load"
	if name := a.query.Athlete().Name; name != "" {
		title += " - " + name
	}
	return headerStyle.Render(title)
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Rides", ScreenRides},
		{"3", "Zones", ScreenZones},
		{"4", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		active := a.screen == item.screen ||
			(item.screen == ScreenRides && a.screen == ScreenRideDetail)

		label := "[" + item.key + "] " + item.label
		if active {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

// OpenRideDetailMsg asks the app to show a single ride
type OpenRideDetailMsg struct {
	RideID int64
}

// SyncCompleteMsg is sent when a sync finishes
type SyncCompleteMsg struct{}
