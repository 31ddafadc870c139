package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lektrico/internal/ui"
	"github.com/muurk/lektrico/pkg/lektrico"
)

// DefaultInterval is the polling interval when none is given.
const DefaultInterval = 2 * time.Second

// Device is the subset of *lektrico.Client the dashboard drives.
type Device interface {
	DeviceInfo(ctx context.Context, deviceType lektrico.DeviceType) (lektrico.Info, error)
	SendChargeStart(ctx context.Context) (bool, error)
	SendChargeStop(ctx context.Context) (bool, error)
}

// Options configures the watch dashboard.
type Options struct {
	Name     string // Registry name or host, shown in the title
	Host     string
	Type     lektrico.DeviceType
	Interval time.Duration
}

// Messages
type (
	pollMsg struct{ seq int }

	infoMsg struct {
		info lektrico.Info
		err  error
		at   time.Time
	}

	commandMsg struct {
		name     string
		accepted bool
		err      error
	}
)

// WatchModel polls one device and renders its latest telemetry.
type WatchModel struct {
	device Device
	opts   Options

	Info       lektrico.Info
	LastError  error
	LastUpdate time.Time
	Status     string // Outcome of the last command
	Loading    bool
	Polls      int

	// seq identifies the pending poll so a manual refresh does not
	// leave two poll loops running.
	seq int

	Width   int
	Spinner spinner.Model
	Help    help.Model
	Keys    watchKeyMap
}

// NewWatchModel creates a dashboard for device.
func NewWatchModel(device Device, opts Options) WatchModel {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return WatchModel{
		device:  device,
		opts:    opts,
		Loading: true,
		Width:   ui.GetTerminalWidth(),
		Spinner: s,
		Help:    help.New(),
		Keys:    newWatchKeyMap(opts.Type.IsCharger()),
	}
}

// Init starts the first poll
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, m.fetch())
}

// Update handles messages and updates the model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case pollMsg:
		if msg.seq != m.seq || m.Loading {
			return m, nil
		}
		m.Loading = true
		return m, m.fetch()

	case infoMsg:
		m.Loading = false
		m.Polls++
		if msg.err != nil {
			m.LastError = msg.err
		} else {
			m.Info = msg.info
			m.LastError = nil
			m.LastUpdate = msg.at
		}
		m.seq++
		return m, m.schedule()

	case commandMsg:
		switch {
		case msg.err != nil:
			m.Status = ""
			m.LastError = msg.err
		case msg.accepted:
			m.Status = fmt.Sprintf("%s accepted", msg.name)
		default:
			m.Status = fmt.Sprintf("%s refused by device", msg.name)
		}
		if m.Loading {
			return m, nil
		}
		m.Loading = true
		return m, m.fetch()
	}

	return m, nil
}

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		return m, nil

	case key.Matches(msg, m.Keys.Refresh):
		if m.Loading {
			return m, nil
		}
		m.Loading = true
		return m, m.fetch()

	case key.Matches(msg, m.Keys.Start):
		return m, m.command("Charge start", m.device.SendChargeStart)

	case key.Matches(msg, m.Keys.Stop):
		return m, m.command("Charge stop", m.device.SendChargeStop)
	}
	return m, nil
}

// fetch reads one telemetry snapshot.
func (m WatchModel) fetch() tea.Cmd {
	device, deviceType := m.device, m.opts.Type
	return func() tea.Msg {
		info, err := device.DeviceInfo(context.Background(), deviceType)
		return infoMsg{info: info, err: err, at: time.Now()}
	}
}

// schedule queues the next poll.
func (m WatchModel) schedule() tea.Cmd {
	seq := m.seq
	return tea.Tick(m.opts.Interval, func(time.Time) tea.Msg {
		return pollMsg{seq: seq}
	})
}

func (m WatchModel) command(name string, send func(context.Context) (bool, error)) tea.Cmd {
	return func() tea.Msg {
		accepted, err := send(context.Background())
		return commandMsg{name: name, accepted: accepted, err: err}
	}
}

// View renders the dashboard
func (m WatchModel) View() string {
	var b strings.Builder

	title := TitleStyle.Render(AppName) + "  " + SubtitleStyle.Render(m.subtitle())
	b.WriteString(title + "\n\n")

	switch v := m.Info.(type) {
	case *lektrico.ChargerInfo:
		b.WriteString("State: " + ui.RenderState(v.ChargerState) + "\n")
		b.WriteString(BodyStyle.Render(v.FormatDetailed()) + "\n")
	case *lektrico.MeterInfo:
		b.WriteString(BodyStyle.Render(v.FormatDetailed()) + "\n")
	default:
		b.WriteString(SubtitleStyle.Render("Waiting for first reading...") + "\n")
	}

	b.WriteString("\n" + m.statusLine() + "\n")
	if m.LastError != nil {
		b.WriteString(ErrorStyle.Render("Error: "+lektrico.ShortMessage(m.LastError)) + "\n")
	}
	if m.Status != "" {
		b.WriteString(StatusStyle.Render(m.Status) + "\n")
	}

	b.WriteString(HelpStyle.Render(m.Help.View(m.Keys)))
	return lipgloss.NewStyle().MaxWidth(m.Width).Render(b.String())
}

func (m WatchModel) subtitle() string {
	name := m.opts.Name
	if m.opts.Host != "" && m.opts.Host != name {
		name = fmt.Sprintf("%s (%s)", name, m.opts.Host)
	}
	return fmt.Sprintf("%s · %s · %s", name, m.opts.Type, AppVersion())
}

func (m WatchModel) statusLine() string {
	var parts []string
	if m.Loading {
		parts = append(parts, m.Spinner.View()+" polling")
	}
	if !m.LastUpdate.IsZero() {
		parts = append(parts, "updated "+m.LastUpdate.Format("15:04:05"))
	}
	parts = append(parts, fmt.Sprintf("every %s", m.opts.Interval))
	return SubtitleStyle.Render(strings.Join(parts, " · "))
}

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, device Device, opts Options) error {
	p := tea.NewProgram(NewWatchModel(device, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch dashboard failed: %w", err)
	}
	return nil
}
