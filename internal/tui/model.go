// Package tui is a terminal dashboard for a LAN mirror: the same snapshot
// the browser page shows, drawn with Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bit-cook/LiteMonitor/internal/metrics"
)

const (
	minWidth     = 40
	nameWidth    = 14
	valueWidth   = 12
	defaultWidth = 80
)

// Model is the root Bubble Tea model.
type Model struct {
	client *Client
	ctx    context.Context
	cancel context.CancelFunc

	keys  KeyMap
	width int
	bars  map[metrics.Status]progress.Model

	payload   *metrics.Payload
	updatedAt time.Time
	connected bool
	compact   bool
	lastErr   error
}

func New(client *Client) Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		keys:   DefaultKeyMap(),
		width:  defaultWidth,
	}
	m.bars = newBars(barWidth(m.width))
	return m
}

func newBars(width int) map[metrics.Status]progress.Model {
	bars := make(map[metrics.Status]progress.Model, 3)
	for _, s := range []metrics.Status{metrics.StatusNormal, metrics.StatusWarn, metrics.StatusCrit} {
		bars[s] = progress.New(
			progress.WithSolidFill(string(StatusColor(s))),
			progress.WithoutPercentage(),
			progress.WithWidth(width),
		)
	}
	return bars
}

func barWidth(total int) int {
	w := total - nameWidth - valueWidth - 12
	if w < 10 {
		w = 10
	}
	return w
}

// Init fetches a first snapshot over HTTP so the screen is not empty while
// the WebSocket connects.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.client.Fetch(m.ctx), m.client.Listen(m.ctx))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, minWidth)
		m.bars = newBars(barWidth(m.width))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConnectedMsg:
		m.connected = true
		m.lastErr = nil
		return m, m.client.ReadLoop(m.ctx)

	case DisconnectedMsg:
		m.connected = false
		m.lastErr = msg.Err
		return m, m.client.Listen(m.ctx)

	case SnapshotMsg:
		m.setPayload(msg.Payload)
		return m, m.client.ReadLoop(m.ctx)

	case FetchedMsg:
		m.setPayload(msg.Payload)
		return m, nil

	case FetchErrorMsg:
		m.lastErr = msg.Err
		return m, nil
	}

	return m, nil
}

func (m *Model) setPayload(p metrics.Payload) {
	m.payload = &p
	m.updatedAt = time.Now()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		m.client.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		return m, m.client.Fetch(m.ctx)

	case key.Matches(msg, m.keys.Compact):
		m.compact = !m.compact
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")

	if m.payload == nil {
		b.WriteString(dimStyle.Render("waiting for the first snapshot..."))
	} else {
		b.WriteString(m.itemsView())
	}

	return boxStyle.Width(m.width-2).Render(b.String()) + "\n" + m.footerView()
}

func (m Model) headerView() string {
	title := titleStyle.Render("LiteMonitor")
	if m.payload != nil {
		sys := m.payload.Sys
		title += dimStyle.Render(fmt.Sprintf("  %s  %s:%d  up %s", sys.Host, sys.IP, sys.Port, sys.Uptime))
	}

	var conn string
	if m.connected {
		conn = lipgloss.NewStyle().Foreground(ColorNormal).Render("● live")
	} else {
		conn = lipgloss.NewStyle().Foreground(ColorCrit).Render("○ connecting...")
	}
	return title + "  " + conn
}

func (m Model) itemsView() string {
	var b strings.Builder
	group := ""
	for _, it := range m.payload.Items {
		if m.compact && !it.Primary {
			continue
		}
		if it.GroupName != group {
			group = it.GroupName
			b.WriteString(groupStyle.Render(group))
			b.WriteString("\n")
		}
		b.WriteString(m.itemView(it))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) itemView(it metrics.Item) string {
	name := lipgloss.NewStyle().Width(nameWidth).Render(it.Name)

	value := it.Value
	if it.Unit != "" {
		value += " " + it.Unit
	}
	valueStyle := lipgloss.NewStyle().Width(valueWidth).Align(lipgloss.Right)
	if it.Value == "--" {
		valueStyle = valueStyle.Foreground(ColorDimmed)
	} else {
		valueStyle = valueStyle.Foreground(StatusColor(it.Status))
	}

	bar := m.bars[it.Status]
	return "  " + name + " " + bar.ViewAs(it.Pct/100) + " " + valueStyle.Render(value)
}

func (m Model) footerView() string {
	help := fmt.Sprintf("%s %s · %s %s · %s %s",
		m.keys.Refresh.Help().Key, m.keys.Refresh.Help().Desc,
		m.keys.Compact.Help().Key, m.keys.Compact.Help().Desc,
		m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc,
	)
	line := dimStyle.Render(help)
	if !m.updatedAt.IsZero() {
		line += dimStyle.Render("  updated " + m.updatedAt.Format("15:04:05"))
	}
	if m.lastErr != nil && !m.connected {
		line += "\n" + lipgloss.NewStyle().Foreground(ColorWarn).Render(m.lastErr.Error())
	}
	return line
}
