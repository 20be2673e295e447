// ============================================================================
// agones-sdk-go - Go client for the Agones game server sidecar
// ============================================================================
//
// Package:     watchview
// Description: Bubbletea model showing the latest watched GameServer
// Author:      Mike Stoffels
// Created:     2025-12-08
// License:     MIT
// ============================================================================

package watchview

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	sdkpb "agones.dev/agones/pkg/sdk"
	"github.com/pkg/errors"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the Bubbletea model for the watch view
type Model struct {
	width  int
	height int
	ready  bool

	viewport viewport.Model
	spinner  spinner.Model

	bridge     *Bridge
	target     string
	gs         *sdkpb.GameServer
	updates    int
	lastUpdate time.Time
	ended      bool
	err        error
}

// New creates a watch view fed by bridge. target is shown in the status bar.
func New(bridge *Bridge, target string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return Model{
		spinner: sp,
		bridge:  bridge,
		target:  target,
	}
}

// Init starts the spinner and waits for the first snapshot
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.bridge.next,
		tea.EnterAltScreen,
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.bridge.Stop()
			return m, tea.Quit
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 3
		viewportHeight := msg.Height - headerHeight - footerHeight - 2
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.viewport.SetContent(RenderGameServer(m.gs))

	case snapshotMsg:
		m.gs = msg.gs
		m.updates++
		m.lastUpdate = msg.at
		if m.ready {
			m.viewport.SetContent(RenderGameServer(m.gs))
		}
		cmds = append(cmds, m.bridge.next)

	case watchEndedMsg:
		m.ended = true
		m.err = msg.err

	case spinner.TickMsg:
		if m.gs == nil && !m.ended {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Connecting to sidecar..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(PanelStyle.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(RenderKeyHint("q", "Quit") + "  " + RenderKeyHint("g/G", "Top/Bottom") + "  " + RenderKeyHint("↑/↓", "Scroll"))
	return b.String()
}

func (m Model) renderHeader() string {
	var status string
	switch {
	case m.err != nil:
		status = StatusOfflineStyle.Render("watch failed: " + m.err.Error())
	case m.ended:
		status = StatusOfflineStyle.Render("watch ended")
	case m.gs == nil:
		status = m.spinner.View() + " waiting for first update"
	default:
		status = StatusOnlineStyle.Render("watching")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		LogoStyle.Render(Logo),
		strings.Repeat(" ", 3),
		status,
	)
	return TitlePanelStyle.Width(m.width - 4).Render(header)
}

func (m Model) renderStatusBar() string {
	left := HelpDescStyle.Render(fmt.Sprintf("Updates: %d", m.updates))
	right := HelpDescStyle.Render(m.target)
	if !m.lastUpdate.IsZero() {
		left += "  " + TimestampStyle.Render("last "+m.lastUpdate.Format("15:04:05"))
	}

	space := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if space < 2 {
		space = 2
	}
	return StatusBarStyle.Width(m.width - 2).Render(left + strings.Repeat(" ", space) + right)
}

// RenderGameServer renders a snapshot as labelled sections
func RenderGameServer(gs *sdkpb.GameServer) string {
	if gs == nil {
		return HelpDescStyle.Render("No GameServer received yet.")
	}

	var b strings.Builder
	meta := gs.GetObjectMeta()
	st := gs.GetStatus()

	section(&b, "GameServer")
	field(&b, "Name", meta.GetNamespace()+"/"+meta.GetName())
	field(&b, "State", RenderState(st.GetState()))
	field(&b, "Address", st.GetAddress())
	for _, p := range st.GetPorts() {
		field(&b, "Port "+p.GetName(), fmt.Sprint(p.GetPort()))
	}

	if len(meta.GetLabels()) > 0 {
		section(&b, "Labels")
		sortedFields(&b, meta.GetLabels())
	}
	if len(meta.GetAnnotations()) > 0 {
		section(&b, "Annotations")
		sortedFields(&b, meta.GetAnnotations())
	}

	if players := st.GetPlayers(); players != nil {
		section(&b, "Players")
		field(&b, "Connected", fmt.Sprintf("%d/%d", players.GetCount(), players.GetCapacity()))
		if len(players.GetIds()) > 0 {
			field(&b, "IDs", strings.Join(players.GetIds(), ", "))
		}
	}

	if len(st.GetCounters()) > 0 {
		section(&b, "Counters")
		for _, name := range sortedKeys(st.GetCounters()) {
			c := st.GetCounters()[name]
			field(&b, name, fmt.Sprintf("%d/%d", c.GetCount(), c.GetCapacity()))
		}
	}
	if len(st.GetLists()) > 0 {
		section(&b, "Lists")
		for _, name := range sortedKeys(st.GetLists()) {
			l := st.GetLists()[name]
			field(&b, name, fmt.Sprintf("%d/%d [%s]", len(l.GetValues()), l.GetCapacity(), strings.Join(l.GetValues(), ", ")))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func section(b *strings.Builder, title string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(SectionStyle.Render(title))
	b.WriteString("\n")
}

func field(b *strings.Builder, key, value string) {
	b.WriteString("  ")
	b.WriteString(KeyStyle.Render(key + ":"))
	b.WriteString(" ")
	b.WriteString(ValueStyle.Render(value))
	b.WriteString("\n")
}

func sortedFields(b *strings.Builder, m map[string]string) {
	for _, k := range sortedKeys(m) {
		field(b, k, m[k])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Run starts the watch view and blocks until the user quits or ctx is done
func Run(ctx context.Context, bridge *Bridge, target string) error {
	defer bridge.Stop()

	p := tea.NewProgram(New(bridge, target), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
