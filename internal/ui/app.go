// Package ui implements the interactive dashboard: node tabs, a VM table
// and storage usage bars, with keybindings to trigger guest lifecycle
// operations against the connected cluster.
package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yourusername/pvekit/internal/ui/components"
	"github.com/yourusername/pvekit/pkg/proxmox"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	tabStyle      = lipgloss.NewStyle().Padding(0, 1)
	activeTab     = tabStyle.Copy().Bold(true).Background(lipgloss.Color("240")).Foreground(lipgloss.Color("15"))
	offlineTab    = tabStyle.Copy().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sectionHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
)

// Model is the dashboard application model
type Model struct {
	session *proxmox.Session

	nodes   []proxmox.Node
	nodeIdx int
	vms     []proxmox.VirtualMachine
	storage []proxmox.Storage

	table   table.Model
	status  string
	err     error
	loading bool
	width   int
	height  int
}

// NewModel creates a new dashboard model for an authenticated session
func NewModel(session *proxmox.Session) Model {
	columns := []table.Column{
		{Title: "VMID", Width: 6},
		{Title: "Name", Width: 24},
		{Title: "Status", Width: 10},
		{Title: "CPUs", Width: 5},
		{Title: "Memory", Width: 10},
		{Title: "Uptime", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("6"))
	styles.Selected = styles.Selected.Background(lipgloss.Color("240")).Foreground(lipgloss.Color("15"))
	t.SetStyles(styles)

	return Model{
		session: session,
		table:   t,
		loading: true,
		width:   80,
		height:  24,
	}
}

// Messages
type nodesLoadedMsg struct {
	nodes []proxmox.Node
}

type nodeDataMsg struct {
	node    string
	vms     []proxmox.VirtualMachine
	storage []proxmox.Storage
}

type opDoneMsg struct {
	status string
}

type errMsg struct {
	err error
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.loadNodes
}

func (m Model) loadNodes() tea.Msg {
	nodes, err := m.session.ListNodes()
	if err != nil {
		return errMsg{err}
	}
	if len(nodes) == 0 {
		return errMsg{fmt.Errorf("no nodes visible on %s", m.session.Host)}
	}
	return nodesLoadedMsg{nodes}
}

func (m Model) loadNodeData(node string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		vms, err := session.ListVMs(node)
		if err != nil {
			return errMsg{err}
		}
		storage, err := session.ListStorage(node)
		if err != nil {
			return errMsg{err}
		}
		return nodeDataMsg{node: node, vms: vms, storage: storage}
	}
}

func (m Model) currentNode() string {
	if len(m.nodes) == 0 {
		return ""
	}
	return m.nodes[m.nodeIdx].Name
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case nodesLoadedMsg:
		m.nodes = msg.nodes
		m.nodeIdx = 0
		return m, m.loadNodeData(m.currentNode())

	case nodeDataMsg:
		// A stale load for a node we already tabbed away from
		if msg.node != m.currentNode() {
			return m, nil
		}
		m.vms = msg.vms
		m.storage = msg.storage
		m.loading = false
		m.rebuildRows()
		return m, nil

	case opDoneMsg:
		m.status = msg.status
		return m, m.loadNodeData(m.currentNode())

	case errMsg:
		m.err = msg.err
		m.loading = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}

	if m.err != nil {
		switch msg.String() {
		case "enter", "esc":
			m.err = nil
			m.loading = true
			return m, m.loadNodeData(m.currentNode())
		}
		return m, nil
	}

	switch msg.String() {
	case "tab", "right", "l":
		if len(m.nodes) > 1 {
			m.nodeIdx = (m.nodeIdx + 1) % len(m.nodes)
			m.loading = true
			m.status = ""
			return m, m.loadNodeData(m.currentNode())
		}
	case "shift+tab", "left", "h":
		if len(m.nodes) > 1 {
			m.nodeIdx = (m.nodeIdx + len(m.nodes) - 1) % len(m.nodes)
			m.loading = true
			m.status = ""
			return m, m.loadNodeData(m.currentNode())
		}
	case "r":
		m.loading = true
		m.status = ""
		return m, m.loadNodeData(m.currentNode())
	case "s":
		return m, m.runOp("start")
	case "d":
		return m, m.runOp("shutdown")
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// runOp triggers a lifecycle request for the selected VM. The cluster
// acknowledges and runs it asynchronously, so the refresh that follows may
// still show the old power state.
func (m Model) runOp(action string) tea.Cmd {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.vms) {
		return nil
	}
	vm := m.vms[cursor]
	node := m.currentNode()
	session := m.session

	return func() tea.Msg {
		var err error
		switch action {
		case "start":
			err = session.StartVM(node, vm.Name)
		case "shutdown":
			err = session.ShutdownVM(node, vm.Name)
		}
		if err != nil {
			return errMsg{err}
		}
		return opDoneMsg{fmt.Sprintf("%s requested for %s (vmid %d)", action, vm.Name, vm.VMID)}
	}
}

func (m *Model) rebuildRows() {
	rows := make([]table.Row, 0, len(m.vms))
	for _, vm := range m.vms {
		rows = append(rows, table.Row{
			strconv.Itoa(vm.VMID),
			vm.Name,
			vm.Status,
			strconv.Itoa(vm.CPUs),
			components.FormatBytes(vm.MaxMem),
			formatUptime(vm.Uptime),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return "-"
	}
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// View renders the current view
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("pvekit dashboard: "+m.session.Host) + "\n\n")

	if m.err != nil {
		sb.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n")
		sb.WriteString(helpStyle.Render("enter/esc retry • q quit") + "\n")
		return sb.String()
	}

	// Node tabs
	var tabs []string
	for i, node := range m.nodes {
		style := tabStyle
		if i == m.nodeIdx {
			style = activeTab
		} else if node.Status != "online" {
			style = offlineTab
		}
		tabs = append(tabs, style.Render(node.Name))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	if m.loading {
		sb.WriteString("Loading node data...\n")
		return sb.String()
	}

	// Storage usage
	if len(m.storage) > 0 {
		sb.WriteString(sectionHeader.Render("Storage") + "\n")
		for _, pool := range m.storage {
			label := fmt.Sprintf("%-12s", pool.Name)
			sb.WriteString("  " + components.RenderStorageBar(label, pool.UsedFraction, pool.Available, m.width-2) + "\n")
		}
		sb.WriteString("\n")
	}

	// VM table
	sb.WriteString(sectionHeader.Render(fmt.Sprintf("Virtual machines (%d)", len(m.vms))) + "\n")
	sb.WriteString(m.table.View() + "\n")

	if m.status != "" {
		sb.WriteString(statusStyle.Render(m.status) + "\n")
	}
	sb.WriteString(helpStyle.Render("tab nodes • ↑/↓ select • s start • d shutdown • r refresh • q quit") + "\n")

	return sb.String()
}
