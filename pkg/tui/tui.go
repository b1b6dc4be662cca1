// Package tui provides a terminal user interface for tracker2live
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/tracker2live/pkg/converter"
)

// Amiga-inspired color scheme (Workbench/demoscene aesthetic)
var (
	amigaOrange = lipgloss.Color("#FF8800")
	amigaBlue   = lipgloss.Color("#0055AA")
	chipWhite   = lipgloss.Color("#EEEEEE")
	darkGray    = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(amigaOrange).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(chipWhite).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(amigaOrange).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(amigaBlue).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(amigaOrange).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amigaOrange).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateOptions
	StateFilePicker
	StateConverting
	StateResult
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
}

var menuItems = []MenuItem{
	{Title: "Convert module", Description: "Pick a .mod/.xm file and build a Live project"},
	{Title: "Options", Description: "Toggle automation, envelope and merge settings"},
	{Title: "Exit", Description: "Exit the application"},
}

// optionItem is one toggle on the options screen.
type optionItem struct {
	Title       string
	Description string
	Value       *bool
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	optionIndex  int
	options      converter.Options
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	result       *converter.Result
	err          error
	width        int
	height       int
}

// conversionDoneMsg signals conversion completion
type conversionDoneMsg struct {
	result *converter.Result
	err    error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New() Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".mod", ".xm"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(amigaOrange)

	cwd, _ := os.Getwd()
	opts, err := converter.LoadConfig(cwd)
	if err != nil {
		opts = converter.Options{}
	}

	return Model{
		state:      StateMenu,
		menuIndex:  0,
		options:    opts,
		filePicker: fp,
		spinner:    s,
	}
}

func (m *Model) optionItems() []optionItem {
	return []optionItem{
		{Title: "Pan automation", Description: "Draw pan automation from 8xx commands", Value: &m.options.PanAutomation},
		{Title: "Volume envelope", Description: "Map FT2 volume envelopes onto device ADSR", Value: &m.options.Envelope},
		{Title: "Sample offset", Description: "Use Simpler with sample-start automation for 9xx", Value: &m.options.SampleOffset},
		{Title: "Merge tracks", Description: "One merged track per instrument", Value: &m.options.MergeTracks},
		{Title: "MIDI export", Description: "Also write one Standard MIDI File per track", Value: &m.options.MIDIExport},
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs to receive all messages while active.
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateConverting
			return m, tea.Batch(m.spinner.Tick, m.performConversion())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateOptions:
			return m.updateOptions(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case conversionDoneMsg:
		m.state = StateResult
		m.result = msg.result
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		switch m.menuIndex {
		case 0:
			m.state = StateFilePicker
			return m, m.filePicker.Init()
		case 1:
			m.state = StateOptions
			m.optionIndex = 0
			return m, nil
		default:
			return m, tea.Quit
		}
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateOptions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.optionItems()
	switch msg.String() {
	case "up", "k":
		if m.optionIndex > 0 {
			m.optionIndex--
		}
	case "down", "j":
		if m.optionIndex < len(items)-1 {
			m.optionIndex++
		}
	case "enter", " ":
		*items[m.optionIndex].Value = !*items[m.optionIndex].Value
	case "esc":
		m.state = StateMenu
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.result = nil
		m.selectedFile = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performConversion() tea.Cmd {
	file := m.selectedFile
	opts := m.options
	return func() tea.Msg {
		result, err := converter.Convert(file, opts)
		return conversionDoneMsg{result: result, err: err}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateOptions:
		s.WriteString(m.viewOptions())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateConverting:
		s.WriteString(m.viewConverting())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" TRACKER → LIVE "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(amigaBlue).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewOptions() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" OPTIONS "))
	s.WriteString("\n\n")

	for i, item := range m.optionItems() {
		mark := "[ ]"
		if *item.Value {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s", mark, item.Title)
		if i == m.optionIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", line)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(amigaBlue).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", line)))
		}
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("space/enter: toggle • esc: back to menu"))

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT MODULE FILE "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewConverting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" CONVERTING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Converting %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render("  building Live project"))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Conversion failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Conversion complete!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:   %s\n", filepath.Base(m.selectedFile)))
		if m.result != nil {
			s.WriteString(fmt.Sprintf("Project: %s\n", m.result.Project))
			s.WriteString(fmt.Sprintf("Tracks:  %d  Notes: %d  Samples: %d\n",
				m.result.Tracks, m.result.Notes, m.result.Samples))
			s.WriteString(fmt.Sprintf("Tempo:   %.2f BPM", m.result.BPM))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
  _____ ____      _    ____ _  _______ ____ ____  _     ___ _   _ _____
 |_   _|  _ \    / \  / ___| |/ / ____|  _ \___ \| |   |_ _| | | | ____|
   | | | |_) |  / _ \| |   | ' /|  _| | |_) |__) | |    | || | | |  _|
   | | |  _ <  / ___ \ |___| . \| |___|  _ < / __/| |___ | || |_| | |___
   |_| |_| \_\/_/   \_\____|_|\_\_____|_| \_\_____|_____|___|\___/|_____|
`
	return lipgloss.NewStyle().Foreground(amigaOrange).Render(logo)
}

// Run starts the TUI application
func Run() error {
	p := tea.NewProgram(New(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
