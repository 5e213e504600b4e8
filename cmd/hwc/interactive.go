package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/multierr"

	"github.com/wippyai/hostedwebcore"
	"github.com/wippyai/hostedwebcore/config"
	"github.com/wippyai/hostedwebcore/webcore"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateIdle modelState = iota
	stateBusy
	stateInputName
)

type interactiveModel struct {
	err      error
	host     *webcore.Host
	cfg      *config.Config
	current  *hostedwebcore.Setup
	status   string
	handles  []*webcore.WebCore
	spinner  spinner.Model
	input    textinput.Model
	quitting bool
	state    modelState
}

func newInteractiveModel(host *webcore.Host, cfg *config.Config) *interactiveModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = cfg.InstanceName
	ti.Prompt = "instance name: "
	ti.Width = 40

	return &interactiveModel{
		host:    host,
		cfg:     cfg,
		spinner: sp,
		input:   ti,
		state:   stateBusy,
		status:  "creating web core",
	}
}

type attachedMsg struct {
	err     error
	wc      *webcore.WebCore
	current *hostedwebcore.Setup
}

type stoppedMsg struct {
	err       error
	stopped   int
	immediate bool
	current   *hostedwebcore.Setup
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, attach(m.host, m.cfg.Setup()))
}

func attach(host *webcore.Host, setup *hostedwebcore.Setup) tea.Cmd {
	return func() tea.Msg {
		wc, err := host.New(setup)
		if err != nil {
			return attachedMsg{err: err}
		}
		current, err := host.CurrentSetup()
		return attachedMsg{wc: wc, current: current, err: err}
	}
}

func stop(host *webcore.Host, handles []*webcore.WebCore, immediate bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		for _, wc := range handles {
			err = multierr.Append(err, wc.Stop(immediate))
		}
		// no engine left is the expected outcome of a full stop
		current, _ := host.CurrentSetup()
		return stoppedMsg{err: err, stopped: len(handles), immediate: immediate, current: current}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateInputName {
			return m.updateInput(msg)
		}
		if m.state == stateBusy {
			// the pending command still owns its handles; quit once it lands
			if msg.String() == "ctrl+c" {
				m.quitting = true
				m.status = "finishing before quit"
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m.finish()

		case "a":
			return m.begin("attaching", attach(m.host, m.cfg.Setup()))

		case "n":
			m.state = stateInputName
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink

		case "d":
			if len(m.handles) == 0 {
				return m, nil
			}
			last := m.handles[len(m.handles)-1]
			return m.begin("detaching", stop(m.host, []*webcore.WebCore{last}, false))

		case "s", "x":
			if len(m.handles) == 0 {
				return m, nil
			}
			immediate := msg.String() == "x"
			return m.begin("stopping", stop(m.host, m.handles, immediate))
		}

	case attachedMsg:
		m.state = stateIdle
		m.err = msg.err
		if msg.wc != nil {
			m.handles = append(m.handles, msg.wc)
			m.current = msg.current
			m.status = fmt.Sprintf("attached, %d handle(s)", len(m.handles))
		}
		if m.quitting {
			return m.finish()
		}
		return m, nil

	case stoppedMsg:
		m.state = stateIdle
		m.err = msg.err
		n := min(msg.stopped, len(m.handles))
		m.handles = m.handles[:len(m.handles)-n]
		m.current = msg.current
		mode := "graceful"
		if msg.immediate {
			mode = "immediate"
		}
		m.status = fmt.Sprintf("released %d handle(s) (%s)", msg.stopped, mode)
		if m.quitting {
			return m.finish()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateIdle
		m.input.Blur()
		return m, nil
	case "enter":
		m.input.Blur()
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			name = m.cfg.InstanceName
		}
		setup := hostedwebcore.NewSetup(m.cfg.LibraryPath, m.cfg.HostConfig, m.cfg.RootConfig, name)
		return m.begin("attaching as "+name, attach(m.host, setup))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) begin(status string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.state = stateBusy
	m.status = status
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, cmd)
}

// finish stops every handle still held, then quits.
func (m *interactiveModel) finish() (tea.Model, tea.Cmd) {
	if len(m.handles) == 0 {
		return m, tea.Quit
	}
	return m.begin("stopping all handles", stop(m.host, m.handles, false))
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Hosted Web Core"))
	b.WriteString(" ")
	b.WriteString(m.cfg.LibraryPath)
	b.WriteString("\n\n")

	if m.current != nil {
		b.WriteString(m.field("instance", m.current.InstanceName()))
		b.WriteString(m.field("library", m.current.LibraryPath()))
		b.WriteString(m.field("host config", m.current.HostConfig()))
		b.WriteString(m.field("root config", m.current.RootConfig()))
	} else {
		b.WriteString(helpStyle.Render("no web core running"))
		b.WriteString("\n")
	}
	b.WriteString(m.field("handles", fmt.Sprint(len(m.handles))))
	b.WriteString("\n")

	switch m.state {
	case stateBusy:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.status)
	case stateInputName:
		b.WriteString(m.input.View())
	default:
		b.WriteString(resultStyle.Render(m.status))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.state == stateInputName {
		b.WriteString(helpStyle.Render("enter attach • esc back"))
	} else {
		b.WriteString(helpStyle.Render("a attach • n attach as • d detach • s stop • x stop now • q quit"))
	}
	return b.String()
}

func (m *interactiveModel) field(label, value string) string {
	return fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label)), valueStyle.Render(value))
}

func runInteractive(host *webcore.Host, cfg *config.Config) error {
	p := tea.NewProgram(newInteractiveModel(host, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
