// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hormann/hcp1/pkg/door"
	"github.com/hormann/hcp1/pkg/logging"
	"github.com/hormann/hcp1/pkg/peer"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live terminal view of door/light state and bus traffic",
	Long: `monitor opens the serial port and renders a live dashboard of the
door and light state and a scrolling log of state changes, port and
scan events, and bus errors. Press 'q' to quit.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

const maxMonitorLogEntries = 64

type monitorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

type monitorEventMsg struct {
	message string
	isError bool

	doorKnown bool
	doorState door.DoorState

	lightKnown bool
	lightOn    bool
}

type monitorModel struct {
	doorName string
	portPath string
	baudRate int
	parser   string

	doorKnown bool
	doorState door.DoorState
	lightKnown bool
	lightOn    bool

	log []monitorLogEntry

	width, height int
	quitting      bool

	events <-chan monitorEventMsg
}

func waitForMonitorEvent(events <-chan monitorEventMsg) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return ev
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, waitForMonitorEvent(m.events))
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorEventMsg:
		if msg.doorKnown {
			m.doorKnown = true
			m.doorState = msg.doorState
		}
		if msg.lightKnown {
			m.lightKnown = true
			m.lightOn = msg.lightOn
		}
		if msg.message != "" {
			m.log = append(m.log, monitorLogEntry{timestamp: time.Now(), message: msg.message, isError: msg.isError})
			if len(m.log) > maxMonitorLogEntries {
				m.log = m.log[len(m.log)-maxMonitorLogEntries:]
			}
		}
		return m, waitForMonitorEvent(m.events)
	}

	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Background(lipgloss.Color("235")).Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render(fmt.Sprintf("HCP1 MONITOR - %s", m.doorName)))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Port: %s @ %d baud | Parser: %s | Press 'q' to quit", m.portPath, m.baudRate, m.parser)))
	s.WriteString("\n\n")

	doorStr := "unknown"
	if m.doorKnown {
		doorStr = m.doorState.String()
	}
	lightStr := "unknown"
	if m.lightKnown {
		if m.lightOn {
			lightStr = "on"
		} else {
			lightStr = "off"
		}
	}

	statusContent := fmt.Sprintf("%s %s   %s %s",
		labelStyle.Render("Door:"), valueStyle.Render(doorStr),
		labelStyle.Render("Light:"), valueStyle.Render(lightStr),
	)
	s.WriteString(boxStyle.Render(statusContent))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 12
	if logHeight < 5 {
		logHeight = 5
	}

	var logContent strings.Builder
	startIdx := len(m.log) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}
	if len(m.log) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.log); i++ {
			entry := m.log[i]
			ts := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(ts), errorStyle.Render("x "+entry.message)))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(ts), warnStyle.Render("- "+entry.message)))
			}
		}
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}

func runMonitor(cmd *cobra.Command, args []string) error {
	log := logging.New(os.Stderr, parseLogLevel(logLevel)).With("door", doorName)

	lp, err := openLivePeer(log)
	if err != nil {
		return err
	}
	defer lp.Close()

	d := door.New(lp)

	events := make(chan monitorEventMsg, 32)
	lp.On(func(ev peer.Event) {
		switch ev.Kind {
		case peer.EventError:
			events <- monitorEventMsg{message: fmt.Sprintf("bus error: %v", ev.Err), isError: true}
		case peer.EventInit:
			events <- monitorEventMsg{message: "re-discovered by drive"}
		case peer.EventOpen:
			events <- monitorEventMsg{message: "port opened"}
		case peer.EventClose:
			events <- monitorEventMsg{message: "port closed"}
		}
	})
	d.OnEvent(func(ev door.Event) {
		switch ev.Kind {
		case door.EventDoorUpdated:
			events <- monitorEventMsg{message: fmt.Sprintf("door -> %s", ev.Door), doorKnown: true, doorState: ev.Door}
		case door.EventLightUpdated:
			state := "off"
			if ev.Light {
				state = "on"
			}
			events <- monitorEventMsg{message: fmt.Sprintf("light -> %s", state), lightKnown: true, lightOn: ev.Light}
		case door.EventError:
			events <- monitorEventMsg{message: fmt.Sprintf("decode error: %v", ev.Err), isError: true}
		}
	})

	m := monitorModel{
		doorName: doorName,
		portPath: portPath,
		baudRate: baudRate,
		parser:   parserVariant,
		width:    80,
		height:   24,
		events:   events,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
