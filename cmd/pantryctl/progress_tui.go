package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
)

// progressEvent mirrors internal/domain/events.ProgressEvent's wire
// shape, decoded independently here since the CLI is a separate
// module boundary from the daemon's core packages.
type progressEvent struct {
	Kind     string `json:"type"`
	Message  string `json:"message"`
	Progress struct {
		CurrentTask string  `json:"current_task"`
		Percentage  float64 `json:"progress_percentage"`
	} `json:"progress"`
}

type tuiModel struct {
	spinner  spinner.Model
	bar      progress.Model
	status   string
	done     bool
	events   <-chan progressEvent
	lastPct  float64
}

type progressMsg progressEvent
type streamClosedMsg struct{}

func newProgressTUI(events <-chan progressEvent) tuiModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return tuiModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		status:  "waiting for plan to start...",
		events:  events,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func waitForEvent(events <-chan progressEvent) tea.Cmd {
	return func() tea.Msg {
		ev, open := <-events
		if !open {
			return streamClosedMsg{}
		}
		return progressMsg(ev)
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.status = fmt.Sprintf("[%s] %s", msg.Kind, msg.Progress.CurrentTask)
		if msg.Message != "" {
			m.status = msg.Message
		}
		m.lastPct = msg.Progress.Percentage
		if msg.Kind == "complete" || msg.Kind == "error" {
			m.done = true
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)
	case streamClosedMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n%s\n", m.spinner.View(), m.status, m.bar.ViewAs(m.lastPct/100))
}

// runProgressTUI connects to the daemon's progress websocket at
// streamURL and drives the bubbletea program until the stream
// completes, errors, or closes.
func runProgressTUI(streamURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(streamURL, nil)
	if err != nil {
		return fmt.Errorf("connect progress stream: %w", err)
	}
	defer conn.Close()

	events := make(chan progressEvent, 64)
	go func() {
		defer close(events)
		for {
			var ev progressEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-time.After(time.Second):
				return
			}
		}
	}()

	p := tea.NewProgram(newProgressTUI(events))
	_, err = p.Run()
	return err
}
