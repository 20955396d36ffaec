// Package tui renders the application state in a terminal with bubbletea.
package tui

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mpeg-transcriber/internal/controller"
	"mpeg-transcriber/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#61E3FA")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A9B1D6"))

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E2E")).
			Background(lipgloss.Color("#9ECE6A")).
			Padding(0, 2).
			MarginTop(1)

	disabledStyle = buttonStyle.
			Background(lipgloss.Color("#565F89"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ECE6A")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7768E")).
			MarginTop(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565F89")).
			MarginTop(1)

	frameStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7AA2F7")).
			Padding(1, 2)
)

// placeholder is shown while nothing is selected.
const placeholder = "Pick a file to transcribe!"

const (
	// defaultPickerHeight is used until the terminal reports its size.
	defaultPickerHeight = 10

	// pickerChrome is the number of rows the frame, title and help take
	// around the file list.
	pickerChrome = 8
)

// stateMsg carries an idle view model pushed by the application state.
type stateMsg struct{ view domain.ViewModel }

// busyMsg carries the view model shown while transcribing.
type busyMsg struct{ view domain.ViewModel }

// noticeMsg is a success or error dialog.
type noticeMsg struct {
	title, message string
	isError        bool
}

// doneMsg reports the outcome of a controller call run as a command.
type doneMsg struct{ err error }

// Model is the bubbletea model of the terminal view.
type Model struct {
	ctrl    *controller.Controller
	picker  filepicker.Model
	spinner spinner.Model

	view    domain.ViewModel
	busy    bool
	picking bool
	notice  *noticeMsg
}

// NewModel builds a model driving ctrl, starting from view.
func NewModel(ctrl *controller.Controller, view domain.ViewModel) Model {
	fp := filepicker.New()
	fp.AllowedTypes = controller.MediaFilter.Extensions
	fp.Height = defaultPickerHeight
	if home, err := os.UserHomeDir(); err == nil {
		fp.CurrentDirectory = home
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ECE6A"))

	return Model{
		ctrl:    ctrl,
		picker:  fp,
		spinner: s,
		view:    view,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.view = msg.view
		m.busy = false
		return m, nil

	case busyMsg:
		m.view = msg.view
		m.busy = true
		m.notice = nil
		return m, m.spinner.Tick

	case noticeMsg:
		m.notice = &msg
		return m, nil

	case doneMsg:
		if msg.err != nil && !errors.Is(msg.err, controller.ErrFileNotFound) {
			m.notice = &noticeMsg{title: controller.ErrorTitle, message: msg.err.Error(), isError: true}
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(tea.WindowSizeMsg{
			Width:  msg.Width,
			Height: max(msg.Height-pickerChrome, 1),
		})
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.updateKeys(msg)
	}

	if m.picking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

// updateKeys handles keys on the main screen.
func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "p":
		if m.busy {
			return m, nil
		}
		m.picking = true
		m.notice = nil
		return m, m.picker.Init()
	case "s", "enter":
		if !m.view.StartEnabled {
			return m, nil
		}
		return m, m.start()
	}
	return m, nil
}

// updatePicker forwards keys to the file picker until a file is chosen.
func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.picking = false
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		return m, m.selectPath(path)
	}
	return m, cmd
}

// selectPath hands a picked path to the controller off the event loop.
func (m Model) selectPath(path string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return doneMsg{err: ctrl.SelectPath(path)}
	}
}

// start runs the transcription off the event loop.
func (m Model) start() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return doneMsg{err: ctrl.InitTranscription(context.Background())}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("MPEG Transcriber"))
	b.WriteString("\n")

	if m.picking {
		b.WriteString(labelStyle.Render("Select an .mp3 or .mp4 file"))
		b.WriteString("\n\n")
		b.WriteString(m.picker.View())
		b.WriteString(helpStyle.Render("enter: select • esc: back"))
		return frameStyle.Render(b.String())
	}

	label := m.view.FileLabel
	if label == "" {
		label = placeholder
	}
	b.WriteString(labelStyle.Render(label))
	b.WriteString("\n")

	button := disabledStyle.Render(m.view.StartLabel)
	if m.view.StartEnabled {
		button = buttonStyle.Render(m.view.StartLabel)
	}
	if m.busy {
		button = m.spinner.View() + " " + button
	}
	b.WriteString(button)

	if m.notice != nil {
		style := infoStyle
		if m.notice.isError {
			style = errorStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.notice.title + ": " + m.notice.message))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("p: pick file • s: start • q: quit"))
	return frameStyle.Render(b.String())
}
