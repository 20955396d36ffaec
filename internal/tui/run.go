package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"mpeg-transcriber/internal/controller"
	"mpeg-transcriber/internal/domain"
	"mpeg-transcriber/internal/logger"
	"mpeg-transcriber/internal/state"
)

// programView turns state notifications into bubbletea messages.
type programView struct {
	send func(tea.Msg)
}

// Update sends the idle view model.
func (v *programView) Update(snap domain.Snapshot) {
	v.send(stateMsg{view: state.Render(snap)})
}

// ShowTranscriptionStart sends the busy view model.
func (v *programView) ShowTranscriptionStart(snap domain.Snapshot) {
	v.send(busyMsg{view: state.Render(snap)})
}

// programNotifier shows dialogs inline in the terminal view.
type programNotifier struct {
	send func(tea.Msg)
}

// Info shows a success line.
func (n *programNotifier) Info(title, message string) {
	n.send(noticeMsg{title: title, message: message})
}

// Error shows an error line.
func (n *programNotifier) Error(title, message string) {
	n.send(noticeMsg{title: title, message: message, isError: true})
}

// Run attaches a terminal view to st, routes ctrl's dialogs to it and
// blocks until the user quits.
func Run(ctrl *controller.Controller, st *state.ApplicationState, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	p := tea.NewProgram(NewModel(ctrl, state.Render(st.Snapshot())), tea.WithAltScreen())

	view := &programView{send: p.Send}
	st.AddView(view)
	defer st.RemoveView(view)
	ctrl.Notifier = &programNotifier{send: p.Send}

	log.Info("Starting terminal view")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal view: %w", err)
	}
	return nil
}
