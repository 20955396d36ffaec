// Package state holds the selected file and notifies registered views.
package state

import (
	"sync"

	"mpeg-transcriber/internal/domain"
)

// View is an observer of the application state.
// Implementations must not call back into the state from these methods.
type View interface {
	Update(snapshot domain.Snapshot)
	ShowTranscriptionStart(snapshot domain.Snapshot)
}

// ApplicationState is the single source of truth for what the views render.
type ApplicationState struct {
	// notifyMu serializes a mutation together with its notification round.
	notifyMu sync.Mutex

	mu           sync.RWMutex
	file         string
	transcribing bool
	views        []View
}

// New creates an empty state with no file selected.
func New() *ApplicationState {
	return &ApplicationState{}
}

// FileToTranscribe returns the selected file or "" when none is selected.
func (s *ApplicationState) FileToTranscribe() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file
}

// Snapshot returns a copy of the current state.
func (s *ApplicationState) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// UpdateFile sets the selected file and re-renders every view.
// It also ends busy mode, since it is the only way back to idle.
func (s *ApplicationState) UpdateFile(path string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.file = path
	s.transcribing = false
	snap := s.snapshotLocked()
	views := s.viewsLocked()
	s.mu.Unlock()

	for _, v := range views {
		v.Update(snap)
	}
}

// SignalTranscriptionStart switches every view into busy mode.
func (s *ApplicationState) SignalTranscriptionStart() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.transcribing = true
	snap := s.snapshotLocked()
	views := s.viewsLocked()
	s.mu.Unlock()

	for _, v := range views {
		v.ShowTranscriptionStart(snap)
	}
}

// AddView registers v; registering the same view twice is a no-op.
func (s *ApplicationState) AddView(v View) {
	if v == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(v) >= 0 {
		return
	}
	s.views = append(s.views, v)
}

// RemoveView unregisters v; removing an unknown view is a no-op.
func (s *ApplicationState) RemoveView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(v)
	if i < 0 {
		return
	}
	s.views = append(s.views[:i:i], s.views[i+1:]...)
}

// ViewCount reports the number of registered views.
func (s *ApplicationState) ViewCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

func (s *ApplicationState) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		FileToTranscribe: s.file,
		Transcribing:     s.transcribing,
	}
}

func (s *ApplicationState) viewsLocked() []View {
	out := make([]View, len(s.views))
	copy(out, s.views)
	return out
}

func (s *ApplicationState) indexLocked(v View) int {
	for i, existing := range s.views {
		if existing == v {
			return i
		}
	}
	return -1
}
