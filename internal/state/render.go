package state

import "mpeg-transcriber/internal/domain"

const (
	StartLabelIdle = "Start"
	StartLabelBusy = "Transcribing..."
)

// Render derives the selected-file label and the Start button from a snapshot.
func Render(snap domain.Snapshot) domain.ViewModel {
	vm := domain.ViewModel{
		StartEnabled: snap.HasFile() && !snap.Transcribing,
		StartLabel:   StartLabelIdle,
	}
	if snap.HasFile() {
		vm.FileLabel = "File selected: " + snap.FileToTranscribe
	}
	if snap.Transcribing {
		vm.StartLabel = StartLabelBusy
	}
	return vm
}
