// Package jobs gates transcriptions to one at a time and keeps the event
// history the desktop window replays.
package jobs

import (
	"errors"
	"fmt"
	"sync"

	"mpeg-transcriber/internal/domain"
)

var (
	// ErrJobAlreadyRunning is returned when a transcription is already in flight.
	ErrJobAlreadyRunning = errors.New("transcription already running")

	// ErrInvalidTransition is wrapped when a status change skips a stage.
	ErrInvalidTransition = errors.New("invalid job transition")
)

// transitions lists the statuses reachable from each status.
var transitions = map[domain.JobStatus][]domain.JobStatus{
	domain.JobStatusIdle:         {domain.JobStatusTranscribing},
	domain.JobStatusTranscribing: {domain.JobStatusExporting, domain.JobStatusFailed},
	domain.JobStatusExporting:    {domain.JobStatusDone, domain.JobStatusFailed},
	domain.JobStatusDone:         {domain.JobStatusTranscribing, domain.JobStatusIdle},
	domain.JobStatusFailed:       {domain.JobStatusTranscribing, domain.JobStatusIdle},
}

// Manager holds the current job. Only transcribing and exporting count as running.
type Manager struct {
	mu  sync.RWMutex
	job domain.Job
}

// NewManager returns an idle manager.
func NewManager() *Manager {
	return &Manager{job: domain.Job{Status: domain.JobStatusIdle}}
}

// Start admits a new job unless one is running.
func (m *Manager) Start(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if running(m.job.Status) {
		return ErrJobAlreadyRunning
	}
	m.job = domain.Job{ID: jobID, Status: domain.JobStatusTranscribing}
	return nil
}

// Transition moves the current job to status. Repeating the current status is a no-op.
func (m *Manager) Transition(status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.job.ID == "" && status != domain.JobStatusIdle {
		return fmt.Errorf("%w: no active job", ErrInvalidTransition)
	}
	if m.job.Status == status {
		return nil
	}
	if !allowed(m.job.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.job.Status, status)
	}

	m.job.Status = status
	return nil
}

// Current returns a copy of the current job.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.job
}

// Reset forgets the current job.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.job = domain.Job{Status: domain.JobStatusIdle}
	m.mu.Unlock()
}

// IsRunning reports whether a job is transcribing or exporting.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return running(m.job.Status)
}

func running(status domain.JobStatus) bool {
	return status == domain.JobStatusTranscribing || status == domain.JobStatusExporting
}

func allowed(from, to domain.JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
