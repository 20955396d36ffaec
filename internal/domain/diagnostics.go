package domain

import "time"

// DiagnosticStatus is the outcome of one startup check.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem reports one external tool or path.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
}

// DiagnosticReport is the set of checks taken at one point in time.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	HasFailures bool             `json:"hasFailures"`
	Items       []DiagnosticItem `json:"items"`
}

// NewDiagnosticReport stamps items and derives HasFailures from them.
func NewDiagnosticReport(at time.Time, items ...DiagnosticItem) DiagnosticReport {
	report := DiagnosticReport{GeneratedAt: at.UTC(), Items: items}
	report.HasFailures = len(report.Failures()) > 0
	return report
}

// Failures returns the failed items in check order.
func (r DiagnosticReport) Failures() []DiagnosticItem {
	var failed []DiagnosticItem
	for _, item := range r.Items {
		if item.Status == DiagnosticStatusFail {
			failed = append(failed, item)
		}
	}
	return failed
}
