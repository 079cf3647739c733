// Package events defines the wire-level ProgressEvent schema streamed to
// subscribed clients by the Progress Stream Hub (C8).
package events

import "time"

// Kind is the event frame type.
type Kind string

const (
	KindStart    Kind = "start"
	KindProgress Kind = "progress"
	KindError    Kind = "error"
	KindComplete Kind = "complete"
)

// Progress is the progress snapshot carried by start/progress/complete
// frames.
type Progress struct {
	TotalTasks         int      `json:"total_tasks"`
	CompletedTasks     int      `json:"completed_tasks"`
	ProgressPercentage int      `json:"progress_percentage"`
	CurrentTask        string   `json:"current_task,omitempty"`
	RemainingTasks     []string `json:"remaining_tasks,omitempty"`
	IsComplete         bool     `json:"is_complete"`
}

// ErrorDetail is carried by error frames.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ProgressEvent is one frame of the per-session progress stream.
type ProgressEvent struct {
	Type      Kind         `json:"type"`
	SessionID string       `json:"session_id"`
	Timestamp time.Time    `json:"timestamp"`
	Progress  *Progress    `json:"progress,omitempty"`
	Message   string       `json:"message,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// Percentage computes ⌊100 × completed / total⌋, 0 when total is 0.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return (100 * completed) / total
}
