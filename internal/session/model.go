package session

import (
	"time"

	"github.com/ChamsBouzaiene/autodev/internal/factsheet"
)

// Outcome of a pipeline run.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Session is the snapshot of one pipeline run: the fact sheet as it stood
// when the run ended, partial or complete.
type Session struct {
	ID          string               `json:"id"`
	ProjectRoot string               `json:"project_root"`
	ProjectHash string               `json:"project_hash"` // Used for directory scoping
	Title       string               `json:"title"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Outcome     string               `json:"outcome"`
	FailedAgent string               `json:"failed_agent,omitempty"`
	Error       string               `json:"error,omitempty"`
	Issues      []string             `json:"issues,omitempty"`
	FactSheet   *factsheet.FactSheet `json:"fact_sheet"`
}

// SessionMeta is a lightweight representation for listing.
type SessionMeta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TitleFrom shortens a project description to a one-line title.
func TitleFrom(description string) string {
	const max = 60
	title := []rune(firstLine(description))
	if len(title) <= max {
		return string(title)
	}
	return string(title[:max-3]) + "..."
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
