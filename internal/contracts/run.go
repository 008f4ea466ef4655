package contracts

import "time"

// Run is one complete engine execution over a dataset, with its aggregated
// findings in the engine's stable order.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Positions  int       `json:"positions"`
	Trades     int       `json:"trades"`
	Findings   []Finding `json:"findings"`
}

// CountBySeverity tallies findings per severity level.
func (r *Run) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// HasErrors reports whether any error-severity finding was produced.
func (r *Run) HasErrors() bool {
	for _, f := range r.Findings {
		if f.IsError() {
			return true
		}
	}
	return false
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Positions  int       `json:"positions"`
	Trades     int       `json:"trades"`
	Errors     int       `json:"errors"`
	Warnings   int       `json:"warnings"`
}

// Summarize collapses a run into its listing view.
func (r *Run) Summarize() RunSummary {
	counts := r.CountBySeverity()
	return RunSummary{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		DurationMS: r.DurationMS,
		Positions:  r.Positions,
		Trades:     r.Trades,
		Errors:     counts[SeverityError],
		Warnings:   counts[SeverityWarning],
	}
}
