package pipeline

import "time"

// RunStats is the anomaly and progress accounting for one run. A completed
// run always reports these counts alongside its output; they are the
// difference between "rows went missing" and "rows were excluded for a
// stated reason".
type RunStats struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// MalformedDropped counts structurally invalid rows dropped during
	// normalization, keyed by feed name.
	MalformedDropped map[string]int

	// MissingCostReference counts Google-Ads-only devices whose campaign
	// had no cost reference entry; those devices were treated as organic.
	MissingCostReference int

	// UnregisteredAttribution counts attribution rows excluded because the
	// device never appeared in the registration feed.
	UnregisteredAttribution int

	StageRows      map[string]int
	StageDurations map[string]time.Duration
}

func newRunStats(runID string) RunStats {
	return RunStats{
		RunID:            runID,
		StartedAt:        time.Now(),
		MalformedDropped: make(map[string]int),
		StageRows:        make(map[string]int),
		StageDurations:   make(map[string]time.Duration),
	}
}

// TotalMalformed sums dropped rows across all feeds.
func (s RunStats) TotalMalformed() int {
	total := 0
	for _, n := range s.MalformedDropped {
		total += n
	}
	return total
}

// TotalAnomalies is every row-level exclusion the run recovered from.
func (s RunStats) TotalAnomalies() int {
	return s.TotalMalformed() + s.MissingCostReference + s.UnregisteredAttribution
}

// Duration is the wall-clock time of the run.
func (s RunStats) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
