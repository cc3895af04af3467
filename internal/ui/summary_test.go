package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"roiflow/internal/feed"
	"roiflow/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Rows: []pipeline.UserROI{{DeviceID: "dev-1"}},
		Stats: pipeline.RunStats{
			RunID:      "run-123",
			StartedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			FinishedAt: time.Date(2024, 3, 1, 10, 0, 2, 0, time.UTC),
			MalformedDropped: map[string]int{
				feed.FeedRegistrations: 2,
				feed.FeedTransactions:  0,
			},
			MissingCostReference:    1,
			UnregisteredAttribution: 3,
			StageRows:               map[string]int{pipeline.StageROI: 1},
			StageDurations:          map[string]time.Duration{pipeline.StageROI: time.Millisecond},
		},
	}
}

func TestRenderRunSummaryReportsAnomalies(t *testing.T) {
	var buf bytes.Buffer
	RenderRunSummary(&buf, sampleResult())

	out := buf.String()
	assert.Contains(t, out, "run-123")
	assert.Contains(t, out, "registrations")
	assert.Contains(t, out, "2 malformed rows dropped")
	assert.Contains(t, out, "1 devices without cost reference")
	assert.Contains(t, out, "3 attribution rows without registration")
	assert.Contains(t, out, "1 output rows")
	assert.NotContains(t, out, "transactions ")
}

func TestRenderRunSummaryCleanRun(t *testing.T) {
	result := sampleResult()
	result.Stats.MalformedDropped = map[string]int{}
	result.Stats.MissingCostReference = 0
	result.Stats.UnregisteredAttribution = 0

	var buf bytes.Buffer
	RenderRunSummary(&buf, result)

	assert.Contains(t, buf.String(), "No rows dropped or excluded")
}
