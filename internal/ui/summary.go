package ui

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"roiflow/internal/pipeline"
)

// stageOrder is the display order for the stage table.
var stageOrder = []string{
	pipeline.StageNormalize,
	pipeline.StageResolve,
	pipeline.StageConsolidate,
	pipeline.StageLTV,
	pipeline.StageROI,
}

// RenderRunSummary prints the post-run report: per-stage rows and timings,
// then the anomaly counts a completed run must surface.
func RenderRunSummary(w io.Writer, result *pipeline.Result) {
	stats := result.Stats

	fmt.Fprintf(w, "\nRun %s finished in %s\n\n", stats.RunID, stats.Duration())

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Stage", "Rows", "Duration"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, stage := range stageOrder {
		table.Append([]string{
			stage,
			strconv.Itoa(stats.StageRows[stage]),
			stats.StageDurations[stage].String(),
		})
	}
	table.Render()

	fmt.Fprintln(w)
	renderAnomalies(w, stats)

	fmt.Fprintf(w, "\n%s %d output rows\n",
		color.GreenString("OK"), len(result.Rows))
}

func renderAnomalies(w io.Writer, stats pipeline.RunStats) {
	if stats.TotalAnomalies() == 0 {
		fmt.Fprintln(w, color.GreenString("No rows dropped or excluded"))
		return
	}

	warn := color.New(color.FgYellow).SprintfFunc()

	feeds := make([]string, 0, len(stats.MalformedDropped))
	for name := range stats.MalformedDropped {
		feeds = append(feeds, name)
	}
	sort.Strings(feeds)
	for _, name := range feeds {
		if n := stats.MalformedDropped[name]; n > 0 {
			fmt.Fprintln(w, warn("%-28s %d malformed rows dropped", name, n))
		}
	}
	if stats.MissingCostReference > 0 {
		fmt.Fprintln(w, warn("%-28s %d devices without cost reference (treated organic)", "missing_cost_reference", stats.MissingCostReference))
	}
	if stats.UnregisteredAttribution > 0 {
		fmt.Fprintln(w, warn("%-28s %d attribution rows without registration excluded", "unregistered_attribution", stats.UnregisteredAttribution))
	}
}
