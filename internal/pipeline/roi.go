package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"
)

// roiScale is the number of decimal places kept in the ROI column.
const roiScale = 4

// ComputeROI left-joins consolidated users with their lifetime revenue and
// emits one output row per user. Users with no transactions get an explicit
// zero lifetime revenue, never a missing row.
//
// Zero-cost policy: when acquisition cost is zero (every organic user), ROI
// is defined as the raw lifetime revenue rather than a division. This is the
// documented convention for "infinite" organic return, and it guarantees the
// materializer can never raise a division fault.
func ComputeROI(users []ConsolidatedUser, ltv map[string]decimal.Decimal) []UserROI {
	rows := make([]UserROI, 0, len(users))

	for _, user := range users {
		revenue := ltv[user.DeviceID] // zero value is decimal zero

		var roi decimal.Decimal
		if user.AcquisitionCost.IsZero() {
			roi = revenue
		} else {
			roi = revenue.DivRound(user.AcquisitionCost, roiScale)
		}

		rows = append(rows, UserROI{
			DeviceID:        user.DeviceID,
			Channel:         user.Channel,
			CampaignID:      user.CampaignID,
			Organic:         user.Organic,
			AcquisitionCost: user.AcquisitionCost,
			LifetimeRevenue: revenue,
			ROI:             roi,
		})
	}

	// Deterministic output order regardless of input ordering or sharding.
	sort.Slice(rows, func(i, j int) bool { return rows[i].DeviceID < rows[j].DeviceID })

	return rows
}
