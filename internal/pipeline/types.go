package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"roiflow/internal/feed"
)

// Inputs carries the raw rows for one run, already read from whichever
// source (files or warehouse) the configuration points at.
type Inputs struct {
	Registrations []feed.Row
	Transactions  []feed.Row
	Appsflyer     []feed.Row
	GoogleAds     []feed.Row
	CampaignCosts []feed.Row
}

// ResolvedAttribution is the merged view over both attribution feeds,
// at most one row per device.
type ResolvedAttribution struct {
	DeviceID     string
	Channel      string
	CampaignID   string
	AttributedAt time.Time
	Cost         decimal.Decimal
}

// ConsolidatedUser is one registered user classified as paid or organic.
// Organic users carry zero acquisition cost and empty channel/campaign.
type ConsolidatedUser struct {
	DeviceID        string
	RegisteredAt    time.Time
	Country         string
	Organic         bool
	Channel         string
	CampaignID      string
	AcquisitionCost decimal.Decimal
}

// UserROI is the final output row, one per registered user.
type UserROI struct {
	DeviceID        string
	Channel         string
	CampaignID      string
	Organic         bool
	AcquisitionCost decimal.Decimal
	LifetimeRevenue decimal.Decimal
	ROI             decimal.Decimal
}

// Result is what a completed run produces: the full output set plus the
// anomaly accounting the run must report.
type Result struct {
	Rows  []UserROI
	Stats RunStats
}
