package feed

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row is a raw feed record keyed by canonical (lowercase, trimmed) column
// name. Both the CSV reader and the warehouse loader produce Rows, so the
// normalizers are source-agnostic.
type Row map[string]string

// Feed names used for anomaly accounting and logging.
const (
	FeedRegistrations = "registrations"
	FeedTransactions  = "transactions"
	FeedAppsflyer     = "appsflyer"
	FeedGoogleAds     = "google_ads"
	FeedCampaignCosts = "campaign_costs"
)

// Registration is one registered app user, keyed by device ID.
type Registration struct {
	DeviceID     string
	RegisteredAt time.Time
	Country      string
}

// Transaction is one in-app purchase event.
type Transaction struct {
	DeviceID      string
	TransactionID string
	OccurredAt    time.Time
	Revenue       decimal.Decimal
}

// AppsflyerAttribution carries native channel, campaign and cost.
type AppsflyerAttribution struct {
	DeviceID     string
	Channel      string
	CampaignID   string
	AttributedAt time.Time
	Cost         decimal.Decimal
}

// GoogleAdsAttribution has no native cost; cost is resolved against the
// campaign cost reference downstream.
type GoogleAdsAttribution struct {
	DeviceID     string
	CampaignID   string
	AttributedAt time.Time
}

// CampaignCost is one row of the static cost reference.
type CampaignCost struct {
	CampaignID  string
	CostPerUser decimal.Decimal
}
