package feed

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"roiflow/pkg/errors"
)

// Accepted date layouts across the raw feeds. Feeds arrive from different
// exporters and are not consistent about timestamp formats.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// NormalizeRegistrations produces the registered-user population. Rows
// without a device ID or with an unparseable registration date are dropped
// and counted. A duplicate device ID is fatal: registration is the
// authoritative user universe and every downstream join assumes it is unique.
func NormalizeRegistrations(rows []Row) ([]Registration, int, error) {
	out := make([]Registration, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	dropped := 0

	for _, row := range rows {
		deviceID := canonicalID(row["device_id"])
		if deviceID == "" {
			dropped++
			log.WithField("feed", FeedRegistrations).Debug("dropping row without device_id")
			continue
		}
		registeredAt, ok := parseDate(row["registration_date"])
		if !ok {
			dropped++
			log.WithFields(log.Fields{"feed": FeedRegistrations, "device_id": deviceID}).
				Debug("dropping row with unparseable registration_date")
			continue
		}
		if seen[deviceID] {
			return nil, dropped, errors.DuplicateKeyError(FeedRegistrations, "device_id", deviceID)
		}
		seen[deviceID] = true

		out = append(out, Registration{
			DeviceID:     deviceID,
			RegisteredAt: registeredAt,
			Country:      strings.ToUpper(strings.TrimSpace(row["country"])),
		})
	}

	return out, dropped, nil
}

// NormalizeTransactions validates purchase events. Missing device or
// transaction IDs, bad dates and negative revenue are all structural
// defects: the row is dropped and counted, never summed.
func NormalizeTransactions(rows []Row) ([]Transaction, int) {
	out := make([]Transaction, 0, len(rows))
	dropped := 0

	for _, row := range rows {
		deviceID := canonicalID(row["device_id"])
		txnID := canonicalID(row["transaction_id"])
		if deviceID == "" || txnID == "" {
			dropped++
			continue
		}
		occurredAt, ok := parseDate(row["transaction_date"])
		if !ok {
			dropped++
			continue
		}
		revenue, ok := parseMoney(row["revenue_amount"])
		if !ok {
			dropped++
			log.WithFields(log.Fields{"feed": FeedTransactions, "transaction_id": txnID}).
				Debug("dropping row with invalid revenue_amount")
			continue
		}

		out = append(out, Transaction{
			DeviceID:      deviceID,
			TransactionID: txnID,
			OccurredAt:    occurredAt,
			Revenue:       revenue,
		})
	}

	return out, dropped
}

// NormalizeAppsflyer validates the AppsFlyer attribution feed. The source is
// assumed pre-aggregated to one row per device; a repeated device ID keeps
// the first row and counts the rest as malformed.
func NormalizeAppsflyer(rows []Row) ([]AppsflyerAttribution, int) {
	out := make([]AppsflyerAttribution, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	dropped := 0

	for _, row := range rows {
		deviceID := canonicalID(row["device_id"])
		if deviceID == "" {
			dropped++
			continue
		}
		attributedAt, ok := parseDate(row["attribution_date"])
		if !ok {
			dropped++
			continue
		}
		cost, ok := parseMoney(row["acquisition_cost"])
		if !ok {
			dropped++
			log.WithFields(log.Fields{"feed": FeedAppsflyer, "device_id": deviceID}).
				Debug("dropping row with invalid acquisition_cost")
			continue
		}
		if seen[deviceID] {
			dropped++
			log.WithFields(log.Fields{"feed": FeedAppsflyer, "device_id": deviceID}).
				Debug("dropping repeated device_id, keeping first row")
			continue
		}
		seen[deviceID] = true

		out = append(out, AppsflyerAttribution{
			DeviceID:     deviceID,
			Channel:      strings.ToLower(strings.TrimSpace(row["channel"])),
			CampaignID:   canonicalID(row["campaign_id"]),
			AttributedAt: attributedAt,
			Cost:         cost,
		})
	}

	return out, dropped
}

// NormalizeGoogleAds validates the Google Ads attribution feed. A campaign ID
// is required here, it is the lookup key into the cost reference.
func NormalizeGoogleAds(rows []Row) ([]GoogleAdsAttribution, int) {
	out := make([]GoogleAdsAttribution, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	dropped := 0

	for _, row := range rows {
		deviceID := canonicalID(row["device_id"])
		campaignID := canonicalID(row["campaign_id"])
		if deviceID == "" || campaignID == "" {
			dropped++
			continue
		}
		attributedAt, ok := parseDate(row["attribution_date"])
		if !ok {
			dropped++
			continue
		}
		if seen[deviceID] {
			dropped++
			log.WithFields(log.Fields{"feed": FeedGoogleAds, "device_id": deviceID}).
				Debug("dropping repeated device_id, keeping first row")
			continue
		}
		seen[deviceID] = true

		out = append(out, GoogleAdsAttribution{
			DeviceID:     deviceID,
			CampaignID:   campaignID,
			AttributedAt: attributedAt,
		})
	}

	return out, dropped
}

// NormalizeCampaignCosts loads the static cost reference. A duplicate
// campaign ID is fatal for the same reason a duplicate registration is:
// cost lookup must be unambiguous.
func NormalizeCampaignCosts(rows []Row) ([]CampaignCost, int, error) {
	out := make([]CampaignCost, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	dropped := 0

	for _, row := range rows {
		campaignID := canonicalID(row["campaign_id"])
		if campaignID == "" {
			dropped++
			continue
		}
		cost, ok := parseMoney(row["cost_per_user"])
		if !ok {
			dropped++
			log.WithFields(log.Fields{"feed": FeedCampaignCosts, "campaign_id": campaignID}).
				Debug("dropping row with invalid cost_per_user")
			continue
		}
		if seen[campaignID] {
			return nil, dropped, errors.DuplicateKeyError(FeedCampaignCosts, "campaign_id", campaignID)
		}
		seen[campaignID] = true

		out = append(out, CampaignCost{CampaignID: campaignID, CostPerUser: cost})
	}

	return out, dropped, nil
}

// canonicalID trims surrounding whitespace from an identifier. IDs are
// matched byte-for-byte after trimming; case is preserved because device
// identifiers are case-sensitive on some platforms.
func canonicalID(s string) string {
	return strings.TrimSpace(s)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseMoney parses a non-negative decimal monetary amount.
func parseMoney(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}
