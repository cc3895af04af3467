package pipeline

import (
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"roiflow/internal/feed"
)

// ResolveAttribution merges the two attribution feeds into a single mapping
// from device ID to resolved attribution.
//
// AppsFlyer rows are taken as-is: the feed carries a native acquisition
// cost. Google-Ads-only devices need a cost lookup against the campaign
// cost reference; when the campaign is unmapped the device is excluded
// (and counted) rather than aborting the run, which makes it organic
// downstream. When a device appears in both feeds the AppsFlyer row wins
// and the Google Ads row is discarded entirely.
func ResolveAttribution(
	appsflyer []feed.AppsflyerAttribution,
	googleAds []feed.GoogleAdsAttribution,
	costs []feed.CampaignCost,
) (map[string]ResolvedAttribution, int) {
	costByCampaign := make(map[string]decimal.Decimal, len(costs))
	for _, c := range costs {
		costByCampaign[c.CampaignID] = c.CostPerUser
	}

	resolved := make(map[string]ResolvedAttribution, len(appsflyer)+len(googleAds))
	for _, a := range appsflyer {
		resolved[a.DeviceID] = ResolvedAttribution{
			DeviceID:     a.DeviceID,
			Channel:      a.Channel,
			CampaignID:   a.CampaignID,
			AttributedAt: a.AttributedAt,
			Cost:         a.Cost,
		}
	}

	missingCost := 0
	for _, g := range googleAds {
		if _, ok := resolved[g.DeviceID]; ok {
			// AppsFlyer takes priority for dual-attributed devices.
			continue
		}
		cost, ok := costByCampaign[g.CampaignID]
		if !ok {
			missingCost++
			log.WithFields(log.Fields{
				"device_id":   g.DeviceID,
				"campaign_id": g.CampaignID,
			}).Warn("no cost reference for google_ads campaign, treating device as organic")
			continue
		}
		resolved[g.DeviceID] = ResolvedAttribution{
			DeviceID:     g.DeviceID,
			Channel:      "google_ads",
			CampaignID:   g.CampaignID,
			AttributedAt: g.AttributedAt,
			Cost:         cost,
		}
	}

	return resolved, missingCost
}
