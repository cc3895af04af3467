package pipeline

import (
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"roiflow/internal/feed"
)

// Consolidate joins resolved attribution onto the registered-user
// population. Registration is the authoritative user universe: every
// registered user appears exactly once in the output, users with no
// attribution become organic with zero acquisition cost, and attribution
// rows whose device never registered are excluded and counted, not
// silently dropped.
func Consolidate(
	registrations []feed.Registration,
	attribution map[string]ResolvedAttribution,
) ([]ConsolidatedUser, int) {
	users := make([]ConsolidatedUser, 0, len(registrations))
	matched := make(map[string]bool, len(attribution))

	for _, reg := range registrations {
		user := ConsolidatedUser{
			DeviceID:        reg.DeviceID,
			RegisteredAt:    reg.RegisteredAt,
			Country:         reg.Country,
			Organic:         true,
			AcquisitionCost: decimal.Zero,
		}
		if attr, ok := attribution[reg.DeviceID]; ok {
			matched[reg.DeviceID] = true
			user.Organic = false
			user.Channel = attr.Channel
			user.CampaignID = attr.CampaignID
			user.AcquisitionCost = attr.Cost
		}
		users = append(users, user)
	}

	unregistered := len(attribution) - len(matched)
	if unregistered > 0 {
		log.WithField("count", unregistered).
			Warn("attribution rows without a matching registration were excluded")
	}

	return users, unregistered
}
