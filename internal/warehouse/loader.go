package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"roiflow/internal/feed"
	"roiflow/internal/pipeline"
	"roiflow/pkg/errors"
	"roiflow/pkg/models"
)

// feedColumns is the column contract per input feed, in output order.
var feedColumns = map[string][]string{
	feed.FeedRegistrations: {"device_id", "registration_date", "country"},
	feed.FeedTransactions:  {"device_id", "transaction_id", "transaction_date", "revenue_amount"},
	feed.FeedAppsflyer:     {"device_id", "channel", "campaign_id", "attribution_date", "acquisition_cost"},
	feed.FeedGoogleAds:     {"device_id", "campaign_id", "attribution_date"},
	feed.FeedCampaignCosts: {"campaign_id", "cost_per_user"},
}

// LoadFeed reads one input table into raw rows. Values come back as text;
// typing and validation happen in the normalizers, same as for file feeds.
func (s *Service) LoadFeed(ctx context.Context, table, feedName string) ([]feed.Row, error) {
	columns, ok := feedColumns[feedName]
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, fmt.Sprintf("Unknown feed %q", feedName))
	}

	qualified, err := qualifiedName("", "", table)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid,
			fmt.Sprintf("Invalid table name for feed %s", feedName))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), qualified) // #nosec G201 - identifiers validated
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.SQLError("Failed to load feed table", query, err).
			WithContext("feed", feedName)
	}
	defer rows.Close()

	var out []feed.Row
	values := make([]sql.NullString, len(columns))
	scanArgs := make([]interface{}, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, errors.SQLError("Failed to scan feed row", query, err).
				WithContext("feed", feedName)
		}
		row := make(feed.Row, len(columns))
		for i, col := range columns {
			if values[i].Valid {
				row[col] = values[i].String
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.SQLError("Feed read interrupted", query, err).
			WithContext("feed", feedName)
	}

	log.WithFields(log.Fields{"feed": feedName, "table": table, "rows": len(out)}).
		Debug("loaded feed from warehouse")

	return out, nil
}

// LoadInputs reads all five input tables for one run.
func (s *Service) LoadInputs(ctx context.Context, feeds models.Feeds) (pipeline.Inputs, error) {
	var inputs pipeline.Inputs
	var err error

	load := func(dst *[]feed.Row, source models.FeedSource, name string) {
		if err != nil {
			return
		}
		*dst, err = s.LoadFeed(ctx, source.Table, name)
	}

	load(&inputs.Registrations, feeds.Registrations, feed.FeedRegistrations)
	load(&inputs.Transactions, feeds.Transactions, feed.FeedTransactions)
	load(&inputs.Appsflyer, feeds.Appsflyer, feed.FeedAppsflyer)
	load(&inputs.GoogleAds, feeds.GoogleAds, feed.FeedGoogleAds)
	load(&inputs.CampaignCosts, feeds.CampaignCosts, feed.FeedCampaignCosts)

	return inputs, err
}
