package pipeline

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roiflow/internal/feed"
	"roiflow/pkg/errors"
	"roiflow/pkg/models"
)

func runPipeline(t *testing.T, cfg models.Pipeline, inputs Inputs) *Result {
	t.Helper()
	result, err := NewRunner(cfg).Run(context.Background(), inputs)
	require.NoError(t, err)
	return result
}

func findRow(t *testing.T, rows []UserROI, deviceID string) UserROI {
	t.Helper()
	for _, row := range rows {
		if row.DeviceID == deviceID {
			return row
		}
	}
	t.Fatalf("no output row for device %s", deviceID)
	return UserROI{}
}

// Organic user with two transactions: cost 0, LTV 50, ROI 50.
func TestRunOrganicUserScenario(t *testing.T) {
	result := runPipeline(t, models.Pipeline{}, Inputs{
		Registrations: []feed.Row{
			{"device_id": "A", "registration_date": "2024-03-01", "country": "SE"},
		},
		Transactions: []feed.Row{
			{"device_id": "A", "transaction_id": "t-1", "transaction_date": "2024-03-02", "revenue_amount": "20"},
			{"device_id": "A", "transaction_id": "t-2", "transaction_date": "2024-03-03", "revenue_amount": "30"},
		},
	})

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.True(t, row.Organic)
	assert.True(t, row.AcquisitionCost.IsZero())
	assert.True(t, row.LifetimeRevenue.Equal(decimal.NewFromInt(50)))
	assert.True(t, row.ROI.Equal(decimal.NewFromInt(50)))
}

// AppsFlyer-attributed user: cost 25, LTV 100, ROI 4.
func TestRunAppsflyerUserScenario(t *testing.T) {
	result := runPipeline(t, models.Pipeline{}, Inputs{
		Registrations: []feed.Row{
			{"device_id": "B", "registration_date": "2024-03-01"},
		},
		Appsflyer: []feed.Row{
			{"device_id": "B", "channel": "tiktok", "campaign_id": "c-1", "attribution_date": "2024-03-01", "acquisition_cost": "25"},
		},
		Transactions: []feed.Row{
			{"device_id": "B", "transaction_id": "t-1", "transaction_date": "2024-03-05", "revenue_amount": "100"},
		},
	})

	row := findRow(t, result.Rows, "B")
	assert.False(t, row.Organic)
	assert.True(t, row.AcquisitionCost.Equal(decimal.NewFromInt(25)))
	assert.True(t, row.ROI.Equal(decimal.NewFromInt(4)))
}

// Google-Ads user with cost reference, no transactions: cost 10, LTV 0, ROI 0.
func TestRunGoogleAdsUserScenario(t *testing.T) {
	result := runPipeline(t, models.Pipeline{}, Inputs{
		Registrations: []feed.Row{
			{"device_id": "C", "registration_date": "2024-03-01"},
		},
		GoogleAds: []feed.Row{
			{"device_id": "C", "campaign_id": "X", "attribution_date": "2024-03-01"},
		},
		CampaignCosts: []feed.Row{
			{"campaign_id": "X", "cost_per_user": "10"},
		},
	})

	row := findRow(t, result.Rows, "C")
	assert.False(t, row.Organic)
	assert.Equal(t, "google_ads", row.Channel)
	assert.True(t, row.AcquisitionCost.Equal(decimal.NewFromInt(10)))
	assert.True(t, row.LifetimeRevenue.IsZero())
	assert.True(t, row.ROI.IsZero())
}

func TestRunReportsAnomalyCounts(t *testing.T) {
	result := runPipeline(t, models.Pipeline{}, Inputs{
		Registrations: []feed.Row{
			{"device_id": "A", "registration_date": "2024-03-01"},
			{"device_id": "", "registration_date": "2024-03-01"}, // malformed
		},
		GoogleAds: []feed.Row{
			{"device_id": "A", "campaign_id": "unmapped", "attribution_date": "2024-03-01"}, // missing cost ref
		},
		Appsflyer: []feed.Row{
			{"device_id": "ghost", "channel": "meta", "campaign_id": "c", "attribution_date": "2024-03-01", "acquisition_cost": "5"}, // unregistered
		},
	})

	stats := result.Stats
	assert.Equal(t, 1, stats.MalformedDropped[feed.FeedRegistrations])
	assert.Equal(t, 1, stats.MissingCostReference)
	assert.Equal(t, 1, stats.UnregisteredAttribution)
	assert.Equal(t, 3, stats.TotalAnomalies())
	assert.NotEmpty(t, stats.RunID)

	// Device A degraded gracefully to organic.
	row := findRow(t, result.Rows, "A")
	assert.True(t, row.Organic)
}

func TestRunDuplicateRegistrationAborts(t *testing.T) {
	_, err := NewRunner(models.Pipeline{}).Run(context.Background(), Inputs{
		Registrations: []feed.Row{
			{"device_id": "A", "registration_date": "2024-03-01"},
			{"device_id": "A", "registration_date": "2024-03-02"},
		},
	})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDuplicateKey, errors.GetErrorCode(err))
}

func TestRunStrictModeFailsOnAnomalies(t *testing.T) {
	_, err := NewRunner(models.Pipeline{Strict: true}).Run(context.Background(), Inputs{
		Registrations: []feed.Row{
			{"device_id": "A", "registration_date": "2024-03-01"},
			{"device_id": "", "registration_date": "2024-03-01"},
		},
	})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAnomalyThreshold, errors.GetErrorCode(err))
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(models.Pipeline{}).Run(ctx, Inputs{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTimeout, errors.GetErrorCode(err))
}

func TestRunOutputDeviceSetEqualsRegistrations(t *testing.T) {
	result := runPipeline(t, models.Pipeline{Workers: 4}, Inputs{
		Registrations: []feed.Row{
			{"device_id": "A", "registration_date": "2024-03-01"},
			{"device_id": "B", "registration_date": "2024-03-01"},
			{"device_id": "C", "registration_date": "2024-03-01"},
		},
		Transactions: []feed.Row{
			{"device_id": "B", "transaction_id": "t-1", "transaction_date": "2024-03-02", "revenue_amount": "1"},
			{"device_id": "unknown", "transaction_id": "t-2", "transaction_date": "2024-03-02", "revenue_amount": "9"},
		},
	})

	require.Len(t, result.Rows, 3)
	ids := []string{result.Rows[0].DeviceID, result.Rows[1].DeviceID, result.Rows[2].DeviceID}
	assert.Equal(t, []string{"A", "B", "C"}, ids)
}

func TestTopoSortOrdersDependencies(t *testing.T) {
	order, err := topoSort((&Runner{}).stages())
	require.NoError(t, err)
	require.Len(t, order, 5)

	position := make(map[string]int)
	for i, st := range order {
		position[st.name] = i
	}
	assert.Less(t, position[StageNormalize], position[StageResolve])
	assert.Less(t, position[StageResolve], position[StageConsolidate])
	assert.Less(t, position[StageNormalize], position[StageLTV])
	assert.Less(t, position[StageConsolidate], position[StageROI])
	assert.Less(t, position[StageLTV], position[StageROI])
}

func TestTopoSortRejectsCycle(t *testing.T) {
	_, err := topoSort([]stage{
		{name: "a", deps: []string{"b"}},
		{name: "b", deps: []string{"a"}},
	})
	assert.Error(t, err)
}

func TestTopoSortRejectsUnknownDependency(t *testing.T) {
	_, err := topoSort([]stage{{name: "a", deps: []string{"nope"}}})
	assert.Error(t, err)
}
