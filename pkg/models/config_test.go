package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	config := Config{
		Snowflake: Snowflake{
			Account:   "xy12345.us-east-1",
			Username:  "analytics",
			Warehouse: "REPORTING_WH",
			Database:  "MARKETING",
			Schema:    "PUBLIC",
		},
		Feeds: Feeds{
			Source:        FeedSourceFile,
			Registrations: FeedSource{Path: "data/registrations.csv"},
			Transactions:  FeedSource{Path: "data/transactions.csv"},
			Appsflyer:     FeedSource{Path: "data/appsflyer.csv"},
			GoogleAds:     FeedSource{Path: "data/google_ads.csv"},
			CampaignCosts: FeedSource{Path: "data/campaign_costs.csv"},
		},
		Pipeline: Pipeline{Workers: 4},
		Environments: []Environment{
			{Name: "dev", Database: "DEV_MARKETING", Schema: "SANDBOX", OutputTable: "USER_ROI"},
			{Name: "prod", Database: "MARKETING", Schema: "MARTS", OutputTable: "USER_ROI"},
		},
	}

	data, err := yaml.Marshal(&config)
	require.NoError(t, err)

	var loaded Config
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, config, loaded)
}

func TestFindEnvironment(t *testing.T) {
	config := Config{
		Environments: []Environment{
			{Name: "dev", Database: "DEV_MARKETING"},
			{Name: "prod", Database: "MARKETING"},
		},
	}

	env, err := config.FindEnvironment("prod")
	require.NoError(t, err)
	assert.Equal(t, "MARKETING", env.Database)

	_, err = config.FindEnvironment("staging")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError string
	}{
		{
			name:   "empty config is valid",
			config: Config{},
		},
		{
			name: "unknown feed source",
			config: Config{
				Feeds: Feeds{Source: "ftp"},
			},
			wantError: "feeds.source",
		},
		{
			name: "warehouse source requires account",
			config: Config{
				Feeds: Feeds{Source: FeedSourceWarehouse},
			},
			wantError: "snowflake.account",
		},
		{
			name: "negative workers",
			config: Config{
				Pipeline: Pipeline{Workers: -1},
			},
			wantError: "pipeline.workers",
		},
		{
			name: "duplicate environments",
			config: Config{
				Environments: []Environment{{Name: "dev"}, {Name: "dev"}},
			},
			wantError: "duplicate environment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
			}
		})
	}
}
