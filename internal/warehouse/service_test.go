package warehouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roiflow/pkg/models"
)

func TestConfigFromModel(t *testing.T) {
	config := ConfigFromModel(models.Snowflake{
		Account:   "xy12345.us-east-1",
		Username:  "analytics",
		Password:  "secret",
		Warehouse: "REPORTING_WH",
		Database:  "MARKETING",
		Schema:    "RAW",
		Role:      "ANALYST",
	})

	assert.Equal(t, "xy12345.us-east-1", config.Account)
	assert.Equal(t, "REPORTING_WH", config.Warehouse)
	assert.Equal(t, 30*time.Second, config.Timeout)
}

func TestValidateConfig(t *testing.T) {
	valid := Config{
		Account:   "xy12345.us-east-1",
		Username:  "analytics",
		Password:  "secret",
		Warehouse: "REPORTING_WH",
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "missing account", mutate: func(c *Config) { c.Account = "" }, wantError: "account"},
		{name: "missing username", mutate: func(c *Config) { c.Username = "" }, wantError: "username"},
		{name: "missing password", mutate: func(c *Config) { c.Password = "" }, wantError: "password"},
		{name: "missing warehouse", mutate: func(c *Config) { c.Warehouse = "" }, wantError: "warehouse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			err := ValidateConfig(config)
			if tt.wantError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
			}
		})
	}
}

func TestQualifiedName(t *testing.T) {
	name, err := qualifiedName("MARKETING", "MARTS", "USER_ROI")
	require.NoError(t, err)
	assert.Equal(t, "MARKETING.MARTS.USER_ROI", name)

	name, err = qualifiedName("", "", "USER_ROI")
	require.NoError(t, err)
	assert.Equal(t, "USER_ROI", name)

	_, err = qualifiedName("", "", "")
	assert.Error(t, err)

	_, err = qualifiedName("MARKETING", "MARTS", "USER_ROI; DROP TABLE users")
	assert.Error(t, err)
}

func TestNewService(t *testing.T) {
	service := NewService(Config{Account: "a", Username: "u"})
	assert.NotNil(t, service)
	assert.False(t, service.connected)
	assert.NotNil(t, service.circuitBreaker)
}
