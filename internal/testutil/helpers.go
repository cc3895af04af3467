package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"roiflow/pkg/models"
)

// TestHelper provides common test utilities
type TestHelper struct {
	t *testing.T
}

// NewTestHelper creates a new test helper
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// WriteFile writes content to a file in the given directory
func (h *TestHelper) WriteFile(dir, filename, content string) string {
	h.t.Helper()
	path := filepath.Join(dir, filename)

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		h.t.Fatalf("Failed to create directories: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		h.t.Fatalf("Failed to write file: %v", err)
	}
	return path
}

// FixtureFeeds writes a small consistent set of feed files and returns a
// Feeds block pointing at them: three registered devices, one AppsFlyer
// attribution, one Google Ads attribution with a mapped campaign, and
// transactions for two of the devices.
func (h *TestHelper) FixtureFeeds(dir string) models.Feeds {
	h.t.Helper()

	regs := h.WriteFile(dir, "registrations.csv",
		"device_id,registration_date,country\n"+
			"A,2024-03-01,SE\n"+
			"B,2024-03-01,SE\n"+
			"C,2024-03-02,NO\n")
	txns := h.WriteFile(dir, "transactions.csv",
		"device_id,transaction_id,transaction_date,revenue_amount\n"+
			"A,t-1,2024-03-02,20\n"+
			"A,t-2,2024-03-03,30\n"+
			"B,t-3,2024-03-05,100\n")
	af := h.WriteFile(dir, "appsflyer.csv",
		"device_id,channel,campaign_id,attribution_date,acquisition_cost\n"+
			"B,tiktok,af-1,2024-03-01,25\n")
	ga := h.WriteFile(dir, "google_ads.csv",
		"device_id,campaign_id,attribution_date\n"+
			"C,X,2024-03-02\n")
	costs := h.WriteFile(dir, "campaign_costs.csv",
		"campaign_id,cost_per_user\n"+
			"X,10\n")

	return models.Feeds{
		Source:        models.FeedSourceFile,
		Registrations: models.FeedSource{Path: regs},
		Transactions:  models.FeedSource{Path: txns},
		Appsflyer:     models.FeedSource{Path: af},
		GoogleAds:     models.FeedSource{Path: ga},
		CampaignCosts: models.FeedSource{Path: costs},
	}
}
