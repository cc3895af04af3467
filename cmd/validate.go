package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"roiflow/internal/config"
	"roiflow/internal/feed"
	"roiflow/internal/pipeline"
	"roiflow/internal/ui"
	"roiflow/internal/warehouse"
	"roiflow/pkg/models"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check feed quality without running the pipeline",
	Long: `Normalize all configured feeds and report malformed rows and duplicate
keys without executing the pipeline or writing any output. Useful as a
pre-flight check after a new feed export lands.`,
	Run: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	appConfig, err := config.Load()
	if err != nil {
		ui.ShowError(fmt.Errorf("failed to load configuration: %w", err))
		os.Exit(1)
	}
	if err := appConfig.Validate(); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	var inputs pipeline.Inputs
	if appConfig.Feeds.Source == models.FeedSourceWarehouse {
		svc := warehouse.NewService(warehouse.ConfigFromModel(appConfig.Snowflake))
		if err = svc.Connect(); err == nil {
			defer svc.Close()
			inputs, err = svc.LoadInputs(context.Background(), appConfig.Feeds)
		}
	} else {
		inputs, err = readFileInputs(appConfig.Feeds)
	}
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	ui.ShowHeader("Feed validation")

	failed := false

	regs, droppedRegs, err := feed.NormalizeRegistrations(inputs.Registrations)
	if err != nil {
		ui.ShowError(err)
		failed = true
	} else {
		reportFeed(feed.FeedRegistrations, len(regs), droppedRegs)
	}

	txns, droppedTxns := feed.NormalizeTransactions(inputs.Transactions)
	reportFeed(feed.FeedTransactions, len(txns), droppedTxns)

	af, droppedAF := feed.NormalizeAppsflyer(inputs.Appsflyer)
	reportFeed(feed.FeedAppsflyer, len(af), droppedAF)

	ga, droppedGA := feed.NormalizeGoogleAds(inputs.GoogleAds)
	reportFeed(feed.FeedGoogleAds, len(ga), droppedGA)

	costs, droppedCosts, err := feed.NormalizeCampaignCosts(inputs.CampaignCosts)
	if err != nil {
		ui.ShowError(err)
		failed = true
	} else {
		reportFeed(feed.FeedCampaignCosts, len(costs), droppedCosts)
	}

	if failed {
		os.Exit(1)
	}
	ui.ShowSuccess("All feeds validated")
}

func reportFeed(name string, valid, dropped int) {
	if dropped > 0 {
		ui.ShowWarning(fmt.Sprintf("%s: %d valid rows, %d malformed rows would be dropped", name, valid, dropped))
		return
	}
	ui.ShowInfo(fmt.Sprintf("%s: %d valid rows", name, valid))
}
