package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"roiflow/internal/config"
	"roiflow/internal/csvio"
	"roiflow/internal/feed"
	"roiflow/internal/pipeline"
	"roiflow/internal/ui"
	"roiflow/internal/warehouse"
	"roiflow/pkg/models"
)

var (
	runDryRun bool
	runSource string
	runOutput string
	runStrict bool
)

var runCmd = &cobra.Command{
	Use:   "run [environment]",
	Short: "Execute the ROI pipeline and materialize the result",
	Long: `Run the full pipeline for one environment: normalize the raw feeds,
resolve attribution, consolidate users, aggregate lifetime value and
materialize one ROI row per registered user to the environment's output.

The run completes with a summary of dropped and excluded rows, or fails
with no output produced.`,
	Args: cobra.ExactArgs(1),
	Run:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&runDryRun, "dry-run", "d", false, "Compute the result but skip materialization")
	runCmd.Flags().StringVarP(&runSource, "source", "s", "", "Feed source: file or warehouse (default from config)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write the result to this CSV file instead of the environment destination")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Fail the run if any rows were dropped or excluded")
}

func runRun(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	envName := args[0]

	appConfig, err := config.Load()
	if err != nil {
		ui.ShowError(fmt.Errorf("failed to load configuration: %w", err))
		os.Exit(1)
	}
	if err := appConfig.Validate(); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	env, err := appConfig.FindEnvironment(envName)
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	source := appConfig.Feeds.Source
	if runSource != "" {
		source = runSource
	}
	if source == "" {
		source = models.FeedSourceFile
	}

	pipelineCfg := appConfig.Pipeline
	if runStrict {
		pipelineCfg.Strict = true
	}

	var svc *warehouse.Service
	var inputs pipeline.Inputs

	switch source {
	case models.FeedSourceFile:
		inputs, err = readFileInputs(appConfig.Feeds)
	case models.FeedSourceWarehouse:
		svc = warehouse.NewService(warehouse.ConfigFromModel(appConfig.Snowflake))
		if err = svc.Connect(); err == nil {
			defer svc.Close()
			inputs, err = svc.LoadInputs(ctx, appConfig.Feeds)
		}
	default:
		err = fmt.Errorf("unknown feed source %q", source)
	}
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	result, err := pipeline.NewRunner(pipelineCfg).Run(ctx, inputs)
	if err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	if runDryRun {
		ui.RenderRunSummary(os.Stdout, result)
		ui.ShowInfo("Dry run: result was not materialized")
		return
	}

	if err := materialize(ctx, svc, appConfig, env, result); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}

	ui.RenderRunSummary(os.Stdout, result)
}

// readFileInputs reads all five feeds from their configured CSV paths.
func readFileInputs(feeds models.Feeds) (pipeline.Inputs, error) {
	var inputs pipeline.Inputs
	var err error

	read := func(dst *[]feed.Row, source models.FeedSource, name string) {
		if err != nil {
			return
		}
		*dst, err = csvio.ReadRows(source.Path, name)
	}

	read(&inputs.Registrations, feeds.Registrations, feed.FeedRegistrations)
	read(&inputs.Transactions, feeds.Transactions, feed.FeedTransactions)
	read(&inputs.Appsflyer, feeds.Appsflyer, feed.FeedAppsflyer)
	read(&inputs.GoogleAds, feeds.GoogleAds, feed.FeedGoogleAds)
	read(&inputs.CampaignCosts, feeds.CampaignCosts, feed.FeedCampaignCosts)

	return inputs, err
}

// materialize routes the result to the environment's destination. An
// explicit --output wins, then the environment's table, then its file.
func materialize(ctx context.Context, svc *warehouse.Service, appConfig *models.Config, env *models.Environment, result *pipeline.Result) error {
	if runOutput != "" {
		return csvio.WriteROI(runOutput, result.Rows)
	}

	if env.OutputTable != "" {
		if svc == nil {
			svc = warehouse.NewService(warehouse.ConfigFromModel(appConfig.Snowflake))
			if err := svc.Connect(); err != nil {
				return err
			}
			defer svc.Close()
		}
		return svc.MaterializeROI(ctx, *env, result.Rows)
	}

	if env.OutputFile != "" {
		return csvio.WriteROI(env.OutputFile, result.Rows)
	}

	return fmt.Errorf("environment %q has no output table or file configured", env.Name)
}
