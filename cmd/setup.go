package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"roiflow/internal/config"
	"roiflow/pkg/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Initial configuration setup",
	Run:   runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) {
	fmt.Println("Setting up roiflow...")
	fmt.Println()

	// Check if config already exists
	if config.Exists() {
		var overwrite bool
		prompt := &survey.Confirm{
			Message: "Configuration already exists. Do you want to overwrite it?",
			Default: false,
		}
		survey.AskOne(prompt, &overwrite)
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return
		}
	}

	cfg := &models.Config{}

	fmt.Println("Snowflake Configuration")
	fmt.Println("-----------------------")

	snowflakeQs := []*survey.Question{
		{
			Name: "account",
			Prompt: &survey.Input{
				Message: "Snowflake Account (e.g., xy12345.us-east-1):",
			},
			Validate: survey.Required,
		},
		{
			Name: "username",
			Prompt: &survey.Input{
				Message: "Username:",
			},
			Validate: survey.Required,
		},
		{
			Name: "password",
			Prompt: &survey.Password{
				Message: "Password:",
			},
			Validate: survey.Required,
		},
		{
			Name: "role",
			Prompt: &survey.Input{
				Message: "Role:",
				Default: "ANALYST",
			},
			Validate: survey.Required,
		},
		{
			Name: "warehouse",
			Prompt: &survey.Input{
				Message: "Warehouse:",
				Default: "COMPUTE_WH",
			},
			Validate: survey.Required,
		},
		{
			Name: "database",
			Prompt: &survey.Input{
				Message: "Database:",
				Default: "MARKETING",
			},
			Validate: survey.Required,
		},
		{
			Name: "schema",
			Prompt: &survey.Input{
				Message: "Schema:",
				Default: "RAW",
			},
			Validate: survey.Required,
		},
	}

	if err := survey.Ask(snowflakeQs, &cfg.Snowflake); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Feed Configuration")
	fmt.Println("------------------")

	var source string
	if err := survey.AskOne(&survey.Select{
		Message: "Where do the raw feeds live?",
		Options: []string{models.FeedSourceWarehouse, models.FeedSourceFile},
		Default: models.FeedSourceWarehouse,
	}, &source); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Feeds.Source = source

	if source == models.FeedSourceWarehouse {
		cfg.Feeds.Registrations = models.FeedSource{Table: askDefault("Registrations table:", "RAW_REGISTRATIONS")}
		cfg.Feeds.Transactions = models.FeedSource{Table: askDefault("Transactions table:", "RAW_TRANSACTIONS")}
		cfg.Feeds.Appsflyer = models.FeedSource{Table: askDefault("AppsFlyer attribution table:", "RAW_APPSFLYER")}
		cfg.Feeds.GoogleAds = models.FeedSource{Table: askDefault("Google Ads attribution table:", "RAW_GOOGLE_ADS")}
		cfg.Feeds.CampaignCosts = models.FeedSource{Table: askDefault("Campaign cost reference table:", "CAMPAIGN_COSTS")}
	} else {
		cfg.Feeds.Registrations = models.FeedSource{Path: askDefault("Registrations file:", "data/registrations.csv")}
		cfg.Feeds.Transactions = models.FeedSource{Path: askDefault("Transactions file:", "data/transactions.csv")}
		cfg.Feeds.Appsflyer = models.FeedSource{Path: askDefault("AppsFlyer attribution file:", "data/appsflyer.csv")}
		cfg.Feeds.GoogleAds = models.FeedSource{Path: askDefault("Google Ads attribution file:", "data/google_ads.csv")}
		cfg.Feeds.CampaignCosts = models.FeedSource{Path: askDefault("Campaign cost reference file:", "data/campaign_costs.csv")}
	}

	fmt.Println()
	fmt.Println("Environments")
	fmt.Println("------------")

	cfg.Environments = []models.Environment{
		{
			Name:        "dev",
			Database:    askDefault("Dev output database:", "DEV_MARKETING"),
			Schema:      askDefault("Dev output schema:", "SANDBOX"),
			OutputTable: "USER_ROI",
		},
		{
			Name:        "prod",
			Database:    askDefault("Prod output database:", "MARKETING"),
			Schema:      askDefault("Prod output schema:", "MARTS"),
			OutputTable: "USER_ROI",
		},
	}

	if err := config.Save(cfg); err != nil {
		fmt.Printf("Error saving configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", config.GetConfigFile())
	fmt.Println("Run 'roiflow validate' to check your feeds, then 'roiflow run dev'.")
}

func askDefault(message, defaultValue string) string {
	var answer string
	if err := survey.AskOne(&survey.Input{Message: message, Default: defaultValue}, &answer); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return answer
}
