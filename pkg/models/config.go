package models

import "fmt"

type Config struct {
	Snowflake    Snowflake     `yaml:"snowflake"`
	Feeds        Feeds         `yaml:"feeds"`
	Pipeline     Pipeline      `yaml:"pipeline"`
	Environments []Environment `yaml:"environments"`
}

type Snowflake struct {
	Account   string `yaml:"account"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
	Warehouse string `yaml:"warehouse"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
}

// FeedSource locates one input feed. Path is used when the pipeline reads
// from local CSV files, Table when it reads from the warehouse.
type FeedSource struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

// Feeds holds the five pipeline inputs: four raw feeds plus the static
// campaign cost reference.
type Feeds struct {
	Source        string     `yaml:"source"` // "file" or "warehouse"
	Registrations FeedSource `yaml:"registrations"`
	Transactions  FeedSource `yaml:"transactions"`
	Appsflyer     FeedSource `yaml:"appsflyer"`
	GoogleAds     FeedSource `yaml:"google_ads"`
	CampaignCosts FeedSource `yaml:"campaign_costs"`
}

// Pipeline contains execution settings.
type Pipeline struct {
	Workers int  `yaml:"workers"` // LTV aggregation shards, 0 = sequential
	Strict  bool `yaml:"strict"`  // fail the run when any rows were dropped or excluded
}

// Environment routes the materialized output. The environment is resolved
// once at the CLI boundary and passed into materialization explicitly.
type Environment struct {
	Name        string `yaml:"name"`
	Database    string `yaml:"database"`
	Schema      string `yaml:"schema"`
	OutputTable string `yaml:"output_table"`
	OutputFile  string `yaml:"output_file"`
}

const (
	FeedSourceFile      = "file"
	FeedSourceWarehouse = "warehouse"
)

// FindEnvironment returns the environment with the given name.
func (c *Config) FindEnvironment(name string) (*Environment, error) {
	for i := range c.Environments {
		if c.Environments[i].Name == name {
			return &c.Environments[i], nil
		}
	}
	return nil, fmt.Errorf("environment %q not found in configuration", name)
}

// Validate checks the configuration for the settings every run needs.
func (c *Config) Validate() error {
	switch c.Feeds.Source {
	case FeedSourceFile, FeedSourceWarehouse, "":
	default:
		return fmt.Errorf("feeds.source must be %q or %q, got %q", FeedSourceFile, FeedSourceWarehouse, c.Feeds.Source)
	}

	if c.Feeds.Source == FeedSourceWarehouse {
		if c.Snowflake.Account == "" {
			return fmt.Errorf("snowflake.account is required for warehouse feeds")
		}
		if c.Snowflake.Username == "" {
			return fmt.Errorf("snowflake.username is required for warehouse feeds")
		}
	}

	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("pipeline.workers must not be negative")
	}

	seen := make(map[string]bool, len(c.Environments))
	for _, env := range c.Environments {
		if env.Name == "" {
			return fmt.Errorf("environment name must not be empty")
		}
		if seen[env.Name] {
			return fmt.Errorf("duplicate environment %q", env.Name)
		}
		seen[env.Name] = true
	}

	return nil
}
