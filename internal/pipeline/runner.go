package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"roiflow/internal/feed"
	"roiflow/pkg/errors"
	"roiflow/pkg/models"
)

// Stage names, also used as node IDs in the run graph.
const (
	StageNormalize   = "normalize"
	StageResolve     = "resolve_attribution"
	StageConsolidate = "consolidate_users"
	StageLTV         = "aggregate_ltv"
	StageROI         = "compute_roi"
)

// stage is one node of the run graph: a pure transformation over the run
// state, executed after all of its dependencies.
type stage struct {
	name string
	deps []string
	run  func(*runState) error
}

// runState carries the typed intermediates between stages.
type runState struct {
	inputs Inputs
	stats  *RunStats

	registrations []feed.Registration
	transactions  []feed.Transaction
	appsflyer     []feed.AppsflyerAttribution
	googleAds     []feed.GoogleAdsAttribution
	campaignCosts []feed.CampaignCost

	attribution map[string]ResolvedAttribution
	users       []ConsolidatedUser
	ltv         map[string]decimal.Decimal
	rows        []UserROI
}

// Runner executes the ROI pipeline as an explicit dependency graph.
// Stages are chained by topological order, not by call-site convention,
// so the data flow documented here is the data flow that runs.
type Runner struct {
	workers int
	strict  bool
}

// NewRunner builds a runner from pipeline configuration.
func NewRunner(cfg models.Pipeline) *Runner {
	return &Runner{workers: cfg.Workers, strict: cfg.Strict}
}

// Run executes one full pipeline pass over the inputs. It either returns a
// complete Result or an error with nothing usable produced; there is no
// partial output.
func (r *Runner) Run(ctx context.Context, inputs Inputs) (*Result, error) {
	stats := newRunStats(uuid.NewString())
	state := &runState{inputs: inputs, stats: &stats}

	logCtx := log.WithField("run_id", stats.RunID)
	logCtx.WithFields(log.Fields{
		"registrations": len(inputs.Registrations),
		"transactions":  len(inputs.Transactions),
		"appsflyer":     len(inputs.Appsflyer),
		"google_ads":    len(inputs.GoogleAds),
	}).Info("starting pipeline run")

	order, err := topoSort(r.stages())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "Invalid stage graph")
	}

	for _, st := range order {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "Pipeline run cancelled")
		default:
		}

		started := time.Now()
		if err := st.run(state); err != nil {
			logCtx.WithField("stage", st.name).WithError(err).Error("pipeline stage failed")
			return nil, err
		}
		stats.StageDurations[st.name] = time.Since(started)
		logCtx.WithFields(log.Fields{
			"stage":    st.name,
			"rows":     stats.StageRows[st.name],
			"duration": stats.StageDurations[st.name].String(),
		}).Debug("stage complete")
	}

	stats.FinishedAt = time.Now()

	if r.strict && stats.TotalAnomalies() > 0 {
		return nil, errors.New(errors.ErrCodeAnomalyThreshold,
			fmt.Sprintf("Strict mode: run produced %d anomalies", stats.TotalAnomalies())).
			WithContext("malformed", stats.TotalMalformed()).
			WithContext("missing_cost_reference", stats.MissingCostReference).
			WithContext("unregistered_attribution", stats.UnregisteredAttribution)
	}

	logCtx.WithFields(log.Fields{
		"output_rows": len(state.rows),
		"anomalies":   stats.TotalAnomalies(),
		"duration":    stats.Duration().String(),
	}).Info("pipeline run complete")

	return &Result{Rows: state.rows, Stats: stats}, nil
}

func (r *Runner) stages() []stage {
	return []stage{
		{
			name: StageNormalize,
			run: func(s *runState) error {
				regs, droppedRegs, err := feed.NormalizeRegistrations(s.inputs.Registrations)
				if err != nil {
					return err
				}
				costs, droppedCosts, err := feed.NormalizeCampaignCosts(s.inputs.CampaignCosts)
				if err != nil {
					return err
				}
				txns, droppedTxns := feed.NormalizeTransactions(s.inputs.Transactions)
				af, droppedAF := feed.NormalizeAppsflyer(s.inputs.Appsflyer)
				ga, droppedGA := feed.NormalizeGoogleAds(s.inputs.GoogleAds)

				s.registrations, s.transactions = regs, txns
				s.appsflyer, s.googleAds, s.campaignCosts = af, ga, costs

				s.stats.MalformedDropped[feed.FeedRegistrations] = droppedRegs
				s.stats.MalformedDropped[feed.FeedTransactions] = droppedTxns
				s.stats.MalformedDropped[feed.FeedAppsflyer] = droppedAF
				s.stats.MalformedDropped[feed.FeedGoogleAds] = droppedGA
				s.stats.MalformedDropped[feed.FeedCampaignCosts] = droppedCosts
				s.stats.StageRows[StageNormalize] = len(regs) + len(txns) + len(af) + len(ga) + len(costs)
				return nil
			},
		},
		{
			name: StageResolve,
			deps: []string{StageNormalize},
			run: func(s *runState) error {
				s.attribution, s.stats.MissingCostReference = ResolveAttribution(s.appsflyer, s.googleAds, s.campaignCosts)
				s.stats.StageRows[StageResolve] = len(s.attribution)
				return nil
			},
		},
		{
			name: StageConsolidate,
			deps: []string{StageResolve},
			run: func(s *runState) error {
				s.users, s.stats.UnregisteredAttribution = Consolidate(s.registrations, s.attribution)
				s.stats.StageRows[StageConsolidate] = len(s.users)
				return nil
			},
		},
		{
			name: StageLTV,
			deps: []string{StageNormalize},
			run: func(s *runState) error {
				s.ltv = AggregateLTV(s.transactions, r.workers)
				s.stats.StageRows[StageLTV] = len(s.ltv)
				return nil
			},
		},
		{
			name: StageROI,
			deps: []string{StageConsolidate, StageLTV},
			run: func(s *runState) error {
				s.rows = ComputeROI(s.users, s.ltv)
				s.stats.StageRows[StageROI] = len(s.rows)
				return nil
			},
		},
	}
}

// topoSort orders stages so every stage runs after its dependencies
// (Kahn's algorithm). Stage declaration order breaks ties, which keeps
// execution order stable across runs.
func topoSort(stages []stage) ([]stage, error) {
	byName := make(map[string]stage, len(stages))
	indegree := make(map[string]int, len(stages))
	dependents := make(map[string][]string, len(stages))

	for _, st := range stages {
		if _, ok := byName[st.name]; ok {
			return nil, fmt.Errorf("duplicate stage %q", st.name)
		}
		byName[st.name] = st
		indegree[st.name] = len(st.deps)
	}
	for _, st := range stages {
		for _, dep := range st.deps {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("stage %q depends on unknown stage %q", st.name, dep)
			}
			dependents[dep] = append(dependents[dep], st.name)
		}
	}

	var queue []string
	for _, st := range stages {
		if indegree[st.name] == 0 {
			queue = append(queue, st.name)
		}
	}

	ordered := make([]stage, 0, len(stages))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		ordered = append(ordered, byName[name])

		for _, next := range dependents[name] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(ordered) != len(stages) {
		return nil, fmt.Errorf("stage graph contains a cycle")
	}
	return ordered, nil
}
