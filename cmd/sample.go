package cmd

import (
	"time"

	"github.com/amolj/index_alerter/advisor"
	"github.com/amolj/index_alerter/optimizer"
	"github.com/amolj/index_alerter/utils"
	"github.com/amolj/index_alerter/workload"
	"github.com/spf13/cobra"
)

type sampleCmdOpt struct {
	dsn        string
	workloadID int
	outputDir  string
	logLevel   string

	phaseDuration time.Duration
	saveInterval  time.Duration

	queriesFile      string
	dedupeIndexSizes bool
}

func NewSampleCmd() *cobra.Command {
	var opt sampleCmdOpt
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "sample a workload and collect improvement statistics",
		Long: `sample a workload and collect improvement statistics.
How it works:
1. connect to your PostgreSQL database through the DSN
2. replay the workload's queries phase by phase
3. for each query, measure the planner cost without and with hypothetical indexes (via hypopg)
4. aggregate the improvement statistics per query shape
5. persist the snapshot to <output-dir>/workload_<id>_stats.json on a fixed cadence
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			utils.SetLogLevel(opt.logLevel)

			phases, err := loadPhases(opt)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := optimizer.NewPGWhatIfOptimizer(ctx, opt.dsn)
			if err != nil {
				return err
			}
			defer func() {
				utils.Infof("optimizer statistics: %v", db.Stats().Format())
				if err := db.Close(ctx); err != nil {
					utils.Warningf("could not close connection: %v", err)
				}
			}()

			store := workload.NewStore(opt.outputDir)
			agg := advisor.NewStatsAggregator(store, opt.workloadID, opt.saveInterval)
			agg.DedupeIndexSizes = opt.dedupeIndexSizes
			sampler := advisor.NewCostSampler(db, db)
			runner := advisor.NewRunner(sampler, agg, phases, opt.phaseDuration)
			return runner.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&opt.dsn, "dsn", "postgres://postgres@127.0.0.1:5432/postgres", "the DSN of the PostgreSQL database")
	cmd.Flags().IntVar(&opt.workloadID, "workload-id", 1, "workload profile to sample, names the output files")
	cmd.Flags().StringVar(&opt.outputDir, "output-dir", ".", "directory to save the stats snapshot")
	cmd.Flags().StringVar(&opt.logLevel, "log-level", "info", "log level, one of 'debug', 'info', 'warning', 'error'")

	cmd.Flags().DurationVar(&opt.phaseDuration, "phase-duration", 30*time.Second, "how long each phase replays its queries")
	cmd.Flags().DurationVar(&opt.saveInterval, "save-interval", 10*time.Second, "how often the stats snapshot is persisted")

	cmd.Flags().StringVar(&opt.queriesFile, "queries-file", "", "YAML file with custom phases, e.g. 'phases.yaml', overrides the built-in workload profiles")
	cmd.Flags().BoolVar(&opt.dedupeIndexSizes, "dedupe-index-sizes", false, "count each distinct index once per shape instead of once per execution")
	return cmd
}

func loadPhases(opt sampleCmdOpt) ([]advisor.Phase, error) {
	if opt.queriesFile != "" {
		return advisor.LoadPhasesFile(opt.queriesFile)
	}
	return advisor.DefaultPhases(opt.workloadID), nil
}
