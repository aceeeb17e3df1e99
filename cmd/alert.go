package cmd

import (
	"errors"
	"fmt"

	"github.com/amolj/index_alerter/advisor"
	"github.com/amolj/index_alerter/optimizer"
	"github.com/amolj/index_alerter/utils"
	"github.com/amolj/index_alerter/workload"
	"github.com/spf13/cobra"
)

type alertCmdOpt struct {
	dsn        string
	workloadID int
	outputDir  string
	logLevel   string

	improvementThreshold float64
	spaceBudgetMB        int64
}

func NewAlertCmd() *cobra.Command {
	var opt alertCmdOpt
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "analyze a stats snapshot and recommend indexes",
		Long: `analyze a stats snapshot and recommend indexes.
How it works:
1. load the snapshot produced by 'sample' from <output-dir>/workload_<id>_stats.json
2. rank the hot columns and drop the ones the live catalog already has indexed
3. weigh the measured improvement against the retuning cost and the space budget
4. persist the recommendation to <output-dir>/workload_<id>_alert.json

The recommendation contains CREATE INDEX statements; nothing is ever executed
against your database.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			utils.SetLogLevel(opt.logLevel)

			ctx := cmd.Context()
			db, err := optimizer.NewPGWhatIfOptimizer(ctx, opt.dsn)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(ctx); err != nil {
					utils.Warningf("could not close connection: %v", err)
				}
			}()

			store := workload.NewStore(opt.outputDir)
			engine := advisor.NewDecisionEngine(db, db, store)
			engine.ImprovementThreshold = opt.improvementThreshold
			engine.SpaceBudgetBytes = opt.spaceBudgetMB * 1_000_000

			rec, err := engine.Analyze(ctx, opt.workloadID)
			if errors.Is(err, workload.ErrNoStats) {
				return fmt.Errorf("no stats snapshot for workload %d in %v, run 'sample' first", opt.workloadID, opt.outputDir)
			}
			if err != nil {
				return err
			}
			utils.Infof("recommendation saved to %v", store.RecommendationPath(rec.WorkloadID))
			return nil
		},
	}

	cmd.Flags().StringVar(&opt.dsn, "dsn", "postgres://postgres@127.0.0.1:5432/postgres", "the DSN of the PostgreSQL database")
	cmd.Flags().IntVar(&opt.workloadID, "workload-id", 1, "workload whose snapshot to analyze")
	cmd.Flags().StringVar(&opt.outputDir, "output-dir", ".", "directory holding the stats snapshot, receives the recommendation")
	cmd.Flags().StringVar(&opt.logLevel, "log-level", "info", "log level, one of 'debug', 'info', 'warning', 'error'")

	cmd.Flags().Float64Var(&opt.improvementThreshold, "improvement-threshold", 20, "minimum average improvement percentage worth acting on")
	cmd.Flags().Int64Var(&opt.spaceBudgetMB, "space-budget-mb", 500, "max combined estimated size of recommended indexes in MB, 0 disables the guard")
	return cmd
}
