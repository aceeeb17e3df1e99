package cmd

import (
	"errors"

	"github.com/amolj/index_alerter/optimizer"
	"github.com/amolj/index_alerter/utils"
	"github.com/spf13/cobra"
)

func NewPreCheckCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "precheck",
		Short: "check whether this database is suitable for sampling",
		Long:  `check whether this database supports the hypothetical indexes the sampler needs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := optimizer.NewPGWhatIfOptimizer(ctx, dsn)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(ctx); err != nil {
					utils.Warningf("could not close connection: %v", err)
				}
			}()

			if err := db.ResetHypoIndexes(ctx); err != nil {
				return errors.New("the hypopg extension is not available, install it to use the sampler: " + err.Error())
			}
			utils.Infof("hypopg is available, this database can be sampled")
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "postgres://postgres@127.0.0.1:5432/postgres", "the DSN of the PostgreSQL database")
	return cmd
}
