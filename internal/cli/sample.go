package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/onbscore/internal/sampledata"
)

type sampleOptions struct {
	rows   int
	seed   int64
	out    string
	owners []string
}

func newSampleCommand(_ *rootOptions) *cobra.Command {
	opts := &sampleOptions{}
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic onboarding spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.out == "" {
				return fmt.Errorf("--out is required")
			}
			if opts.rows < 0 {
				return fmt.Errorf("--rows must not be negative")
			}
			var genOpts []sampledata.Option
			if len(opts.owners) > 0 {
				genOpts = append(genOpts, sampledata.WithOwners(opts.owners...))
			}
			ds := sampledata.Generate(opts.rows, opts.seed, genOpts...)
			if err := sampledata.WriteFile(opts.out, ds); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", ds.Len(), opts.out)
			return err
		},
	}
	cmd.Flags().IntVar(&opts.rows, "rows", 200, "number of rows")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&opts.out, "out", "", "output file (.xlsx or .csv)")
	cmd.Flags().StringSliceVar(&opts.owners, "owners", nil, "owner emails to assign rows to")
	return cmd
}
