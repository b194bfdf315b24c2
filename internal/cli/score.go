package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/onbscore/internal/domain/scoring"
)

type scoreOptions struct {
	file   string
	sheet  string
	row    int
	viewer identityFlags
}

type scoreOutput struct {
	Found    bool            `json:"found" yaml:"found"`
	Row      int             `json:"row" yaml:"row"`
	Bucket   string          `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Deadline string          `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Report   *scoring.Report `json:"report,omitempty" yaml:"report,omitempty"`
}

func newScoreCommand(root *rootOptions) *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Show the readiness score and missing actions of one row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "spreadsheet path or s3://bucket/key")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "sheet name (default first sheet)")
	cmd.Flags().IntVar(&opts.row, "row", 0, "0-based data row")
	opts.viewer.register(cmd)
	return cmd
}

func runScore(cmd *cobra.Command, root *rootOptions, opts *scoreOptions) error {
	ctx := cmd.Context()
	id, err := opts.viewer.identity()
	if err != nil {
		return err
	}
	ds, err := root.load(ctx, opts.file, opts.sheet)
	if err != nil {
		return err
	}
	res, err := root.pipeline().Lookup(ctx, ds, id, opts.viewer.member, opts.row, time.Now())
	if err != nil {
		return err
	}

	out := scoreOutput{Found: res.Found, Row: res.Row}
	if res.Found {
		out.Bucket = string(res.Bucket)
		out.Deadline = res.Deadline.String()
		out.Report = &res.Report
	}
	render, _ := newRenderer(root.format)
	return render(cmd.OutOrStdout(), out, func(w io.Writer) error {
		return writeScoreText(w, out)
	})
}

func writeScoreText(w io.Writer, out scoreOutput) error {
	if !out.Found {
		_, err := fmt.Fprintf(w, "row %d not found\n", out.Row)
		return err
	}
	rep := out.Report
	fmt.Fprintf(w, "row %d  bucket %s  deadline %s\n", out.Row, out.Bucket, out.Deadline)
	fmt.Fprintf(w, "score %d/%d", rep.Current, rep.Max)
	if rep.HasTally && rep.Drift != 0 {
		fmt.Fprintf(w, "  (computed %d)", rep.Computed)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\nCATEGORY\tPOINTS\n")
	for _, c := range rep.Categories {
		if c.Capped {
			fmt.Fprintf(tw, "%s\t%d/%d (capped)\n", c.Name, c.Current, c.Max)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d/%d\n", c.Name, c.Current, c.Max)
	}
	if len(rep.Missing) > 0 {
		fmt.Fprintf(tw, "\nMISSING\tPOINTS\n")
		for _, a := range rep.Missing {
			fmt.Fprintf(tw, "%s\t+%d\n", a.Description, a.Points)
		}
	}
	if len(rep.NotApplicable) > 0 {
		fmt.Fprintf(tw, "\nNOT IN PLAN %s\tPOINTS\n", rep.Plan)
		for _, a := range rep.NotApplicable {
			fmt.Fprintf(tw, "%s\t%d\n", a.Description, a.Points)
		}
	}
	return tw.Flush()
}
