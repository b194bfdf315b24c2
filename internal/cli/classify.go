package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/onbscore/internal/domain/category"
	"github.com/okian/onbscore/internal/domain/columns"
)

type classifyOptions struct {
	file   string
	sheet  string
	rows   bool
	viewer identityFlags
}

type classifyRow struct {
	Row    int               `json:"row" yaml:"row"`
	Owner  string            `json:"owner,omitempty" yaml:"owner,omitempty"`
	Stage  string            `json:"cs_stage,omitempty" yaml:"cs_stage,omitempty"`
	Grade  string            `json:"grade,omitempty" yaml:"grade,omitempty"`
	Values map[string]string `json:"values,omitempty" yaml:"values,omitempty"`
}

type classifyOutput struct {
	Owner   string                   `json:"owner,omitempty" yaml:"owner,omitempty"`
	Total   int                      `json:"total" yaml:"total"`
	Counts  map[string]int           `json:"counts" yaml:"counts"`
	Buckets map[string][]classifyRow `json:"buckets" yaml:"buckets"`
}

func newClassifyCommand(root *rootOptions) *cobra.Command {
	opts := &classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Split a spreadsheet into lifecycle buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassify(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "spreadsheet path or s3://bucket/key")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "sheet name (default first sheet)")
	cmd.Flags().BoolVar(&opts.rows, "rows", false, "include every cell of each row")
	opts.viewer.register(cmd)
	return cmd
}

func runClassify(cmd *cobra.Command, root *rootOptions, opts *classifyOptions) error {
	ctx := cmd.Context()
	id, err := opts.viewer.identity()
	if err != nil {
		return err
	}
	ds, err := root.load(ctx, opts.file, opts.sheet)
	if err != nil {
		return err
	}
	view, err := root.pipeline().Run(ctx, ds, id, opts.viewer.member)
	if err != nil {
		return err
	}

	out := classifyOutput{
		Owner:   view.Scope.Owner,
		Total:   view.Result.Total(),
		Counts:  map[string]int{},
		Buckets: map[string][]classifyRow{},
	}
	for _, b := range category.Buckets() {
		set := view.Result.Get(b)
		rows := make([]classifyRow, 0, set.Len())
		for _, r := range set.Rows() {
			rec := view.Columns.Record(r)
			row := classifyRow{
				Row:   r.Index(),
				Owner: rec.Text(columns.Owner),
				Stage: rec.Text(columns.CSStage),
				Grade: rec.Text(columns.Grade),
			}
			if opts.rows {
				row.Values = map[string]string{}
				for col, v := range r.Map() {
					if !v.IsEmpty() {
						row.Values[col] = v.String()
					}
				}
			}
			rows = append(rows, row)
		}
		out.Counts[string(b)] = set.Len()
		out.Buckets[string(b)] = rows
	}

	render, _ := newRenderer(root.format)
	return render(cmd.OutOrStdout(), out, func(w io.Writer) error {
		return writeClassifyText(w, out)
	})
}

func writeClassifyText(w io.Writer, out classifyOutput) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "BUCKET\tROWS\n")
	for _, b := range category.Buckets() {
		fmt.Fprintf(tw, "%s\t%d\n", b, out.Counts[string(b)])
	}
	fmt.Fprintf(tw, "total\t%d\n", out.Total)
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, b := range category.Buckets() {
		rows := out.Buckets[string(b)]
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n[%s]\n", b)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "ROW\tOWNER\tSTAGE\tGRADE\n")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Row, r.Owner, r.Stage, r.Grade)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
