// Package cli implements the onbctl command line: classify and score a
// spreadsheet without the HTTP service, and generate sample data.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/onbscore/internal/adapters/ingest"
	service "github.com/okian/onbscore/internal/app"
	"github.com/okian/onbscore/internal/config"
	"github.com/okian/onbscore/internal/domain/access"
	"github.com/okian/onbscore/internal/domain/category"
	"github.com/okian/onbscore/internal/domain/dataset"
	"github.com/okian/onbscore/internal/domain/scoring"
	"github.com/okian/onbscore/pkg/logger"
)

// defaultOperator is the identity used when --email is not given.
const defaultOperator = "operator@localhost"

// rootOptions are the flags shared by every command.
type rootOptions struct {
	format   string
	region   string
	logLevel string

	cfg *config.Config
}

// NewRootCommand builds the onbctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "onbctl",
		Short:         "Classify and score onboarding spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.format, "format", "o", formatText, "output format: text, json or yaml")
	flags.StringVar(&opts.region, "region", "", "AWS region for s3:// files (default from config)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	cmd.AddCommand(newClassifyCommand(opts), newScoreCommand(opts), newSampleCommand(opts))
	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	if _, err := newRenderer(o.format); err != nil {
		return err
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	o.cfg = cfg
	if o.region == "" {
		o.region = cfg.S3Region
	}
	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	return logger.SetLevelString(o.logLevel)
}

func (o *rootOptions) pipeline() *service.Pipeline {
	return service.NewPipeline(
		category.New(category.WithWaitingByTechnicalStart(o.cfg.SortWaitingByTechnicalStart)),
		scoring.New(scoring.WithStarterPlans(o.cfg.StarterPlanNames()...)),
		logger.Named("onbctl"),
	)
}

// load reads a local file or an s3:// object.
func (o *rootOptions) load(ctx context.Context, location, sheet string) (*dataset.Dataset, error) {
	if location == "" {
		return nil, fmt.Errorf("--file is required")
	}
	readOpts := []ingest.Option{ingest.WithMaxRows(o.cfg.MaxRows)}
	if sheet != "" {
		readOpts = append(readOpts, ingest.WithSheet(sheet))
	}

	var (
		res *ingest.Result
		err error
	)
	if ingest.IsS3URI(location) {
		client, cerr := ingest.NewS3Client(ctx, o.region)
		if cerr != nil {
			return nil, cerr
		}
		res, err = ingest.ReadS3(ctx, client, location, readOpts...)
	} else {
		res, err = ingest.ReadFile(ctx, location, readOpts...)
	}
	if err != nil {
		return nil, err
	}
	logger.Named("onbctl").Debug(ctx, "loaded",
		logger.String("file", location),
		logger.String("format", string(res.Format)),
		logger.Int("rows", res.Dataset.Len()),
	)
	return res.Dataset, nil
}

// identityFlags select the viewer.
type identityFlags struct {
	email  string
	role   string
	team   string
	member string
}

func (f *identityFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.email, "email", defaultOperator, "viewer email")
	flags.StringVar(&f.role, "role", string(access.Leader), "viewer role: leader or member")
	flags.StringVar(&f.team, "team", "", "comma-separated team emails (leader only)")
	flags.StringVar(&f.member, "member", "", "member to show, or \"all\" (leader only)")
}

func (f *identityFlags) identity() (access.Identity, error) {
	role, err := access.ParseRole(f.role)
	if err != nil {
		return access.Identity{}, err
	}
	var team []string
	if f.team != "" {
		team = strings.Split(f.team, ",")
	}
	return access.NewIdentity(f.email, role, team)
}
