// Command groupctl builds small groups from a roster CSV without running the server.
//
// Usage:
//
//	groupctl partition --roster registrants.csv --size 6 --format text
//	groupctl validate --roster registrants.csv
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cuportal/smallgroups-api/internal/config"
	"github.com/cuportal/smallgroups-api/internal/logging"
	"github.com/cuportal/smallgroups-api/internal/report"
	"github.com/cuportal/smallgroups-api/pkg/grouping"
	"github.com/cuportal/smallgroups-api/pkg/models"
	"github.com/cuportal/smallgroups-api/pkg/roster"
)

type options struct {
	rosterPath string
	size       int
	seed       int64
	format     string
	title      string
	output     string
	verbose    bool
}

var logger = zap.NewNop()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "groupctl",
		Short:        "Build balanced Bible study groups from a roster",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !opts.verbose {
				return nil
			}
			l, err := logging.New(config.LogConfig{Level: "debug", Development: true})
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.rosterPath, "roster", "r", "", "roster CSV file (- for stdin)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")
	_ = root.MarkPersistentFlagRequired("roster")

	partitionCmd := &cobra.Command{
		Use:   "partition",
		Short: "Partition the roster and print the groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPartition(cmd, opts)
		},
	}
	partitionCmd.Flags().IntVarP(&opts.size, "size", "s", 0, "target group size (default DEFAULT_GROUP_SIZE)")
	partitionCmd.Flags().Int64Var(&opts.seed, "seed", 0, "shuffle seed (random when unset)")
	partitionCmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: csv, text, yaml, json, html")
	partitionCmd.Flags().StringVar(&opts.title, "title", "", "title for the html report")
	partitionCmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the roster for problems without partitioning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts)
		},
	}

	root.AddCommand(partitionCmd, validateCmd)
	return root
}

func readRoster(cmd *cobra.Command, path string) ([]models.Registrant, []roster.RowError, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		r = f
	}
	return roster.ParseCSV(r)
}

func runPartition(cmd *cobra.Command, opts *options) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	size := opts.size
	if !cmd.Flags().Changed("size") {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		size = cfg.DefaultGroupSize
	}

	regs, problems, err := readRoster(cmd, opts.rosterPath)
	if err != nil {
		return err
	}
	for _, p := range problems {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", p.Error())
	}

	req := models.GroupingRequest{Roster: regs, TargetGroupSize: size}
	if cmd.Flags().Changed("seed") {
		req.Seed = &opts.seed
	}

	res, err := grouping.Partition(req)
	if err != nil {
		return err
	}
	logger.Debug("partitioned roster",
		zap.Int("registrants", len(regs)),
		zap.Int("groups", len(res.Groups)),
		zap.Int64("seed", res.Seed),
	)

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if err := report.Write(out, format, opts.title, res); err != nil {
		return err
	}
	if format != report.FormatText {
		for _, w := range report.Warnings(res) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "seed: %d\n", res.Seed)
	return nil
}

func runValidate(cmd *cobra.Command, opts *options) error {
	regs, problems, err := readRoster(cmd, opts.rosterPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range problems {
		fmt.Fprintf(out, "skipped %s\n", p.Error())
	}
	issues := roster.Validate(regs)
	for _, issue := range issues {
		fmt.Fprintln(out, issue)
	}

	pastors := 0
	for _, r := range regs {
		if r.IsPastor {
			pastors++
		}
	}
	fmt.Fprintf(out, "%d registrants, %d pastors\n", len(regs), pastors)

	if len(issues) > 0 {
		return fmt.Errorf("roster has %d problems", len(issues))
	}
	return nil
}
