package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/sect/internal/domain/advisor"
	"github.com/okian/sect/internal/domain/query"
	"github.com/okian/sect/internal/domain/types"
	"github.com/okian/sect/internal/sectclient"
)

const maxUpload = 100

func newUploadCmd(g *globals) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "upload PATH...",
		Short: "Analyse screenshots into the active roster",
		Long: `Upload image files or folders. Non-image files are skipped and at most
100 images are sent in one batch.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := sectclient.Scan(args, maxUpload)
			if err != nil {
				return err
			}
			if len(res.Skipped) > 0 {
				out(cmd, "skipped %d non-image files\n", len(res.Skipped))
			}
			if len(res.Dropped) > 0 {
				out(cmd, "only the first %d images are sent, %d left out\n", maxUpload, len(res.Dropped))
			}

			c := g.client()
			job, err := c.Upload(ctxOf(cmd), res.Images)
			if err != nil {
				return err
			}
			if !wait {
				out(cmd, "job %s queued with %d images\n", job.ID, job.Progress.Total)
				return nil
			}
			job, err = c.WaitJob(ctxOf(cmd), job.ID, time.Second, func(j types.Job) {
				p := j.Progress
				out(cmd, "\r%d/%d (ok %d, duplicate %d, failed %d)", p.Current, p.Total, p.Success, p.Duplicates, p.Failed)
			})
			out(cmd, "\n")
			if err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), job)
			}
			if job.Error != "" {
				return fmt.Errorf("job %s failed: %s", job.ID, job.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", true, "Wait for the batch and show progress")
	return cmd
}

func newListCmd(g *globals) *cobra.Command {
	var c query.Criteria
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List disciples of the active profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := g.client().Disciples(ctxOf(cmd), c)
			if err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tVERDICT\tROLE\tELEMENT\tSCORE")
			for _, d := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.0f\n", d.ID, d.Name, d.Verdict, advisor.RoleLabel(d.Role), d.PrimaryElement, d.Score)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&c.Verdict, "verdict", "", "Verdict filter (ALL, RECRUIT, ...)")
	cmd.Flags().StringVarP(&c.Query, "query", "q", "", "Search names, traits, skills and analysis")
	cmd.Flags().StringVar(&c.Element, "element", "", "Element filter (ALL, SINGLE, MIXED or an element)")
	cmd.Flags().StringVar(&c.Sort, "sort", "", "SCORE_DESC, POTENTIAL_DESC or NAME_ASC")
	return cmd
}

func newDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Remove disciples by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := g.client()
			for _, id := range args {
				if err := c.Delete(ctxOf(cmd), id); err != nil {
					return err
				}
			}
			out(cmd, "removed %d\n", len(args))
			return nil
		},
	}
}

func newClearCmd(g *globals) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every disciple of the active profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the roster without --yes")
			}
			return g.client().Clear(ctxOf(cmd))
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the roster")
	return cmd
}
