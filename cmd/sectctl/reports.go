package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/sect/internal/domain/model"
)

func newTeamCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "team",
		Short: "Suggest a five-member party and expulsion candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.client().Team(ctxOf(cmd))
			if err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}

			w := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROLE\tNAME\tSCORE\tSKILL")
			for _, m := range s.Team {
				fmt.Fprintf(tw, "%s\t%s\t%.0f\t%s\n", m.RoleLabel, m.Disciple.Name, m.Disciple.Score, m.HighestSkill)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			out(cmd, "avg potential %.1f, avg aptitude %.1f\n", s.AvgPotential, s.AvgAptitude)
			if s.Balanced {
				out(cmd, "balanced\n")
			}
			for _, wn := range s.Warnings {
				out(cmd, "[%s] %s\n", wn.Severity, wn.Message)
			}
			if len(s.Logistics) > 0 {
				out(cmd, "logistics:\n")
				for _, m := range s.Logistics {
					out(cmd, "  %s (%s) %s\n", m.Disciple.Name, m.RoleLabel, m.HighestSkill)
				}
			}
			if s.Excess > 0 {
				out(cmd, "%d over the limit of %d, expel:\n", s.Excess, s.Limit)
				for _, d := range s.Expulsions {
					out(cmd, "  %s %s (%s, %.0f)\n", d.ID, d.Name, d.Verdict, d.Score)
				}
			}
			return nil
		},
	}
}

func newOverviewCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Summarize the active roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.client().Overview(ctxOf(cmd))
			if err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}
			out(cmd, "total %d\n", s.Total)
			for _, v := range model.Verdicts {
				out(cmd, "  %-14s %d\n", v, s.Verdicts[v])
			}
			a := s.Averages
			out(cmd, "averages: potential %.1f, aptitude %.1f, bone %.1f, intelligence %.1f, luck %.1f\n",
				a.Potential, a.Aptitude, a.Bone, a.Intelligence, a.Luck)
			for _, c := range s.Origins {
				out(cmd, "  %s: %d\n", c.Label, c.Count)
			}
			for _, c := range s.KeyTraits {
				if c.Count > 0 {
					out(cmd, "  * %s: %d\n", c.Label, c.Count)
				}
			}
			return nil
		},
	}
}

func newExportCmd(g *globals) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save the active profile as a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, data, err := g.client().Export(ctxOf(cmd))
			if err != nil {
				return err
			}
			path := filepath.Join(dir, filepath.Base(name))
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return err
			}
			out(cmd, "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Output directory")
	return cmd
}

func newImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load a profile file and make it active",
		Long:  "The profile is named after the file without its .json extension.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			v, err := g.client().Import(ctxOf(cmd), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}
			return printProfile(cmd, g, v)
		},
	}
}
