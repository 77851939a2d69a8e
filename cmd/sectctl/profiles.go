package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/sect/internal/domain/types"
)

func newProfilesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := g.client().Profiles(ctxOf(cmd))
			if err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), infos)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tLIMIT\tUPDATED")
			for _, p := range infos {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", p.Name, p.Size, p.Limit, p.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rm NAME",
		Short: "Delete a stored profile that is not active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.client().DeleteProfile(ctxOf(cmd), args[0]); err != nil {
				return err
			}
			out(cmd, "deleted %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func newOpenCmd(g *globals) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "open NAME",
		Short: "Open a profile, creating it when missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "load"
			if overwrite {
				mode = "overwrite"
			}
			v, err := g.client().Open(ctxOf(cmd), args[0], mode)
			if err != nil {
				return err
			}
			return printProfile(cmd, g, v)
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Start from an empty roster")
	return cmd
}

func newCloseCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Close the active profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.client().Close(ctxOf(cmd))
		},
	}
}

func newLimitCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "limit N",
		Short: "Set the roster limit of the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("limit must be a number: %w", err)
			}
			limit, err := g.client().SetLimit(ctxOf(cmd), n)
			if err != nil {
				return err
			}
			out(cmd, "limit %d\n", limit)
			return nil
		},
	}
}

func newInstructionCmd(g *globals) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "instruction [TEXT]",
		Short: "Show, replace or reset the analysis instruction",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := g.client()
			var (
				v   types.ProfileView
				err error
			)
			switch {
			case reset:
				v, err = c.ResetInstruction(ctxOf(cmd))
			case len(args) == 1:
				v, err = c.SetInstruction(ctxOf(cmd), args[0])
			default:
				v, err = c.Active(ctxOf(cmd))
			}
			if err != nil {
				return err
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), v)
			}
			out(cmd, "%s\n", v.Instruction)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Restore the default instruction")
	return cmd
}

func printProfile(cmd *cobra.Command, g *globals, v types.ProfileView) error {
	if g.asJSON {
		return printJSON(cmd.OutOrStdout(), v)
	}
	custom := ""
	if v.CustomInstruction {
		custom = ", custom instruction"
	}
	out(cmd, "%s: %d/%d disciples%s\n", v.Name, v.Size, v.Limit, custom)
	return nil
}
