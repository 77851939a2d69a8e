package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/sect/internal/sectclient"
)

type globals struct {
	baseURL string
	timeout time.Duration
	asJSON  bool
}

func (g *globals) client() *sectclient.Client {
	return sectclient.New(g.baseURL, g.timeout)
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "sectctl",
		Short: "Manage sect disciple rosters",
		Long: `sectctl talks to a running sectd.

Open a profile first, then upload character screenshots; every image is
analysed once and added to the active roster.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.baseURL, "url", sectclient.DefaultBaseURL, "Base URL of the service")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 30*time.Second, "HTTP request timeout")
	root.PersistentFlags().BoolVar(&g.asJSON, "json", false, "Print raw JSON")

	root.AddCommand(
		newProfilesCmd(g),
		newOpenCmd(g),
		newCloseCmd(g),
		newLimitCmd(g),
		newInstructionCmd(g),
		newUploadCmd(g),
		newListCmd(g),
		newDeleteCmd(g),
		newClearCmd(g),
		newTeamCmd(g),
		newOverviewCmd(g),
		newExportCmd(g),
		newImportCmd(g),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func out(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
