package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"guffcircle/internal/route"
	"guffcircle/internal/views"
)

func runRoutes(cmd *cobra.Command, _ []string) error {
	tbl, err := views.Table(cfg.BaseURL)
	if err != nil {
		return err
	}
	return printRoutes(cmd.OutOrStdout(), tbl)
}

func printRoutes(out io.Writer, tbl *route.Table[*views.View]) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tPATH\tTARGET\tPROPS\n")
	for _, r := range tbl.Routes() {
		name, target := r.Name, "component"
		if r.Redirect != "" {
			name, target = "-", "redirect "+r.Redirect
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", name, r.Path, target, r.Props)
	}
	return tw.Flush()
}
