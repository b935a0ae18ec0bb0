package main

//
// List subcommand
//

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tlsinterop/tlsinterop/internal/catalogue"
	"github.com/tlsinterop/tlsinterop/internal/model"
)

// listSubcommand returns the list subcommand.
func listSubcommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Prints the scenario catalogue without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			specs, err := catalogue.Build(cfg)
			if err != nil {
				return err
			}
			return printCatalogue(cmd.OutOrStdout(), specs)
		},
	}
}

// printCatalogue writes one line per scenario.
func printCatalogue(w io.Writer, specs []model.ScenarioSpec) error {
	for _, spec := range specs {
		if _, err := fmt.Fprintf(w, "%-40s %-10s %-10s %d\n",
			spec.TestCase, spec.Server.Name, spec.Client.Name, spec.Port); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d scenarios\n", len(specs))
	return err
}
