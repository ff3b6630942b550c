// Package cmd - catalog commands
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pcbuild/adapters/cli"
	"pcbuild/core/catalog"
	"pcbuild/core/types"
	"pcbuild/internal/app"
	"pcbuild/internal/config"
)

var catalogFormat string

// catalogCmd groups catalog inspection commands
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the component catalog",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List components, optionally for one category",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(catalogFormat)
		if err != nil {
			return err
		}
		c, err := app.LoadCatalog(config.Get().Catalog.Path)
		if err != nil {
			return err
		}

		categories := c.Stats().Categories()
		if len(args) == 1 {
			category, ok := types.ParseCategory(args[0])
			if !ok {
				return fmt.Errorf("unknown category: %s", args[0])
			}
			categories = []types.Category{category}
		}

		var comps []types.Component
		for _, category := range categories {
			opts, err := c.FetchOptions(context.Background(), category)
			if err != nil {
				return err
			}
			comps = append(comps, opts...)
		}

		adapter := cli.NewCLIAdapter()
		adapter.SetOutput(cmd.OutOrStdout())
		adapter.SetFormat(format)
		return adapter.RenderComponents(comps)
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Parse and validate a catalog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.LoadFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		problems := c.Validate(catalog.DefaultValidationRules())
		for _, p := range problems {
			fmt.Fprintf(out, "✗ %v\n", p)
		}

		stats := c.Stats()
		for _, category := range stats.Missing {
			fmt.Fprintf(out, "! no components for %s\n", category.Label())
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d invalid components", len(problems))
		}
		fmt.Fprintf(out, "✓ %d components OK\n", stats.Total)
		return nil
	},
}

func init() {
	catalogListCmd.Flags().StringVarP(&catalogFormat, "format", "f", "cli", "output format (cli, json)")
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
}
