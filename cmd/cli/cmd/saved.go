// Package cmd - saved configuration commands
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pcbuild/adapters/cli"
	"pcbuild/adapters/storage"
	"pcbuild/core/build"
	"pcbuild/internal/app"
	"pcbuild/internal/config"
)

var (
	savedOwner  string
	savedFormat string
	savedLimit  int
)

// savedCmd manages saved configurations
var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage saved PC builds",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved builds, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App, out *cli.CLIAdapter) error {
			list, err := a.Stores.List(ctx, savedOwner, savedLimit)
			if err != nil {
				return err
			}
			return out.RenderSaved(list)
		})
	},
}

var savedShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Restore a saved build and report on it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App, out *cli.CLIAdapter) error {
			saved, err := a.Stores.Get(ctx, savedOwner, args[0])
			if err != nil {
				return err
			}
			session, err := build.Restore(ctx, saved, a.Catalog, build.WithEngine(a.Engine))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (saved %s)\n", saved.Name, saved.CreatedAt.Format("2006-01-02 15:04"))
			return out.Render(cli.NewReport(a.Engine, session.State().Selections))
		})
	},
}

var savedDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a saved build",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App, out *cli.CLIAdapter) error {
			if err := a.Stores.For(savedOwner).Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}

var savedCompareCmd = &cobra.Command{
	Use:   "compare OLD_ID NEW_ID",
	Short: "Compare the price and parts of two saved builds",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App, out *cli.CLIAdapter) error {
			result, err := storage.Compare(ctx, a.Stores.For(savedOwner), args[0], args[1])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Old total: $%s\n", result.OldTotal.StringFixed(2))
			fmt.Fprintf(w, "New total: $%s\n", result.NewTotal.StringFixed(2))
			fmt.Fprintf(w, "Delta:     $%s (%s%%)\n", result.Delta.StringFixed(2), result.DeltaPercent.StringFixed(1))
			for _, c := range result.Changed {
				fmt.Fprintf(w, "  ~ %s\n", c.Label())
			}
			return nil
		})
	},
}

func withApp(cmd *cobra.Command, fn func(context.Context, *app.App, *cli.CLIAdapter) error) error {
	format, err := cli.ParseFormat(savedFormat)
	if err != nil {
		return err
	}
	a, err := app.New(config.Get())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cli.NewCLIAdapter()
	out.SetOutput(cmd.OutOrStdout())
	out.SetFormat(format)
	return fn(cmd.Context(), a, out)
}

func init() {
	savedCmd.PersistentFlags().StringVar(&savedOwner, "owner", "", "account ID; empty means guest builds")
	savedCmd.PersistentFlags().StringVarP(&savedFormat, "format", "f", "cli", "output format (cli, json, markdown)")
	savedListCmd.Flags().IntVarP(&savedLimit, "limit", "n", 20, "maximum builds to list")

	savedCmd.AddCommand(savedListCmd)
	savedCmd.AddCommand(savedShowCmd)
	savedCmd.AddCommand(savedDeleteCmd)
	savedCmd.AddCommand(savedCompareCmd)
}
