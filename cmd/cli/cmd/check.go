// Package cmd - check command
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pcbuild/adapters/cli"
	"pcbuild/core/build"
	"pcbuild/core/types"
	"pcbuild/internal/app"
	"pcbuild/internal/config"
	"pcbuild/internal/logging"
)

var (
	outputFormat string
	catalogPath  string
	saveName     string
	saveOwner    string
	picks        = make(map[types.Category]*string)
)

// checkCmd evaluates a build given as one component ID per category
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a PC build for compatibility and price",
	Long: `Select components by catalog ID and report compatibility issues,
the total price and the estimated power draw.

Examples:
  pcbuild check --cpu cpu-r7-7800x3d --motherboard mb-b650i
  pcbuild check --cpu cpu-i5-13400f --gpu gpu-rtx4080 --psu psu-450-bronze --format json
  pcbuild check --catalog ./parts.hcl --cpu my-cpu
  pcbuild check ... --save "Gaming rig" --owner alice`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	for _, c := range types.Categories() {
		picks[c] = checkCmd.Flags().String(string(c), "", c.Label()+" component ID")
	}
	checkCmd.Flags().StringVarP(&outputFormat, "format", "f", "cli", "output format (cli, json, markdown)")
	checkCmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file (HCL or JSON); default is the built-in catalog")
	checkCmd.Flags().StringVar(&saveName, "save", "", "save the build under this name (build must be complete)")
	checkCmd.Flags().StringVar(&saveOwner, "owner", "", "account that owns the saved build; empty saves as guest")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	cfg := config.Get()
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	session := build.NewSession(build.WithEngine(a.Engine), build.WithAutoAdvance(false))
	for _, c := range types.Categories() {
		id := strings.TrimSpace(*picks[c])
		if id == "" {
			continue
		}
		comp, err := a.Catalog.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("--%s: %w", c, err)
		}
		if _, err := session.Select(c, comp); err != nil {
			return fmt.Errorf("--%s: %w", c, err)
		}
	}

	state := session.State()
	logging.Debug("build evaluated",
		zap.Int("selected", len(state.Selections.Filled())),
		zap.Int("issues", len(state.Issues)),
	)

	adapter := cli.NewCLIAdapter()
	adapter.SetOutput(cmd.OutOrStdout())
	adapter.SetFormat(format)
	if err := adapter.Render(cli.NewReport(a.Engine, state.Selections)); err != nil {
		return err
	}

	if !cmd.Flags().Changed("save") {
		return nil
	}
	saved, err := session.Save(ctx, saveName, a.Stores.SaverFor(saveOwner))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved %q as %s\n", saved.Name, saved.ID)
	return nil
}
