package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crease/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the crease language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	opts := lsp.ServerOptions{}
	if manifest, found, err := loadProjectManifest("."); err == nil && found {
		if flavor, err := parseFlavor(manifest.Config.Fold.Flavor); err == nil {
			opts.Flavor = flavor
		}
		if kinds, err := collapseKinds(manifest.Config.Fold.Collapse); err == nil {
			opts.Collapsed = kinds
		}
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, opts)
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
