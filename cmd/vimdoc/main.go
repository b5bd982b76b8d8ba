// Command vimdoc generates vim help files from documented vimscript.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/google/vimdoc/internal/config"
	"github.com/google/vimdoc/internal/logging"
	"github.com/google/vimdoc/internal/module"
	"github.com/google/vimdoc/internal/output"
	"github.com/google/vimdoc/internal/vimdoc"
)

var (
	verbosity  int
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "vimdoc PLUGIN_DIR",
	Short: "Generate vim helpfiles from documented vimscript plugins",
	Long: `vimdoc compiles the "" comment blocks of a vim plugin into helpfiles.

It crawls the plugin directory, extracts documentation blocks and the
declarations below them, and writes one helpfile per module into the
plugin's doc directory, complete with tags, a table of contents, and
canonical usage lines.`,
	Version:       vimdoc.Version,
	Args:          cobra.ExactArgs(1),
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a vimdoc config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vimdoc: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	fsys := afero.NewOsFs()

	cfg, err := config.Load(fsys, configPath)
	if err != nil {
		return err
	}
	if verbosity > 0 {
		cfg.Verbosity = verbosity
	}
	logging.Setup(cfg.Verbosity)

	dir := args[0]
	if ok, dirErr := afero.DirExists(fsys, dir); dirErr != nil {
		return dirErr
	} else if !ok {
		return fmt.Errorf("no such plugin directory: %s", dir)
	}

	modules, err := module.Modules(fsys, dir)
	if err != nil {
		return err
	}

	docdir := filepath.Join(dir, cfg.DocDir)
	if err := fsys.MkdirAll(docdir, 0o755); err != nil {
		return fmt.Errorf("failed to create doc directory: %w", err)
	}
	for _, m := range modules {
		helpfile := output.NewHelpfile(m, fsys, docdir)
		if err := helpfile.Write(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(docdir, helpfile.Filename()))
	}
	return nil
}
