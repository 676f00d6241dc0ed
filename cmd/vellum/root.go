package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/vellum-lang/vellum/config"
	"github.com/vellum-lang/vellum/pkg/cache"
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/engine"

	_ "github.com/tliron/commonlog/simple"
)

var (
	configPath string
	verbose    int
	cachePath  string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:           "vellum",
	Short:         "Compile and evaluate parsed Vellum documents",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
		} else {
			cfg = config.Default()
		}
		if cmd.Flags().Changed("cache") {
			cfg.CachePath = cachePath
		}
		if verbose > 0 {
			cfg.LogLevel = verbose
		}
		commonlog.Configure(cfg.LogLevel, nil)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "sqlite module cache (overrides the config file)")

	rootCmd.AddCommand(runCmd, compileCmd, disasmCmd)
}

// openCache opens the configured module cache, or returns nil when
// caching is disabled.
func openCache() (*cache.Cache, error) {
	if cfg.CachePath == "" {
		return nil, nil
	}
	return cache.Open(cfg.CachePath)
}

// moduleNameOf derives a module name from a document path.
func moduleNameOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// reportWarnings prints collected warnings to stderr.
func reportWarnings(e *engine.Engine) {
	for _, w := range e.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
		for _, h := range w.Hints {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", h)
		}
	}
}

// reportError prints a diagnostic (or plain error) to stderr.
func reportError(err error) {
	var list diag.List
	switch e := err.(type) {
	case diag.List:
		list = e
	case *diag.Diagnostic:
		list = diag.List{e}
	default:
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return
	}
	for _, d := range list {
		fmt.Fprintln(os.Stderr, d.Error())
	}
}
