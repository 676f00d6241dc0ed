package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vellum-lang/vellum/pkg/bytecode"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/library"
	"github.com/vellum-lang/vellum/pkg/value"
	"github.com/vellum-lang/vellum/pkg/world"
)

var runText bool

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Evaluate a document and print its content",
	Long: `Evaluate a CBOR source document. Imports are resolved relative to the
document's directory. Prints the resulting content to stdout and any
warnings to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mod, err := evaluate(args[0])
		if err != nil {
			reportError(err)
			return err
		}
		if runText {
			fmt.Println(mod.Content.PlainText())
		} else {
			fmt.Println(mod.Content.Repr())
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runText, "text", false, "print plain text instead of the content tree")
}

// evaluate runs one document through the compile cache when one is
// configured, falling back to a fresh compile on a miss.
func evaluate(path string) (*value.Module, error) {
	w, err := world.OpenDir(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return nil, err
	}
	e := engine.New(w, cfg)
	lib := library.New()
	src := w.Main()

	c, err := openCache()
	if err != nil {
		return nil, err
	}

	var cm *bytecode.CompiledModule
	if c != nil {
		defer c.Close()
		if hit, err := c.Get(src.Fingerprint()); err == nil {
			cm = hit
		}
	}
	if cm == nil {
		cm, err = bytecode.Compile(e, lib, src)
		if err != nil {
			return nil, err
		}
		if c != nil {
			if err := c.Put(cm); err != nil {
				e.Log.Errorf("caching %q: %s", path, err.Error())
			}
		}
	}

	mod, err := bytecode.Run(e, lib, cm, moduleNameOf(path))
	reportWarnings(e)
	if err != nil {
		return nil, err
	}
	return mod, nil
}
