package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vellum-lang/vellum/pkg/bytecode"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/library"
	"github.com/vellum-lang/vellum/pkg/world"
)

var compileOut string

var compileCmd = &cobra.Command{
	Use:   "compile FILE",
	Short: "Compile a document to a bytecode snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		out := compileOut
		if out == "" {
			out = strings.TrimSuffix(path, filepath.Ext(path)) + ".vlbc"
		}

		w, err := world.OpenDir(filepath.Dir(path), filepath.Base(path))
		if err != nil {
			reportError(err)
			return err
		}
		e := engine.New(w, cfg)
		cm, err := bytecode.Compile(e, library.New(), w.Main())
		reportWarnings(e)
		if err != nil {
			reportError(err)
			return err
		}

		data, err := bytecode.EncodeModule(cm)
		if err != nil {
			reportError(err)
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			reportError(err)
			return err
		}

		if c, err := openCache(); err == nil && c != nil {
			defer c.Close()
			if err := c.Put(cm); err != nil {
				e.Log.Errorf("caching %q: %s", path, err.Error())
			}
		}

		fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
		return nil
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileOut, "output", "o", "", "snapshot output path (default FILE with .vlbc)")
}
