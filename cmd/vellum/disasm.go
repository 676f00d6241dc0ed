package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vellum-lang/vellum/pkg/bytecode"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/library"
	"github.com/vellum-lang/vellum/pkg/world"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm FILE",
	Short: "Print the bytecode listing of a document or snapshot",
	Long: `Disassemble a compiled .vlbc snapshot, or compile a CBOR source
document in memory and disassemble the result.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			reportError(err)
			return err
		}

		cm, err := bytecode.DecodeModule(data)
		if err != nil {
			w, werr := world.OpenDir(filepath.Dir(path), filepath.Base(path))
			if werr != nil {
				reportError(werr)
				return werr
			}
			e := engine.New(w, cfg)
			cm, err = bytecode.Compile(e, library.New(), w.Main())
			reportWarnings(e)
			if err != nil {
				reportError(err)
				return err
			}
		}

		fmt.Print(bytecode.Disassemble(cm))
		return nil
	},
}
