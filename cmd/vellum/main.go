// vellum evaluates parsed Vellum documents: it compiles their ASTs to
// bytecode, runs the bytecode, and prints or stores the results.
//
// The parser is external; every input file is a CBOR-encoded source
// document (AST plus file identity).
//
// Usage:
//   vellum run main.cbor                 # evaluate and print the content
//   vellum compile main.cbor -o main.vlbc
//   vellum disasm main.cbor              # or a compiled .vlbc snapshot
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
