// Package bytecode is the heart of the engine: a compiler that lowers
// parsed documents to register-machine instructions and the virtual
// machine that runs them.
//
// Each function body compiles to a CompiledCode with a fixed register
// file of up to 128 slots. Instructions are fixed-size records whose
// operands are packed readables and writables indexing per-module
// tables, so the instruction stream itself holds no values. Nested
// blocks run as windows of the surrounding instruction buffer: an
// Enter, While, or Iter header covers the following N instructions,
// and the VM runs them as a child frame on the Go call stack sharing
// the function's register file. Only closure calls allocate a new
// machine.
//
// Control flow is cooperative: break, continue, and return set flags
// on the current frame, and Flow instructions placed after every
// scope header and flow statement decide whether execution stops,
// restarts the loop, or falls through. Block values accumulate in a
// joiner that also carries set and show rules, so styling wraps each
// completed run of siblings exactly once.
package bytecode
