package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "decompile":
		err = cmdDecompile(os.Args[2:])
	case "cfg":
		err = cmdCFG(os.Args[2:])
	case "disasm":
		err = cmdDisasm(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `restruct — ARM64 control flow structurizer

Usage:
  restruct decompile --bin <path> --out <dir>   Structurize functions into pseudocode
  restruct cfg       --bin <path> --out <dir>   Write per-function CFGs as DOT
  restruct disasm    --bin <path> --out <dir>   Per-function annotated disassembly

Flags:
  --bin <path>       ARM64 ELF binary, or raw code with --base
  --base <addr>      Load address for raw (non-ELF) input
  --out <dir>        Output directory
  --func <name>      Restrict to one function
  --limit <n>        Max functions to process (0 = all)
  --normalize        cfg: render the loop-normalized block graph
  --lattice          cfg: render through the lattice converter
  --vaddr <addr>     disasm: list a raw VA range instead of functions
  --count <n>        disasm: instructions to decode with --vaddr
  --max-steps <n>    Global decode cap
`)
}
