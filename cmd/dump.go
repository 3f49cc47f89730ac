package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nilsandersson/tacc/internal/compiler"
	"github.com/nilsandersson/tacc/internal/compiler/ic"
)

// DumpCmd compiles a source file and prints every intermediate artifact
// to stdout: tokens, AST, symbol table, TAC, optimized TAC, assembly.
// Pretty-printing here is a debugging convenience only — spec.md §1
// excludes symbol-table pretty-printers from the tested core.
var DumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Compile a source file and print its intermediate artifacts",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("error reading file: %v\n", err)
			os.Exit(2)
		}

		success, artifacts := compiler.Compile(string(content), true)

		fmt.Println("=== Tokens ===")
		for _, t := range artifacts.Tokens {
			fmt.Printf("%-16s %-12q line %d\n", t.Type, t.Lexeme, t.Line)
		}

		if artifacts.Program != nil {
			fmt.Println("\n=== AST ===")
			fmt.Println(artifacts.Program.String())
		}

		if artifacts.SymbolTable != nil {
			fmt.Println("=== Symbols (global scope) ===")
			for _, name := range artifacts.SymbolTable.Global().Names() {
				entry, _ := artifacts.SymbolTable.Lookup(name)
				fmt.Printf("%-12s %-10s line %d\n", entry.Name, entry.Kind, entry.Line)
			}
		}

		if len(artifacts.TAC) > 0 {
			fmt.Println("\n=== TAC ===")
			fmt.Print(ic.Listing(artifacts.TAC))
		}
		if len(artifacts.OptimizedTAC) > 0 {
			fmt.Println("\n=== Optimized TAC ===")
			fmt.Print(ic.Listing(artifacts.OptimizedTAC))
		}
		if artifacts.Assembly != "" {
			fmt.Println("=== Assembly ===")
			fmt.Print(artifacts.Assembly)
		}

		fmt.Println("\n=== Diagnostics ===")
		for _, d := range artifacts.Diagnostics {
			fmt.Println(d.String())
		}

		if !success {
			os.Exit(1)
		}
	},
}
