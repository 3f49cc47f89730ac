package cmd

import (
	"github.com/spf13/cobra"
)

var (
	outDir  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tacc",
	Short: "tacc — a didactic compiler to three-address code and pseudo-assembly",
	Long: `tacc compiles a small imperative source language into three-address
code (TAC), optimizes it, and emits pseudo-assembly for a stack machine.

Commands:
  build  Compile a source file, writing .tac, .opt.tac, and .asm artifacts
  dump   Compile a source file and print every intermediate artifact
`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "out", "output directory for build artifacts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print diagnostics even when compilation succeeds")

	rootCmd.AddCommand(BuildCmd, DumpCmd)
}
