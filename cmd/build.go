package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nilsandersson/tacc/internal/compiler"
	"github.com/nilsandersson/tacc/internal/compiler/ic"
)

// BuildCmd compiles a source file and writes its three artifacts
// (<name>.tac, <name>.opt.tac, <name>.asm) to --out. Exit codes follow
// spec.md §6: 0 success, 1 compilation error, 2 I/O error.
var BuildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Compile a source file into TAC, optimized TAC, and assembly",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		srcPath := args[0]
		content, err := os.ReadFile(srcPath)
		if err != nil {
			fmt.Printf("error reading file: %v\n", err)
			os.Exit(2)
		}

		success, artifacts := compiler.Compile(string(content), verbose)

		if verbose || !success {
			for _, d := range artifacts.Diagnostics {
				fmt.Println(d.String())
			}
		}
		if !success {
			fmt.Println("compilation failed")
			os.Exit(1)
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			fmt.Printf("error creating output directory: %v\n", err)
			os.Exit(2)
		}

		base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
		tacPath := filepath.Join(outDir, base+".tac")
		optPath := filepath.Join(outDir, base+".opt.tac")
		asmPath := filepath.Join(outDir, base+".asm")

		writes := []struct {
			path    string
			content string
		}{
			{tacPath, ic.Listing(artifacts.TAC)},
			{optPath, ic.Listing(artifacts.OptimizedTAC)},
			{asmPath, artifacts.Assembly},
		}
		for _, w := range writes {
			if err := os.WriteFile(w.path, []byte(w.content), 0o644); err != nil {
				fmt.Printf("error writing %s: %v\n", w.path, err)
				os.Exit(2)
			}
		}

		fmt.Printf("wrote %s, %s, %s\n", tacPath, optPath, asmPath)
	},
}
