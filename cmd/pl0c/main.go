package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pl0beta/pl0c/pkg/codegen"
	"github.com/pl0beta/pl0c/pkg/compiler"
	"github.com/pl0beta/pl0c/pkg/inspect"
	"github.com/pl0beta/pl0c/pkg/irtext"
	"github.com/pl0beta/pl0c/pkg/version"
	"github.com/spf13/cobra"
)

var (
	outputFile   string
	nregs        int
	backend      string
	debug        bool
	listBackends bool
	showVersion  bool
)

var rootCmd = &cobra.Command{
	Use:   "pl0c [ir file]",
	Short: "pl0c backend compiler " + version.Short(),
	Long: `pl0c takes an already-lowered IR program — the textual form pkg/irtext
reads, standing in for whatever front end produced it — and runs it through
control-flow construction, liveness analysis, linear-scan register
allocation, stack-frame layout, and ARM32 code emission.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.Full())
			return
		}
		if listBackends {
			fmt.Println("Available backends:")
			for _, b := range codegen.ListBackends() {
				fmt.Printf("  - %s\n", b)
			}
			return
		}
		if len(args) == 0 {
			cmd.Help()
			os.Exit(0)
		}
		if err := run(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <ir file>",
	Short: "compile an IR file and explore the result interactively",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := compileFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		inspect.New(result, os.Stdin, os.Stdout).Run()
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: input.s)")
	rootCmd.Flags().IntVar(&nregs, "nregs", compiler.DefaultNRegs, "number of physical registers available to the allocator")
	rootCmd.Flags().StringVarP(&backend, "backend", "b", "arm", "target backend")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	rootCmd.Flags().BoolVar(&listBackends, "list-backends", false, "list available backends")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version")

	inspectCmd.Flags().IntVar(&nregs, "nregs", compiler.DefaultNRegs, "number of physical registers available to the allocator")
	inspectCmd.Flags().StringVarP(&backend, "backend", "b", "arm", "target backend")
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// compileFile reads and compiles an irtext source file, the shared path
// between the default compile-to-assembly run and the inspect subcommand.
func compileFile(irFile string) (*compiler.Result, error) {
	if os.Getenv("DEBUG") != "" {
		fmt.Printf("DEBUG: reading IR from %s\n", irFile)
	}

	src, err := os.ReadFile(irFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", irFile, err)
	}

	root, err := irtext.Read(string(src))
	if err != nil {
		return nil, fmt.Errorf("parsing IR: %w", err)
	}

	cfg := compiler.Config{NRegs: nregs, Backend: backend, Debug: debug}
	return compiler.CompileLowered(root, cfg)
}

func run(irFile string) error {
	result, err := compileFile(irFile)
	if err != nil {
		return err
	}

	if outputFile == "" {
		base := filepath.Base(irFile)
		ext := filepath.Ext(base)
		outputFile = base[:len(base)-len(ext)] + ".s"
	}

	if err := os.WriteFile(outputFile, []byte(result.Assembly), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}

	if debug {
		fmt.Printf("wrote %s (%d spilled symbols, %d-register pool)\n", outputFile, result.Alloc.NumSpill, result.Alloc.NRegs)
	}
	return nil
}
