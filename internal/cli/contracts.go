package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ontic/internal/ir"
)

// ContractsOptions holds flags for the contracts command.
type ContractsOptions struct {
	*RootOptions
	Output string // output file path
}

// CatalogView is the compiled catalog as printed by the contracts command.
type CatalogView struct {
	Source    string            `json:"source"`
	SpecHash  string            `json:"spec_hash"`
	Contracts []ir.ContractSpec `json:"contracts"`
}

// CatalogStats holds summary statistics.
type CatalogStats struct {
	ContractCount  int
	MethodCount    int
	RecordCount    int
	PrincipleCount int
}

// NewContractsCommand creates the contracts command.
func NewContractsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ContractsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "Print the compiled contract catalog",
		Long: `Compile the CUE contracts and print every method the runtime accepts.

Without --contracts the built-in FundamentalTruth and OntologicalUnification
contracts are used.

Examples:
  ontic contracts
  ontic contracts --contracts ./contracts -o catalog.json
  ontic contracts --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContracts(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the catalog as JSON to this file")

	return cmd
}

func runContracts(opts *ContractsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	c, err := LoadContracts(opts.Config.ContractsDir)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Compiled %d contract(s) from %s", len(c.Specs), c.Name())

	view := CatalogView{Source: c.Name(), SpecHash: c.Hash, Contracts: c.Specs}

	if opts.Output != "" {
		if err := writeCatalogFile(view, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return formatter.Emit(view, func(w io.Writer) {
		printCatalog(w, view, opts.Output)
	})
}

// calculateStats computes summary statistics for a catalog.
func calculateStats(specs []ir.ContractSpec) CatalogStats {
	stats := CatalogStats{ContractCount: len(specs)}
	for _, spec := range specs {
		stats.MethodCount += len(spec.Methods)
		stats.RecordCount += len(spec.Records)
		stats.PrincipleCount += len(spec.Principles)
	}
	return stats
}

func printCatalog(w io.Writer, view CatalogView, outputFile string) {
	stats := calculateStats(view.Contracts)
	fmt.Fprintf(w, "✓ %d contract(s), %d method(s) from %s\n", stats.ContractCount, stats.MethodCount, view.Source)
	fmt.Fprintf(w, "  spec hash: %s\n\n", view.SpecHash)

	for _, spec := range view.Contracts {
		fmt.Fprintf(w, "%s\n", spec.Name)
		fmt.Fprintf(w, "  %s\n", spec.Purpose)
		for _, rec := range spec.Records {
			fmt.Fprintf(w, "  record %s{%s}\n", rec.Name, formatNamedArgs(rec.Fields))
		}
		for _, m := range spec.Methods {
			fmt.Fprintf(w, "  %s(%s) -> %s\n", m.Call, formatNamedArgs(m.Args), formatOutputs(m.Outputs))
		}
		n := len(spec.Principles)
		suffix := "principles"
		if n == 1 {
			suffix = "principle"
		}
		fmt.Fprintf(w, "  %d operational %s\n\n", n, suffix)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote catalog to %s\n", outputFile)
	}
}

func formatNamedArgs(args []ir.NamedArg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Name + " " + a.Type
	}
	return strings.Join(parts, ", ")
}

func formatOutputs(outputs []ir.OutputCase) string {
	parts := make([]string, len(outputs))
	for i, o := range outputs {
		names := make([]string, 0, len(o.Fields))
		for name := range o.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make([]string, len(names))
		for j, name := range names {
			fields[j] = name + " " + o.Fields[name]
		}
		parts[i] = fmt.Sprintf("%s{%s}", o.Case, strings.Join(fields, ", "))
	}
	return strings.Join(parts, " | ")
}

// writeCatalogFile writes the catalog as indented JSON.
func writeCatalogFile(view CatalogView, filename string) error {
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
