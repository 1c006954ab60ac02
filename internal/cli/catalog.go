package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"graph-mapper/internal/analyze"
	"graph-mapper/internal/gen"
)

type catalogOptions struct {
	output   string
	filename string
	funcName string
	dryRun   bool
	strict   bool
}

func newCatalogCmd(root *rootOptions) *cobra.Command {
	opts := &catalogOptions{}

	cmd := &cobra.Command{
		Use:   "catalog [packages]",
		Short: "Generate the type catalog of Go packages",
		Long: `Scan Go packages and write, for each package that declares structs, a
file listing its types for derived-type discovery.

Packages that fail to type-check are scanned best-effort: their errors are
reported and the types that did type-check are still listed.`,
		Example: `  # Catalog the package in the current directory
  mapperscan catalog

  # Catalog several packages under a custom function name
  mapperscan catalog ./store ./billing --func StoreTypes

  # Print instead of writing
  mapperscan catalog ./store --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}

			return runCatalog(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory (defaults to each package directory)")
	cmd.Flags().StringVar(&opts.filename, "filename", gen.DefaultFilename, "Name of the generated file")
	cmd.Flags().StringVar(&opts.funcName, "func", gen.DefaultFunc, "Name of the generated loader function")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print generated files instead of writing them")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when a package has errors")

	return cmd
}

func runCatalog(cmd *cobra.Command, root *rootOptions, opts *catalogOptions, patterns []string) error {
	generator, err := gen.NewGenerator(gen.GeneratorConfig{
		Filename: opts.filename,
		Func:     opts.funcName,
		DebugDir: opts.output,
	})
	if err != nil {
		return err
	}

	graph, err := analyze.NewAnalyzer(analyze.WithLogger(root.logger(cmd)), analyze.WithDir(root.dir)).
		LoadPackages(patterns...)
	if err != nil {
		return err
	}

	for _, w := range graph.Diagnostics.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	if opts.strict && len(graph.Diagnostics.Warnings) > 0 {
		return fmt.Errorf("%d packages have errors", len(graph.Diagnostics.Warnings))
	}

	files, err := generator.Generate(graph)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no struct types found")
		return nil
	}

	if opts.dryRun {
		for _, f := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "// %s/%s\n%s", f.Package, f.Filename, f.Content)
		}

		return nil
	}

	written, err := gen.WriteFiles(files, opts.output)
	if err != nil {
		return err
	}

	for _, path := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	}

	return nil
}
