package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"graph-mapper/internal/analyze"
	"graph-mapper/internal/mapping"
)

type validateOptions struct {
	packages []string
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a YAML mapping document",
		Long: `Load a mapping document and check it: schema version, rule set names,
keyed scopes, element patterns and derived-type rules. Type names are
resolved against the scanned packages.

The document may be a local path or any URL the afs service supports.`,
		Example: `  mapperscan validate mapping.yaml --pkg ./store --pkg ./api`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringSliceVarP(&opts.packages, "pkg", "p", []string{"."}, "Packages declaring the mapped types")

	return cmd
}

func runValidate(cmd *cobra.Command, root *rootOptions, opts *validateOptions, location string) error {
	url, err := documentURL(location)
	if err != nil {
		return err
	}

	doc, _, err := mapping.NewLoader().Load(cmd.Context(), url)
	if err != nil {
		return err
	}

	graph, err := analyze.NewAnalyzer(analyze.WithLogger(root.logger(cmd)), analyze.WithDir(root.dir)).
		LoadPackages(opts.packages...)
	if err != nil {
		return err
	}

	diags := mapping.Validate(doc, graph)
	diags.Merge(graph.Diagnostics)

	for _, d := range diags.All() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", d.Severity, d)
	}

	if diags.HasErrors() {
		return fmt.Errorf("%s: %d errors", location, len(diags.Errors))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d mappings valid\n", location, len(doc.Mappings))

	return nil
}

// documentURL turns local paths into file URLs.
func documentURL(location string) (string, error) {
	if strings.Contains(location, "://") {
		return location, nil
	}

	abs, err := filepath.Abs(location)
	if err != nil {
		return "", err
	}

	return "file://" + filepath.ToSlash(abs), nil
}
