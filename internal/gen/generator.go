package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"sort"
	"strings"
	"text/template"

	"graph-mapper/internal/analyze"
)

// Default generator settings.
const (
	DefaultFilename = "catalog_gen.go"
	DefaultFunc     = "CatalogTypes"
)

// ErrInvalidFuncName reports a loader function name that is not an
// exported Go identifier.
var ErrInvalidFuncName = errors.New("invalid loader function name")

// GeneratorConfig holds configuration for catalog generation.
type GeneratorConfig struct {
	// Filename is the name of each generated file. Defaults to catalog_gen.go.
	Filename string
	// Func is the name of the generated loader function. Defaults to
	// CatalogTypes.
	Func string
	// DebugDir receives sources go/format rejected. Empty disables it.
	DebugDir string
}

// Generator renders catalog files.
type Generator struct {
	config GeneratorConfig
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config GeneratorConfig) (*Generator, error) {
	if config.Filename == "" {
		config.Filename = DefaultFilename
	}

	if config.Func == "" {
		config.Func = DefaultFunc
	}

	if !token.IsIdentifier(config.Func) || !token.IsExported(config.Func) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFuncName, config.Func)
	}

	return &Generator{config: config}, nil
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Package is the import path of the package the file belongs to.
	Package string
	// Dir is the directory of the package sources.
	Dir string
	// Filename is the name of the file (e.g., "catalog_gen.go").
	Filename string
	// Content is the formatted Go source code.
	Content []byte
}

// Generate renders one file per scanned package that declares structs.
// Files are ordered by package path.
func (g *Generator) Generate(graph *analyze.Graph) ([]GeneratedFile, error) {
	paths := make([]string, 0, len(graph.Packages))
	for p := range graph.Packages {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	var files []GeneratedFile

	for _, p := range paths {
		pkg := graph.Packages[p]
		if len(pkg.Structs(graph)) == 0 {
			continue
		}

		file, err := g.generatePackage(graph, pkg)
		if err != nil {
			return nil, fmt.Errorf("generating catalog of %s: %w", p, err)
		}

		files = append(files, *file)
	}

	return files, nil
}

// catalogData holds all data needed for the catalog template.
type catalogData struct {
	Package    string
	Func       string
	Structs    []string
	Interfaces []interfaceData
}

type interfaceData struct {
	Name         string
	Implementers []string
}

func (g *Generator) buildCatalogData(graph *analyze.Graph, pkg *analyze.PackageInfo) *catalogData {
	data := &catalogData{
		Package: pkg.Name,
		Func:    g.config.Func,
	}

	for _, id := range pkg.Structs(graph) {
		data.Structs = append(data.Structs, id.Name)
	}

	for _, id := range pkg.Interfaces(graph) {
		info := graph.GetType(id)
		if len(info.Implementers) == 0 {
			continue
		}

		iface := interfaceData{Name: id.Name}
		for _, impl := range info.Implementers {
			iface.Implementers = append(iface.Implementers, "*"+impl.QualifiedFrom(pkg.Path))
		}

		data.Interfaces = append(data.Interfaces, iface)
	}

	return data
}

func (g *Generator) generatePackage(graph *analyze.Graph, pkg *analyze.PackageInfo) (*GeneratedFile, error) {
	var buf bytes.Buffer
	if err := catalogTemplate.Execute(&buf, g.buildCatalogData(graph, pkg)); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	file := &GeneratedFile{
		Package:  pkg.Path,
		Dir:      pkg.Dir,
		Filename: g.config.Filename,
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		_ = writeDebugUnformatted(g.config.DebugDir, file.Filename, buf.Bytes())
		file.Content = buf.Bytes()

		return file, fmt.Errorf("formatting code: %w", err)
	}

	file.Content = formatted

	return file, nil
}

var catalogTemplate = template.Must(template.New("catalog").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(`// Code generated by mapperscan. DO NOT EDIT.

package {{.Package}}

import "reflect"

// {{.Func}} lists the catalog types of package {{.Package}}. Register it
// with Mapper.AddTypeLoader.
{{- range .Interfaces}}
//
// {{.Name}} is implemented by {{join .Implementers ", "}}.
{{- end}}
func {{.Func}}() ([]reflect.Type, error) {
	return []reflect.Type{
{{- range .Structs}}
		reflect.TypeFor[{{.}}](),
{{- end}}
	}, nil
}
`))
