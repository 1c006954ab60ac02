package analyze

import (
	"fmt"
	"go/types"
	"log/slog"
	"path/filepath"
	"sort"

	"golang.org/x/tools/go/packages"

	"graph-mapper/internal/diagnostic"
)

// LoadMode specifies what information to load from packages. Types are
// checked from syntax so that packages with errors still yield a scope.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// Analyzer loads Go packages and collects their catalog types.
type Analyzer struct {
	graph  *Graph
	logger *slog.Logger
	dir    string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger of package load problems.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// WithDir sets the directory package patterns are resolved in.
func WithDir(dir string) Option {
	return func(a *Analyzer) { a.dir = dir }
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		graph:  NewGraph(),
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// LoadPackages loads the specified packages and adds their types to the
// graph. Patterns are standard Go package patterns (e.g., "./store",
// "graph-mapper/store"). Packages with errors are kept with the types that
// type-checked; only a failure to run the loader at all is returned.
func (a *Analyzer) LoadPackages(patterns ...string) (*Graph, error) {
	cfg := &packages.Config{
		Mode: LoadMode,
		Dir:  a.dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	for _, pkg := range pkgs {
		a.processPackage(pkg)
	}

	a.linkImplementations()

	return a.graph, nil
}

// Graph returns the current type graph.
func (a *Analyzer) Graph() *Graph {
	return a.graph
}

// processPackage extracts types from a loaded package.
func (a *Analyzer) processPackage(pkg *packages.Package) {
	pkgInfo := &PackageInfo{
		Path: pkg.PkgPath,
		Name: pkg.Name,
	}

	if len(pkg.GoFiles) > 0 {
		pkgInfo.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	for _, e := range pkg.Errors {
		pkgInfo.Errors = append(pkgInfo.Errors, e.Error())
	}

	if len(pkgInfo.Errors) > 0 {
		a.logger.Warn("package loaded with errors", "package", pkg.PkgPath, "errors", len(pkgInfo.Errors))
		a.graph.Diagnostics.AddWarning(diagnostic.CodePartialCatalog,
			fmt.Sprintf("%d errors, first: %s", len(pkgInfo.Errors), pkgInfo.Errors[0]), pkg.PkgPath, "")
	}

	a.graph.Packages[pkg.PkgPath] = pkgInfo

	if pkg.Types == nil {
		return
	}

	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		typeName, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !typeName.Exported() || typeName.IsAlias() {
			continue
		}

		named, ok := typeName.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 {
			continue
		}

		info := a.analyzeNamedType(named)
		if info == nil {
			continue
		}

		a.graph.Types[info.ID] = info
		pkgInfo.Types = append(pkgInfo.Types, info.ID)
	}
}

// analyzeNamedType returns the TypeInfo of a struct or a non-empty
// interface, nil for anything else.
func (a *Analyzer) analyzeNamedType(named *types.Named) *TypeInfo {
	obj := named.Obj()
	info := &TypeInfo{
		ID:     TypeID{PkgPath: obj.Pkg().Path(), Name: obj.Name()},
		GoType: named,
	}

	switch ut := named.Underlying().(type) {
	case *types.Struct:
		info.Kind = TypeKindStruct

		for i := range ut.NumFields() {
			field := ut.Field(i)
			if !field.Embedded() {
				continue
			}

			if embedded, ok := types.Unalias(field.Type()).(*types.Named); ok && embedded.Obj().Pkg() != nil {
				info.Embeds = append(info.Embeds, TypeID{PkgPath: embedded.Obj().Pkg().Path(), Name: embedded.Obj().Name()})
			}
		}

	case *types.Interface:
		if ut.NumMethods() == 0 {
			return nil
		}

		info.Kind = TypeKindInterface

	default:
		return nil
	}

	return info
}

// linkImplementations records which scanned structs implement which
// scanned interfaces.
func (a *Analyzer) linkImplementations() {
	var structs, ifaces []*TypeInfo

	for _, info := range a.graph.Types {
		info.Implements, info.Implementers = nil, nil

		switch info.Kind {
		case TypeKindStruct:
			structs = append(structs, info)
		case TypeKindInterface:
			ifaces = append(ifaces, info)
		}
	}

	sortByID(structs)
	sortByID(ifaces)

	for _, iface := range ifaces {
		it, ok := iface.GoType.Underlying().(*types.Interface)
		if !ok {
			continue
		}

		for _, st := range structs {
			if !types.Implements(types.NewPointer(st.GoType), it) {
				continue
			}

			st.Implements = append(st.Implements, iface.ID)
			iface.Implementers = append(iface.Implementers, st.ID)
		}

		sort.SliceStable(iface.Implementers, func(i, j int) bool {
			return a.depth(iface.Implementers[i]) > a.depth(iface.Implementers[j])
		})
	}
}

// depth is the longest embedding chain below a struct.
func (a *Analyzer) depth(id TypeID) int {
	return a.depthSeen(id, map[TypeID]bool{})
}

func (a *Analyzer) depthSeen(id TypeID, seen map[TypeID]bool) int {
	info := a.graph.Types[id]
	if info == nil || seen[id] {
		return 0
	}

	seen[id] = true
	defer delete(seen, id)

	deepest := 0

	for _, e := range info.Embeds {
		deepest = max(deepest, 1+a.depthSeen(e, seen))
	}

	return deepest
}

func sortByID(infos []*TypeInfo) {
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID.String() < infos[j].ID.String()
	})
}
