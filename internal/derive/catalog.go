package derive

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"

	"graph-mapper/internal/diagnostic"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/member"
)

// Loader produces catalog types. A loader that cannot load everything
// returns the types it did load together with an error.
type Loader interface {
	Load() ([]reflect.Type, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func() ([]reflect.Type, error)

// Load implements Loader.
func (f LoaderFunc) Load() ([]reflect.Type, error) { return f() }

// Catalog is the set of named types derived-type discovery can see, grouped
// by package path.
type Catalog struct {
	mu       sync.RWMutex
	revision uint64
	byPkg    map[string][]reflect.Type
	known    map[reflect.Type]bool
	diags    diagnostic.Diagnostics
	logger   *slog.Logger
}

// NewCatalog creates an empty catalog. A nil logger discards records.
func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Catalog{
		byPkg:  make(map[string][]reflect.Type),
		known:  make(map[reflect.Type]bool),
		logger: logger,
	}
}

// Register adds named types. Pointer types register their element type;
// unnamed types are skipped.
func (c *Catalog) Register(types ...reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := false

	for _, t := range types {
		t = member.Deref(t)
		if t == nil || t.Name() == "" || c.known[t] {
			continue
		}

		c.known[t] = true
		c.byPkg[t.PkgPath()] = append(c.byPkg[t.PkgPath()], t)
		added = true
	}

	if added {
		c.revision++
	}
}

// AddLoader registers the types a loader produces. Load failures are not
// fatal: the loaded types are kept and the failure is recorded as a
// diagnostic. It returns the number of types the loader produced.
func (c *Catalog) AddLoader(name string, l Loader) int {
	types, err := l.Load()
	c.Register(types...)

	if err != nil {
		c.logger.Warn("partial type catalog", "loader", name, "loaded", len(types), "error", err)

		c.mu.Lock()
		c.diags.AddWarning(diagnostic.CodePartialCatalog,
			fmt.Sprintf("loaded %d types: %v", len(types), err), name, "")
		c.mu.Unlock()
	}

	return len(types)
}

// Revision changes whenever types are added.
func (c *Catalog) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.revision
}

// Diagnostics returns the recorded load problems.
func (c *Catalog) Diagnostics() diagnostic.Diagnostics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var d diagnostic.Diagnostics
	d.Merge(c.diags)

	return d
}

// Types returns the types of a package in registration order.
func (c *Catalog) Types(pkgPath string) []reflect.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.byPkg[pkgPath])
}

// Packages returns the package paths of the catalog, sorted.
func (c *Catalog) Packages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pkgs := make([]string, 0, len(c.byPkg))
	for p := range c.byPkg {
		pkgs = append(pkgs, p)
	}

	sort.Strings(pkgs)

	return pkgs
}

// Lookup resolves a type name in any form mapping.MatchTypeName accepts.
// Packages are searched in path order, so ambiguous short names resolve
// deterministically.
func (c *Catalog) Lookup(name string) (reflect.Type, bool) {
	if rest, ok := strings.CutPrefix(name, "*"); ok {
		t, found := c.Lookup(rest)
		if !found {
			return nil, false
		}

		return reflect.PointerTo(t), true
	}

	for _, pkg := range c.Packages() {
		for _, t := range c.Types(pkg) {
			if mapping.MatchTypeName(name, t) {
				return t, true
			}
		}
	}

	return nil, false
}
