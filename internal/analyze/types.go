package analyze

import (
	"go/types"
	"reflect"
	"strings"

	"graph-mapper/internal/common"
	"graph-mapper/internal/diagnostic"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "graph-mapper/store"
	Name    string // e.g., "Order"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// QualifiedFrom returns the name as written in package pkgPath.
func (t TypeID) QualifiedFrom(pkgPath string) string {
	if t.PkgPath == pkgPath || t.PkgPath == "" {
		return t.Name
	}

	return common.PkgAlias(t.PkgPath) + "." + t.Name
}

// TypeKind represents the kind of a scanned type.
type TypeKind int

const (
	TypeKindUnknown   TypeKind = iota
	TypeKindStruct             // struct type
	TypeKindInterface          // interface type with methods
)

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	switch k {
	case TypeKindStruct:
		return "struct"
	case TypeKindInterface:
		return "interface"
	default:
		return common.UnknownStr
	}
}

// TypeInfo describes a scanned named type.
type TypeInfo struct {
	ID     TypeID     // Unique identifier
	Kind   TypeKind   // Struct or interface
	GoType types.Type // The original go/types.Type

	// Embeds lists the embedded struct types of a struct, in field order.
	Embeds []TypeID
	// Implements lists the scanned interfaces the pointer to a struct
	// implements.
	Implements []TypeID
	// Implementers lists the scanned structs whose pointer implements an
	// interface, most embedding first.
	Implementers []TypeID
}

// PackageInfo holds information about a scanned package.
type PackageInfo struct {
	Path   string   // Import path
	Name   string   // Package name
	Dir    string   // Directory of the package sources
	Types  []TypeID // Scanned types, sorted by name
	Errors []string // Load and type-check errors
}

// Structs returns the struct types of the package.
func (p *PackageInfo) Structs(g *Graph) []TypeID {
	return p.filter(g, TypeKindStruct)
}

// Interfaces returns the interface types of the package.
func (p *PackageInfo) Interfaces(g *Graph) []TypeID {
	return p.filter(g, TypeKindInterface)
}

func (p *PackageInfo) filter(g *Graph, kind TypeKind) []TypeID {
	var ids []TypeID

	for _, id := range p.Types {
		if g.Types[id].Kind == kind {
			ids = append(ids, id)
		}
	}

	return ids
}

// Graph holds all scanned types.
type Graph struct {
	// Types maps TypeID to TypeInfo for all scanned types.
	Types map[TypeID]*TypeInfo
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
	// Diagnostics records packages that did not load cleanly.
	Diagnostics diagnostic.Diagnostics
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		Types:    make(map[TypeID]*TypeInfo),
		Packages: make(map[string]*PackageInfo),
	}
}

// GetType returns the TypeInfo for a given TypeID, or nil if not found.
func (g *Graph) GetType(id TypeID) *TypeInfo {
	return g.Types[id]
}

// Lookup reports whether name refers to a scanned type. The graph has no
// runtime types, so the returned type is always nil; mapping document
// validation then checks names only.
func (g *Graph) Lookup(name string) (reflect.Type, bool) {
	name = strings.TrimPrefix(name, "*")

	for id := range g.Types {
		if matchName(name, id) {
			return nil, true
		}
	}

	return nil, false
}

// matchName accepts "Order", "store.Order" and "graph-mapper/store.Order".
func matchName(name string, id TypeID) bool {
	lastDot := strings.LastIndex(name, ".")
	if lastDot < 0 {
		return id.Name == name
	}

	pkg, typeName := name[:lastDot], name[lastDot+1:]
	if pkg == "" || typeName != id.Name {
		return false
	}

	return pkg == id.PkgPath ||
		strings.HasSuffix(id.PkgPath, "/"+pkg) ||
		common.PkgAlias(id.PkgPath) == pkg
}
