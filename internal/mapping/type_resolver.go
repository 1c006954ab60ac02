package mapping

import (
	"reflect"
	"strings"

	"graph-mapper/internal/common"
)

// TypeResolver finds types by the names used in mapping documents. A
// resolver that only knows type names reports them found with a nil type;
// validation then skips the member path checks.
type TypeResolver interface {
	Lookup(name string) (reflect.Type, bool)
}

// MatchTypeName reports whether name refers to t. Accepted forms:
//   - "Order" (name only)
//   - "store.Order" (package alias)
//   - "graph-mapper/store.Order" (full import path)
//
// A leading "*" matches the pointer type.
func MatchTypeName(name string, t reflect.Type) bool {
	if t == nil || name == "" {
		return false
	}

	if rest, ok := strings.CutPrefix(name, "*"); ok {
		return t.Kind() == reflect.Pointer && MatchTypeName(rest, t.Elem())
	}

	if t.Name() == "" {
		return false
	}

	lastDot := strings.LastIndex(name, ".")
	if lastDot < 0 {
		return t.Name() == name
	}

	pkgStr, typeName := name[:lastDot], name[lastDot+1:]
	if pkgStr == "" || typeName != t.Name() {
		return false
	}

	pkgPath := t.PkgPath()

	return pkgPath == pkgStr ||
		strings.HasSuffix(pkgPath, "/"+pkgStr) ||
		common.PkgAlias(pkgPath) == pkgStr
}

// TypeName returns the short "pkg.Type" form of t.
func TypeName(t reflect.Type) string {
	if t == nil {
		return common.UnknownStr
	}

	if t.Kind() == reflect.Pointer {
		return "*" + TypeName(t.Elem())
	}

	if alias := common.PkgAlias(t.PkgPath()); alias != "" && t.Name() != "" {
		return alias + "." + t.Name()
	}

	return t.String()
}
