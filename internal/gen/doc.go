// Package gen renders the type catalog of scanned packages as Go source.
//
// Generation uses text/template + go/format. Each package with struct
// types gets one file declaring a loader function:
//
//	func CatalogTypes() ([]reflect.Type, error)
//
// which a mapper registers with AddTypeLoader, so derived-type discovery
// sees the package's types without registering them by hand.
package gen
