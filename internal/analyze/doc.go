// Package analyze scans Go packages for the types a mapper catalog needs.
//
// It uses golang.org/x/tools/go/packages with go/types to collect the
// exported structs and interfaces of each package and to find which
// structs implement which interfaces.
//
// Scanning is best-effort: a package with errors contributes whatever
// type-checked, and its errors are reported as diagnostics.
//
// Key types:
//   - TypeID: package import path + type name
//   - TypeInfo: struct or interface, with embeds and implementations
//   - Graph: scanned types and packages, usable as a name resolver
package analyze
