// Package derive discovers the concrete implementations of interface target
// types so plans can dispatch on the runtime shape of a source.
//
// Go has no runtime list of the types in a package, so candidates come from
// a Catalog: types registered directly, or produced by loaders such as the
// tables generated by the mapperscan command. A loader that fails part way
// still contributes the types it loaded.
//
// Structs are sealed: they resolve to no derived types. Interfaces resolve
// to every catalog struct of the interface's package whose pointer
// implements it, most derived first.
package derive
