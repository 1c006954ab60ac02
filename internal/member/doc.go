// Package member provides the canonical description of a single step into an
// object graph and of a rooted path through it.
//
// Key types:
//   - Member: one field, enumerable element or dictionary entry
//   - QualifiedMember: an immutable root-to-leaf chain of members
//   - Enumerator / Introspector: reflection-backed member discovery
//   - Dynamic / Expando: the key/value source category distinct from maps
package member
