// Package mapping holds the mapping configuration: custom data sources,
// member links, ignores, keyed-source naming, creation callbacks, factories,
// identifiers and derived-type conditions, together with the YAML document
// format that declares them.
//
// Rules are scoped by a Selector: the source category (typed, dictionaries or
// dynamics), the source and target types and the rule sets they apply to.
// Configuration scoped to dictionaries never applies to dynamic sources and
// vice versa.
//
// # Schema Overview
//
//	version: "1"
//	dictionaries:
//	  separator: "-"
//	  element_pattern: "[i]"
//	dynamics:
//	  separator: "_"
//	synonyms:
//	  Line1: [Street, AddressLine1]
//	mappings:
//	  - source: store.Order
//	    target: warehouse.Order
//	    rulesets: [CreateNew, Overwrite]
//	    121:
//	      Customer.Name: CustomerName
//	    ignore:
//	      - InternalNote
//	  - from: dictionaries
//	    target: warehouse.Order
//	    full_keys:
//	      Address.Line1: addr
//	    member_keys:
//	      Total: amount
//	    derived:
//	      - if_key: Discount
//	        type: warehouse.DiscountOrder
//
// # Path Syntax
//
// Member paths are relative to the mapping target:
//   - Simple members: "Name"
//   - Nested members: "Address.Street"
//   - Enumerable elements: "Items[]" or "Items[i]"
//   - Members of elements: "Items[].ProductID"
//
// Paths are stored in their canonical form, "Items[i].ProductID".
package mapping
