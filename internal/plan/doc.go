// Package plan assembles mapping plans: the ordered operations populating
// one target type from one source type under one rule set.
//
// Plan assembly:
//  1. Select the variant from the target category: complex (structs and
//     interfaces), dictionary (maps and Dynamic) or enumerable.
//  2. Complex targets: optional reuse of an already mapped instance,
//     creation callbacks, construction, registration, then either derived
//     type dispatch (interfaces) or one population per target member.
//  3. Dictionary targets: clone, entry mapping, element entries or member
//     entries, depending on the source category.
//  4. Enumerable targets: a loop whose source walk is chosen by a LoopKind.
//  5. Record diagnostics for members left unpopulated.
//
// Plans reference nested plans through datasource.MapCall expressions and
// never build them; the engine links them lazily.
package plan
