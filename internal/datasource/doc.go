// Package datasource decides where the value of one target member comes
// from. The answer is a DataSource: a value expression of a small IR, an
// optional guard condition and the nullable accesses the value dereferences.
//
// Resolution follows a fixed precedence, first success wins:
//  1. a configured data source for the target member;
//  2. a keyed lookup when the source is a dictionary or a dynamic object;
//  3. a nested mapping for complex, enumerable and keyed targets;
//  4. a member of the typed source matched by name, flattened if needed;
//  5. the rule set fallback.
//
// The expressions are lowered to executable closures by package emit.
package datasource
