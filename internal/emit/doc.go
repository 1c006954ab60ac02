// Package emit lowers plans to executors: closures over reflect values that
// run the plan operations against one source and target.
//
// Nested plans are linked on first execution of each call site and cached
// there per nested plan key.
package emit
