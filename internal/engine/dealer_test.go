package engine_test

import (
	"fmt"
	"reflect"

	"graph-mapper/internal/engine"
	"graph-mapper/internal/plan"
)

func ExampleDealer() {
	var d engine.Dealer

	intToString := plan.Key{Source: reflect.TypeFor[int](), Target: reflect.TypeFor[string]()}
	d.Needs(intToString)
	key, ok := d.NextNeeds()
	fmt.Println("first:", key, ok)

	_, ok = d.NextNeeds()
	fmt.Println("empty:", ok)

	d.Needs(intToString)
	_, ok = d.NextNeeds()
	fmt.Println("no duplicates:", ok)

	d.Needs(
		plan.Key{Source: reflect.TypeFor[int](), Target: reflect.TypeFor[int]()},
		plan.Key{Source: reflect.TypeFor[string](), Target: reflect.TypeFor[string]()},
	)
	key, _ = d.NextNeeds()
	fmt.Println("in order:", key)

	key, _ = d.NextNeeds()
	fmt.Println("then:", key)

	_, ok = d.NextNeeds()
	fmt.Println("no more keys:", ok)

	// Output:
	// first: int -> string (CreateNew) true
	// empty: false
	// no duplicates: false
	// in order: int -> int (CreateNew)
	// then: string -> string (CreateNew)
	// no more keys: false
}
