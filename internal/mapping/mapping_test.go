package mapping

import "reflect"

type Payment interface{ Amount() float64 }

type Card struct {
	Number string
	Total  float64
}

func (c *Card) Amount() float64 { return c.Total }

type Address struct {
	Line1 string
	Line2 string
}

type Customer struct {
	Name     string
	Address  Address
	Payments []Payment
	Tags     []string
}

type CustomerDTO struct {
	FullName string
	Street   string
}

type testResolver map[string]reflect.Type

func (r testResolver) Lookup(name string) (reflect.Type, bool) {
	for _, t := range r {
		if MatchTypeName(name, t) {
			return t, true
		}
	}

	return nil, false
}

func newTestResolver() testResolver {
	return testResolver{
		"Customer":    reflect.TypeOf(Customer{}),
		"CustomerDTO": reflect.TypeOf(CustomerDTO{}),
		"Address":     reflect.TypeOf(Address{}),
		"Card":        reflect.TypeOf(Card{}),
		"Payment":     reflect.TypeOf((*Payment)(nil)).Elem(),
	}
}
