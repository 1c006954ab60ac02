package mapper_test

type Address struct {
	Line1 string
	Line2 string
}

type AddressDTO struct {
	Line1 string
	Line2 string
}

type Person struct {
	Name    string
	Age     int
	Address *Address
	Tags    []string
}

type PersonDTO struct {
	Name     string
	Age      string
	Nickname string
	Address  *AddressDTO
	Tags     []string
}

type Holder struct {
	Value *AddressDTO
}

type Bag struct {
	Value []string
}

type Lines struct {
	Value []AddressDTO
}

type Item struct {
	Name string
	Qty  int
}

type Order struct {
	ID    int
	Items []Item
}

type Node struct {
	Name string
	Next *Node
}

type NodeDTO struct {
	Name string
	Next *NodeDTO
}

type Customer struct {
	ID   int
	Name string
}

type CustomerDTO struct {
	ID   int
	Name string
}

type Ledger struct {
	Customers []*Customer
}

type LedgerDTO struct {
	Customers []*CustomerDTO
}

type Index struct {
	Lookup map[int]string
	Name   string
}

type Shape interface {
	Area() float64
}

type Circle struct {
	Radius float64
}

func (c *Circle) Area() float64 { return 3 * c.Radius * c.Radius }

type Square struct {
	Side float64
}

func (s *Square) Area() float64 { return s.Side * s.Side }

type Outer struct {
	Inner *Inner
}

type OuterDTO struct {
	Inner *InnerDTO
}

type Inner struct {
	Code string
}

type InnerDTO struct {
	Code string
}
