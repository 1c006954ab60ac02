// Package warehouse holds the fulfilment view of orders, mapped from the
// store model.
package warehouse

//go:generate go run graph-mapper/cmd/mapperscan catalog .

import (
	"time"
)

// Address is a shipping address.
type Address struct {
	Street     string
	City       string
	PostalCode string
}

// Customer is the recipient of shipments.
type Customer struct {
	ID       int64
	Email    string
	FullName string
	Address  *Address
	Orders   []*Order
}

// Order is an order to pick and ship.
type Order struct {
	ID        int64
	Customer  *Customer
	Status    string
	Items     []Line
	Payment   Payment
	OrderedAt time.Time
}

// Line is a product line to pick.
type Line struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice int64
}

// Payment is how an order was settled.
type Payment interface {
	Method() string
}

// CardPayment was settled by card.
type CardPayment struct {
	Number string
	Amount int64
}

func (*CardPayment) Method() string { return "card" }

// BankPayment was settled by bank transfer.
type BankPayment struct {
	IBAN   string
	Amount int64
}

func (*BankPayment) Method() string { return "bank" }
