// Package store holds the order model of a small shop. Its type catalog is
// generated by mapperscan.
package store

//go:generate go run graph-mapper/cmd/mapperscan catalog .

import (
	"time"
)

// Product is an item available for sale. Prices are in cents.
type Product struct {
	ID          int64
	SKU         string
	Name        string
	Description string
	PriceCents  int64
	Inventory   int
	CreatedAt   time.Time
}

// Customer places orders.
type Customer struct {
	ID       int64
	Email    string
	FullName string
	Address  *Address
	Orders   []*Order
}

// Address is a postal address.
type Address struct {
	Street     string
	City       string
	PostalCode string
}

// Order is a purchase made by a customer.
type Order struct {
	ID        int64
	Customer  *Customer
	Status    OrderStatus
	Items     []OrderItem
	Payment   Payment
	OrderedAt time.Time
}

// OrderItem snapshots a product line at the time of purchase.
type OrderItem struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice int64
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Payment settles an order.
type Payment interface {
	AmountCents() int64
}

// Card is a card payment.
type Card struct {
	Number string
	Amount int64
}

func (c *Card) AmountCents() int64 { return c.Amount }

// GiftCard is a prepaid card payment.
type GiftCard struct {
	Card
	Balance int64
}

// Transfer is a bank transfer payment.
type Transfer struct {
	IBAN   string
	Amount int64
}

func (t *Transfer) AmountCents() int64 { return t.Amount }
