// Package store holds sample Go models for the Go package extractor.
package store

import (
	"time"
)

// Timestamps is embedded by models that track creation and update times.
type Timestamps struct {
	CreatedAt time.Time  `json:"created_at" forge:"readonly"`
	UpdatedAt *time.Time `json:"updated_at" forge:"readonly"`
}

// Product represents an individual item available for sale.
type Product struct {
	ID          int64   `json:"id"`
	SKU         string  `json:"sku" forge:"maxlen:32"`
	Name        string  `json:"name" help:"Display name"`
	Description *string `json:"description,omitempty"`
	PriceCents  int64   `json:"price_cents"`
	Inventory   int     `json:"inventory_count" default:"0"`
	Active      bool    `json:"active" default:"true"`
	Timestamps
}

// Customer represents the user placing orders.
type Customer struct {
	ID       int64   `json:"id" forge:"pk"`
	Email    string  `json:"email" forge:"format:email"`
	FullName string  `json:"full_name"`
	Address  *string `json:"address"`
	IsActive bool    `json:"is_active" default:"true"`
}

// Order represents a transaction made by a customer.
type Order struct {
	ID         int64       `json:"id" forge:"pk"`
	CustomerID int64       `json:"customer_id" forge:"fk:Customer"`
	Status     OrderStatus `json:"status" forge:"enum:PENDING|PAID|SHIPPED|CANCELLED" default:"PENDING"`
	TotalCents int64       `json:"total_cents"`
	Products   []int64     `json:"products" forge:"m2m:Product"`
	OrderedAt  time.Time   `json:"ordered_at"`
	internal   string
}

// OrderItem snapshots the price of a product at the time of purchase.
// It has no primary key and cannot be exposed as a feature.
type OrderItem struct {
	ProductID int64  `json:"product_id" forge:"fk:Product"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Note      string `json:"-"`
}

// Settings carries free-form attributes no schema layer can express.
type Settings struct {
	ID    int64             `json:"id"`
	Attrs map[string]string `json:"attrs"`
}

// OrderStatus is a custom type for type-safe status handling.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)
