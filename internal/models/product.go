// Package models defines data structures shared by the catalog tools.
package models

import "time"

// Product represents a product row returned by the Admin GraphQL API.
type Product struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Handle    string    `json:"handle"`
	Vendor    string    `json:"vendor"`
	Status    string    `json:"status"`
}

// ProductPage holds one page of the paginated product listing.
type ProductPage struct {
	Products    []Product
	EndCursor   string
	HasNextPage bool
}

// UserError is a field-level error returned by an Admin API mutation.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}
