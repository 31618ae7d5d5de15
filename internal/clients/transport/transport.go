// Package transport defines the client API request and response shapes.
package transport

import "fieldops_backend/internal/clients/repository"

// CreateClientRequest is the payload for registering a client.
type CreateClientRequest struct {
	Name  string  `json:"name" binding:"required,min=2,max=200"`
	Email *string `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone" binding:"omitempty,max=32"`
	Notes *string `json:"notes" binding:"omitempty,max=2000"`
}

// UpdateClientRequest patches client fields; absent fields stay as is.
type UpdateClientRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=2,max=200"`
	Email *string `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone" binding:"omitempty,max=32"`
	Notes *string `json:"notes" binding:"omitempty,max=2000"`
}

// CreateLocationRequest attaches a service address to a client.
type CreateLocationRequest struct {
	Label     string   `json:"label" binding:"required,min=1,max=200"`
	Address   *string  `json:"address" binding:"omitempty,max=500"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude_opt"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude_opt"`
}

// ClientDetail is one client with its locations.
type ClientDetail struct {
	repository.Client
	Locations []repository.Location `json:"locations"`
}

// ClientListResponse is a paged list of clients.
type ClientListResponse struct {
	Items    []repository.Client `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}
