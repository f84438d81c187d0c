package models

import "github.com/google/uuid"

// user roles
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleStaff    = "staff"
	RoleDelivery = "delivery"
	RoleAdmin    = "admin"
)

// User is the partial identity view: enough to validate delivery
// assignment and resolve display names.
type User struct {
	ID       uuid.UUID
	Name     string
	Email    string
	Phone    string
	Role     string
	IsActive bool
}

// Actor is the authenticated principal attached to a request by the
// auth middleware. ShopID is set for vendor and staff roles.
type Actor struct {
	ID     uuid.UUID
	Role   string
	ShopID *uuid.UUID
}
