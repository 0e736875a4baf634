package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// User is the blob stored in the session after login.
type User struct {
	ID         int64  `json:"id,omitempty"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return u.LastName
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Profile struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	Phone       string  `json:"phone"`
	DateOfBirth string  `json:"date_of_birth"`
	Gender      string  `json:"gender"`
	Address     Address `json:"address"`
	CustomerID  string  `json:"customer_id"`
	MemberSince string  `json:"member_since"`
	// APIStatus is "unavailable" when the profile was rebuilt from the session.
	APIStatus string `json:"api_status,omitempty"`
}

type Dashboard struct {
	OrdersCount    int               `json:"orders_count"`
	WishlistCount  int               `json:"wishlist_count"`
	ReviewsCount   int               `json:"reviews_count"`
	TotalSpent     decimal.Decimal   `json:"total_spent"`
	RecentActivity []json.RawMessage `json:"recent_activity"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user"`
}

type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type SignupResult struct {
	CustomerID string `json:"customer_id"`
	User       *User  `json:"user,omitempty"`
}
