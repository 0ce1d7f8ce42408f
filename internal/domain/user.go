package domain

import "time"

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	Country    string    `json:"country,omitempty"`
	PostalCode string    `json:"postalCode,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ProfilePatch holds the profile fields a user may change. Empty fields are left untouched.
type ProfilePatch struct {
	FirstName  string
	LastName   string
	Phone      string
	Address    string
	City       string
	Country    string
	PostalCode string
}

// Apply copies the non-empty fields of p onto u.
func (p ProfilePatch) Apply(u *User) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Phone, p.Phone)
	set(&u.Address, p.Address)
	set(&u.City, p.City)
	set(&u.Country, p.Country)
	set(&u.PostalCode, p.PostalCode)
}

func (p ProfilePatch) Empty() bool {
	return p == ProfilePatch{}
}
