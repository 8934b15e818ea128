package types

import "strings"

// Address is the shipping address snapshot stored on each order.
type Address struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// IsZero reports whether no address fields were supplied.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Validate reports the first missing required field, or "".
func (a Address) Validate() string {
	checks := []struct {
		field string
		value string
	}{
		{"full_name", a.FullName},
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
	}
	for _, check := range checks {
		if strings.TrimSpace(check.value) == "" {
			return check.field
		}
	}
	return ""
}
