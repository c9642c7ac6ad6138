package shared

import (
	"errors"
	"strings"
)

// Address is an immutable postal address attached to orders.
type Address struct {
	Line1      string
	Line2      string
	City       string
	Province   string
	PostalCode string
	Country    string
}

// NewAddress validates the required address fields.
func NewAddress(line1, city, province, postalCode, country string) (Address, error) {
	if strings.TrimSpace(line1) == "" {
		return Address{}, errors.New("shared: address line required")
	}
	if strings.TrimSpace(city) == "" {
		return Address{}, errors.New("shared: address city required")
	}
	if strings.TrimSpace(country) == "" {
		country = "ID"
	}
	return Address{Line1: line1, City: city, Province: province, PostalCode: postalCode, Country: country}, nil
}

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool {
	return a.Line1 == "" && a.City == ""
}

// String joins the populated address parts.
func (a Address) String() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.City, a.Province, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
