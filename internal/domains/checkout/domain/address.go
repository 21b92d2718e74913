package domain

import (
	"regexp"
	"strings"

	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

// AddressType distinguishes billing from shipping records.
type AddressType string

const (
	AddressBilling  AddressType = "billing"
	AddressShipping AddressType = "shipping"
)

// Address is immutable once persisted; a change yields a new Address or a match.
type Address struct {
	ID         string
	FirstName  string
	LastName   string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
	Type       AddressType
}

// Matches reports whether a and other are the same record for dedup purposes:
// first name, last name, line 1, city, postal code and country compared exactly.
func (a Address) Matches(other Address) bool {
	return a.FirstName == other.FirstName &&
		a.LastName == other.LastName &&
		a.Line1 == other.Line1 &&
		a.City == other.City &&
		a.PostalCode == other.PostalCode &&
		a.Country == other.Country
}

// Validate requires every mandatory field to be non-blank. prefix namespaces
// the field keys ("billing", "shipping").
func (a Address) Validate(prefix string) error {
	required := []struct{ name, value string }{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
		{"phone", a.Phone},
	}
	fields := map[string]string{}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			fields[qualify(prefix, f.name)] = "is required"
		}
	}
	if len(fields) == 0 {
		return nil
	}
	reason := "address is incomplete"
	if prefix != "" {
		reason = prefix + " address is incomplete"
	}
	return sharederrors.NewValidationError(reason, fields)
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// WellFormedID reports whether id looks like a remote identifier.
func WellFormedID(id string) bool {
	return identifierPattern.MatchString(id)
}
