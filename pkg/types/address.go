package types

import "strings"

// Address is a saved shipping address owned by the server.
type Address struct {
	ID        string  `json:"addressId"`
	Street    string  `json:"street"`
	Apartment *string `json:"apartment,omitempty"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
	ZipCode   string  `json:"zipCode"`
}

// Fields returns the editable part of the address.
func (a Address) Fields() AddressFields {
	fields := AddressFields{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		Country: a.Country,
		ZipCode: a.ZipCode,
	}
	if a.Apartment != nil {
		fields.Apartment = *a.Apartment
	}
	return fields
}

// String renders a single-line label.
func (a Address) String() string {
	parts := []string{a.Street}
	if a.Apartment != nil && strings.TrimSpace(*a.Apartment) != "" {
		parts = append(parts, *a.Apartment)
	}
	parts = append(parts, a.City, a.State, a.ZipCode, a.Country)
	return strings.Join(parts, ", ")
}

// AddressFields is the create/update payload. The tags hold the pre-submission
// minimum lengths; the server remains the final authority.
type AddressFields struct {
	Street    string `json:"street" validate:"required,min=5"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city" validate:"required,min=4"`
	State     string `json:"state" validate:"required,min=2"`
	Country   string `json:"country" validate:"required,min=2"`
	ZipCode   string `json:"zipCode" validate:"required,min=5"`
}

// Trimmed strips surrounding whitespace from every field.
func (f AddressFields) Trimmed() AddressFields {
	return AddressFields{
		Street:    strings.TrimSpace(f.Street),
		Apartment: strings.TrimSpace(f.Apartment),
		City:      strings.TrimSpace(f.City),
		State:     strings.TrimSpace(f.State),
		Country:   strings.TrimSpace(f.Country),
		ZipCode:   strings.TrimSpace(f.ZipCode),
	}
}
