package types

import "github.com/shopspring/decimal"

type Product struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	Image        string          `json:"image,omitempty"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Discount     decimal.Decimal `json:"discount"`
	SpecialPrice decimal.Decimal `json:"specialPrice"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Content       []Product `json:"content"`
	PageNumber    int       `json:"pageNumber"`
	PageSize      int       `json:"pageSize"`
	TotalElements int       `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
	LastPage      bool      `json:"lastPage"`
}
