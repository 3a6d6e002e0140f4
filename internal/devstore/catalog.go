package devstore

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"github.com/angelmondragon/storefront/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// ProductQuery filters the public listing.
type ProductQuery struct {
	Page      pagination.Params
	Keyword   string
	Category  string
	SortBy    string
	SortOrder string
}

// AddProduct stores a product, deriving its special price from the
// percentage discount.
func (s *Store) AddProduct(p types.Product) (types.Product, error) {
	p.ProductName = strings.TrimSpace(p.ProductName)
	if p.ProductName == "" {
		return types.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if p.Price.IsNegative() || p.Discount.IsNegative() || p.Discount.GreaterThan(hundred) {
		return types.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "price and discount must be within range")
	}
	if p.Quantity < 0 {
		return types.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	p.SpecialPrice = p.Price.Sub(p.Price.Mul(p.Discount).Div(hundred)).Round(2)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProduct++
	p.ProductID = strconv.Itoa(s.nextProduct)
	s.products = append(s.products, p)
	return p, nil
}

// Products returns one page of the filtered, sorted catalog.
func (s *Store) Products(q ProductQuery) types.ProductPage {
	s.mu.Lock()
	matched := make([]types.Product, 0, len(s.products))
	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))
	category := strings.TrimSpace(q.Category)
	for _, p := range s.products {
		if keyword != "" && !strings.Contains(strings.ToLower(p.ProductName), keyword) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.Unlock()

	desc := strings.EqualFold(q.SortOrder, "desc")
	switch q.SortBy {
	case "price":
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return matched[i].SpecialPrice.GreaterThan(matched[j].SpecialPrice)
			}
			return matched[i].SpecialPrice.LessThan(matched[j].SpecialPrice)
		})
	case "productName":
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return matched[i].ProductName > matched[j].ProductName
			}
			return matched[i].ProductName < matched[j].ProductName
		})
	}

	params := q.Page.Normalize()
	total := len(matched)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Size
	if end > total {
		end = total
	}
	pages := pagination.TotalPages(total, params.Size)
	return types.ProductPage{
		Content:       matched[start:end],
		PageNumber:    params.Page,
		PageSize:      params.Size,
		TotalElements: total,
		TotalPages:    pages,
		LastPage:      params.Page >= pages-1,
	}
}

func (s *Store) productLocked(id string) (*types.Product, error) {
	for i := range s.products {
		if s.products[i].ProductID == id {
			return &s.products[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found with productId: "+id)
}
