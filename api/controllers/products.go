package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/devstore"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

const maxKeywordLen = 100

// CatalogService lists and adds products.
type CatalogService interface {
	Products(q devstore.ProductQuery) types.ProductPage
	AddProduct(p types.Product) (types.Product, error)
}

func PublicProducts(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sortBy := validators.QueryText(r, "sortBy", 0)
		if sortBy != "" && sortBy != "price" && sortBy != "productName" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sortBy must be price or productName"))
			return
		}
		result := svc.Products(devstore.ProductQuery{
			Page:      page,
			Keyword:   validators.QueryText(r, "keyword", maxKeywordLen),
			Category:  validators.QueryText(r, "category", maxKeywordLen),
			SortBy:    sortBy,
			SortOrder: validators.QueryText(r, "sortOrder", 0),
		})
		responses.WriteSuccess(w, result)
	}
}

type createProductRequest struct {
	ProductName string          `json:"productName" validate:"required,min=3"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity" validate:"min=0"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
}

// AdminCreateProduct adds a product to the catalog. The route requires the
// manage-products capability.
func AdminCreateProduct(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.AddProduct(types.Product{
			ProductName: body.ProductName,
			Description: body.Description,
			Category:    body.Category,
			Image:       body.Image,
			Quantity:    body.Quantity,
			Price:       body.Price,
			Discount:    body.Discount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}
