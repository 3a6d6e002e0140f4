package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

// CartService is the server-side cart the handlers drive.
type CartService interface {
	Cart(userID string) (types.Cart, error)
	AddToCart(userID, productID string, qty int) (types.Cart, error)
	ChangeQuantity(userID, productID string, direction enums.QuantityDirection) (types.Cart, error)
	RemoveFromCart(userID, cartID, productID string) error
}

func CartFetch(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		cart, err := svc.Cart(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartAddProduct handles POST .../quantity/{quantity} where quantity is a
// positive count.
func CartAddProduct(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		qty, err := strconv.Atoi(chi.URLParam(r, "quantity"))
		if err != nil || qty < 1 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive number"))
			return
		}
		cart, err := svc.AddToCart(middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "productId"), qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cart)
	}
}

// CartChangeQuantity handles PUT .../quantity/{quantity} where quantity is
// "increase" or "decrease".
func CartChangeQuantity(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		direction, err := enums.ParseQuantityDirection(chi.URLParam(r, "quantity"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "quantity must be increase or decrease"))
			return
		}
		cart, err := svc.ChangeQuantity(middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "productId"), direction)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

func CartRemoveProduct(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		productID := chi.URLParam(r, "productId")
		err := svc.RemoveFromCart(middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "cartId"), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Product "+productID+" removed from the cart")
	}
}
