package devstore

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

// SeedOptions names the account a fresh development API starts with.
type SeedOptions struct {
	Username string
	Email    string
	Password string
}

var seedProducts = []struct {
	name, category, description string
	stock                       int
	price, discount             string
}{
	{"Green Tea", "drinks", "Loose-leaf sencha, 100g", 40, "10.00", "20"},
	{"Black Tea", "drinks", "Assam breakfast blend, 250g", 25, "12.50", "0"},
	{"Ceramic Mug", "kitchen", "350ml stoneware mug", 12, "15.00", "10"},
	{"Tea Infuser", "kitchen", "Stainless steel mesh infuser", 3, "6.00", "0"},
	{"Gift Box", "gifts", "Three teas and a mug", 0, "39.00", "15"},
}

// Seed creates the seed account, a seller account and a small catalog.
func Seed(s *Store, opts SeedOptions) error {
	if _, err := s.AddUser(opts.Username, opts.Email, opts.Password, nil); err != nil {
		return fmt.Errorf("seed user %q: %w", opts.Username, err)
	}
	seller := "seller_" + opts.Username
	if _, err := s.AddUser(seller, "", opts.Password, []enums.Role{enums.RoleUser, enums.RoleSeller}); err != nil {
		return fmt.Errorf("seed user %q: %w", seller, err)
	}
	for _, p := range seedProducts {
		if _, err := s.AddProduct(types.Product{
			ProductName: p.name,
			Category:    p.category,
			Description: p.description,
			Quantity:    p.stock,
			Price:       decimal.RequireFromString(p.price),
			Discount:    decimal.RequireFromString(p.discount),
		}); err != nil {
			return fmt.Errorf("seed product %q: %w", p.name, err)
		}
	}
	return nil
}
