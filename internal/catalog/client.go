package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/pagination"
	"github.com/angelmondragon/storefront/pkg/types"
)

const routeProducts = "/public/products"

const (
	SortByPrice = "price"
	SortByName  = "productName"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Query filters a product listing. Zero values mean "no filter".
type Query struct {
	Page      int
	Size      int
	Keyword   string
	Category  string
	SortBy    string
	SortOrder string
}

// Values renders the query string the listing endpoint expects.
func (q Query) Values() (url.Values, error) {
	params := pagination.Params{Page: q.Page, Size: q.Size}.Normalize()
	values := url.Values{
		"pageNumber": {strconv.Itoa(params.Page)},
		"pageSize":   {strconv.Itoa(params.Size)},
	}

	sortBy := strings.TrimSpace(q.SortBy)
	switch sortBy {
	case "", SortByPrice, SortByName:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cannot sort by %q", sortBy))
	}
	if sortBy != "" {
		values.Set("sortBy", sortBy)
	}

	order := strings.ToLower(strings.TrimSpace(q.SortOrder))
	switch order {
	case "":
	case SortAsc, SortDesc:
		values.Set("sortOrder", order)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid sort order %q", q.SortOrder))
	}

	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		values.Set("keyword", kw)
	}
	if cat := strings.TrimSpace(q.Category); cat != "" {
		values.Set("category", cat)
	}
	return values, nil
}

type api interface {
	Get(ctx context.Context, p apiclient.Path, out any, opts ...apiclient.RequestOption) error
}

// Client browses the public product catalog.
type Client struct {
	api api
}

func NewClient(a api) (*Client, error) {
	if a == nil {
		return nil, fmt.Errorf("catalog api client required")
	}
	return &Client{api: a}, nil
}

func (c *Client) List(ctx context.Context, q Query) (types.ProductPage, error) {
	values, err := q.Values()
	if err != nil {
		return types.ProductPage{}, err
	}
	var page types.ProductPage
	if err := c.api.Get(ctx, apiclient.Route(routeProducts), &page, apiclient.WithQuery(values)); err != nil {
		return types.ProductPage{}, err
	}
	if page.Content == nil {
		page.Content = []types.Product{}
	}
	return page, nil
}
