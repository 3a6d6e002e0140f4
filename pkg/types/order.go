package types

import "github.com/shopspring/decimal"

// OrderRequest is the body of the order-creation call.
type OrderRequest struct {
	AddressID         string `json:"addressId"`
	PaymentMethod     string `json:"paymentMethod"`
	PGName            string `json:"pgName"`
	PGPaymentID       string `json:"pgPaymentId,omitempty"`
	PGStatus          string `json:"pgStatus"`
	PGResponseMessage string `json:"pgResponseMessage"`
}

// OrderItem is a line of a placed order, priced by the server.
type OrderItem struct {
	OrderItemID         string          `json:"orderItemId"`
	ProductID           string          `json:"productId"`
	ProductName         string          `json:"productName"`
	Quantity            int             `json:"quantity"`
	Discount            decimal.Decimal `json:"discount"`
	OrderedProductPrice decimal.Decimal `json:"orderedProductPrice"`
}

// Payment records what the order was paid with.
type Payment struct {
	PaymentID         string `json:"paymentId"`
	PaymentMethod     string `json:"paymentMethod"`
	PGName            string `json:"pgName,omitempty"`
	PGPaymentID       string `json:"pgPaymentId,omitempty"`
	PGStatus          string `json:"pgStatus,omitempty"`
	PGResponseMessage string `json:"pgResponseMessage,omitempty"`
}

// Order is the read-only projection of a placed order.
type Order struct {
	OrderID     string          `json:"orderId"`
	Email       string          `json:"email,omitempty"`
	OrderDate   string          `json:"orderDate"`
	Status      string          `json:"orderStatus"`
	Items       []OrderItem     `json:"orderItems"`
	Payment     Payment         `json:"payment"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	AddressID   string          `json:"addressId,omitempty"`
}
